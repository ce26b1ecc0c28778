package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Payment method codes accepted by the installations endpoint.
const (
	PaymentCash          = "ESPECE"
	PaymentOneTranche    = "1_TRANCHE"
	PaymentTwoTranches   = "2_TRANCHES"
	PaymentThreeTranches = "3_TRANCHES"
	PaymentFourTranches  = "4_TRANCHES"
)

var tranchesByMethod = map[string]int{
	PaymentOneTranche:    1,
	PaymentTwoTranches:   2,
	PaymentThreeTranches: 3,
	PaymentFourTranches:  4,
}

// TranchesForMethod returns the number of installments of a payment method.
// Cash and unknown codes have none.
func TranchesForMethod(method string) int {
	return tranchesByMethod[strings.TrimSpace(method)]
}

// TranchePercentages splits 100% over n installments: half up front, a quarter on the
// second due date and the remaining quarter spread evenly over the rest.
func TranchePercentages(n int) []float64 {
	switch {
	case n < 1:
		return []float64{}
	case n == 1:
		return []float64{100}
	case n == 2:
		return []float64{50, 50}
	case n == 3:
		return []float64{50, 25, 25}
	case n == 4:
		return []float64{50, 25, 12.5, 12.5}
	}
	rest := 25 / float64(n-2)
	out := make([]float64, 0, n)
	out = append(out, 50, 25)
	for i := 0; i < n-2; i++ {
		out = append(out, rest)
	}
	return out
}

// TrancheAmounts applies TranchePercentages to total, each amount rounded to cents.
func TrancheAmounts(total float64, n int) []decimal.Decimal {
	pcts := TranchePercentages(n)
	out := make([]decimal.Decimal, len(pcts))
	base := decimal.NewFromFloat(total)
	hundred := decimal.NewFromInt(100)
	for i, pct := range pcts {
		out[i] = base.Mul(decimal.NewFromFloat(pct)).Div(hundred).Round(2)
	}
	return out
}

// AdvanceAmount is the first installment due for a payment method, or zero for cash.
func AdvanceAmount(total float64, method string) decimal.Decimal {
	amounts := TrancheAmounts(total, TranchesForMethod(method))
	if len(amounts) == 0 {
		return decimal.Zero
	}
	return amounts[0]
}
