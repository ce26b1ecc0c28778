package utils

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Amounts are displayed the way the admin has always shown them: "1.690.000".
var currencyPrinter = message.NewPrinter(language.German)

// Round2 rounds x to 2 decimal places (half away from zero).
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// ToFloat converts the loosely typed amounts found in API payloads (numbers, numeric
// strings, decimals) into a float64. Anything non-numeric is 0.
func ToFloat(v any) float64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		f, _ = n.Float64()
	case decimal.Decimal:
		f = n.InexactFloat64()
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	case interface{ Float64() float64 }:
		f = n.Float64()
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// FormatCurrency rounds v to an integer and groups thousands with ".".
// No currency symbol is added; callers append "FCFA" themselves.
func FormatCurrency(v any) string {
	rounded := math.Round(ToFloat(v))
	if rounded > -maxExactInt && rounded < maxExactInt {
		return currencyPrinter.Sprintf("%d", int64(rounded))
	}
	return groupThousands(decimal.NewFromFloat(rounded).StringFixed(0))
}

// Beyond this int64 conversion is no longer safe.
const maxExactInt = 1 << 62

func groupThousands(digits string) string {
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	var b strings.Builder
	b.WriteString(sign)
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return b.String()
}
