package models

const (
	InvoicePaid   = "PAYE"
	InvoiceUnpaid = "NON_PAYE"
)

// Invoice mirrors the backend invoice. Totals are computed server-side.
type Invoice struct {
	ID            int           `json:"id,omitempty"`
	InvoiceNumber string        `json:"invoice_number,omitempty"`
	Client        *int          `json:"client,omitempty"`
	ClientName    string        `json:"client_name" validate:"required"`
	Company       string        `json:"company,omitempty"`
	Date          string        `json:"date,omitempty"`
	Status        string        `json:"status,omitempty" validate:"omitempty,oneof=PAYE NON_PAYE"`
	IsProforma    bool          `json:"is_proforma"`
	IsCancelled   bool          `json:"is_cancelled"`
	TotalHT       Amount        `json:"total_ht,omitempty"`
	TotalTTC      Amount        `json:"total_ttc,omitempty"`
	AmountPaid    Amount        `json:"amount_paid,omitempty"`
	Items         []InvoiceItem `json:"items,omitempty" validate:"dive"`
	InvoiceItems  []InvoiceItem `json:"invoice_items,omitempty"`
}

// InvoiceItem is one invoice line. Subtotal comes back from the server.
type InvoiceItem struct {
	ID            int         `json:"id,omitempty"`
	Product       int         `json:"product" validate:"required,gt=0"`
	ProductName   string      `json:"product_name,omitempty"`
	ProductDetail *ProductRef `json:"product_detail,omitempty"`
	Quantity      int         `json:"quantity" validate:"gt=0"`
	UnitPrice     Amount      `json:"unit_price" validate:"gte=0"`
	Subtotal      Amount      `json:"subtotal,omitempty"`
}

// DisplayName picks the best product label available on the line.
func (it InvoiceItem) DisplayName() string {
	if it.ProductName != "" {
		return it.ProductName
	}
	if it.ProductDetail != nil {
		return it.ProductDetail.Name
	}
	return ""
}

// Balance is what remains to be paid.
func (inv Invoice) Balance() float64 {
	rest := float64(inv.TotalTTC) - float64(inv.AmountPaid)
	if rest < 0 {
		return 0
	}
	return rest
}
