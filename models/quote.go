package models

const (
	QuoteDraft     = "BROUILLON"
	QuoteSent      = "ENVOYE"
	QuoteAccepted  = "ACCEPTE"
	QuoteRefused   = "REFUSE"
	QuoteExpired   = "EXPIRE"
	QuoteConverted = "CONVERTI"
)

type Quote struct {
	ID               int         `json:"id,omitempty"`
	QuoteNumber      string      `json:"quote_number,omitempty"`
	Client           *int        `json:"client,omitempty"`
	ClientName       string      `json:"client_name" validate:"required"`
	ClientEmail      string      `json:"client_email,omitempty" validate:"omitempty,email"`
	ClientPhone      string      `json:"client_phone,omitempty"`
	ClientAddress    string      `json:"client_address,omitempty"`
	Company          string      `json:"company,omitempty" validate:"omitempty,oneof=NETSYSTEME SSE"`
	Date             string      `json:"date,omitempty"`
	ExpirationDate   string      `json:"expiration_date,omitempty"`
	Status           string      `json:"status,omitempty" validate:"omitempty,oneof=BROUILLON ENVOYE ACCEPTE REFUSE EXPIRE CONVERTI"`
	TotalTTC         Amount      `json:"total_ttc,omitempty"`
	ConvertedInvoice *int        `json:"converted_invoice,omitempty"`
	Items            []QuoteItem `json:"items,omitempty" validate:"dive"`
	QuoteItems       []QuoteItem `json:"quote_items,omitempty"`
}

// Lines returns the quote lines whichever field the backend filled.
func (q Quote) Lines() []QuoteItem {
	if len(q.QuoteItems) > 0 {
		return q.QuoteItems
	}
	return q.Items
}

type QuoteItem struct {
	ID          int    `json:"id,omitempty"`
	Product     int    `json:"product" validate:"required,gt=0"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    int    `json:"quantity" validate:"gt=0"`
	UnitPrice   Amount `json:"unit_price" validate:"gte=0"`
}

// QuoteConversion is returned by convert_to_invoice on a quote.
type QuoteConversion struct {
	Message string  `json:"message"`
	Invoice Invoice `json:"invoice"`
}
