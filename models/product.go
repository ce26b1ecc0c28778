package models

// Product is a stock article. Quantities are adjusted by the backend only.
type Product struct {
	ID             int    `json:"id,omitempty"`
	Name           string `json:"name" validate:"required,max=200"`
	Category       string `json:"category,omitempty"`
	Description    string `json:"description,omitempty"`
	Quantity       int    `json:"quantity" validate:"gte=0"`
	PurchasePrice  Amount `json:"purchase_price" validate:"gte=0"`
	SalePrice      Amount `json:"sale_price" validate:"gte=0"`
	AlertThreshold int    `json:"alert_threshold" validate:"gte=0"`
	Photo          string `json:"photo,omitempty"`
	PhotoURL       string `json:"photo_url,omitempty"`
	TotalSold      int    `json:"total_sold,omitempty"`
}

// IsLowStock reports whether the product reached its alert threshold.
func (p Product) IsLowStock() bool {
	return p.Quantity <= p.AlertThreshold
}

// ProductPatch is a partial product update; nil fields are left untouched.
type ProductPatch struct {
	Name           *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Category       *string  `json:"category"`
	Description    *string  `json:"description"`
	Quantity       *int     `json:"quantity" validate:"omitempty,gte=0"`
	PurchasePrice  *float64 `json:"purchase_price" validate:"omitempty,gte=0"`
	SalePrice      *float64 `json:"sale_price" validate:"omitempty,gte=0"`
	AlertThreshold *int     `json:"alert_threshold" validate:"omitempty,gte=0"`
}

// ProductRef is the nested product the backend embeds in item rows.
type ProductRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
