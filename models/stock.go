package models

const (
	MovementIn  = "ENTREE"
	MovementOut = "SORTIE"
)

// StockMovement is append-only from the admin's point of view.
type StockMovement struct {
	ID           int    `json:"id,omitempty"`
	Product      int    `json:"product" validate:"required,gt=0"`
	ProductName  string `json:"product_name,omitempty"`
	MovementType string `json:"movement_type" validate:"required,oneof=ENTREE SORTIE"`
	Quantity     int    `json:"quantity" validate:"gt=0"`
	Date         string `json:"date,omitempty"`
	Comment      string `json:"comment,omitempty"`
}
