package models

// Expense categories accepted by the backend.
var ExpenseCategories = []string{
	"FOURNITURE", "TRANSPORT", "SALAIRE", "LOYER",
	"UTILITAIRE", "MARKETING", "MAINTENANCE", "AUTRE",
}

type Expense struct {
	ID                 int    `json:"id,omitempty"`
	Title              string `json:"title" validate:"required,max=200"`
	Description        string `json:"description,omitempty"`
	Category           string `json:"category" validate:"required,oneof=FOURNITURE TRANSPORT SALAIRE LOYER UTILITAIRE MARKETING MAINTENANCE AUTRE"`
	Amount             Amount `json:"amount" validate:"gt=0"`
	Date               string `json:"date,omitempty"`
	Status             string `json:"status,omitempty" validate:"omitempty,oneof=PAYE NON_PAYE"`
	Supplier           string `json:"supplier,omitempty"`
	ReceiptNumber      string `json:"receipt_number,omitempty"`
	JustificationImage string `json:"justification_image,omitempty"`
}
