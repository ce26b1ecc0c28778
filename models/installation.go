package models

const (
	InstallationPlanned   = "PLANIFIEE"
	InstallationRunning   = "EN_COURS"
	InstallationDone      = "TERMINEE"
	InstallationCancelled = "ANNULEE"
)

type Installation struct {
	ID                      int                   `json:"id,omitempty"`
	InstallationNumber      string                `json:"installation_number,omitempty"`
	Title                   string                `json:"title,omitempty"`
	Client                  *int                  `json:"client,omitempty"`
	ClientName              string                `json:"client_name" validate:"required"`
	ClientPhone             string                `json:"client_phone,omitempty"`
	ClientAddress           string                `json:"client_address,omitempty"`
	Technician              *int                  `json:"technician,omitempty"`
	TechnicianName          string                `json:"technician_name,omitempty"`
	Technicians             []int                 `json:"technicians,omitempty"`
	CommercialAgent         *int                  `json:"commercial_agent,omitempty"`
	InstallationDate        string                `json:"installation_date,omitempty"`
	Status                  string                `json:"status,omitempty" validate:"omitempty,oneof=PLANIFIEE EN_COURS TERMINEE ANNULEE"`
	PaymentMethod           string                `json:"payment_method,omitempty" validate:"omitempty,oneof=ESPECE 1_TRANCHE 2_TRANCHES 3_TRANCHES 4_TRANCHES"`
	FirstInstallmentDueDate string                `json:"first_installment_due_date,omitempty"`
	TotalAmount             Amount                `json:"total_amount,omitempty"`
	AdvanceAmount           Amount                `json:"advance_amount,omitempty"`
	RemainingAmount         Amount                `json:"remaining_amount,omitempty"`
	Invoice                 *int                  `json:"invoice,omitempty"`
	ContractFile            string                `json:"contract_file,omitempty"`
	ContractFileURL         string                `json:"contract_file_url,omitempty"`
	Products                []InstallationProduct `json:"products,omitempty" validate:"dive"`
	ProductsUsed            []InstallationProduct `json:"products_used,omitempty"`
}

type InstallationProduct struct {
	ID           int    `json:"id,omitempty"`
	Product      int    `json:"product" validate:"required,gt=0"`
	ProductName  string `json:"product_name,omitempty"`
	Quantity     int    `json:"quantity" validate:"gt=0"`
	UnitPrice    Amount `json:"unit_price,omitempty" validate:"gte=0"`
	SerialNumber string `json:"serial_number,omitempty"`
}

// LineTotal is quantity times unit price.
func (p InstallationProduct) LineTotal() float64 {
	return float64(p.Quantity) * float64(p.UnitPrice)
}

// ComputedTotal sums the product lines the installation is billed from.
func (in Installation) ComputedTotal() float64 {
	lines := in.Products
	if len(lines) == 0 {
		lines = in.ProductsUsed
	}
	total := 0.0
	for _, p := range lines {
		total += p.LineTotal()
	}
	return total
}
