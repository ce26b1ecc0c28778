package facade

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"gestion-admin/client"
	"gestion-admin/models"
	"gestion-admin/notify"
	"gestion-admin/utils"
)

type Installations struct {
	*Resource[models.Installation]
}

func newInstallations(api *client.Client, note *notify.Notifier) *Installations {
	base := api.BaseURL()
	return &Installations{NewResource(api, note, Config[models.Installation]{
		Path:   "/api/installations/",
		ID:     func(i models.Installation) int { return i.ID },
		Update: http.MethodPatch,
		Delete: SoftDeleteEndpoint,
		Insert: Prepend,
		Messages: Messages{
			Created:      "Installation créée avec succès",
			Updated:      "Installation modifiée avec succès",
			Deleted:      "Installation supprimée avec succès",
			LoadFailed:   "Erreur lors du chargement des installations",
			CreateFailed: "Erreur lors de la création",
			UpdateFailed: "Erreur lors de la modification",
			DeleteFailed: "Erreur lors de la suppression de l'installation",
		},
		Prepare: func(in models.Installation) models.Installation {
			if in.ContractFileURL == "" && in.ContractFile != "" {
				in.ContractFileURL = resolveMedia(base, in.ContractFile)
			}
			return in
		},
	})}
}

// withAmounts fills total, advance and remaining the way the creation form does:
// total from the product lines, advance from the first tranche of the payment method.
func withAmounts(in models.Installation) models.Installation {
	if in.TotalAmount == 0 {
		in.TotalAmount = models.Amount(utils.Round2(in.ComputedTotal()))
	}
	if in.AdvanceAmount == 0 && in.PaymentMethod != "" {
		adv, _ := utils.AdvanceAmount(float64(in.TotalAmount), in.PaymentMethod).Float64()
		in.AdvanceAmount = models.Amount(adv)
	}
	if in.RemainingAmount == 0 {
		rest := float64(in.TotalAmount) - float64(in.AdvanceAmount)
		if rest < 0 {
			rest = 0
		}
		in.RemainingAmount = models.Amount(utils.Round2(rest))
	}
	if in.Status == "" {
		in.Status = models.InstallationPlanned
	}
	return in
}

// Add creates an installation. A contract, when given, is uploaded right after.
func (s *Installations) Add(ctx context.Context, in models.Installation, contract *Upload) (models.Installation, error) {
	created, err := s.Resource.Add(ctx, withAmounts(in))
	if err != nil || contract == nil {
		return created, err
	}
	return s.UploadContract(ctx, created.ID, *contract)
}

// Upload is a file sent as multipart form data.
type Upload struct {
	Filename string
	Content  []byte
}

// UploadContract attaches the signed contract of an installation.
func (s *Installations) UploadContract(ctx context.Context, id int, up Upload) (models.Installation, error) {
	form := client.NewForm().File("contract_file", up.Filename, up.Content)
	return s.action(ctx, id, "upload-contract", form,
		"Installation créée, mais erreur lors de l'enregistrement du contrat", "Contrat enregistré")
}

// ChangeStatus moves an installation through its lifecycle and reloads the list.
func (s *Installations) ChangeStatus(ctx context.Context, id int, status string) error {
	if err := models.Validate(statusChange{Status: status}); err != nil {
		return err
	}
	fallback := "Erreur lors du changement de statut"
	if err := s.call(ctx, http.MethodPost, s.itemPath(id)+"change_status/", statusChange{Status: status}, fallback, nil); err != nil {
		return err
	}
	_, _ = s.List(ctx)
	s.note.Success("Statut modifié avec succès")
	return nil
}

type statusChange struct {
	Status string `json:"status" validate:"required,oneof=PLANIFIEE EN_COURS TERMINEE ANNULEE"`
}

// RecordPayment registers an installment. A one unit tolerance over the remaining
// amount is allowed for rounding. An empty date means today.
func (s *Installations) RecordPayment(ctx context.Context, id int, amount float64, date string) (models.Installation, error) {
	if amount <= 0 {
		return models.Installation{}, models.Violations{"amount": "Le montant doit être supérieur à 0"}
	}
	if in, ok := s.Find(id); ok {
		remaining := float64(in.RemainingAmount)
		if remaining == 0 {
			remaining = float64(in.TotalAmount) - float64(in.AdvanceAmount)
		}
		if amount > remaining+1 {
			msg := fmt.Sprintf("Le montant ne peut pas dépasser le restant (%s F)", utils.FormatCurrency(remaining))
			s.note.Error(msg)
			return in, models.Violations{"amount": msg}
		}
	}
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	body := map[string]any{"amount": utils.Round2(amount), "payment_date": date}
	out, err := s.action(ctx, id, "record-payment", body, "Erreur lors du versement", "Versement enregistré avec succès")
	if err != nil {
		return out, err
	}
	_, _ = s.List(ctx)
	return out, nil
}
