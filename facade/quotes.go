package facade

import (
	"context"
	"net/http"

	"gestion-admin/client"
	"gestion-admin/models"
	"gestion-admin/notify"
)

type Quotes struct {
	*Resource[models.Quote]
	invoices *Invoices
}

func newQuotes(api *client.Client, note *notify.Notifier, invoices *Invoices) *Quotes {
	return &Quotes{
		invoices: invoices,
		Resource: NewResource(api, note, Config[models.Quote]{
			Path:               "/api/quotes/",
			ID:                 func(q models.Quote) int { return q.ID },
			Update:             http.MethodPatch,
			Delete:             SoftDeleteEndpoint,
			Insert:             Prepend,
			QuietNetworkErrors: true,
			Messages: Messages{
				Created:      "Devis créé avec succès",
				Updated:      "Devis modifié avec succès",
				Deleted:      "Devis supprimé avec succès",
				LoadFailed:   "Erreur lors du chargement des devis",
				CreateFailed: "Erreur lors de la création du devis",
				UpdateFailed: "Erreur lors de la modification du devis",
				DeleteFailed: "Erreur lors de la suppression du devis",
			},
		}),
	}
}

// AddItem adds a line to a quote and reloads quotes for the new total.
func (q *Quotes) AddItem(ctx context.Context, quoteID int, item models.QuoteItem) error {
	if err := models.Validate(item); err != nil {
		return err
	}
	payload := itemPayload{Product: item.Product, Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	return q.itemChange(ctx, quoteID, http.MethodPost, payload,
		"Erreur lors de l'ajout de l'item au devis", "Item ajouté avec succès")
}

func (q *Quotes) DeleteItem(ctx context.Context, quoteID, itemID int) error {
	return q.itemChange(ctx, quoteID, http.MethodDelete, map[string]int{"item_id": itemID},
		"Erreur lors de la suppression de l'item du devis", "Item supprimé avec succès")
}

func (q *Quotes) itemChange(ctx context.Context, quoteID int, method string, body any, fallback, success string) error {
	if err := q.call(ctx, method, q.itemPath(quoteID)+"items/", body, fallback, nil); err != nil {
		return err
	}
	_, _ = q.List(ctx)
	q.note.Success(success)
	return nil
}

// ConvertToInvoice turns an accepted quote into an invoice. Both lists are reloaded.
func (q *Quotes) ConvertToInvoice(ctx context.Context, id int) (models.QuoteConversion, error) {
	var out models.QuoteConversion
	if err := q.call(ctx, http.MethodPost, q.itemPath(id)+"convert_to_invoice/", nil,
		"Erreur lors de la conversion en facture", &out); err != nil {
		return out, err
	}
	_, _ = q.List(ctx)
	if q.invoices != nil {
		_, _ = q.invoices.List(ctx)
	}
	q.note.Success("Devis converti en facture avec succès")
	return out, nil
}

func (q *Quotes) MarkAsSent(ctx context.Context, id int) (models.Quote, error) {
	return q.action(ctx, id, "mark_as_sent", nil,
		"Erreur lors du changement de statut du devis", "Devis marqué comme envoyé")
}

func (q *Quotes) MarkAsAccepted(ctx context.Context, id int) (models.Quote, error) {
	return q.action(ctx, id, "mark_as_accepted", nil,
		"Erreur lors du changement de statut du devis", "Devis marqué comme accepté")
}

func (q *Quotes) MarkAsRefused(ctx context.Context, id int) (models.Quote, error) {
	return q.action(ctx, id, "mark_as_refused", nil,
		"Erreur lors du changement de statut du devis", "Devis marqué comme refusé")
}
