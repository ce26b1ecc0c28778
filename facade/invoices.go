package facade

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"gestion-admin/client"
	"gestion-admin/models"
	"gestion-admin/notify"
	"gestion-admin/utils"
)

type Invoices struct {
	*Resource[models.Invoice]
	products *Products
}

func newInvoices(api *client.Client, note *notify.Notifier, products *Products) *Invoices {
	return &Invoices{
		products: products,
		Resource: NewResource(api, note, Config[models.Invoice]{
			Path:   "/api/invoices/",
			ID:     func(i models.Invoice) int { return i.ID },
			Update: http.MethodPatch,
			Delete: SoftDeleteEndpoint,
			Insert: Append,
			Messages: Messages{
				Created:      "Facture créée avec succès",
				Updated:      "Facture modifiée avec succès",
				Deleted:      "Facture supprimée avec succès",
				LoadFailed:   "Erreur lors du chargement des factures",
				CreateFailed: "Erreur lors de la création de la facture",
				UpdateFailed: "Erreur lors de la modification de la facture",
				DeleteFailed: "Erreur lors de la suppression de la facture",
			},
			Prepare: func(inv models.Invoice) models.Invoice { return mapInvoice(inv, products) },
		}),
	}
}

// mapInvoice exposes the backend's invoice_items as Items with a product label.
func mapInvoice(inv models.Invoice, products *Products) models.Invoice {
	lines := inv.InvoiceItems
	if len(lines) == 0 {
		lines = inv.Items
	}
	items := make([]models.InvoiceItem, len(lines))
	for i, it := range lines {
		it.ProductName = it.DisplayName()
		if it.ProductName == "" && products != nil {
			it.ProductName = products.Name(it.Product)
		}
		items[i] = it
	}
	inv.Items = items
	if inv.InvoiceNumber == "" && inv.ID != 0 {
		inv.InvoiceNumber = fmt.Sprintf("FACTURE-%d", inv.ID)
	}
	return inv
}

type itemPayload struct {
	Product   int           `json:"product"`
	Quantity  int           `json:"quantity"`
	UnitPrice models.Amount `json:"unit_price"`
}

func itemsPayload(items []models.InvoiceItem) []itemPayload {
	out := make([]itemPayload, len(items))
	for i, it := range items {
		out[i] = itemPayload{Product: it.Product, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return out
}

// Add creates an invoice from its header and lines. Stock moves on the backend, so
// products are reloaded.
func (iv *Invoices) Add(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	if err := models.Validate(inv); err != nil {
		return models.Invoice{}, err
	}
	status := inv.Status
	if status == "" {
		status = models.InvoiceUnpaid
	}
	body := map[string]any{
		"client_name": strings.TrimSpace(inv.ClientName),
		"status":      status,
		"is_proforma": inv.IsProforma,
		"items":       itemsPayload(inv.Items),
	}
	if inv.Client != nil {
		body["client"] = *inv.Client
	}
	created, err := iv.Resource.Add(ctx, body)
	if err != nil {
		return created, err
	}
	_, _ = iv.products.List(ctx)
	return created, nil
}

// Cancel cancels an invoice; the backend puts its stock back.
func (iv *Invoices) Cancel(ctx context.Context, id int) (models.Invoice, error) {
	out, err := iv.action(ctx, id, "cancel", nil,
		"Erreur lors de l'annulation de la facture", "Facture annulée avec succès")
	if err != nil {
		return out, err
	}
	_, _ = iv.products.List(ctx)
	return out, nil
}

// AddItem adds a line to an existing invoice, then reloads invoices (for the totals)
// and products (for the stock).
func (iv *Invoices) AddItem(ctx context.Context, invoiceID int, item models.InvoiceItem) error {
	if err := models.Validate(item); err != nil {
		return err
	}
	payload := itemPayload{Product: item.Product, Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	return iv.itemChange(ctx, invoiceID, http.MethodPost, payload,
		"Erreur lors de l'ajout de l'item de facture", "Item ajouté avec succès")
}

// DeleteItem removes a line. The item id travels in the body of the DELETE.
func (iv *Invoices) DeleteItem(ctx context.Context, invoiceID, itemID int) error {
	return iv.itemChange(ctx, invoiceID, http.MethodDelete, map[string]int{"item_id": itemID},
		"Erreur lors de la suppression de l'item de facture", "Item supprimé avec succès")
}

func (iv *Invoices) itemChange(ctx context.Context, invoiceID int, method string, body any, fallback, success string) error {
	if err := iv.call(ctx, method, iv.itemPath(invoiceID)+"items/", body, fallback, nil); err != nil {
		return err
	}
	_, _ = iv.List(ctx)
	_, _ = iv.products.List(ctx)
	iv.note.Success(success)
	return nil
}

// ConvertToInvoice turns a pro forma into a binding invoice.
func (iv *Invoices) ConvertToInvoice(ctx context.Context, id int) (models.Invoice, error) {
	var raw json.RawMessage
	if err := iv.call(ctx, http.MethodPost, iv.itemPath(id)+"convert_to_invoice/", nil,
		"Erreur lors de la conversion en facture", &raw); err != nil {
		return models.Invoice{}, err
	}
	inv := decodeConverted(raw)
	_, _ = iv.List(ctx)
	iv.note.Success("Pro forma convertie en facture avec succès")
	return inv, nil
}

// decodeConverted accepts either {message, invoice} or the invoice itself.
func decodeConverted(raw json.RawMessage) models.Invoice {
	var wrapped models.QuoteConversion
	if json.Unmarshal(raw, &wrapped) == nil && wrapped.Invoice.ID != 0 {
		return wrapped.Invoice
	}
	var inv models.Invoice
	_ = json.Unmarshal(raw, &inv)
	return inv
}

// RecordPayment registers a payment on an invoice. The amount must be positive and,
// when the invoice is cached, not exceed what remains due.
func (iv *Invoices) RecordPayment(ctx context.Context, id int, amount float64) error {
	if amount <= 0 {
		return models.Violations{"amount": "Le montant doit être supérieur à 0"}
	}
	if inv, ok := iv.Find(id); ok && float64(inv.TotalTTC) > 0 && amount > inv.Balance() {
		msg := fmt.Sprintf("Le montant ne peut pas dépasser le restant à payer (%s Fcfa)", utils.FormatCurrency(inv.Balance()))
		iv.note.Error(msg)
		return models.Violations{"amount": msg}
	}
	body := map[string]any{"amount": utils.Round2(amount)}
	if err := iv.call(ctx, http.MethodPost, iv.itemPath(id)+"record-payment/", body,
		"Erreur lors de l'enregistrement du paiement", nil); err != nil {
		return err
	}
	_, _ = iv.List(ctx)
	iv.note.Success("Paiement enregistré")
	return nil
}

// Proformas returns the cached pro forma invoices that were not cancelled.
func (iv *Invoices) Proformas() []models.Invoice {
	var out []models.Invoice
	for _, inv := range iv.Items() {
		if inv.IsProforma && !inv.IsCancelled {
			out = append(out, inv)
		}
	}
	return out
}
