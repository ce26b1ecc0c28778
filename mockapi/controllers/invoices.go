package controllers

import (
	"encoding/json"

	"gestion-admin/mockapi/middlewares"
	"gestion-admin/mockapi/store"
	"gestion-admin/models"
	"gestion-admin/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// beforeInvoice resolves the lines, computes totals and, for binding invoices,
// takes the goods out of stock.
func (h *Handler) beforeInvoice(db *gorm.DB, d store.Doc) error {
	lines, err := h.buildLines(db, d.List("items"))
	if err != nil {
		return err
	}
	delete(d, "items")
	if !d.Bool("is_proforma") {
		if err := moveLines(db, lines, -1); err != nil {
			return err
		}
	}
	d.SetList("invoice_items", lines)
	setTotals(d, lines)
	d["invoice_number"] = h.number("INV")
	defaultString(d, "status", models.InvoiceUnpaid)
	defaultString(d, "date", h.today())
	if _, ok := d["amount_paid"]; !ok {
		d["amount_paid"] = 0.0
	}
	return nil
}

// CancelInvoice cancels an invoice and puts its goods back in stock.
func (h *Handler) CancelInvoice(c *fiber.Ctx) error {
	db := h.db(c)
	inv, err := h.invoice(c, db)
	if err != nil {
		return err
	}
	if !inv.Bool("is_cancelled") {
		if !inv.Bool("is_proforma") {
			if err := moveLines(db, inv.List("invoice_items"), +1); err != nil {
				return err
			}
		}
		inv["is_cancelled"] = true
		inv["status"] = models.InvoiceUnpaid
		if err := store.Save(db, colInvoices, inv); err != nil {
			return err
		}
	}
	return c.JSON(inv)
}

func (h *Handler) invoice(c *fiber.Ctx, db *gorm.DB) (store.Doc, error) {
	id, err := paramID(c)
	if err != nil {
		return nil, err
	}
	return store.Get(db, colInvoices, id)
}

// InvoiceItems adds (POST) or removes (DELETE with {"item_id"}) a line.
func (h *Handler) InvoiceItems(c *fiber.Ctx) error {
	db := h.db(c)
	inv, err := h.invoice(c, db)
	if err != nil {
		return err
	}
	lines := inv.List("invoice_items")
	binding := !inv.Bool("is_proforma") && !inv.Bool("is_cancelled")

	switch c.Method() {
	case fiber.MethodGet:
		return c.JSON(lines)
	case fiber.MethodDelete:
		var req itemDelete
		if err := json.Unmarshal(c.Body(), &req); err != nil || req.ItemID <= 0 {
			return badRequest(c, "item_id requis")
		}
		kept, removed := removeLine(lines, req.ItemID)
		if removed == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item non trouvé"})
		}
		if binding {
			if err := moveStock(db, removed.Int("product"), removed.Int("quantity")); err != nil {
				return err
			}
		}
		inv.SetList("invoice_items", kept)
		setTotals(inv, kept)
		if err := store.Save(db, colInvoices, inv); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": "Item supprimé"})
	}

	var req itemRequest
	if err := middlewares.BindAndValidate(c, &req); err != nil {
		return err
	}
	line, err := h.line(db, nextLineID(lines), req.Product, req.Quantity, req.UnitPrice)
	if err != nil {
		return err
	}
	if binding {
		if err := moveStock(db, req.Product, -req.Quantity); err != nil {
			return err
		}
	}
	lines = append(lines, line)
	inv.SetList("invoice_items", lines)
	setTotals(inv, lines)
	if err := store.Save(db, colInvoices, inv); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(line)
}

func removeLine(lines []store.Doc, id int) ([]store.Doc, store.Doc) {
	kept := make([]store.Doc, 0, len(lines))
	var removed store.Doc
	for _, l := range lines {
		if removed == nil && l.Int("id") == id {
			removed = l
			continue
		}
		kept = append(kept, l)
	}
	return kept, removed
}

// ConvertProforma creates a binding invoice from a pro forma and takes the goods out
// of stock. The pro forma itself is left as it was.
func (h *Handler) ConvertProforma(c *fiber.Ctx) error {
	db := h.db(c)
	pf, err := h.invoice(c, db)
	if err != nil {
		return err
	}
	if !pf.Bool("is_proforma") {
		return badRequest(c, "Seules les factures pro forma peuvent être converties en facture.")
	}
	lines := pf.List("invoice_items")
	if len(lines) == 0 {
		return badRequest(c, "Cette facture pro forma ne contient aucun article. Ajoutez des lignes avant de convertir.")
	}
	inv, err := h.invoiceFrom(db, pf, lines)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(inv)
}

// invoiceFrom creates a binding invoice copying the header of src and lines.
func (h *Handler) invoiceFrom(db *gorm.DB, src store.Doc, lines []store.Doc) (store.Doc, error) {
	copied := make([]store.Doc, len(lines))
	for i, l := range lines {
		line, err := h.line(db, i+1, l.Int("product"), l.Int("quantity"), l.Float("unit_price"))
		if err != nil {
			return nil, err
		}
		copied[i] = line
	}
	if err := moveLines(db, copied, -1); err != nil {
		return nil, err
	}
	name := src.String("client_name")
	if name == "" {
		name = "Client"
	}
	inv := store.Doc{
		"client_name":  name,
		"company":      src.String("company"),
		"is_proforma":  false,
		"is_cancelled": false,
		"status":       models.InvoiceUnpaid,
		"amount_paid":  0.0,
	}
	if client, ok := src["client"]; ok && client != nil {
		inv["client"] = client
	}
	inv["invoice_number"] = h.number("INV")
	inv["date"] = h.today()
	inv.SetList("invoice_items", copied)
	setTotals(inv, copied)
	return store.Create(db, colInvoices, inv)
}

type paymentRequest struct {
	Amount      *float64 `json:"amount"`
	PaymentDate string   `json:"payment_date"`
}

// RecordInvoicePayment adds to amount_paid, capped at the invoice total.
func (h *Handler) RecordInvoicePayment(c *fiber.Ctx) error {
	db := h.db(c)
	inv, err := h.invoice(c, db)
	if err != nil {
		return err
	}
	if inv.Bool("is_cancelled") {
		return badRequest(c, "Impossible d'enregistrer un paiement sur une facture annulée.")
	}
	var req paymentRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "Montant invalide.")
	}
	if req.Amount == nil {
		return badRequest(c, `Le champ "amount" (montant payé) est requis.`)
	}
	if *req.Amount < 0 {
		return badRequest(c, "Le montant doit être positif.")
	}
	total := inv.Float("total_ttc")
	paid := utils.Round2(inv.Float("amount_paid") + *req.Amount)
	if paid > total {
		paid = total
	}
	inv["amount_paid"] = paid
	if total > 0 && paid >= total {
		inv["status"] = models.InvoicePaid
	}
	if err := store.Save(db, colInvoices, inv); err != nil {
		return err
	}
	return c.JSON(inv)
}
