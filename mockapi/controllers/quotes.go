package controllers

import (
	"encoding/json"
	"errors"

	"gestion-admin/mockapi/middlewares"
	"gestion-admin/mockapi/store"
	"gestion-admin/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func (h *Handler) quote(c *fiber.Ctx, db *gorm.DB) (store.Doc, error) {
	id, err := paramID(c)
	if err != nil {
		return nil, err
	}
	return store.Get(db, colQuotes, id)
}

// QuoteItems adds (POST) or removes (DELETE with {"item_id"}) a line. Quotes never
// touch the stock.
func (h *Handler) QuoteItems(c *fiber.Ctx) error {
	db := h.db(c)
	q, err := h.quote(c, db)
	if err != nil {
		return err
	}
	lines := q.List("quote_items")

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
		q.SetList("quote_items", kept)
		setTotals(q, kept)
		if err := store.Save(db, colQuotes, q); err != nil {
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
	lines = append(lines, line)
	q.SetList("quote_items", lines)
	setTotals(q, lines)
	if err := store.Save(db, colQuotes, q); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(line)
}

// ConvertQuote creates the invoice of a quote. A quote converts once.
func (h *Handler) ConvertQuote(c *fiber.Ctx) error {
	db := h.db(c)
	q, err := h.quote(c, db)
	if err != nil {
		return err
	}
	if q.Int("converted_invoice") != 0 {
		return badRequest(c, "Ce devis a déjà été converti en facture")
	}
	inv, err := h.invoiceFrom(db, q, q.List("quote_items"))
	if err != nil {
		var fields middlewares.FieldErrors
		if errors.As(err, &fields) {
			return badRequest(c, firstMessage(fields))
		}
		return err
	}
	q["converted_invoice"] = inv.Int("id")
	q["status"] = models.QuoteConverted
	if err := store.Save(db, colQuotes, q); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Devis converti en facture avec succès",
		"invoice": inv,
	})
}

func firstMessage(f middlewares.FieldErrors) string {
	for _, msgs := range f {
		if len(msgs) > 0 {
			return msgs[0]
		}
	}
	return "Données invalides"
}

// MarkQuote sets a quote's status.
func (h *Handler) MarkQuote(status string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		db := h.db(c)
		q, err := h.quote(c, db)
		if err != nil {
			return err
		}
		if q.String("status") == models.QuoteConverted {
			return badRequest(c, "Ce devis a déjà été converti en facture")
		}
		q["status"] = status
		if err := store.Save(db, colQuotes, q); err != nil {
			return err
		}
		return c.JSON(q)
	}
}
