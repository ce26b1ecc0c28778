package controllers

import (
	"errors"
	"fmt"

	"gestion-admin/mockapi/middlewares"
	"gestion-admin/mockapi/store"
	"gestion-admin/utils"

	"gorm.io/gorm"
)

// itemRequest is the body of POST {id}/items/ on invoices and quotes.
type itemRequest struct {
	Product   int     `json:"product" validate:"required,gt=0"`
	Quantity  int     `json:"quantity" validate:"gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

type itemDelete struct {
	ItemID int `json:"item_id" validate:"required,gt=0"`
}

func productMissing(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middlewares.Field("product", "Produit introuvable.")
	}
	return err
}

// buildLines resolves each requested line against the catalogue: product name,
// default unit price and subtotal.
func (h *Handler) buildLines(db *gorm.DB, raw []store.Doc) ([]store.Doc, error) {
	out := make([]store.Doc, 0, len(raw))
	for i, l := range raw {
		line, err := h.line(db, i+1, l.Int("product"), l.Int("quantity"), l.Float("unit_price"))
		if err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, nil
}

func (h *Handler) line(db *gorm.DB, id, productID, qty int, price float64) (store.Doc, error) {
	p, err := store.Get(db, colProducts, productID)
	if err != nil {
		return nil, productMissing(err)
	}
	if price == 0 {
		price = p.Float("sale_price")
	}
	return store.Doc{
		"id":             id,
		"product":        productID,
		"product_name":   p.String("name"),
		"product_detail": map[string]any{"id": productID, "name": p.String("name")},
		"quantity":       qty,
		"unit_price":     price,
		"subtotal":       utils.Round2(float64(qty) * price),
	}, nil
}

// VATRate is applied on top of the line subtotals.
const VATRate = 0.18

// setTotals recomputes total_ht and total_ttc from lines.
func setTotals(d store.Doc, lines []store.Doc) {
	ht := 0.0
	for _, l := range lines {
		ht += l.Float("subtotal")
	}
	d["total_ht"] = utils.Round2(ht)
	d["total_ttc"] = utils.Round2(ht * (1 + VATRate))
}

func nextLineID(lines []store.Doc) int {
	max := 0
	for _, l := range lines {
		if id := l.Int("id"); id > max {
			max = id
		}
	}
	return max + 1
}

// moveStock adds delta to a product's quantity. Going below zero is refused.
func moveStock(db *gorm.DB, productID, delta int) error {
	p, err := store.Get(db, colProducts, productID)
	if err != nil {
		return productMissing(err)
	}
	qty := p.Int("quantity") + delta
	if qty < 0 {
		return middlewares.Field("quantity", fmt.Sprintf(
			"Stock insuffisant pour %s (disponible: %d).", p.String("name"), p.Int("quantity")))
	}
	p["quantity"] = qty
	if delta < 0 {
		p["total_sold"] = p.Int("total_sold") - delta
	} else if sold := p.Int("total_sold") - delta; sold >= 0 {
		p["total_sold"] = sold
	}
	return store.Save(db, colProducts, p)
}

// moveLines applies moveStock for every line, sign -1 to take out, +1 to put back.
func moveLines(db *gorm.DB, lines []store.Doc, sign int) error {
	for _, l := range lines {
		if err := moveStock(db, l.Int("product"), sign*l.Int("quantity")); err != nil {
			return err
		}
	}
	return nil
}
