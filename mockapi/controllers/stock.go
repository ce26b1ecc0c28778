package controllers

import (
	"fmt"

	"gestion-admin/mockapi/middlewares"
	"gestion-admin/mockapi/store"
	"gestion-admin/models"

	"gorm.io/gorm"
)

// beforeMovement applies an ENTREE/SORTIE to the product it names.
func (h *Handler) beforeMovement(db *gorm.DB, d store.Doc) error {
	p, err := store.Get(db, colProducts, d.Int("product"))
	if err != nil {
		return productMissing(err)
	}
	delta := d.Int("quantity")
	if d.String("movement_type") == models.MovementOut {
		delta = -delta
	}
	if p.Int("quantity")+delta < 0 {
		return middlewares.Field("quantity", fmt.Sprintf(
			"Stock insuffisant pour %s (disponible: %d).", p.String("name"), p.Int("quantity")))
	}
	p["quantity"] = p.Int("quantity") + delta
	if err := store.Save(db, colProducts, p); err != nil {
		return err
	}
	d["product_name"] = p.String("name")
	defaultString(d, "date", h.today())
	return nil
}
