package controllers

import (
	"encoding/json"

	"gestion-admin/mockapi/middlewares"
	"gestion-admin/mockapi/store"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Collection describes one REST collection backed by the record store.
type Collection struct {
	Name string
	// New returns a pointer to the typed payload validated on create.
	New func() any
	// BeforeCreate completes a validated document before it is stored.
	BeforeCreate func(h *Handler, db *gorm.DB, d store.Doc) error
	// BeforeUpdate sees the merged document before it is saved.
	BeforeUpdate func(h *Handler, db *gorm.DB, d store.Doc) error
}

func (h *Handler) List(col Collection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := store.List(h.db(c), col.Name)
		if err != nil {
			return err
		}
		return c.JSON(page(docs))
	}
}

func (h *Handler) Retrieve(col Collection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		d, err := store.Get(h.db(c), col.Name, id)
		if err != nil {
			return err
		}
		return c.JSON(d)
	}
}

func (h *Handler) Create(col Collection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		db := h.db(c)
		in := col.New()
		if err := middlewares.BindAndValidate(c, in); err != nil {
			return err
		}
		d, err := store.ToDoc(in)
		if err != nil {
			return err
		}
		delete(d, "id")
		if col.BeforeCreate != nil {
			if err := col.BeforeCreate(h, db, d); err != nil {
				return err
			}
		}
		out, err := store.Create(db, col.Name, d)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(out)
	}
}

// Update merges the body into the stored document. PUT and PATCH behave the same:
// fields absent from the body are kept.
func (h *Handler) Update(col Collection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		db := h.db(c)
		id, err := paramID(c)
		if err != nil {
			return err
		}
		d, err := store.Get(db, col.Name, id)
		if err != nil {
			return err
		}
		var patch map[string]any
		if err := json.Unmarshal(c.Body(), &patch); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corps de requête invalide")
		}
		for k, v := range patch {
			if k != "id" {
				d[k] = v
			}
		}
		if col.New != nil {
			if err := validateDoc(d, col.New()); err != nil {
				return err
			}
		}
		if col.BeforeUpdate != nil {
			if err := col.BeforeUpdate(h, db, d); err != nil {
				return err
			}
		}
		if err := store.Save(db, col.Name, d); err != nil {
			return err
		}
		return c.JSON(d)
	}
}

// validateDoc checks a merged document against the typed payload's rules.
func validateDoc(d store.Doc, typed any) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, typed); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Corps de requête invalide")
	}
	return middlewares.ValidateStruct(typed)
}

func (h *Handler) SoftDelete(col Collection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		if err := store.SoftDelete(h.db(c), col.Name, id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "Supprimé avec succès"})
	}
}

func (h *Handler) Delete(col Collection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		if err := store.Delete(h.db(c), col.Name, id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
