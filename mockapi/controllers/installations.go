package controllers

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"gestion-admin/mockapi/middlewares"
	"gestion-admin/mockapi/store"
	"gestion-admin/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=PLANIFIEE EN_COURS TERMINEE ANNULEE"`
}

func (h *Handler) installation(c *fiber.Ctx, db *gorm.DB) (store.Doc, error) {
	id, err := paramID(c)
	if err != nil {
		return nil, err
	}
	return store.Get(db, colInstallations, id)
}

func (h *Handler) ChangeInstallationStatus(c *fiber.Ctx) error {
	db := h.db(c)
	in, err := h.installation(c, db)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := middlewares.BindAndValidate(c, &req); err != nil {
		return err
	}
	in["status"] = req.Status
	if err := store.Save(db, colInstallations, in); err != nil {
		return err
	}
	return c.JSON(in)
}

// UploadContract stores the name of the uploaded contract_file. The bytes are not kept.
func (h *Handler) UploadContract(c *fiber.Ctx) error {
	db := h.db(c)
	in, err := h.installation(c, db)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("contract_file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(middlewares.Field("contract_file", "Aucun fichier n'a été soumis."))
	}
	in["contract_file"] = fmt.Sprintf("/media/contracts/%d_%s", in.Int("id"), filepath.Base(fh.Filename))
	if err := store.Save(db, colInstallations, in); err != nil {
		return err
	}
	return c.JSON(in)
}

// RecordInstallmentPayment lowers remaining_amount and keeps a payment history.
// One unit over the remaining amount is tolerated for rounding.
func (h *Handler) RecordInstallmentPayment(c *fiber.Ctx) error {
	db := h.db(c)
	in, err := h.installation(c, db)
	if err != nil {
		return err
	}
	var req paymentRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil || req.Amount == nil {
		return badRequest(c, `Le champ "amount" (montant payé) est requis.`)
	}
	amount := *req.Amount
	if amount <= 0 {
		return badRequest(c, "Le montant doit être supérieur à 0.")
	}
	remaining := in.Float("remaining_amount")
	if amount > remaining+1 {
		return badRequest(c, fmt.Sprintf("Le montant ne peut pas dépasser le restant (%s F).", utils.FormatCurrency(remaining)))
	}
	rest := utils.Round2(remaining - amount)
	if rest < 0 {
		rest = 0
	}
	in["remaining_amount"] = rest
	date := req.PaymentDate
	if date == "" {
		date = h.today()
	}
	payments := in.List("payments")
	payments = append(payments, store.Doc{"amount": utils.Round2(amount), "payment_date": date})
	in.SetList("payments", payments)
	if err := store.Save(db, colInstallations, in); err != nil {
		return err
	}
	return c.JSON(in)
}
