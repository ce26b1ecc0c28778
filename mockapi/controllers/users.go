package controllers

import (
	"strings"

	"gestion-admin/mockapi/middlewares"
	"gestion-admin/mockapi/store"
	"gestion-admin/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func userOut(a store.Account) models.User {
	perms := []string(a.PagePermissions)
	if perms == nil {
		perms = []string{}
	}
	return models.User{
		ID:              int(a.ID),
		Username:        a.Username,
		Email:           a.Email,
		Role:            a.Role,
		IsStaff:         a.IsStaff,
		IsActive:        a.IsActive,
		Phone:           a.Phone,
		PagePermissions: perms,
		Profile:         &models.UserProfile{Role: a.Role, Phone: a.Phone, PagePermissions: perms},
	}
}

// NewAccount builds an account for role with its password hashed.
func NewAccount(username, email, password, role string) (store.Account, error) {
	a := store.Account{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Role:     role,
		IsStaff:  role == models.RoleAdmin,
		IsActive: true,
	}
	err := a.SetPassword(password)
	return a, err
}

func (h *Handler) ListUsers(c *fiber.Ctx) error {
	var accounts []store.Account
	if err := h.db(c).Order("id").Find(&accounts).Error; err != nil {
		return err
	}
	out := make([]models.User, len(accounts))
	for i, a := range accounts {
		out[i] = userOut(a)
	}
	return c.JSON(out)
}

func usernameTaken(db *gorm.DB, name string, except uint) (bool, error) {
	var n int64
	err := db.Model(&store.Account{}).Where("username = ? AND id <> ?", name, except).Count(&n).Error
	return n > 0, err
}

func (h *Handler) CreateUser(c *fiber.Ctx) error {
	var req models.User
	if err := middlewares.BindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Password == "" {
		return middlewares.Field("password", "Ce champ est obligatoire.")
	}
	db := h.db(c)
	if taken, err := usernameTaken(db, strings.TrimSpace(req.Username), 0); err != nil {
		return err
	} else if taken {
		return middlewares.Field("username", "Un utilisateur avec ce nom existe déjà.")
	}
	a, err := NewAccount(req.Username, req.Email, req.Password, req.EffectiveRole())
	if err != nil {
		return err
	}
	a.Phone = req.Phone
	a.PagePermissions = models.AdditionalPages(a.Role, req.PagePermissions)
	if err := db.Create(&a).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(userOut(a))
}

func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req models.User
	if err := middlewares.BindAndValidate(c, &req); err != nil {
		return err
	}
	db := h.db(c)
	var a store.Account
	if err := db.First(&a, id).Error; err != nil {
		return err
	}
	name := strings.TrimSpace(req.Username)
	if taken, err := usernameTaken(db, name, a.ID); err != nil {
		return err
	} else if taken {
		return middlewares.Field("username", "Un utilisateur avec ce nom existe déjà.")
	}
	a.Username = name
	a.Email = strings.TrimSpace(req.Email)
	if req.RoleWrite != "" {
		a.Role = req.RoleWrite
		a.IsStaff = a.Role == models.RoleAdmin
	}
	a.Phone = req.Phone
	a.PagePermissions = models.AdditionalPages(a.Role, req.PagePermissions)
	if req.Password != "" {
		if err := a.SetPassword(req.Password); err != nil {
			return err
		}
	}
	if err := db.Save(&a).Error; err != nil {
		return err
	}
	return c.JSON(userOut(a))
}

func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if subject, _ := c.Locals("userID").(string); subject == c.Params("id") {
		return badRequest(c, "Vous ne pouvez pas supprimer votre propre compte.")
	}
	res := h.db(c).Delete(&store.Account{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return c.SendStatus(fiber.StatusNoContent)
}
