package controllers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"gestion-admin/mockapi/middlewares"
	"gestion-admin/mockapi/store"
	"gestion-admin/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

func authUser(a store.Account) models.AuthUser {
	perms := []string(a.PagePermissions)
	if perms == nil {
		perms = []string{}
	}
	return models.AuthUser{
		ID:              int(a.ID),
		Username:        a.Username,
		Email:           a.Email,
		Role:            a.Role,
		PagePermissions: perms,
		Profile:         &models.UserProfile{Role: a.Role, Phone: a.Phone, PagePermissions: perms},
	}
}

func (h *Handler) account(db *gorm.DB, subject string) (store.Account, error) {
	var a store.Account
	id, err := strconv.Atoi(subject)
	if err != nil {
		return a, gorm.ErrRecordNotFound
	}
	err = db.First(&a, id).Error
	return a, err
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := middlewares.BindAndValidate(c, &req); err != nil {
		return err
	}
	db := h.db(c)

	var a store.Account
	err := db.Where("username = ?", strings.TrimSpace(req.Username)).First(&a).Error
	if err == nil && !a.IsActive {
		err = errors.New("inactive account")
	}
	if err == nil {
		err = a.ComparePassword(req.Password)
	}
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"detail": "Aucun compte actif n'a été trouvé avec les identifiants fournis",
		})
	}

	subject := strconv.Itoa(int(a.ID))
	access, err := h.Tokens.Access(subject, a.Role)
	if err != nil {
		return err
	}
	refresh, jti, exp, err := h.Tokens.Refresh(subject)
	if err != nil {
		return err
	}
	if err := db.Create(&store.RefreshToken{JTI: jti, AccountID: a.ID, ExpiresAt: exp}).Error; err != nil {
		return err
	}
	return c.JSON(models.LoginResponse{Access: access, Refresh: refresh, User: authUser(a)})
}

// Refresh trades a live refresh token for a new access token.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := middlewares.BindAndValidate(c, &req); err != nil {
		return err
	}
	invalid := func() error {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"detail": "Le jeton est invalide ou expiré",
			"code":   "token_not_valid",
		})
	}

	claims, err := h.Tokens.Parse(req.Refresh, middlewares.TokenRefresh)
	if err != nil {
		return invalid()
	}
	db := h.db(c)
	var rt store.RefreshToken
	if err := db.First(&rt, "jti = ?", claims.ID).Error; err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		return invalid()
	}
	a, err := h.account(db, claims.Subject)
	if err != nil || !a.IsActive {
		return invalid()
	}
	access, err := h.Tokens.Access(claims.Subject, a.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"access": access})
}

// Logout blacklists the refresh token. Unknown or malformed tokens are ignored.
func (h *Handler) Logout(c *fiber.Ctx) error {
	var req refreshRequest
	_ = c.BodyParser(&req)
	if claims, err := h.Tokens.Parse(req.Refresh, middlewares.TokenRefresh); err == nil {
		if err := h.db(c).Model(&store.RefreshToken{}).Where("jti = ?", claims.ID).Update("revoked", true).Error; err != nil {
			return err
		}
	}
	return c.JSON(fiber.Map{"message": "Déconnexion réussie"})
}

func (h *Handler) current(c *fiber.Ctx, db *gorm.DB) (store.Account, error) {
	subject, _ := c.Locals("userID").(string)
	return h.account(db, subject)
}

func (h *Handler) Me(c *fiber.Ctx) error {
	a, err := h.current(c, h.db(c))
	if err != nil {
		return err
	}
	return c.JSON(authUser(a))
}

func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	var req models.ProfileUpdate
	if err := middlewares.BindAndValidate(c, &req); err != nil {
		return err
	}
	db := h.db(c)
	a, err := h.current(c, db)
	if err != nil {
		return err
	}
	if name := strings.TrimSpace(req.Username); name != "" && name != a.Username {
		var n int64
		if err := db.Model(&store.Account{}).Where("username = ? AND id <> ?", name, a.ID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return middlewares.Field("username", "Un utilisateur avec ce nom existe déjà.")
		}
		a.Username = name
	}
	if req.Email != "" {
		a.Email = strings.TrimSpace(req.Email)
	}
	if err := db.Save(&a).Error; err != nil {
		return err
	}
	return c.JSON(authUser(a))
}

func (h *Handler) ChangePassword(c *fiber.Ctx) error {
	var req models.PasswordChange
	if err := middlewares.BindAndValidate(c, &req); err != nil {
		return err
	}
	db := h.db(c)
	a, err := h.current(c, db)
	if err != nil {
		return err
	}
	if a.ComparePassword(req.OldPassword) != nil {
		return middlewares.Field("old_password", "Ancien mot de passe incorrect.")
	}
	if err := a.SetPassword(req.NewPassword); err != nil {
		return err
	}
	if err := db.Save(&a).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Mot de passe modifié avec succès"})
}
