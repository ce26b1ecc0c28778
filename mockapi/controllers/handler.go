package controllers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gestion-admin/mockapi/middlewares"
	"gestion-admin/mockapi/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Handler carries what every endpoint needs.
type Handler struct {
	DB     *gorm.DB
	Tokens *middlewares.Tokens
	// Now is the clock used for dates; time.Now when nil.
	Now func() time.Time
}

func (h *Handler) db(c *fiber.Ctx) *gorm.DB {
	return middlewares.DB(c, h.DB)
}

func (h *Handler) today() string {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	return now().Format("2006-01-02")
}

func paramID(c *fiber.Ctx) (int, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusNotFound, "Non trouvé.")
	}
	return id, nil
}

// page wraps a list in the paginated envelope of the REST framework.
func page(items []store.Doc) fiber.Map {
	return fiber.Map{
		"count":    len(items),
		"next":     nil,
		"previous": nil,
		"results":  items,
	}
}

// number generates a document number: INV-20240305-1A2B3C4D.
func (h *Handler) number(prefix string) string {
	id := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, strings.ReplaceAll(h.today(), "-", ""), id)
}
