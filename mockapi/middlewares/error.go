package middlewares

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// FieldErrors is a validation failure in the shape the REST backend uses:
// {"field": ["message", ...]}.
type FieldErrors map[string][]string

func (f FieldErrors) Error() string { return "validation failed" }

// Field builds a single-field FieldErrors.
func Field(name, msg string) FieldErrors {
	return FieldErrors{name: {msg}}
}

// ErrorHandler centralizes error responses and keeps messages sanitized.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"detail": fe.Message})
	}

	var fields FieldErrors
	if errors.As(err, &fields) {
		return c.Status(fiber.StatusBadRequest).JSON(fields)
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make(FieldErrors, len(ve))
		for _, e := range ve {
			out[e.Field()] = append(out[e.Field()], message(e))
		}
		return c.Status(fiber.StatusBadRequest).JSON(out)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Non trouvé."})
	}

	log.Printf("internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"detail": "Erreur interne du serveur",
	})
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "Ce champ est obligatoire."
	case "email":
		return "Saisissez une adresse e-mail valide."
	case "oneof":
		return "Choix invalide."
	case "gt":
		return "Assurez-vous que cette valeur est supérieure à " + e.Param() + "."
	case "gte", "min":
		return "Assurez-vous que cette valeur est supérieure ou égale à " + e.Param() + "."
	case "max":
		return "Assurez-vous que cette valeur est inférieure ou égale à " + e.Param() + "."
	default:
		return "Valeur invalide."
	}
}
