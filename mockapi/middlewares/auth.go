package middlewares

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "

	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// Claims is the JWT payload (subject=account id, plus role and token type).
type Claims struct {
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 access and refresh tokens.
type Tokens struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokens(secret string, accessTTL, refreshTTL time.Duration) (*Tokens, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("JWT secret not configured (set JWT_SECRET_KEY or JWT_SECRET)")
	}
	return &Tokens{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}, nil
}

func (t *Tokens) sign(subject, role, kind, jti string, ttl time.Duration) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(ttl)
	claims := &Claims{
		Role:      role,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	return signed, exp, err
}

// Access signs a short-lived access token.
func (t *Tokens) Access(subject, role string) (string, error) {
	s, _, err := t.sign(subject, role, TokenAccess, "", t.accessTTL)
	return s, err
}

// Refresh signs a refresh token with a fresh jti and returns both.
func (t *Tokens) Refresh(subject string) (token, jti string, exp time.Time, err error) {
	jti = uuid.NewString()
	token, exp, err = t.sign(subject, "", TokenRefresh, jti, t.refreshTTL)
	return token, jti, exp, err
}

// Parse verifies raw, enforcing HS256 and the expected token type.
func (t *Tokens) Parse(raw, kind string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	var claims Claims
	token, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	if claims.TokenType != kind || strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("wrong token type")
	}
	return &claims, nil
}

// IsAuthenticatedHeader validates a Bearer access token and populates
// c.Locals("userID", "role").
func IsAuthenticatedHeader(t *Tokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get(authHeader)
		if h == "" || !strings.HasPrefix(strings.ToLower(h), strings.ToLower(bearerPrefix)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": "Informations d'authentification non fournies.",
			})
		}
		raw := strings.TrimSpace(h[len(bearerPrefix):])
		claims, err := t.Parse(raw, TokenAccess)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": "Le jeton donné n'est valide pour aucun type de jeton",
				"code":   "token_not_valid",
			})
		}
		c.Locals("userID", claims.Subject)
		c.Locals("role", claims.Role)
		return c.Next()
	}
}

// RequireRole answers 403 unless the authenticated role is one of roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"detail": "Vous n'avez pas la permission d'effectuer cette action.",
		})
	}
}
