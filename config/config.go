package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultAPIURL = "https://gestionnetsysteme.onrender.com"

type Config struct {
	APIURL          string
	HTTPTimeout     time.Duration
	NotificationTTL time.Duration
	SessionDSN      string
	MockPort        string
	JWTSecret       string
	RateLimitMax    int
	RateLimitWindow time.Duration
	AllowedOrigins  string
	BodyLimitBytes  int
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// Load reads .env (when present) then the environment. Explicit env vars win over .env.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: .env ignored: %v", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	secret := getEnv("JWT_SECRET_KEY", "")
	if secret == "" {
		secret = getEnv("JWT_SECRET", "dev-secret-change-me")
	}
	bodyLimit := envInt("BODY_LIMIT_BYTES", 0)
	if bodyLimit <= 0 {
		bodyLimit = envInt("BODY_LIMIT_MB", 10) * 1024 * 1024
	}
	return Config{
		APIURL:          strings.TrimRight(getEnv("API_URL", DefaultAPIURL), "/"),
		HTTPTimeout:     seconds("HTTP_TIMEOUT_SECONDS", 30),
		NotificationTTL: seconds("NOTIFICATION_SECONDS", 3),
		SessionDSN:      getEnv("SESSION_DSN", "session.db"),
		MockPort:        getEnv("MOCK_PORT", "8000"),
		JWTSecret:       secret,
		RateLimitMax:    envInt("RATE_LIMIT_MAX", 120),
		RateLimitWindow: seconds("RATE_LIMIT_WINDOW_SECONDS", 60),
		AllowedOrigins:  getEnv("ALLOWED_ORIGINS", "*"),
		BodyLimitBytes:  bodyLimit,
		AccessTokenTTL:  time.Duration(envInt("ACCESS_TOKEN_MINUTES", 15)) * time.Minute,
		RefreshTokenTTL: time.Duration(envInt("REFRESH_TOKEN_HOURS", 24*7)) * time.Hour,
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// envInt reads an int env var with a default fallback.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("config: invalid integer for %s: %s", key, v)
	}
	return def
}

func seconds(key string, def int) time.Duration {
	return time.Duration(envInt(key, def)) * time.Second
}
