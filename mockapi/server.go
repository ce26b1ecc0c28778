// Package mockapi is an in-process emulation of the REST backend the admin client
// talks to. It backs the integration tests and the `mock` command.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"

	"gestion-admin/config"
	"gestion-admin/database"
	"gestion-admin/mockapi/controllers"
	"gestion-admin/mockapi/middlewares"
	"gestion-admin/mockapi/routes"
	"gestion-admin/mockapi/store"
	"gestion-admin/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

// SeedUser is an account created at startup when its username is free.
type SeedUser struct {
	Username string
	Email    string
	Password string
	Role     string
}

var DefaultUsers = []SeedUser{
	{Username: "admin", Email: "admin@netsysteme.sn", Password: "admin1234", Role: models.RoleAdmin},
	{Username: "commercial", Email: "commercial@netsysteme.sn", Password: "commercial1234", Role: models.RoleSales},
	{Username: "technicien", Email: "technicien@netsysteme.sn", Password: "technicien1234", Role: models.RoleTechnician},
}

type Options struct {
	Config config.Config
	DB     *gorm.DB
	Users  []SeedUser
	// Quiet drops the request logger.
	Quiet bool
}

// New migrates the store, seeds the accounts and returns the configured app.
func New(opts Options) (*fiber.App, *controllers.Handler, error) {
	cfg := opts.Config
	if err := store.Migrate(opts.DB); err != nil {
		return nil, nil, err
	}
	if err := Seed(opts.DB, opts.Users...); err != nil {
		return nil, nil, err
	}
	tokens, err := middlewares.NewTokens(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		return nil, nil, err
	}
	h := &controllers.Handler{DB: opts.DB, Tokens: tokens}

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler:          middlewares.ErrorHandler,
		BodyLimit:             cfg.BodyLimitBytes,
		DisableStartupMessage: true,
	})

	if !opts.Quiet {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: false,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
	}))
	if cfg.RateLimitMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimitMax,
			Expiration: cfg.RateLimitWindow,
		}))
	}
	app.Use(middlewares.Tx(opts.DB))

	routes.Register(app, h)
	return app, h, nil
}

// Seed creates the given accounts, skipping usernames that already exist.
func Seed(db *gorm.DB, users ...SeedUser) error {
	for _, u := range users {
		var n int64
		if err := db.Model(&store.Account{}).Where("username = ?", u.Username).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		a, err := controllers.NewAccount(u.Username, u.Email, u.Password, u.Role)
		if err != nil {
			return err
		}
		if err := db.Create(&a).Error; err != nil {
			return fmt.Errorf("seed %s: %w", u.Username, err)
		}
	}
	return nil
}

// Serve runs app on ln until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, app *fiber.App, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() { errc <- app.Listener(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	if err := app.Shutdown(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return <-errc
}

// ListenAndServe opens :port and serves until ctx ends.
func ListenAndServe(ctx context.Context, app *fiber.App, port string) error {
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return err
	}
	log.Printf("mock API listening on %s (pid %d)", ln.Addr(), os.Getpid())
	return Serve(ctx, app, ln)
}

// OpenStore opens the emulator database. sqlite is pinned to one connection so
// request transactions never hit "database is locked".
func OpenStore(dsn string) (*gorm.DB, error) {
	db, err := database.Open(dsn)
	if err != nil {
		return nil, err
	}
	if db.Dialector.Name() == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}
