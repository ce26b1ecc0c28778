package facade

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"golang.org/x/sync/errgroup"

	"gestion-admin/client"
	"gestion-admin/models"
	"gestion-admin/notify"
)

// App bundles every entity facade over one client and one notifier.
type App struct {
	caller

	Products       *Products
	StockMovements *StockMovements
	Invoices       *Invoices
	Quotes         *Quotes
	Expenses       *Resource[models.Expense]
	Clients        *Resource[models.Client]
	Users          *Users
	Installations  *Installations
	Dashboard      *Dashboard
}

func New(api *client.Client, note *notify.Notifier) *App {
	a := &App{caller: caller{api: api, note: note}}
	a.Products = newProducts(api, note)
	a.StockMovements = newStockMovements(api, note, a.Products)
	a.Invoices = newInvoices(api, note, a.Products)
	a.Quotes = newQuotes(api, note, a.Invoices)
	a.Expenses = newExpenses(api, note)
	a.Clients = newClients(api, note)
	a.Users = newUsers(api, note)
	a.Installations = newInstallations(api, note)
	a.Dashboard = newDashboard(api, note)
	return a
}

func (a *App) Notifier() *notify.Notifier { return a.note }

func (a *App) Client() *client.Client { return a.api }

// Loading is true while any request is in flight.
func (a *App) Loading() bool { return a.api.Pending() > 0 }

// Login authenticates and starts the session.
func (a *App) Login(ctx context.Context, username, password string) (models.AuthUser, error) {
	creds := map[string]string{"username": username, "password": password}
	resp, err := a.api.Public(ctx, http.MethodPost, "/api/auth/login/", creds)
	if ctx.Err() != nil {
		return models.AuthUser{}, ctx.Err()
	}
	if err != nil {
		a.note.Error("Erreur de connexion")
		return models.AuthUser{}, fmt.Errorf("login: %w", err)
	}
	if !resp.OK() {
		msg := client.MessageFromBody(resp.Body)
		if msg == "" {
			msg = "Identifiants invalides"
		}
		a.note.Error(msg)
		return models.AuthUser{}, &client.APIError{Status: resp.StatusCode, Message: msg, Body: resp.Body}
	}

	var lr models.LoginResponse
	if err := resp.Decode(&lr); err != nil || lr.Access == "" {
		a.note.Error("Erreur de connexion")
		return models.AuthUser{}, errors.New("login: malformed response")
	}
	if err := a.api.Session().Begin(lr); err != nil {
		return models.AuthUser{}, err
	}
	a.note.Success("Connexion réussie")
	u, _ := a.api.Session().User()
	return u, nil
}

// Logout tells the backend to revoke the refresh token, ignoring any failure, then
// drops the session and every cached collection.
func (a *App) Logout(ctx context.Context) {
	sess := a.api.Session()
	if refresh := sess.RefreshToken(); refresh != "" {
		if _, err := a.api.Public(ctx, http.MethodPost, "/api/auth/logout/", map[string]string{"refresh": refresh}); err != nil {
			log.Printf("facade: logout call failed: %v", err)
		}
	}
	sess.Clear()
	a.reset()
}

func (a *App) reset() {
	a.Products.Collection().Replace(nil)
	a.StockMovements.res.Collection().Replace(nil)
	a.Invoices.Collection().Replace(nil)
	a.Quotes.Collection().Replace(nil)
	a.Expenses.Collection().Replace(nil)
	a.Clients.Collection().Replace(nil)
	a.Users.Collection().Replace(nil)
	a.Installations.Collection().Replace(nil)
	a.Dashboard.reset()
}

// UpdateProfile edits the signed-in user's username and email.
func (a *App) UpdateProfile(ctx context.Context, p models.ProfileUpdate) (models.AuthUser, error) {
	if err := models.Validate(p); err != nil {
		return models.AuthUser{}, err
	}
	var updated models.AuthUser
	if err := a.call(ctx, http.MethodPatch, "/api/auth/profile/", p, "Erreur lors de la mise à jour du profil", &updated); err != nil {
		return models.AuthUser{}, err
	}
	sess := a.api.Session()
	_ = sess.UpdateUser(func(u *models.AuthUser) {
		u.Username, u.Email = updated.Username, updated.Email
	})
	a.note.Success("Profil mis à jour avec succès")
	u, _ := sess.User()
	return u, nil
}

func (a *App) ChangePassword(ctx context.Context, p models.PasswordChange) error {
	if err := models.Validate(p); err != nil {
		return err
	}
	if err := a.call(ctx, http.MethodPost, "/api/auth/change-password/", p, "Erreur lors du changement de mot de passe", nil); err != nil {
		return err
	}
	a.note.Success("Mot de passe changé avec succès")
	return nil
}

// LoadAll runs the initial loads after login concurrently. Admins load every
// collection; other roles only invoices, quotes and clients. Loads are independent:
// one failing does not stop the others, and the first error is returned.
func (a *App) LoadAll(ctx context.Context) error {
	u, ok := a.api.Session().User()
	if !ok {
		return nil
	}
	var g errgroup.Group
	run := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			if err := fn(ctx); err != nil {
				log.Printf("facade: load %s: %v", name, err)
				return err
			}
			return nil
		})
	}

	if u.IsAdmin() {
		run("products", discard(a.Products.List))
		run("stock movements", discard(a.StockMovements.List))
		run("dashboard stats", discard(a.Dashboard.Stats))
		run("dashboard charts", discard(a.Dashboard.Charts))
		run("expenses", discard(a.Expenses.List))
		run("users", discard(a.Users.List))
		run("installations", discard(a.Installations.List))
	}
	run("invoices", discard(a.Invoices.List))
	run("quotes", discard(a.Quotes.List))
	run("clients", discard(a.Clients.List))
	return g.Wait()
}

func discard[T any](fn func(context.Context) (T, error)) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := fn(ctx)
		return err
	}
}
