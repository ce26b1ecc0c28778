package routes

import (
	"github.com/gofiber/fiber/v2"

	"gestion-admin/mockapi/controllers"
	"gestion-admin/mockapi/middlewares"
	"gestion-admin/models"
)

// Register wires all HTTP routes.
func Register(app *fiber.App, h *controllers.Handler) {
	api := app.Group("/api")

	// Public auth endpoints
	auth := api.Group("/auth")
	auth.Post("/login/", h.Login)
	auth.Post("/token/refresh/", h.Refresh)
	auth.Post("/logout/", h.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("", middlewares.IsAuthenticatedHeader(h.Tokens))
	admin := middlewares.RequireRole(models.RoleAdmin)
	staff := middlewares.RequireRole(models.RoleAdmin, models.RoleSales, models.RoleTechnician)

	protected.Get("/auth/me/", h.Me)
	protected.Patch("/auth/profile/", h.UpdateProfile)
	protected.Post("/auth/change-password/", h.ChangePassword)

	users := protected.Group("/auth/users", admin)
	users.Get("/", h.ListUsers)
	users.Post("/", h.CreateUser)
	users.Put("/:id/", h.UpdateUser)
	users.Delete("/:id/", h.DeleteUser)

	clients := collection(protected, "/auth/clients", h, controllers.Clients, staff)
	clients.Delete("/:id/", h.Delete(controllers.Clients))

	collection(protected, "/products", h, controllers.Products, admin)
	collection(protected, "/stock-movements", h, controllers.StockMovements, admin)
	collection(protected, "/expenses", h, controllers.Expenses, admin)

	installations := collection(protected, "/installations", h, controllers.Installations, admin)
	installations.Post("/:id/change_status/", h.ChangeInstallationStatus)
	installations.Post("/:id/upload-contract/", h.UploadContract)
	installations.Post("/:id/record-payment/", h.RecordInstallmentPayment)

	invoices := collection(protected, "/invoices", h, controllers.Invoices, staff)
	invoices.Post("/:id/cancel/", h.CancelInvoice)
	invoices.Get("/:id/items/", h.InvoiceItems)
	invoices.Post("/:id/items/", h.InvoiceItems)
	invoices.Delete("/:id/items/", h.InvoiceItems)
	invoices.Post("/:id/convert_to_invoice/", h.ConvertProforma)
	invoices.Post("/:id/record-payment/", h.RecordInvoicePayment)

	quotes := collection(protected, "/quotes", h, controllers.Quotes, staff)
	quotes.Get("/:id/items/", h.QuoteItems)
	quotes.Post("/:id/items/", h.QuoteItems)
	quotes.Delete("/:id/items/", h.QuoteItems)
	quotes.Post("/:id/convert_to_invoice/", h.ConvertQuote)
	quotes.Post("/:id/mark_as_sent/", h.MarkQuote(models.QuoteSent))
	quotes.Post("/:id/mark_as_accepted/", h.MarkQuote(models.QuoteAccepted))
	quotes.Post("/:id/mark_as_refused/", h.MarkQuote(models.QuoteRefused))

	dashboard := protected.Group("/dashboard", admin)
	dashboard.Get("/stats/", h.DashboardStats)
	dashboard.Get("/charts/", h.DashboardCharts)
}

// collection registers list/create/retrieve/update/soft_delete for col under path.
func collection(r fiber.Router, path string, h *controllers.Handler, col controllers.Collection, gate fiber.Handler) fiber.Router {
	g := r.Group(path, gate)
	g.Get("/", h.List(col))
	g.Post("/", h.Create(col))
	g.Get("/:id/", h.Retrieve(col))
	g.Put("/:id/", h.Update(col))
	g.Patch("/:id/", h.Update(col))
	g.Post("/:id/soft_delete/", h.SoftDelete(col))
	return g
}
