package controllers

import (
	"time"

	"gestion-admin/mockapi/store"
	"gestion-admin/models"
	"gestion-admin/utils"

	"gorm.io/gorm"
)

const (
	colProducts      = "products"
	colMovements     = "stock_movements"
	colInvoices      = "invoices"
	colQuotes        = "quotes"
	colInstallations = "installations"
	colExpenses      = "expenses"
	colClients       = "clients"
)

var (
	Products = Collection{
		Name: colProducts,
		New:  func() any { return &models.Product{} },
	}
	StockMovements = Collection{
		Name:         colMovements,
		New:          func() any { return &models.StockMovement{} },
		BeforeCreate: (*Handler).beforeMovement,
	}
	Invoices = Collection{
		Name:         colInvoices,
		New:          func() any { return &models.Invoice{} },
		BeforeCreate: (*Handler).beforeInvoice,
	}
	Quotes = Collection{
		Name:         colQuotes,
		New:          func() any { return &models.Quote{} },
		BeforeCreate: (*Handler).beforeQuote,
	}
	Installations = Collection{
		Name:         colInstallations,
		New:          func() any { return &models.Installation{} },
		BeforeCreate: (*Handler).beforeInstallation,
	}
	Expenses = Collection{
		Name: colExpenses,
		New:  func() any { return &models.Expense{} },
		BeforeCreate: func(h *Handler, _ *gorm.DB, d store.Doc) error {
			defaultString(d, "date", h.today())
			defaultString(d, "status", models.InvoiceUnpaid)
			return nil
		},
	}
	Clients = Collection{
		Name: colClients,
		New:  func() any { return &models.Client{} },
	}
)

func defaultString(d store.Doc, key, value string) {
	if d.String(key) == "" {
		d[key] = value
	}
}

func (h *Handler) beforeQuote(db *gorm.DB, d store.Doc) error {
	lines, err := h.buildLines(db, d.List("items"))
	if err != nil {
		return err
	}
	delete(d, "items")
	d.SetList("quote_items", lines)
	setTotals(d, lines)
	d["quote_number"] = h.number("DEV")
	defaultString(d, "status", models.QuoteDraft)
	defaultString(d, "date", h.today())
	if d.String("expiration_date") == "" {
		if t, err := time.Parse("2006-01-02", d.String("date")); err == nil {
			d["expiration_date"] = t.AddDate(0, 0, 30).Format("2006-01-02")
		}
	}
	return nil
}

func (h *Handler) beforeInstallation(db *gorm.DB, d store.Doc) error {
	lines := d.List("products")
	used := make([]store.Doc, 0, len(lines))
	total := 0.0
	for i, l := range lines {
		p, err := store.Get(db, colProducts, l.Int("product"))
		if err != nil {
			return productMissing(err)
		}
		price := l.Float("unit_price")
		if price == 0 {
			price = p.Float("sale_price")
		}
		used = append(used, store.Doc{
			"id":            i + 1,
			"product":       l.Int("product"),
			"product_name":  p.String("name"),
			"quantity":      l.Int("quantity"),
			"unit_price":    price,
			"serial_number": l.String("serial_number"),
		})
		total += float64(l.Int("quantity")) * price
	}
	delete(d, "products")
	d.SetList("products_used", used)
	if d.Float("total_amount") == 0 {
		d["total_amount"] = utils.Round2(total)
	}
	if d.Float("remaining_amount") == 0 {
		rest := d.Float("total_amount") - d.Float("advance_amount")
		if rest < 0 {
			rest = 0
		}
		d["remaining_amount"] = utils.Round2(rest)
	}
	d["installation_number"] = h.number("INS")
	defaultString(d, "status", models.InstallationPlanned)
	defaultString(d, "installation_date", h.today())
	d.SetList("payments", nil)
	return nil
}
