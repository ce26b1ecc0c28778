package controllers

import (
	"sort"

	"gestion-admin/mockapi/store"
	"gestion-admin/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type monthRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

type topProduct struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// liveInvoices are the binding invoices that were not cancelled.
func liveInvoices(db *gorm.DB) ([]store.Doc, error) {
	all, err := store.List(db, colInvoices)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, inv := range all {
		if !inv.Bool("is_cancelled") && !inv.Bool("is_proforma") {
			out = append(out, inv)
		}
	}
	return out, nil
}

func charts(invoices []store.Doc) ([]monthRevenue, []topProduct) {
	byMonth := map[string]float64{}
	byProduct := map[string]*topProduct{}
	for _, inv := range invoices {
		if d := inv.String("date"); len(d) >= 7 {
			byMonth[d[:7]] += inv.Float("total_ttc")
		}
		for _, l := range inv.List("invoice_items") {
			name := l.String("product_name")
			p, ok := byProduct[name]
			if !ok {
				p = &topProduct{Name: name}
				byProduct[name] = p
			}
			p.Quantity += l.Int("quantity")
			p.Revenue = utils.Round2(p.Revenue + l.Float("subtotal"))
		}
	}

	months := make([]monthRevenue, 0, len(byMonth))
	for m, r := range byMonth {
		months = append(months, monthRevenue{Month: m, Revenue: utils.Round2(r)})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })

	top := make([]topProduct, 0, len(byProduct))
	for _, p := range byProduct {
		top = append(top, *p)
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Quantity != top[j].Quantity {
			return top[i].Quantity > top[j].Quantity
		}
		return top[i].Name < top[j].Name
	})
	if len(top) > 5 {
		top = top[:5]
	}
	return months, top
}

func (h *Handler) DashboardStats(c *fiber.Ctx) error {
	db := h.db(c)
	products, err := store.List(db, colProducts)
	if err != nil {
		return err
	}
	invoices, err := liveInvoices(db)
	if err != nil {
		return err
	}

	low := 0
	stockValue := 0.0
	for _, p := range products {
		if p.Int("quantity") <= p.Int("alert_threshold") {
			low++
		}
		stockValue += float64(p.Int("quantity")) * p.Float("purchase_price")
	}
	revenue := 0.0
	for _, inv := range invoices {
		revenue += inv.Float("total_ttc")
	}
	recent := invoices
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	months, top := charts(invoices)

	return c.JSON(fiber.Map{
		"total_products":     len(products),
		"low_stock_products": low,
		"stock_value":        utils.Round2(stockValue),
		"total_invoices":     len(invoices),
		"revenue":            utils.Round2(revenue),
		"recent_invoices":    recent,
		"monthly_revenue":    months,
		"top_products":       top,
	})
}

func (h *Handler) DashboardCharts(c *fiber.Ctx) error {
	invoices, err := liveInvoices(h.db(c))
	if err != nil {
		return err
	}
	months, top := charts(invoices)
	return c.JSON(fiber.Map{"monthly_revenue": months, "top_products": top})
}
