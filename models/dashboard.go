package models

import "encoding/json"

type DashboardStats struct {
	TotalProducts    int               `json:"total_products"`
	LowStockProducts int               `json:"low_stock_products"`
	StockValue       Amount            `json:"stock_value"`
	TotalInvoices    int               `json:"total_invoices"`
	Revenue          Amount            `json:"revenue"`
	RecentInvoices   []json.RawMessage `json:"recent_invoices"`
	MonthlyRevenue   []json.RawMessage `json:"monthly_revenue"`
	TopProducts      []json.RawMessage `json:"top_products"`
}

type DashboardCharts struct {
	MonthlyRevenue []json.RawMessage `json:"monthly_revenue"`
	TopProducts    []json.RawMessage `json:"top_products"`
}

// EmptyDashboard is what a role without dashboard access sees.
func EmptyDashboard() DashboardStats {
	return DashboardStats{
		RecentInvoices: []json.RawMessage{},
		MonthlyRevenue: []json.RawMessage{},
		TopProducts:    []json.RawMessage{},
	}
}
