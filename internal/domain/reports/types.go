// Package reports provides report generation services.
package reports

import (
	"time"

	"taller/internal/core/id"
	"taller/internal/core/types"
	"taller/internal/domain/ledger"
)

// --- Monthly Ledger Report ---

// MonthlyLedgerReport aggregates income/expense/net per business unit for
// one calendar month, with an overall line.
type MonthlyLedgerReport struct {
	Year  int `json:"year"`
	Month int `json:"month"`

	Units []ledger.MonthlySummary `json:"units"`

	TotalIncome  types.Amount `json:"totalIncome"`
	TotalExpense types.Amount `json:"totalExpense"`
	TotalNet     types.Amount `json:"totalNet"`
}

// --- Low Stock Report ---

// LowStockReportFilter defines filter for the low stock report.
type LowStockReportFilter struct {
	// Type narrows to one product type (empty = all)
	Type string

	Limit  int
	Offset int
}

// LowStockItem is a single row in the low stock report.
type LowStockItem struct {
	ProductID id.ID          `json:"productId"`
	Code      string         `json:"code"`
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Unit      string         `json:"unit"`
	Stock     types.Quantity `json:"stock"`
	MinStock  types.Quantity `json:"minStock"`
}

// LowStockReport lists products at or below their minimum stock.
type LowStockReport struct {
	Items      []LowStockItem `json:"items"`
	TotalItems int64          `json:"totalItems"`
}

// --- Order Profitability Report ---

// ProfitabilityReportFilter defines the reporting period.
type ProfitabilityReportFilter struct {
	FromDate time.Time
	ToDate   time.Time
}

// ProfitabilityItem is a single completed order.
type ProfitabilityItem struct {
	OrderID id.ID        `json:"orderId"`
	Number  string       `json:"number"`
	Date    time.Time    `json:"date"`
	Total   types.Amount `json:"total"`
	Utility types.Amount `json:"utility"`
}

// ProfitabilityReport summarizes completed orders for a period.
type ProfitabilityReport struct {
	FromDate time.Time `json:"fromDate"`
	ToDate   time.Time `json:"toDate"`

	Items []ProfitabilityItem `json:"items"`

	TotalRevenue types.Amount `json:"totalRevenue"`
	TotalUtility types.Amount `json:"totalUtility"`
	OrderCount   int          `json:"orderCount"`
}
