package reports

import (
	"context"
	"fmt"
	"time"

	"taller/internal/core/apperror"
	"taller/internal/domain"
	"taller/internal/domain/catalogs/product"
	"taller/internal/domain/filter"
	"taller/internal/domain/ledger"
	"taller/internal/domain/orders"
)

func typeFilter(t string) filter.Item {
	return filter.Item{Field: "type", Operator: filter.Equal, Value: t}
}

// LedgerSource supplies the monthly aggregation.
type LedgerSource interface {
	GetMonthlySummary(ctx context.Context, year, month int) ([]ledger.MonthlySummary, error)
}

// ProductSource supplies low-stock rows.
type ProductSource interface {
	FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error)
}

// OrderSource supplies the profitability rows.
type OrderSource interface {
	ListProfitability(ctx context.Context, from, to time.Time) ([]orders.ProfitabilityRow, error)
}

// Service assembles reports from the domain services.
type Service struct {
	ledger   LedgerSource
	products ProductSource
	orders   OrderSource
}

// NewService creates a new reports service.
func NewService(ledgerSrc LedgerSource, products ProductSource, orderSrc OrderSource) *Service {
	return &Service{
		ledger:   ledgerSrc,
		products: products,
		orders:   orderSrc,
	}
}

// GetMonthlyLedger generates the per-unit monthly summary.
func (s *Service) GetMonthlyLedger(ctx context.Context, year, month int) (*MonthlyLedgerReport, error) {
	units, err := s.ledger.GetMonthlySummary(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("get monthly summary: %w", err)
	}

	report := &MonthlyLedgerReport{
		Year:  year,
		Month: month,
		Units: units,
	}
	for _, u := range units {
		report.TotalIncome += u.Income
		report.TotalExpense += u.Expense
	}
	report.TotalNet = report.TotalIncome - report.TotalExpense

	return report, nil
}

// GetLowStock lists products at or below their minimum stock.
func (s *Service) GetLowStock(ctx context.Context, filter LowStockReportFilter) (*LowStockReport, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}

	lf := domain.ListFilter{
		Limit:   filter.Limit,
		Offset:  filter.Offset,
		OrderBy: "code",
	}
	if filter.Type != "" {
		lf.AdvancedFilters = append(lf.AdvancedFilters, typeFilter(filter.Type))
	}

	result, err := s.products.FindLowStock(ctx, lf)
	if err != nil {
		return nil, fmt.Errorf("find low stock: %w", err)
	}

	report := &LowStockReport{
		Items:      make([]LowStockItem, 0, len(result.Items)),
		TotalItems: result.TotalCount,
	}
	for _, p := range result.Items {
		report.Items = append(report.Items, LowStockItem{
			ProductID: p.ID,
			Code:      p.Code,
			Name:      p.Name,
			Type:      string(p.Type),
			Unit:      p.Unit,
			Stock:     p.Stock,
			MinStock:  p.MinStock,
		})
	}

	return report, nil
}

// GetProfitability summarizes completed orders for a period.
func (s *Service) GetProfitability(ctx context.Context, filter ProfitabilityReportFilter) (*ProfitabilityReport, error) {
	if filter.FromDate.IsZero() || filter.ToDate.IsZero() {
		return nil, apperror.NewValidation("fromDate and toDate are required")
	}
	if filter.FromDate.After(filter.ToDate) {
		return nil, apperror.NewValidation("fromDate must be before toDate")
	}

	rows, err := s.orders.ListProfitability(ctx, filter.FromDate, filter.ToDate)
	if err != nil {
		return nil, fmt.Errorf("list profitability: %w", err)
	}

	report := &ProfitabilityReport{
		FromDate:   filter.FromDate,
		ToDate:     filter.ToDate,
		Items:      make([]ProfitabilityItem, 0, len(rows)),
		OrderCount: len(rows),
	}
	for _, r := range rows {
		report.Items = append(report.Items, ProfitabilityItem{
			OrderID: r.OrderID,
			Number:  r.Number,
			Date:    r.Date,
			Total:   r.Total,
			Utility: r.Utility,
		})
		report.TotalRevenue += r.Total
		report.TotalUtility += r.Utility
	}

	return report, nil
}
