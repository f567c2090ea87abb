package ledger

import (
	"context"
	"fmt"
	"time"

	"taller/internal/core/apperror"
	appctx "taller/internal/core/context"
	"taller/internal/core/id"
	"taller/internal/core/tx"
	"taller/internal/core/types"
	"taller/pkg/logger"
)

// Service provides business logic for the accounting ledger.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new ledger service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// CreateManual records an operator-entered entry (typically an expense:
// rent, salaries, supplier invoices).
func (s *Service) CreateManual(ctx context.Context, entryType EntryType, unit BusinessUnit, concept string, amount types.Amount, date time.Time) (*AccountingEntry, error) {
	e := NewEntry(entryType, unit, concept, amount, date)
	if email := appctx.GetUserEmail(ctx); email != "" {
		e.CreatedBy = &email
	}

	if err := e.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, e)
	})
	if err != nil {
		return nil, fmt.Errorf("create ledger entry: %w", err)
	}

	logger.Info(ctx, "ledger entry created",
		"entry_id", e.ID,
		"type", string(e.EntryType),
		"unit", string(e.Unit),
		"amount", e.Amount.Int64(),
	)

	return e, nil
}

// GetByID retrieves an entry.
func (s *Service) GetByID(ctx context.Context, entryID id.ID) (*AccountingEntry, error) {
	return s.repo.GetByID(ctx, entryID)
}

// Delete hard-deletes an entry. Projection entries (linked to an order)
// cannot be removed by hand; they only disappear with their order.
func (s *Service) Delete(ctx context.Context, entryID id.ID) error {
	e, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return err
	}

	if e.OrderID != nil {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"entries produced by order completion cannot be deleted manually").
			WithDetail("entryId", entryID.String()).
			WithDetail("orderId", e.OrderID.String())
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, entryID)
	})
}

// List retrieves entries matching the filter.
func (s *Service) List(ctx context.Context, filter EntryFilter) ([]*AccountingEntry, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}

// ListByOrder retrieves all entries linked to an order.
func (s *Service) ListByOrder(ctx context.Context, orderID id.ID) ([]*AccountingEntry, error) {
	return s.repo.ListByOrder(ctx, orderID)
}

// GetMonthlySummary aggregates income/expense/net per business unit.
func (s *Service) GetMonthlySummary(ctx context.Context, year, month int) ([]MonthlySummary, error) {
	if month < 1 || month > 12 {
		return nil, apperror.NewValidation("month must be 1..12").
			WithDetail("month", month)
	}
	if year < 2000 || year > 2100 {
		return nil, apperror.NewValidation("year out of range").
			WithDetail("year", year)
	}
	return s.repo.GetMonthlySummary(ctx, year, month)
}

// OrderIncome carries what the completion projection needs from an order.
type OrderIncome struct {
	OrderID          id.ID
	OrderNumber      string
	Date             time.Time
	Total            types.Amount
	SubtotalProducts types.Amount
}

// ProjectOrderCompletion writes the income entries for a completed order:
// one entry for the full total under the workshop unit, plus one for the
// products subtotal under the parts unit when products were sold. Must run
// inside the completion transaction; the status-machine guard upstream
// makes the projection exactly-once.
func (s *Service) ProjectOrderCompletion(ctx context.Context, in OrderIncome) error {
	if !in.Total.IsPositive() {
		return apperror.NewValidation("completed order total must be positive").
			WithDetail("orderId", in.OrderID.String())
	}

	workshop := NewEntry(EntryIncome, UnitTaller,
		fmt.Sprintf("Orden de servicio %s", in.OrderNumber), in.Total, in.Date)
	workshop.OrderID = &in.OrderID
	if err := s.repo.Create(ctx, workshop); err != nil {
		return fmt.Errorf("create workshop income entry: %w", err)
	}

	if in.SubtotalProducts.IsPositive() {
		parts := NewEntry(EntryIncome, UnitRepuestos,
			fmt.Sprintf("Repuestos orden %s", in.OrderNumber), in.SubtotalProducts, in.Date)
		parts.OrderID = &in.OrderID
		if err := s.repo.Create(ctx, parts); err != nil {
			return fmt.Errorf("create parts income entry: %w", err)
		}
	}

	logger.Info(ctx, "order completion projected to ledger",
		"order_id", in.OrderID,
		"total", in.Total.Int64(),
		"subtotal_products", in.SubtotalProducts.Int64(),
	)

	return nil
}
