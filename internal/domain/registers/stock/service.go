package stock

import (
	"context"
	"fmt"
	"time"

	"taller/internal/core/apperror"
	"taller/internal/core/entity"
	"taller/internal/core/id"
	"taller/internal/core/types"
	"taller/internal/domain/catalogs/product"
	"taller/pkg/logger"
)

// ProductStore is the slice of the product repository the register needs:
// row-locked reads and stock-only writes.
type ProductStore interface {
	GetForUpdate(ctx context.Context, id id.ID) (*product.Product, error)
	UpdateStock(ctx context.Context, p *product.Product) error
}

// Service provides stock movements paired with balance updates. All methods
// must be called inside the caller's transaction: the document that causes
// the movement and the movement itself commit or roll back together.
type Service struct {
	repo     Repository
	products ProductStore
}

// NewService creates a new stock register service.
func NewService(repo Repository, products ProductStore) *Service {
	return &Service{
		repo:     repo,
		products: products,
	}
}

// Movement describes one requested stock change.
type Movement struct {
	RecorderID     id.ID
	RecorderType   string
	RecorderLineID id.ID
	Period         time.Time
	ProductID      id.ID
	Quantity       types.Quantity
}

func (m Movement) validate() error {
	if !m.Quantity.IsPositive() {
		return apperror.NewValidation("movement quantity must be positive")
	}
	if id.IsNil(m.RecorderID) {
		return apperror.NewValidation("movement recorder is required")
	}
	if id.IsNil(m.ProductID) {
		return apperror.NewValidation("movement product is required")
	}
	return nil
}

// Consume decreases stock for a product. The product row is locked first,
// so concurrent consumers serialize and availability is checked against the
// committed balance. Fails with INSUFFICIENT_STOCK when on-hand quantity is
// not enough.
func (s *Service) Consume(ctx context.Context, m Movement) error {
	if err := m.validate(); err != nil {
		return err
	}

	p, err := s.products.GetForUpdate(ctx, m.ProductID)
	if err != nil {
		return fmt.Errorf("lock product %s: %w", m.ProductID, err)
	}

	if p.Stock < m.Quantity {
		return apperror.NewInsufficientStock(
			m.ProductID.String(),
			m.Quantity.Float64(),
			p.Stock.Float64(),
		)
	}

	movement := entity.NewStockMovement(
		m.RecorderID, m.RecorderType, m.RecorderLineID,
		m.Period, entity.RecordTypeExpense, m.ProductID, m.Quantity,
	)
	if err := s.repo.CreateMovement(ctx, movement); err != nil {
		return fmt.Errorf("create movement: %w", err)
	}

	p.Stock -= m.Quantity
	if err := s.products.UpdateStock(ctx, p); err != nil {
		return fmt.Errorf("update stock: %w", err)
	}

	logger.Debug(ctx, "stock consumed",
		"product_id", m.ProductID,
		"quantity", m.Quantity.String(),
		"recorder_id", m.RecorderID,
	)

	return nil
}

// Receive increases stock for a product with a receipt movement. Used for
// purchases and manual adjustments.
func (s *Service) Receive(ctx context.Context, m Movement) error {
	if err := m.validate(); err != nil {
		return err
	}

	p, err := s.products.GetForUpdate(ctx, m.ProductID)
	if err != nil {
		return fmt.Errorf("lock product %s: %w", m.ProductID, err)
	}

	movement := entity.NewStockMovement(
		m.RecorderID, m.RecorderType, m.RecorderLineID,
		m.Period, entity.RecordTypeReceipt, m.ProductID, m.Quantity,
	)
	if err := s.repo.CreateMovement(ctx, movement); err != nil {
		return fmt.Errorf("create movement: %w", err)
	}

	p.Stock += m.Quantity
	if err := s.products.UpdateStock(ctx, p); err != nil {
		return fmt.Errorf("update stock: %w", err)
	}

	logger.Debug(ctx, "stock received",
		"product_id", m.ProductID,
		"quantity", m.Quantity.String(),
		"recorder_id", m.RecorderID,
	)

	return nil
}

// Restore undoes a document line's consumption: the line's expense
// movements are deleted and the quantities returned to the product balance.
// Must run in the same transaction that removes the line.
func (s *Service) Restore(ctx context.Context, recorderLineID id.ID) error {
	if id.IsNil(recorderLineID) {
		return apperror.NewValidation("recorder line is required")
	}

	deleted, err := s.repo.DeleteMovementsByRecorderLine(ctx, recorderLineID)
	if err != nil {
		return fmt.Errorf("delete movements: %w", err)
	}

	for _, movement := range deleted {
		p, err := s.products.GetForUpdate(ctx, movement.ProductID)
		if err != nil {
			return fmt.Errorf("lock product %s: %w", movement.ProductID, err)
		}

		// Reverse whatever direction the movement had.
		p.Stock -= movement.SignedQuantity()
		if err := s.products.UpdateStock(ctx, p); err != nil {
			return fmt.Errorf("update stock: %w", err)
		}
	}

	logger.Debug(ctx, "stock movements reversed",
		"recorder_line_id", recorderLineID,
		"count", len(deleted),
	)

	return nil
}

// GetMovementsByRecorder retrieves all movements caused by a document.
func (s *Service) GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error) {
	return s.repo.GetMovementsByRecorder(ctx, recorderID)
}

// GetMovementHistory returns movement history for a product.
func (s *Service) GetMovementHistory(ctx context.Context, productID id.ID, filter MovementFilter) ([]entity.StockMovement, error) {
	return s.repo.GetMovementHistory(ctx, productID, filter)
}

// GetTurnover calculates receipt and expense totals for a period.
func (s *Service) GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error) {
	return s.repo.GetTurnover(ctx, filter)
}
