package orders

import (
	"context"
	"fmt"
	"time"

	"taller/internal/core/apperror"
	"taller/internal/core/id"
	"taller/internal/core/tx"
	"taller/internal/core/types"
	"taller/internal/domain/catalogs/product"
	"taller/internal/domain/ledger"
	"taller/internal/domain/pricing"
	"taller/internal/domain/registers/stock"
	"taller/pkg/logger"
	"taller/pkg/numerator"
)

const recorderType = "ServiceOrder"

// ProductSource is the slice of the product catalog the order service reads.
type ProductSource interface {
	GetByID(ctx context.Context, id id.ID) (*product.Product, error)
}

// StockRegister pairs line mutations with stock movements. Both methods must
// be invoked inside the order service's transaction.
type StockRegister interface {
	Consume(ctx context.Context, m stock.Movement) error
	Restore(ctx context.Context, recorderLineID id.ID) error
}

// LedgerProjector writes the completion income entries.
type LedgerProjector interface {
	ProjectOrderCompletion(ctx context.Context, in ledger.OrderIncome) error
}

// ExistsChecker verifies referenced catalog entities.
type ExistsChecker interface {
	Exists(ctx context.Context, id id.ID) (bool, error)
}

// Service provides business logic for service orders.
type Service struct {
	repo      Repository
	txManager tx.Manager
	products  ProductSource
	stock     StockRegister
	ledger    LedgerProjector
	clients   ExistsChecker
	vehicles  ExistsChecker
	config    product.ConfigSource
	numerator numerator.Generator
}

// NewService creates a new service order service.
func NewService(
	repo Repository,
	txManager tx.Manager,
	products ProductSource,
	stockReg StockRegister,
	ledgerSvc LedgerProjector,
	clients ExistsChecker,
	vehicles ExistsChecker,
	config product.ConfigSource,
	gen numerator.Generator,
) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		products:  products,
		stock:     stockReg,
		ledger:    ledgerSvc,
		clients:   clients,
		vehicles:  vehicles,
		config:    config,
		numerator: gen,
	}
}

// Create opens a new order. The number is generated (OS-YYYY-NNNNN) and the
// status forced to open.
func (s *Service) Create(ctx context.Context, o *ServiceOrder) error {
	o.Status = StatusOpen
	if o.Date.IsZero() {
		o.Date = time.Now().UTC()
	}

	if err := o.Validate(ctx); err != nil {
		return err
	}

	if ok, err := s.clients.Exists(ctx, o.ClientID); err != nil {
		return fmt.Errorf("check client: %w", err)
	} else if !ok {
		return apperror.NewNotFound("client", o.ClientID.String())
	}
	if ok, err := s.vehicles.Exists(ctx, o.VehicleID); err != nil {
		return fmt.Errorf("check vehicle: %w", err)
	} else if !ok {
		return apperror.NewNotFound("vehicle", o.VehicleID.String())
	}

	if o.Number == "" {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("OS"), nil, o.Date)
		if err != nil {
			return fmt.Errorf("generate order number: %w", err)
		}
		o.Number = number
	}

	o.RecalculateTotals()

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, o)
	})
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	logger.Info(ctx, "service order created",
		"order_id", o.ID,
		"number", o.Number,
		"client_id", o.ClientID,
	)

	return nil
}

// GetByID retrieves an order with all its lines.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*ServiceOrder, error) {
	return s.repo.GetByID(ctx, orderID)
}

// GetByNumber retrieves an order with all its lines.
func (s *Service) GetByNumber(ctx context.Context, number string) (*ServiceOrder, error) {
	return s.repo.GetByNumber(ctx, number)
}

// List retrieves order headers matching the filter.
func (s *Service) List(ctx context.Context, filter OrderFilter) ([]*ServiceOrder, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}

// UpdateHeader edits mutable header fields (mechanic, comment, date).
func (s *Service) UpdateHeader(ctx context.Context, o *ServiceOrder) error {
	if err := o.Validate(ctx); err != nil {
		return err
	}

	current, err := s.mutableOrder(ctx, o.ID)
	if err != nil {
		return err
	}

	// Status and totals never change through header edits.
	o.Status = current.Status
	o.Number = current.Number

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, o)
	})
}

// SetLaborCharge changes the flat labor amount and recomputes totals.
func (s *Service) SetLaborCharge(ctx context.Context, orderID id.ID, amount types.Amount) (*ServiceOrder, error) {
	if amount.IsNegative() {
		return nil, apperror.NewValidation("labor charge cannot be negative").
			WithDetail("field", "laborCharge")
	}

	var updated *ServiceOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.mutableOrder(ctx, orderID)
		if err != nil {
			return err
		}
		o.LaborCharge = amount
		updated = o
		return s.persistTotals(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// --- Service lines ---

// AddServiceLine appends a labor/service item.
func (s *Service) AddServiceLine(ctx context.Context, orderID id.ID, line ServiceLine) (*ServiceOrder, error) {
	if err := line.Validate(); err != nil {
		return nil, err
	}

	var updated *ServiceOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.mutableOrder(ctx, orderID)
		if err != nil {
			return err
		}

		line.LineID = id.New()
		line.OrderID = orderID
		line.LineNo = len(o.ServiceLines) + 1
		if err := s.repo.CreateServiceLine(ctx, &line); err != nil {
			return fmt.Errorf("create service line: %w", err)
		}

		o.ServiceLines = append(o.ServiceLines, line)
		updated = o
		return s.persistTotals(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateServiceLine edits a labor/service item.
func (s *Service) UpdateServiceLine(ctx context.Context, orderID, lineID id.ID, line ServiceLine) (*ServiceOrder, error) {
	if err := line.Validate(); err != nil {
		return nil, err
	}

	var updated *ServiceOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.mutableOrder(ctx, orderID)
		if err != nil {
			return err
		}

		idx := -1
		for i := range o.ServiceLines {
			if o.ServiceLines[i].LineID == lineID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return apperror.NewNotFound("service line", lineID.String())
		}

		existing := o.ServiceLines[idx]
		existing.Description = line.Description
		existing.Price = line.Price
		existing.Done = line.Done
		if err := s.repo.UpdateServiceLine(ctx, &existing); err != nil {
			return fmt.Errorf("update service line: %w", err)
		}

		o.ServiceLines[idx] = existing
		updated = o
		return s.persistTotals(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveServiceLine deletes a labor/service item.
func (s *Service) RemoveServiceLine(ctx context.Context, orderID, lineID id.ID) (*ServiceOrder, error) {
	var updated *ServiceOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.mutableOrder(ctx, orderID)
		if err != nil {
			return err
		}

		if err := s.repo.DeleteServiceLine(ctx, orderID, lineID); err != nil {
			return fmt.Errorf("delete service line: %w", err)
		}

		o.ServiceLines = removeLine(o.ServiceLines, func(l ServiceLine) bool { return l.LineID == lineID })
		updated = o
		return s.persistTotals(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// --- Product lines ---

// AddProductLine sells a stock product on the order: the line insert, the
// stock decrement and the totals update commit atomically. Insufficient
// stock fails the whole mutation.
func (s *Service) AddProductLine(ctx context.Context, orderID, productID id.ID, quantity types.Quantity, tier PriceTier) (*ServiceOrder, error) {
	line := ProductLine{ProductID: productID, Quantity: quantity, Tier: tier}
	if err := line.Validate(); err != nil {
		return nil, err
	}

	var updated *ServiceOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.mutableOrder(ctx, orderID)
		if err != nil {
			return err
		}

		p, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return err
		}

		unitCost, err := s.localUnitCost(ctx, p)
		if err != nil {
			return err
		}

		line.LineID = id.New()
		line.OrderID = orderID
		line.LineNo = len(o.ProductLines) + 1
		line.UnitPrice = priceForTier(p, tier)
		line.UnitCost = unitCost
		line.Subtotal = quantity.MulAmount(line.UnitPrice)

		if err := s.repo.CreateProductLine(ctx, &line); err != nil {
			return fmt.Errorf("create product line: %w", err)
		}

		if err := s.stock.Consume(ctx, stock.Movement{
			RecorderID:     orderID,
			RecorderType:   recorderType,
			RecorderLineID: line.LineID,
			Period:         o.Date,
			ProductID:      productID,
			Quantity:       quantity,
		}); err != nil {
			return err
		}

		o.ProductLines = append(o.ProductLines, line)
		updated = o
		return s.persistTotals(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateProductLine changes the quantity of a sold product. The old
// movement is reversed and a fresh one recorded, so the journal and the
// balance always agree with the line.
func (s *Service) UpdateProductLine(ctx context.Context, orderID, lineID id.ID, quantity types.Quantity) (*ServiceOrder, error) {
	if !quantity.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	var updated *ServiceOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.mutableOrder(ctx, orderID)
		if err != nil {
			return err
		}

		idx := -1
		for i := range o.ProductLines {
			if o.ProductLines[i].LineID == lineID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return apperror.NewNotFound("product line", lineID.String())
		}
		line := o.ProductLines[idx]

		if err := s.stock.Restore(ctx, line.LineID); err != nil {
			return err
		}
		if err := s.stock.Consume(ctx, stock.Movement{
			RecorderID:     orderID,
			RecorderType:   recorderType,
			RecorderLineID: line.LineID,
			Period:         o.Date,
			ProductID:      line.ProductID,
			Quantity:       quantity,
		}); err != nil {
			return err
		}

		line.Quantity = quantity
		line.Subtotal = quantity.MulAmount(line.UnitPrice)
		if err := s.repo.UpdateProductLine(ctx, &line); err != nil {
			return fmt.Errorf("update product line: %w", err)
		}

		o.ProductLines[idx] = line
		updated = o
		return s.persistTotals(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveProductLine deletes a sold product and returns its stock.
func (s *Service) RemoveProductLine(ctx context.Context, orderID, lineID id.ID) (*ServiceOrder, error) {
	var updated *ServiceOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.mutableOrder(ctx, orderID)
		if err != nil {
			return err
		}

		if err := s.repo.DeleteProductLine(ctx, orderID, lineID); err != nil {
			return fmt.Errorf("delete product line: %w", err)
		}
		if err := s.stock.Restore(ctx, lineID); err != nil {
			return err
		}

		o.ProductLines = removeLine(o.ProductLines, func(l ProductLine) bool { return l.LineID == lineID })
		updated = o
		return s.persistTotals(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// --- External part lines ---

// AddExternalPartLine records a part bought outside for this job.
func (s *Service) AddExternalPartLine(ctx context.Context, orderID id.ID, line ExternalPartLine) (*ServiceOrder, error) {
	if err := line.Validate(); err != nil {
		return nil, err
	}

	var updated *ServiceOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.mutableOrder(ctx, orderID)
		if err != nil {
			return err
		}

		line.LineID = id.New()
		line.OrderID = orderID
		line.LineNo = len(o.ExternalPartLines) + 1
		line.ComputeDerived()
		if err := s.repo.CreateExternalPartLine(ctx, &line); err != nil {
			return fmt.Errorf("create external part line: %w", err)
		}

		o.ExternalPartLines = append(o.ExternalPartLines, line)
		updated = o
		return s.persistTotals(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateExternalPartLine edits an external part.
func (s *Service) UpdateExternalPartLine(ctx context.Context, orderID, lineID id.ID, line ExternalPartLine) (*ServiceOrder, error) {
	if err := line.Validate(); err != nil {
		return nil, err
	}

	var updated *ServiceOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.mutableOrder(ctx, orderID)
		if err != nil {
			return err
		}

		idx := -1
		for i := range o.ExternalPartLines {
			if o.ExternalPartLines[i].LineID == lineID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return apperror.NewNotFound("external part line", lineID.String())
		}

		existing := o.ExternalPartLines[idx]
		existing.Name = line.Name
		existing.Description = line.Description
		existing.Quantity = line.Quantity
		existing.PurchaseCost = line.PurchaseCost
		existing.SalePrice = line.SalePrice
		existing.ComputeDerived()
		if err := s.repo.UpdateExternalPartLine(ctx, &existing); err != nil {
			return fmt.Errorf("update external part line: %w", err)
		}

		o.ExternalPartLines[idx] = existing
		updated = o
		return s.persistTotals(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveExternalPartLine deletes an external part.
func (s *Service) RemoveExternalPartLine(ctx context.Context, orderID, lineID id.ID) (*ServiceOrder, error) {
	var updated *ServiceOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.mutableOrder(ctx, orderID)
		if err != nil {
			return err
		}

		if err := s.repo.DeleteExternalPartLine(ctx, orderID, lineID); err != nil {
			return fmt.Errorf("delete external part line: %w", err)
		}

		o.ExternalPartLines = removeLine(o.ExternalPartLines, func(l ExternalPartLine) bool { return l.LineID == lineID })
		updated = o
		return s.persistTotals(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// --- Status machine ---

// ChangeStatus moves the order along the status machine. Completion runs
// the ledger projection in the same transaction; the previous-status guard
// in UpdateStatus makes the projection exactly-once even under concurrent
// completion attempts. Cancellation returns all sold product stock.
func (s *Service) ChangeStatus(ctx context.Context, orderID id.ID, to Status) (*ServiceOrder, error) {
	if !IsValidStatus(to) {
		return nil, apperror.NewValidation("invalid status").
			WithDetail("value", string(to))
	}

	var updated *ServiceOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}

		from := o.Status
		if !CanTransition(from, to) {
			if from.IsTerminal() {
				return apperror.NewOrderClosed(orderID.String(), string(from))
			}
			return apperror.NewConflict(
				fmt.Sprintf("cannot transition order from %s to %s", from, to)).
				WithDetail("orderId", orderID.String())
		}

		ok, err := s.repo.UpdateStatus(ctx, orderID, from, to)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if !ok {
			// Someone else moved the order first.
			return apperror.NewConflict("order status changed concurrently").
				WithDetail("orderId", orderID.String())
		}
		o.Status = to

		switch to {
		case StatusCompleted:
			if err := s.ledger.ProjectOrderCompletion(ctx, ledger.OrderIncome{
				OrderID:          o.ID,
				OrderNumber:      o.Number,
				Date:             o.Date,
				Total:            o.Total,
				SubtotalProducts: o.SubtotalProducts,
			}); err != nil {
				return err
			}
		case StatusCancelled:
			for _, l := range o.ProductLines {
				if err := s.stock.Restore(ctx, l.LineID); err != nil {
					return err
				}
			}
		}

		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order status changed",
		"order_id", orderID,
		"status", string(to),
	)

	return updated, nil
}

// ListProfitability aggregates completed orders for a period.
func (s *Service) ListProfitability(ctx context.Context, from, to time.Time) ([]ProfitabilityRow, error) {
	if !to.After(from) {
		return nil, apperror.NewValidation("period end must be after start")
	}
	return s.repo.ListProfitability(ctx, from, to)
}

// --- helpers ---

// mutableOrder loads the order and rejects mutations of terminal orders.
func (s *Service) mutableOrder(ctx context.Context, orderID id.ID) (*ServiceOrder, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status.IsTerminal() {
		return nil, apperror.NewOrderClosed(orderID.String(), string(o.Status))
	}
	return o, nil
}

// persistTotals recomputes the derived amounts and writes them in the
// ambient transaction.
func (s *Service) persistTotals(ctx context.Context, o *ServiceOrder) error {
	o.RecalculateTotals()
	if err := s.repo.UpdateTotals(ctx, o); err != nil {
		return fmt.Errorf("update totals: %w", err)
	}
	return nil
}

// localUnitCost converts the product's purchase cost into local currency
// when its pricing bucket does, rounding to a whole amount.
func (s *Service) localUnitCost(ctx context.Context, p *product.Product) (types.Amount, error) {
	cfg, err := s.config.PricingConfig(ctx)
	if err != nil {
		return 0, fmt.Errorf("load pricing config: %w", err)
	}

	cost := p.Cost
	bucket := cfg.Table.Resolve(pricing.KeyFor(p.Type, p.CategoryValue()))
	if bucket.ConvertCurrency {
		cost = cost.Mul(cfg.ExchangeRate)
	}
	return types.NewAmountFromMoney(cost), nil
}

func priceForTier(p *product.Product, tier PriceTier) types.Amount {
	switch tier {
	case TierRetail:
		return p.RetailPrice
	case TierWholesale:
		return p.WholesalePrice
	default:
		return p.SalePrice
	}
}

func removeLine[T any](lines []T, match func(T) bool) []T {
	out := lines[:0]
	for _, l := range lines {
		if !match(l) {
			out = append(out, l)
		}
	}
	return out
}
