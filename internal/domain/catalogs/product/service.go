package product

import (
	"context"
	"fmt"
	"time"

	"taller/internal/core/apperror"
	"taller/internal/core/id"
	"taller/internal/core/tx"
	"taller/internal/domain"
	"taller/internal/domain/filter"
	"taller/internal/domain/pricing"
	"taller/pkg/logger"
	"taller/pkg/numerator"
)

// ConfigSource supplies the current pricing configuration. Satisfied by the
// settings service.
type ConfigSource interface {
	PricingConfig(ctx context.Context) (pricing.Config, error)
}

// Service provides business logic for the Product catalog, including price
// computation on every create/update and catalog-wide recalculation.
type Service struct {
	*domain.CatalogService[*Product]
	repo      Repository
	txManager tx.Manager
	config    ConfigSource
	numerator numerator.Generator
}

// NewService creates a new Product service.
func NewService(repo Repository, txManager tx.Manager, config ConfigSource, gen numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		txManager:      txManager,
		config:         config,
		numerator:      gen,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.prepareForUpdate)

	return svc
}

// prepareForCreate handles code generation, SKU uniqueness and the initial
// price computation.
func (s *Service) prepareForCreate(ctx context.Context, p *Product) error {
	if p.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("PR"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		p.Code = code
	}

	if p.SKU != nil && *p.SKU != "" {
		if exists, _ := s.checkSKUExists(ctx, *p.SKU, p.ID); exists {
			return apperror.NewConflict("product with this SKU already exists").
				WithDetail("sku", *p.SKU)
		}
	}

	return s.computePrices(ctx, p)
}

// prepareForUpdate recomputes prices: cost, type or category may have changed.
func (s *Service) prepareForUpdate(ctx context.Context, p *Product) error {
	if p.SKU != nil && *p.SKU != "" {
		if exists, _ := s.checkSKUExists(ctx, *p.SKU, p.ID); exists {
			return apperror.NewConflict("product with this SKU already exists").
				WithDetail("sku", *p.SKU)
		}
	}

	return s.computePrices(ctx, p)
}

func (s *Service) computePrices(ctx context.Context, p *Product) error {
	cfg, err := s.config.PricingConfig(ctx)
	if err != nil {
		return fmt.Errorf("load pricing config: %w", err)
	}

	res, err := pricing.Compute(p.PricingInput(), cfg)
	if err != nil {
		return err
	}

	p.ApplyPrices(res)
	return nil
}

// FindBySKU retrieves a product by supplier article number.
func (s *Service) FindBySKU(ctx context.Context, sku string) (*Product, error) {
	return s.repo.FindBySKU(ctx, sku)
}

// FindLowStock retrieves products with stock at or below minimum.
func (s *Service) FindLowStock(ctx context.Context, f domain.ListFilter) (domain.ListResult[*Product], error) {
	return s.repo.FindLowStock(ctx, f)
}

func (s *Service) checkSKUExists(ctx context.Context, sku string, excludeID id.ID) (bool, error) {
	existing, err := s.repo.FindBySKU(ctx, sku)
	if err != nil {
		return false, nil
	}
	return existing.ID != excludeID, nil
}

// --- Bulk price recalculation ---

// RecalcError describes one product that failed recalculation.
type RecalcError struct {
	ProductID id.ID  `json:"productId"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// RecalcResult summarizes a bulk recalculation run.
type RecalcResult struct {
	Attempted int           `json:"attempted"`
	Updated   int           `json:"updated"`
	Errors    []RecalcError `json:"errors"`
}

// RecalcFilter narrows a bulk recalculation to a product type and/or
// spare-part category. Zero value means the whole catalog.
type RecalcFilter struct {
	Type     pricing.ProductType
	Category string
}

const recalcPageSize = 500

// RecalculatePrices recomputes and persists the price points of every
// active product matching the filter. The configuration is loaded once, so
// the whole batch prices consistently. Per-product failures are collected
// and reported; they never abort the run.
func (s *Service) RecalculatePrices(ctx context.Context, rf RecalcFilter) (RecalcResult, error) {
	cfg, err := s.config.PricingConfig(ctx)
	if err != nil {
		return RecalcResult{}, fmt.Errorf("load pricing config: %w", err)
	}

	result := RecalcResult{Errors: []RecalcError{}}

	lf := domain.ListFilter{
		Limit:   recalcPageSize,
		OrderBy: "code",
	}
	if rf.Type != "" {
		lf.AdvancedFilters = append(lf.AdvancedFilters, filter.Item{
			Field: "type", Operator: filter.Equal, Value: string(rf.Type),
		})
	}
	if rf.Category != "" {
		lf.AdvancedFilters = append(lf.AdvancedFilters, filter.Item{
			Field: "category", Operator: filter.Equal, Value: rf.Category,
		})
	}

	for {
		page, err := s.repo.List(ctx, lf)
		if err != nil {
			return result, fmt.Errorf("list products: %w", err)
		}

		for _, p := range page.Items {
			result.Attempted++
			if err := s.recalcOne(ctx, p, cfg); err != nil {
				result.Errors = append(result.Errors, RecalcError{
					ProductID: p.ID,
					Code:      p.Code,
					Message:   err.Error(),
				})
				continue
			}
			result.Updated++
		}

		if len(page.Items) < lf.Limit {
			break
		}
		lf.Offset += lf.Limit
	}

	logger.Info(ctx, "price recalculation finished",
		"attempted", result.Attempted,
		"updated", result.Updated,
		"failed", len(result.Errors))

	return result, nil
}

// recalcOne prices and persists a single product in its own transaction so
// one bad row cannot poison the batch.
func (s *Service) recalcOne(ctx context.Context, p *Product, cfg pricing.Config) error {
	res, err := pricing.Compute(p.PricingInput(), cfg)
	if err != nil {
		return err
	}
	p.ApplyPrices(res)

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.UpdatePrices(ctx, p)
	})
}
