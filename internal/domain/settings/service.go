package settings

import (
	"context"
	"fmt"
	"sync"
	"time"

	appctx "taller/internal/core/context"
	"taller/internal/core/tx"
	"taller/internal/domain/pricing"
	"taller/pkg/logger"
)

const pricingPrefix = "pricing."

// Service provides business logic for system settings. It is also the
// pricing configuration source for the product catalog: the assembled
// config is cached and invalidated whenever a pricing key changes.
type Service struct {
	repo      Repository
	txManager tx.Manager

	mu        sync.RWMutex
	cached    *pricing.Config
	onPricing []func(ctx context.Context)
}

// NewService creates a new settings service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// OnPricingChange registers a callback invoked after any pricing-relevant
// key is written or deleted. Used to wire the catalog-wide price
// recalculation without a package cycle.
func (s *Service) OnPricingChange(fn func(ctx context.Context)) {
	s.onPricing = append(s.onPricing, fn)
}

// Get retrieves a single setting.
func (s *Service) Get(ctx context.Context, key string) (*Setting, error) {
	return s.repo.Get(ctx, key)
}

// List retrieves all settings.
func (s *Service) List(ctx context.Context) ([]*Setting, error) {
	return s.repo.List(ctx)
}

// Set validates and writes one setting. Writes to pricing keys are
// validated against the full assembled config before commit, so a bad
// value can never reach the recalculation path.
func (s *Service) Set(ctx context.Context, key, value string) (*Setting, error) {
	setting := &Setting{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	if email := appctx.GetUserEmail(ctx); email != "" {
		setting.UpdatedBy = &email
	}

	if err := setting.Validate(ctx); err != nil {
		return nil, err
	}

	if pricing.IsPricingKey(key) {
		if err := s.checkPricingValue(ctx, key, value); err != nil {
			return nil, err
		}
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Upsert(ctx, setting)
	})
	if err != nil {
		return nil, fmt.Errorf("save setting %s: %w", key, err)
	}

	if pricing.IsPricingKey(key) {
		s.invalidate()
		s.firePricingChange(ctx)
	}

	return setting, nil
}

// Delete removes a setting; consumers fall back to built-in defaults.
func (s *Service) Delete(ctx context.Context, key string) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, key)
	})
	if err != nil {
		return fmt.Errorf("delete setting %s: %w", key, err)
	}

	if pricing.IsPricingKey(key) {
		s.invalidate()
		s.firePricingChange(ctx)
	}
	return nil
}

// PricingConfig implements the product catalog's configuration source.
func (s *Service) PricingConfig(ctx context.Context) (pricing.Config, error) {
	s.mu.RLock()
	if s.cached != nil {
		cfg := *s.cached
		s.mu.RUnlock()
		return cfg, nil
	}
	s.mu.RUnlock()

	cfg, err := s.loadPricingConfig(ctx)
	if err != nil {
		return pricing.Config{}, err
	}

	s.mu.Lock()
	s.cached = &cfg
	s.mu.Unlock()
	return cfg, nil
}

func (s *Service) loadPricingConfig(ctx context.Context) (pricing.Config, error) {
	stored, err := s.repo.GetByPrefix(ctx, pricingPrefix)
	if err != nil {
		return pricing.Config{}, fmt.Errorf("load pricing settings: %w", err)
	}

	values := make(map[string]string, len(stored))
	for _, st := range stored {
		values[st.Key] = st.Value
	}
	return pricing.ConfigFromSettings(values)
}

// checkPricingValue assembles the config with the candidate value applied
// and rejects the write if the result does not parse.
func (s *Service) checkPricingValue(ctx context.Context, key, value string) error {
	stored, err := s.repo.GetByPrefix(ctx, pricingPrefix)
	if err != nil {
		return fmt.Errorf("load pricing settings: %w", err)
	}

	values := make(map[string]string, len(stored)+1)
	for _, st := range stored {
		values[st.Key] = st.Value
	}
	values[key] = value

	_, err = pricing.ConfigFromSettings(values)
	return err
}

func (s *Service) invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

func (s *Service) firePricingChange(ctx context.Context) {
	logger.Info(ctx, "pricing configuration changed, triggering recalculation")
	for _, fn := range s.onPricing {
		fn(ctx)
	}
}
