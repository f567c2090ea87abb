package settings

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taller/internal/core/apperror"
)

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memRepo struct {
	values map[string]*Setting
	gets   int
}

func newMemRepo() *memRepo {
	return &memRepo{values: make(map[string]*Setting)}
}

func (r *memRepo) Get(ctx context.Context, key string) (*Setting, error) {
	s, ok := r.values[key]
	if !ok {
		return nil, apperror.NewNotFound("setting", key)
	}
	return s, nil
}

func (r *memRepo) GetByPrefix(ctx context.Context, prefix string) ([]*Setting, error) {
	r.gets++
	var out []*Setting
	for k, s := range r.values {
		if strings.HasPrefix(k, prefix) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memRepo) List(ctx context.Context) ([]*Setting, error) {
	var out []*Setting
	for _, s := range r.values {
		out = append(out, s)
	}
	return out, nil
}

func (r *memRepo) Upsert(ctx context.Context, s *Setting) error {
	r.values[s.Key] = s
	return nil
}

func (r *memRepo) Delete(ctx context.Context, key string) error {
	delete(r.values, key)
	return nil
}

func TestSet_PricingKeyFiresRecalc(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, passthroughTx{})

	fired := 0
	svc.OnPricingChange(func(ctx context.Context) { fired++ })

	_, err := svc.Set(context.Background(), "pricing.margin.hardware", "28")
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	// Non-pricing keys do not trigger recalculation.
	_, err = svc.Set(context.Background(), "company.name", "Taller Central")
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
}

func TestSet_RejectsUnparsablePricingValue(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, passthroughTx{})

	fired := false
	svc.OnPricingChange(func(ctx context.Context) { fired = true })

	_, err := svc.Set(context.Background(), "pricing.exchange_rate", "abc")
	require.Error(t, err)
	assert.False(t, fired, "failed write must not trigger recalculation")
	assert.Empty(t, repo.values, "failed write must not be persisted")
}

func TestPricingConfig_CachedUntilWrite(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, passthroughTx{})
	ctx := context.Background()

	_, err := svc.PricingConfig(ctx)
	require.NoError(t, err)
	_, err = svc.PricingConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.gets, "second read must come from cache")

	_, err = svc.Set(ctx, "pricing.tax_rate", "5")
	require.NoError(t, err)

	cfg, err := svc.PricingConfig(ctx)
	require.NoError(t, err)
	assert.True(t, cfg.TaxRate.Equal(decimal.NewFromInt(5)))
}

func TestSet_ValidatesKey(t *testing.T) {
	svc := NewService(newMemRepo(), passthroughTx{})

	_, err := svc.Set(context.Background(), "  ", "x")
	assert.Error(t, err)
}
