package product

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taller/internal/core/id"
	"taller/internal/core/types"
	"taller/internal/domain"
	"taller/internal/domain/pricing"
	"taller/pkg/numerator"
)

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type staticConfig struct{ cfg pricing.Config }

func (s staticConfig) PricingConfig(ctx context.Context) (pricing.Config, error) {
	return s.cfg, nil
}

type memRepo struct {
	products []*Product
	updated  map[id.ID]int
}

func (r *memRepo) Create(ctx context.Context, p *Product) error { return nil }
func (r *memRepo) GetByID(ctx context.Context, pid id.ID) (*Product, error) {
	for _, p := range r.products {
		if p.ID == pid {
			return p, nil
		}
	}
	return nil, errNotFound
}
func (r *memRepo) GetByCode(ctx context.Context, code string) (*Product, error) {
	return nil, errNotFound
}
func (r *memRepo) Update(ctx context.Context, p *Product) error { return nil }
func (r *memRepo) SetDeletionMark(ctx context.Context, pid id.ID, marked bool) error {
	return nil
}
func (r *memRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*Product], error) {
	start := f.Offset
	if start > len(r.products) {
		start = len(r.products)
	}
	end := start + f.Limit
	if end > len(r.products) {
		end = len(r.products)
	}
	return domain.ListResult[*Product]{
		Items:      r.products[start:end],
		TotalCount: int64(len(r.products)),
		Limit:      f.Limit,
		Offset:     f.Offset,
	}, nil
}
func (r *memRepo) Exists(ctx context.Context, pid id.ID) (bool, error) { return true, nil }
func (r *memRepo) ExistsByCode(ctx context.Context, code string) (bool, error) { return false, nil }
func (r *memRepo) FindBySKU(ctx context.Context, sku string) (*Product, error) {
	return nil, errNotFound
}
func (r *memRepo) GetForUpdate(ctx context.Context, pid id.ID) (*Product, error) {
	return r.GetByID(ctx, pid)
}
func (r *memRepo) UpdatePrices(ctx context.Context, p *Product) error {
	if r.updated == nil {
		r.updated = make(map[id.ID]int)
	}
	r.updated[p.ID]++
	return nil
}
func (r *memRepo) UpdateStock(ctx context.Context, p *Product) error { return nil }
func (r *memRepo) FindLowStock(ctx context.Context, f domain.ListFilter) (domain.ListResult[*Product], error) {
	return domain.ListResult[*Product]{}, nil
}

var errNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

func newTestProduct(name string, pType pricing.ProductType, cost int64) *Product {
	p := NewProduct("", name, pType, decimal.NewFromInt(cost))
	p.ID = id.New()
	p.Code = "PR-" + name
	return p
}

func newTestService(repo *memRepo) *Service {
	return NewService(repo, passthroughTx{}, staticConfig{cfg: pricing.DefaultConfig()}, numerator.NewMock())
}

func TestCreate_ComputesPrices(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo)

	p := NewProduct("", "Aceite 10W40", pricing.TypeLubricantLocal, decimal.NewFromInt(100_000))
	require.NoError(t, svc.Create(context.Background(), p))

	assert.NotEmpty(t, p.Code, "code must be generated")
	assert.Equal(t, types.Amount(135_000), p.SalePrice)
	assert.Equal(t, types.Amount(130_950), p.RetailPrice)
	assert.Equal(t, types.Amount(121_500), p.WholesalePrice)
}

func TestCreate_RejectsSparePartWithoutCategory(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo)

	p := NewProduct("", "Pastilla de freno", pricing.TypeSparePart, decimal.NewFromInt(50_000))
	err := svc.Create(context.Background(), p)
	assert.Error(t, err)
}

func TestRecalculatePrices_CollectsFailures(t *testing.T) {
	good := newTestProduct("good", pricing.TypeHardware, 10_000)
	bad := newTestProduct("bad", pricing.TypeHardware, 10_000)
	bad.Cost = decimal.Zero // invalid cost fails computation
	alsoGood := newTestProduct("also-good", pricing.TypeLubricantLocal, 20_000)

	repo := &memRepo{products: []*Product{good, bad, alsoGood}}
	svc := newTestService(repo)

	res, err := svc.RecalculatePrices(context.Background(), RecalcFilter{})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Attempted)
	assert.Equal(t, 2, res.Updated)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, bad.ID, res.Errors[0].ProductID)

	assert.Equal(t, 1, repo.updated[good.ID])
	assert.Equal(t, 1, repo.updated[alsoGood.ID])
	assert.Zero(t, repo.updated[bad.ID], "failed product must not be persisted")
}

func TestRecalculatePrices_AppliesCurrentConfig(t *testing.T) {
	p := newTestProduct("imported", pricing.TypeLubricantImport, 10)
	repo := &memRepo{products: []*Product{p}}
	svc := newTestService(repo)

	_, err := svc.RecalculatePrices(context.Background(), RecalcFilter{})
	require.NoError(t, err)

	// 10 USD * 7300 * 1.40 * 1.10 tax
	assert.Equal(t, types.Amount(112_420), p.SalePrice)
}
