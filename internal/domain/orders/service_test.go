package orders

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taller/internal/core/apperror"
	"taller/internal/core/entity"
	"taller/internal/core/id"
	"taller/internal/core/types"
	"taller/internal/domain/catalogs/product"
	"taller/internal/domain/ledger"
	"taller/internal/domain/pricing"
	"taller/internal/domain/registers/stock"
	"taller/pkg/numerator"
)

// --- test doubles ---

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type staticConfig struct{}

func (staticConfig) PricingConfig(ctx context.Context) (pricing.Config, error) {
	return pricing.DefaultConfig(), nil
}

type alwaysExists struct{}

func (alwaysExists) Exists(ctx context.Context, _ id.ID) (bool, error) { return true, nil }

type memProducts struct {
	byID map[id.ID]*product.Product
}

func (s *memProducts) GetByID(ctx context.Context, pid id.ID) (*product.Product, error) {
	p, ok := s.byID[pid]
	if !ok {
		return nil, apperror.NewNotFound("product", pid.String())
	}
	return p, nil
}

func (s *memProducts) GetForUpdate(ctx context.Context, pid id.ID) (*product.Product, error) {
	return s.GetByID(ctx, pid)
}

func (s *memProducts) UpdateStock(ctx context.Context, p *product.Product) error {
	s.byID[p.ID] = p
	return nil
}

type memJournal struct {
	movements []entity.StockMovement
}

func (j *memJournal) CreateMovement(ctx context.Context, m entity.StockMovement) error {
	j.movements = append(j.movements, m)
	return nil
}

func (j *memJournal) DeleteMovementsByRecorderLine(ctx context.Context, lineID id.ID) ([]entity.StockMovement, error) {
	var deleted, kept []entity.StockMovement
	for _, m := range j.movements {
		if m.RecorderLineID == lineID {
			deleted = append(deleted, m)
		} else {
			kept = append(kept, m)
		}
	}
	j.movements = kept
	return deleted, nil
}

func (j *memJournal) GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error) {
	return nil, nil
}

func (j *memJournal) GetMovementHistory(ctx context.Context, productID id.ID, filter stock.MovementFilter) ([]entity.StockMovement, error) {
	return nil, nil
}

func (j *memJournal) GetTurnover(ctx context.Context, filter stock.TurnoverFilter) (stock.Turnover, error) {
	return stock.Turnover{}, nil
}

type memLedger struct {
	projected []ledger.OrderIncome
}

func (l *memLedger) ProjectOrderCompletion(ctx context.Context, in ledger.OrderIncome) error {
	l.projected = append(l.projected, in)
	return nil
}

type memOrderRepo struct {
	orders map[id.ID]*ServiceOrder
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[id.ID]*ServiceOrder)}
}

func clone(o *ServiceOrder) *ServiceOrder {
	c := *o
	c.ServiceLines = append([]ServiceLine(nil), o.ServiceLines...)
	c.ProductLines = append([]ProductLine(nil), o.ProductLines...)
	c.ExternalPartLines = append([]ExternalPartLine(nil), o.ExternalPartLines...)
	return &c
}

func (r *memOrderRepo) Create(ctx context.Context, o *ServiceOrder) error {
	r.orders[o.ID] = clone(o)
	return nil
}

func (r *memOrderRepo) GetByID(ctx context.Context, oid id.ID) (*ServiceOrder, error) {
	o, ok := r.orders[oid]
	if !ok {
		return nil, apperror.NewNotFound("service order", oid.String())
	}
	return clone(o), nil
}

func (r *memOrderRepo) GetByNumber(ctx context.Context, number string) (*ServiceOrder, error) {
	for _, o := range r.orders {
		if o.Number == number {
			return clone(o), nil
		}
	}
	return nil, apperror.NewNotFound("service order", number)
}

func (r *memOrderRepo) Update(ctx context.Context, o *ServiceOrder) error {
	stored := r.orders[o.ID]
	c := clone(o)
	c.ServiceLines = stored.ServiceLines
	c.ProductLines = stored.ProductLines
	c.ExternalPartLines = stored.ExternalPartLines
	r.orders[o.ID] = c
	return nil
}

func (r *memOrderRepo) UpdateTotals(ctx context.Context, o *ServiceOrder) error {
	stored := r.orders[o.ID]
	stored.LaborCharge = o.LaborCharge
	stored.SubtotalServices = o.SubtotalServices
	stored.SubtotalProducts = o.SubtotalProducts
	stored.SubtotalParts = o.SubtotalParts
	stored.Total = o.Total
	stored.Utility = o.Utility
	return nil
}

func (r *memOrderRepo) UpdateStatus(ctx context.Context, orderID id.ID, from, to Status) (bool, error) {
	stored, ok := r.orders[orderID]
	if !ok || stored.Status != from {
		return false, nil
	}
	stored.Status = to
	return true, nil
}

func (r *memOrderRepo) List(ctx context.Context, filter OrderFilter) ([]*ServiceOrder, int64, error) {
	var out []*ServiceOrder
	for _, o := range r.orders {
		out = append(out, clone(o))
	}
	return out, int64(len(out)), nil
}

func (r *memOrderRepo) ListProfitability(ctx context.Context, from, to time.Time) ([]ProfitabilityRow, error) {
	return nil, nil
}

func (r *memOrderRepo) CreateServiceLine(ctx context.Context, l *ServiceLine) error {
	o := r.orders[l.OrderID]
	o.ServiceLines = append(o.ServiceLines, *l)
	return nil
}

func (r *memOrderRepo) UpdateServiceLine(ctx context.Context, l *ServiceLine) error {
	o := r.orders[l.OrderID]
	for i := range o.ServiceLines {
		if o.ServiceLines[i].LineID == l.LineID {
			o.ServiceLines[i] = *l
			return nil
		}
	}
	return apperror.NewNotFound("service line", l.LineID.String())
}

func (r *memOrderRepo) DeleteServiceLine(ctx context.Context, orderID, lineID id.ID) error {
	o := r.orders[orderID]
	o.ServiceLines = removeLine(o.ServiceLines, func(l ServiceLine) bool { return l.LineID == lineID })
	return nil
}

func (r *memOrderRepo) CreateProductLine(ctx context.Context, l *ProductLine) error {
	o := r.orders[l.OrderID]
	o.ProductLines = append(o.ProductLines, *l)
	return nil
}

func (r *memOrderRepo) UpdateProductLine(ctx context.Context, l *ProductLine) error {
	o := r.orders[l.OrderID]
	for i := range o.ProductLines {
		if o.ProductLines[i].LineID == l.LineID {
			o.ProductLines[i] = *l
			return nil
		}
	}
	return apperror.NewNotFound("product line", l.LineID.String())
}

func (r *memOrderRepo) DeleteProductLine(ctx context.Context, orderID, lineID id.ID) error {
	o := r.orders[orderID]
	o.ProductLines = removeLine(o.ProductLines, func(l ProductLine) bool { return l.LineID == lineID })
	return nil
}

func (r *memOrderRepo) CreateExternalPartLine(ctx context.Context, l *ExternalPartLine) error {
	o := r.orders[l.OrderID]
	o.ExternalPartLines = append(o.ExternalPartLines, *l)
	return nil
}

func (r *memOrderRepo) UpdateExternalPartLine(ctx context.Context, l *ExternalPartLine) error {
	o := r.orders[l.OrderID]
	for i := range o.ExternalPartLines {
		if o.ExternalPartLines[i].LineID == l.LineID {
			o.ExternalPartLines[i] = *l
			return nil
		}
	}
	return apperror.NewNotFound("external part line", l.LineID.String())
}

func (r *memOrderRepo) DeleteExternalPartLine(ctx context.Context, orderID, lineID id.ID) error {
	o := r.orders[orderID]
	o.ExternalPartLines = removeLine(o.ExternalPartLines, func(l ExternalPartLine) bool { return l.LineID == lineID })
	return nil
}

// --- fixture ---

type fixture struct {
	svc      *Service
	repo     *memOrderRepo
	products *memProducts
	journal  *memJournal
	ledger   *memLedger
}

func newFixture(products ...*product.Product) *fixture {
	byID := make(map[id.ID]*product.Product)
	for _, p := range products {
		byID[p.ID] = p
	}

	repo := newMemOrderRepo()
	prodStore := &memProducts{byID: byID}
	journal := &memJournal{}
	led := &memLedger{}
	stockSvc := stock.NewService(journal, prodStore)

	svc := NewService(
		repo, passthroughTx{}, prodStore, stockSvc, led,
		alwaysExists{}, alwaysExists{}, staticConfig{}, numerator.NewMock(),
	)

	return &fixture{svc: svc, repo: repo, products: prodStore, journal: journal, ledger: led}
}

func testProduct(name string, salePrice, cost int64, stockQty int) *product.Product {
	p := product.NewProduct("PR-"+name, name, pricing.TypeSparePart, decimal.NewFromInt(cost))
	cat := pricing.CategoryRepuestos
	p.Category = &cat
	p.ID = id.New()
	p.SalePrice = types.Amount(salePrice)
	p.RetailPrice = types.Amount(salePrice)
	p.WholesalePrice = types.Amount(salePrice)
	p.Stock = types.NewQuantityFromInt(stockQty)
	return p
}

func openOrder(t *testing.T, f *fixture) *ServiceOrder {
	t.Helper()
	o := NewServiceOrder(id.New(), id.New())
	require.NoError(t, f.svc.Create(context.Background(), o))
	return o
}

// --- tests ---

func TestCreate_GeneratesNumberAndOpens(t *testing.T) {
	f := newFixture()
	o := openOrder(t, f)

	assert.Equal(t, StatusOpen, o.Status)
	assert.Contains(t, o.Number, "OS-")
	assert.True(t, o.Total.IsZero())
}

func TestTotals_SumAllParts(t *testing.T) {
	p := testProduct("filtro", 20_000, 10_000, 10)
	f := newFixture(p)
	o := openOrder(t, f)
	ctx := context.Background()

	_, err := f.svc.AddServiceLine(ctx, o.ID, ServiceLine{Description: "Cambio de aceite", Price: types.Amount(30_000)})
	require.NoError(t, err)

	_, err = f.svc.AddProductLine(ctx, o.ID, p.ID, types.NewQuantityFromInt(2), TierSale)
	require.NoError(t, err)

	_, err = f.svc.AddExternalPartLine(ctx, o.ID, ExternalPartLine{
		Name:         "Correa",
		Quantity:     types.NewQuantityFromInt(1),
		PurchaseCost: types.Amount(7_000),
		SalePrice:    types.Amount(10_000),
	})
	require.NoError(t, err)

	updated, err := f.svc.SetLaborCharge(ctx, o.ID, types.Amount(20_000))
	require.NoError(t, err)

	assert.Equal(t, types.Amount(30_000), updated.SubtotalServices)
	assert.Equal(t, types.Amount(40_000), updated.SubtotalProducts)
	assert.Equal(t, types.Amount(10_000), updated.SubtotalParts)
	assert.Equal(t, types.Amount(100_000), updated.Total)
	// Utility: products (20,000-10,000)*2 + parts (10,000-7,000)*1
	assert.Equal(t, types.Amount(23_000), updated.Utility)
}

func TestAddProductLine_ConsumesStock(t *testing.T) {
	p := testProduct("filtro", 20_000, 10_000, 5)
	f := newFixture(p)
	o := openOrder(t, f)

	_, err := f.svc.AddProductLine(context.Background(), o.ID, p.ID, types.NewQuantityFromInt(3), TierRetail)
	require.NoError(t, err)

	assert.Equal(t, types.NewQuantityFromInt(2), p.Stock)
	require.Len(t, f.journal.movements, 1)
	assert.Equal(t, entity.RecordTypeExpense, f.journal.movements[0].RecordType)
	assert.Equal(t, o.ID, f.journal.movements[0].RecorderID)
}

func TestAddProductLine_InsufficientStockRollsBack(t *testing.T) {
	p := testProduct("filtro", 20_000, 10_000, 1)
	f := newFixture(p)
	o := openOrder(t, f)

	_, err := f.svc.AddProductLine(context.Background(), o.ID, p.ID, types.NewQuantityFromInt(2), TierSale)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, types.NewQuantityFromInt(1), p.Stock)
}

func TestRemoveProductLine_RestoresStock(t *testing.T) {
	p := testProduct("filtro", 20_000, 10_000, 5)
	f := newFixture(p)
	o := openOrder(t, f)
	ctx := context.Background()

	updated, err := f.svc.AddProductLine(ctx, o.ID, p.ID, types.NewQuantityFromInt(3), TierSale)
	require.NoError(t, err)
	require.Len(t, updated.ProductLines, 1)

	updated, err = f.svc.RemoveProductLine(ctx, o.ID, updated.ProductLines[0].LineID)
	require.NoError(t, err)

	assert.Equal(t, types.NewQuantityFromInt(5), p.Stock, "stock round trip")
	assert.Empty(t, f.journal.movements, "movement removed with the line")
	assert.Empty(t, updated.ProductLines)
	assert.True(t, updated.Total.IsZero())
}

func TestUpdateProductLine_AdjustsStockToNewQuantity(t *testing.T) {
	p := testProduct("filtro", 20_000, 10_000, 10)
	f := newFixture(p)
	o := openOrder(t, f)
	ctx := context.Background()

	updated, err := f.svc.AddProductLine(ctx, o.ID, p.ID, types.NewQuantityFromInt(4), TierSale)
	require.NoError(t, err)
	lineID := updated.ProductLines[0].LineID

	updated, err = f.svc.UpdateProductLine(ctx, o.ID, lineID, types.NewQuantityFromInt(1))
	require.NoError(t, err)

	assert.Equal(t, types.NewQuantityFromInt(9), p.Stock)
	assert.Equal(t, types.Amount(20_000), updated.SubtotalProducts)
	require.Len(t, f.journal.movements, 1)
	assert.Equal(t, types.NewQuantityFromInt(1), f.journal.movements[0].Quantity)
}

func TestTerminalOrder_RejectsMutations(t *testing.T) {
	f := newFixture()
	o := openOrder(t, f)
	ctx := context.Background()

	_, err := f.svc.ChangeStatus(ctx, o.ID, StatusCancelled)
	require.NoError(t, err)

	_, err = f.svc.AddServiceLine(ctx, o.ID, ServiceLine{Description: "x", Price: 1})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeOrderClosed, appErr.Code)

	_, err = f.svc.SetLaborCharge(ctx, o.ID, types.Amount(5))
	assert.Error(t, err)
}

func TestStatusMachine_Edges(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// open → completed is not a legal edge.
	o := openOrder(t, f)
	_, err := f.svc.ChangeStatus(ctx, o.ID, StatusCompleted)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))

	// open → in_progress → completed works.
	_, err = f.svc.ChangeStatus(ctx, o.ID, StatusInProgress)
	require.NoError(t, err)
	_, err = f.svc.ChangeStatus(ctx, o.ID, StatusCompleted)
	require.NoError(t, err)

	// completed is terminal.
	_, err = f.svc.ChangeStatus(ctx, o.ID, StatusCancelled)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeOrderClosed, appErr.Code)
}

func TestCompletion_ProjectsLedgerExactlyOnce(t *testing.T) {
	p := testProduct("filtro", 20_000, 10_000, 10)
	f := newFixture(p)
	o := openOrder(t, f)
	ctx := context.Background()

	_, err := f.svc.AddProductLine(ctx, o.ID, p.ID, types.NewQuantityFromInt(2), TierSale)
	require.NoError(t, err)
	_, err = f.svc.SetLaborCharge(ctx, o.ID, types.Amount(60_000))
	require.NoError(t, err)

	_, err = f.svc.ChangeStatus(ctx, o.ID, StatusInProgress)
	require.NoError(t, err)
	_, err = f.svc.ChangeStatus(ctx, o.ID, StatusCompleted)
	require.NoError(t, err)

	require.Len(t, f.ledger.projected, 1)
	assert.Equal(t, types.Amount(100_000), f.ledger.projected[0].Total)
	assert.Equal(t, types.Amount(40_000), f.ledger.projected[0].SubtotalProducts)

	// Second completion attempt conflicts and projects nothing more.
	_, err = f.svc.ChangeStatus(ctx, o.ID, StatusCompleted)
	require.Error(t, err)
	assert.Len(t, f.ledger.projected, 1)
}

func TestCancellation_RestoresAllProductStock(t *testing.T) {
	p := testProduct("filtro", 20_000, 10_000, 10)
	f := newFixture(p)
	o := openOrder(t, f)
	ctx := context.Background()

	_, err := f.svc.AddProductLine(ctx, o.ID, p.ID, types.NewQuantityFromInt(4), TierSale)
	require.NoError(t, err)
	require.Equal(t, types.NewQuantityFromInt(6), p.Stock)

	_, err = f.svc.ChangeStatus(ctx, o.ID, StatusCancelled)
	require.NoError(t, err)

	assert.Equal(t, types.NewQuantityFromInt(10), p.Stock)
	assert.Empty(t, f.journal.movements)
	assert.Empty(t, f.ledger.projected, "cancellation writes no income")
}

// TestAggregator_ReconcilesAfterInterleavedMutations documents the known
// lost-update window: the aggregator reads all lines and writes totals
// without application-level locking, so interleaved mutations can briefly
// persist stale totals. The property relied upon is that every subsequent
// mutation recomputes from the full line set, so the last write is correct.
func TestAggregator_ReconcilesAfterInterleavedMutations(t *testing.T) {
	f := newFixture()
	o := openOrder(t, f)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.svc.AddServiceLine(ctx, o.ID, ServiceLine{Description: "trabajo", Price: types.Amount(10_000)})
		require.NoError(t, err)
	}

	final, err := f.svc.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(50_000), final.SubtotalServices)
	assert.Equal(t, types.Amount(50_000), final.Total)
}

func TestUpdateServiceLine_RecomputesTotals(t *testing.T) {
	f := newFixture()
	o := openOrder(t, f)
	ctx := context.Background()

	updated, err := f.svc.AddServiceLine(ctx, o.ID, ServiceLine{Description: "alineacion", Price: types.Amount(25_000)})
	require.NoError(t, err)
	lineID := updated.ServiceLines[0].LineID

	updated, err = f.svc.UpdateServiceLine(ctx, o.ID, lineID, ServiceLine{Description: "alineacion y balanceo", Price: types.Amount(40_000), Done: true})
	require.NoError(t, err)
	assert.Equal(t, types.Amount(40_000), updated.Total)

	updated, err = f.svc.RemoveServiceLine(ctx, o.ID, lineID)
	require.NoError(t, err)
	assert.True(t, updated.Total.IsZero())
}
