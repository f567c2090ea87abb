package stock

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
	"taller/internal/domain/pricing"
)

type memJournal struct {
	movements []entity.StockMovement
}

func (j *memJournal) CreateMovement(ctx context.Context, m entity.StockMovement) error {
	j.movements = append(j.movements, m)
	return nil
}

func (j *memJournal) DeleteMovementsByRecorderLine(ctx context.Context, recorderLineID id.ID) ([]entity.StockMovement, error) {
	var deleted, kept []entity.StockMovement
	for _, m := range j.movements {
		if m.RecorderLineID == recorderLineID {
			deleted = append(deleted, m)
		} else {
			kept = append(kept, m)
		}
	}
	j.movements = kept
	return deleted, nil
}

func (j *memJournal) GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	for _, m := range j.movements {
		if m.RecorderID == recorderID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (j *memJournal) GetMovementHistory(ctx context.Context, productID id.ID, filter MovementFilter) ([]entity.StockMovement, error) {
	return nil, nil
}

func (j *memJournal) GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error) {
	return Turnover{}, nil
}

type memProducts struct {
	byID map[id.ID]*product.Product
}

func (s *memProducts) GetForUpdate(ctx context.Context, pid id.ID) (*product.Product, error) {
	p, ok := s.byID[pid]
	if !ok {
		return nil, apperror.NewNotFound("product", pid.String())
	}
	return p, nil
}

func (s *memProducts) UpdateStock(ctx context.Context, p *product.Product) error {
	s.byID[p.ID] = p
	return nil
}

func fixture(stockQty int) (*Service, *memJournal, *product.Product) {
	p := product.NewProduct("PR-1", "Filtro de aceite", pricing.TypeSparePart, decimal.NewFromInt(30_000))
	p.ID = id.New()
	p.Stock = types.NewQuantityFromInt(stockQty)

	journal := &memJournal{}
	svc := NewService(journal, &memProducts{byID: map[id.ID]*product.Product{p.ID: p}})
	return svc, journal, p
}

func movementFor(p *product.Product, qty int) Movement {
	return Movement{
		RecorderID:     id.New(),
		RecorderType:   "ServiceOrder",
		RecorderLineID: id.New(),
		Period:         time.Now().UTC(),
		ProductID:      p.ID,
		Quantity:       types.NewQuantityFromInt(qty),
	}
}

func TestConsume_DecrementsStockAndJournals(t *testing.T) {
	svc, journal, p := fixture(10)

	require.NoError(t, svc.Consume(context.Background(), movementFor(p, 3)))

	assert.Equal(t, types.NewQuantityFromInt(7), p.Stock)
	require.Len(t, journal.movements, 1)
	assert.Equal(t, entity.RecordTypeExpense, journal.movements[0].RecordType)
	assert.Equal(t, types.NewQuantityFromInt(3), journal.movements[0].Quantity)
}

func TestConsume_InsufficientStock(t *testing.T) {
	svc, journal, p := fixture(2)

	err := svc.Consume(context.Background(), movementFor(p, 5))
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)

	assert.Equal(t, types.NewQuantityFromInt(2), p.Stock, "stock must be untouched")
	assert.Empty(t, journal.movements, "no movement on failure")
}

func TestRestore_DeletesMovementAndReturnsStock(t *testing.T) {
	svc, journal, p := fixture(10)
	ctx := context.Background()

	m := movementFor(p, 4)
	require.NoError(t, svc.Consume(ctx, m))
	require.NoError(t, svc.Restore(ctx, m.RecorderLineID))

	assert.Equal(t, types.NewQuantityFromInt(10), p.Stock, "round trip restores balance")
	assert.Empty(t, journal.movements, "the line's movement is removed")
}

func TestRestore_OnlyTouchesItsOwnLine(t *testing.T) {
	svc, journal, p := fixture(10)
	ctx := context.Background()

	first := movementFor(p, 4)
	second := movementFor(p, 2)
	require.NoError(t, svc.Consume(ctx, first))
	require.NoError(t, svc.Consume(ctx, second))
	require.NoError(t, svc.Restore(ctx, first.RecorderLineID))

	assert.Equal(t, types.NewQuantityFromInt(8), p.Stock)
	require.Len(t, journal.movements, 1)
	assert.Equal(t, second.RecorderLineID, journal.movements[0].RecorderLineID)
}

func TestReceive_IncrementsStock(t *testing.T) {
	svc, journal, p := fixture(1)

	require.NoError(t, svc.Receive(context.Background(), movementFor(p, 5)))

	assert.Equal(t, types.NewQuantityFromInt(6), p.Stock)
	require.Len(t, journal.movements, 1)
	assert.Equal(t, entity.RecordTypeReceipt, journal.movements[0].RecordType)
}

func TestConsume_Validation(t *testing.T) {
	svc, _, p := fixture(10)

	m := movementFor(p, 0)
	assert.Error(t, svc.Consume(context.Background(), m))

	m = movementFor(p, 1)
	m.RecorderID = id.Nil()
	assert.Error(t, svc.Consume(context.Background(), m))
}
