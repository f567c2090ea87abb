package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taller/internal/core/apperror"
	"taller/internal/core/id"
	"taller/internal/core/types"
)

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memRepo struct {
	entries map[id.ID]*AccountingEntry
}

func newMemRepo() *memRepo {
	return &memRepo{entries: make(map[id.ID]*AccountingEntry)}
}

func (r *memRepo) Create(ctx context.Context, e *AccountingEntry) error {
	r.entries[e.ID] = e
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, eid id.ID) (*AccountingEntry, error) {
	e, ok := r.entries[eid]
	if !ok {
		return nil, apperror.NewNotFound("ledger entry", eid.String())
	}
	return e, nil
}

func (r *memRepo) Delete(ctx context.Context, eid id.ID) error {
	delete(r.entries, eid)
	return nil
}

func (r *memRepo) List(ctx context.Context, f EntryFilter) ([]*AccountingEntry, int64, error) {
	var out []*AccountingEntry
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (r *memRepo) ListByOrder(ctx context.Context, orderID id.ID) ([]*AccountingEntry, error) {
	var out []*AccountingEntry
	for _, e := range r.entries {
		if e.OrderID != nil && *e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memRepo) GetMonthlySummary(ctx context.Context, year, month int) ([]MonthlySummary, error) {
	byUnit := map[BusinessUnit]*MonthlySummary{}
	for _, e := range r.entries {
		if e.Year != year || e.Month != month {
			continue
		}
		s, ok := byUnit[e.Unit]
		if !ok {
			s = &MonthlySummary{Unit: e.Unit, Year: year, Month: month}
			byUnit[e.Unit] = s
		}
		if e.EntryType == EntryIncome {
			s.Income += e.Amount
		} else {
			s.Expense += e.Amount
		}
		s.Net = s.Income - s.Expense
	}
	var out []MonthlySummary
	for _, s := range byUnit {
		out = append(out, *s)
	}
	return out, nil
}

func TestProjectOrderCompletion_WorkshopAndParts(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, passthroughTx{})
	orderID := id.New()

	err := svc.ProjectOrderCompletion(context.Background(), OrderIncome{
		OrderID:          orderID,
		OrderNumber:      "OS-2026-00001",
		Date:             time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		Total:            types.Amount(100_000),
		SubtotalProducts: types.Amount(40_000),
	})
	require.NoError(t, err)

	entries, err := svc.ListByOrder(context.Background(), orderID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byUnit := map[BusinessUnit]*AccountingEntry{}
	for _, e := range entries {
		byUnit[e.Unit] = e
		assert.Equal(t, EntryIncome, e.EntryType)
		assert.Equal(t, 8, e.Month)
		assert.Equal(t, 2026, e.Year)
	}
	require.Contains(t, byUnit, UnitTaller)
	require.Contains(t, byUnit, UnitRepuestos)
	assert.Equal(t, types.Amount(100_000), byUnit[UnitTaller].Amount)
	assert.Equal(t, types.Amount(40_000), byUnit[UnitRepuestos].Amount)
}

func TestProjectOrderCompletion_NoPartsEntryWithoutProducts(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, passthroughTx{})
	orderID := id.New()

	err := svc.ProjectOrderCompletion(context.Background(), OrderIncome{
		OrderID:     orderID,
		OrderNumber: "OS-2026-00002",
		Date:        time.Now().UTC(),
		Total:       types.Amount(55_000),
	})
	require.NoError(t, err)

	entries, err := svc.ListByOrder(context.Background(), orderID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, UnitTaller, entries[0].Unit)
}

func TestDelete_RefusesProjectionEntries(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, passthroughTx{})
	ctx := context.Background()

	manual, err := svc.CreateManual(ctx, EntryExpense, UnitTaller, "Alquiler", types.Amount(2_000_000), time.Now())
	require.NoError(t, err)

	orderID := id.New()
	require.NoError(t, svc.ProjectOrderCompletion(ctx, OrderIncome{
		OrderID:     orderID,
		OrderNumber: "OS-2026-00003",
		Date:        time.Now().UTC(),
		Total:       types.Amount(10_000),
	}))
	projected, err := svc.ListByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, projected, 1)

	assert.NoError(t, svc.Delete(ctx, manual.ID))
	assert.Error(t, svc.Delete(ctx, projected[0].ID))
}

func TestCreateManual_Validation(t *testing.T) {
	svc := NewService(newMemRepo(), passthroughTx{})
	ctx := context.Background()

	_, err := svc.CreateManual(ctx, EntryExpense, "ferreteria", "x", types.Amount(1), time.Now())
	assert.Error(t, err, "unknown business unit")

	_, err = svc.CreateManual(ctx, EntryExpense, UnitTaller, "", types.Amount(1), time.Now())
	assert.Error(t, err, "empty concept")

	_, err = svc.CreateManual(ctx, EntryExpense, UnitTaller, "x", types.Amount(0), time.Now())
	assert.Error(t, err, "non-positive amount")
}

func TestGetMonthlySummary_Validation(t *testing.T) {
	svc := NewService(newMemRepo(), passthroughTx{})

	_, err := svc.GetMonthlySummary(context.Background(), 2026, 13)
	assert.Error(t, err)
}
