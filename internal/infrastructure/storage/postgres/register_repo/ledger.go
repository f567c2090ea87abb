package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"taller/internal/core/apperror"
	"taller/internal/core/id"
	"taller/internal/domain/ledger"
	"taller/internal/infrastructure/storage/postgres"
)

const ledgerEntriesTable = "reg_ledger_entries"

// Compile-time check that LedgerRepo implements ledger.Repository.
var _ ledger.Repository = (*LedgerRepo)(nil)

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

const entryCols = "id, entry_type, unit, concept, amount, date, month, year, " +
	"order_id, product_id, created_at, created_by"

// Create inserts an entry.
func (r *LedgerRepo) Create(ctx context.Context, e *ledger.AccountingEntry) error {
	q := r.builder.Insert(ledgerEntriesTable).
		Columns("id", "entry_type", "unit", "concept", "amount",
			"date", "month", "year", "order_id", "product_id",
			"created_at", "created_by").
		Values(e.ID, e.EntryType, e.Unit, e.Concept, e.Amount,
			e.Date, e.Month, e.Year, e.OrderID, e.ProductID,
			e.CreatedAt, e.CreatedBy)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}

	return nil
}

// GetByID retrieves an entry.
func (r *LedgerRepo) GetByID(ctx context.Context, entryID id.ID) (*ledger.AccountingEntry, error) {
	q := r.builder.
		Select(entryCols).
		From(ledgerEntriesTable).
		Where(squirrel.Eq{"id": entryID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	e := &ledger.AccountingEntry{}
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("ledger entry", entryID.String())
		}
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}

	return e, nil
}

// Delete hard-deletes an entry.
func (r *LedgerRepo) Delete(ctx context.Context, entryID id.ID) error {
	q := r.builder.Delete(ledgerEntriesTable).
		Where(squirrel.Eq{"id": entryID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete ledger entry: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("ledger entry", entryID.String())
	}

	return nil
}

// List retrieves entries matching the filter, newest first.
func (r *LedgerRepo) List(ctx context.Context, f ledger.EntryFilter) ([]*ledger.AccountingEntry, int64, error) {
	q := r.builder.
		Select(entryCols).
		From(ledgerEntriesTable)

	if f.EntryType != nil {
		q = q.Where(squirrel.Eq{"entry_type": *f.EntryType})
	}
	if f.Unit != nil {
		q = q.Where(squirrel.Eq{"unit": *f.Unit})
	}
	if f.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"date": *f.FromDate})
	}
	if f.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"date": *f.ToDate})
	}
	if f.OrderID != nil {
		q = q.Where(squirrel.Eq{"order_id": *f.OrderID})
	}

	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	var total int64
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy("date DESC, created_at DESC")

	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}

	var entries []*ledger.AccountingEntry
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("list ledger entries: %w", err)
	}

	return entries, total, nil
}

// ListByOrder retrieves all entries linked to an order.
func (r *LedgerRepo) ListByOrder(ctx context.Context, orderID id.ID) ([]*ledger.AccountingEntry, error) {
	q := r.builder.
		Select(entryCols).
		From(ledgerEntriesTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []*ledger.AccountingEntry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list entries by order: %w", err)
	}

	return entries, nil
}

// GetMonthlySummary aggregates income/expense/net per business unit for one
// calendar month.
func (r *LedgerRepo) GetMonthlySummary(ctx context.Context, year, month int) ([]ledger.MonthlySummary, error) {
	q := r.builder.
		Select(
			"unit",
			fmt.Sprintf("%d AS year", year),
			fmt.Sprintf("%d AS month", month),
			"COALESCE(SUM(amount) FILTER (WHERE entry_type = 'income'), 0) AS income",
			"COALESCE(SUM(amount) FILTER (WHERE entry_type = 'expense'), 0) AS expense",
			"COALESCE(SUM(amount) FILTER (WHERE entry_type = 'income'), 0) - "+
				"COALESCE(SUM(amount) FILTER (WHERE entry_type = 'expense'), 0) AS net",
		).
		From(ledgerEntriesTable).
		Where(squirrel.Eq{"year": year}).
		Where(squirrel.Eq{"month": month}).
		GroupBy("unit").
		OrderBy("unit")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build summary query: %w", err)
	}

	var rows []ledger.MonthlySummary
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("get monthly summary: %w", err)
	}

	return rows, nil
}
