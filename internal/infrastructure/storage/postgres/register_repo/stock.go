// Package register_repo provides PostgreSQL implementations for register repositories.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"taller/internal/core/entity"
	"taller/internal/core/id"
	"taller/internal/domain/registers/stock"
	"taller/internal/infrastructure/storage/postgres"
)

const stockMovementsTable = "reg_stock_movements"

// Compile-time check that StockRepo implements stock.Repository.
var _ stock.Repository = (*StockRepo)(nil)

// StockRepo implements stock.Repository over the movement journal table.
// Balances live on the product row; this repo only touches the journal.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

const movementCols = "line_id, recorder_id, recorder_type, recorder_line_id, " +
	"period, record_type, product_id, quantity, created_at"

// CreateMovement inserts a single movement record.
func (r *StockRepo) CreateMovement(ctx context.Context, m entity.StockMovement) error {
	q := r.builder.Insert(stockMovementsTable).
		Columns("line_id", "recorder_id", "recorder_type", "recorder_line_id",
			"period", "record_type", "product_id", "quantity", "created_at").
		Values(m.LineID, m.RecorderID, m.RecorderType, m.RecorderLineID,
			m.Period, m.RecordType, m.ProductID, m.Quantity, m.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}

	return nil
}

// DeleteMovementsByRecorderLine removes the movements recorded for one
// document line and returns the deleted records for balance compensation.
func (r *StockRepo) DeleteMovementsByRecorderLine(ctx context.Context, recorderLineID id.ID) ([]entity.StockMovement, error) {
	sql := "DELETE FROM " + stockMovementsTable +
		" WHERE recorder_line_id = $1 RETURNING " + movementCols

	var deleted []entity.StockMovement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &deleted, sql, recorderLineID); err != nil {
		return nil, fmt.Errorf("delete movements by recorder line: %w", err)
	}

	return deleted, nil
}

// GetMovementsByRecorder retrieves all movements caused by a document.
func (r *StockRepo) GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error) {
	q := r.builder.
		Select(movementCols).
		From(stockMovementsTable).
		Where(squirrel.Eq{"recorder_id": recorderID}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.StockMovement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("get movements by recorder: %w", err)
	}

	return movements, nil
}

// GetMovementHistory returns movement history for a product, newest first.
func (r *StockRepo) GetMovementHistory(ctx context.Context, productID id.ID, f stock.MovementFilter) ([]entity.StockMovement, error) {
	q := r.builder.
		Select(movementCols).
		From(stockMovementsTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("period DESC, created_at DESC")

	if f.RecordType != nil {
		q = q.Where(squirrel.Eq{"record_type": *f.RecordType})
	}
	if f.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"period": *f.FromDate})
	}
	if f.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"period": *f.ToDate})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.StockMovement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("get movement history: %w", err)
	}

	return movements, nil
}

// GetTurnover calculates receipt and expense totals for a period.
func (r *StockRepo) GetTurnover(ctx context.Context, f stock.TurnoverFilter) (stock.Turnover, error) {
	q := r.builder.
		Select(
			"COALESCE(SUM(quantity) FILTER (WHERE record_type = 'receipt'), 0) AS receipt",
			"COALESCE(SUM(quantity) FILTER (WHERE record_type = 'expense'), 0) AS expense",
		).
		From(stockMovementsTable).
		Where(squirrel.GtOrEq{"period": f.FromDate}).
		Where(squirrel.LtOrEq{"period": f.ToDate})

	if f.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *f.ProductID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return stock.Turnover{}, fmt.Errorf("build turnover query: %w", err)
	}

	var turnover stock.Turnover
	if f.ProductID != nil {
		turnover.ProductID = *f.ProductID
	}

	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).
		Scan(&turnover.Receipt, &turnover.Expense)
	if err != nil {
		return stock.Turnover{}, fmt.Errorf("get turnover: %w", err)
	}

	return turnover, nil
}
