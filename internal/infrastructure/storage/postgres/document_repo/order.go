// Package document_repo provides PostgreSQL implementations for document repositories.
package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"taller/internal/core/apperror"
	"taller/internal/core/id"
	"taller/internal/domain/orders"
	"taller/internal/infrastructure/storage/postgres"
)

const (
	ordersTable       = "doc_service_orders"
	serviceLinesTable = "doc_order_service_lines"
	productLinesTable = "doc_order_product_lines"
	partLinesTable    = "doc_order_part_lines"
)

// Compile-time check that OrderRepo implements orders.Repository.
var _ orders.Repository = (*OrderRepo)(nil)

// OrderRepo implements orders.Repository over four tables: the order header
// and one table per line kind.
type OrderRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
}

// NewOrderRepo creates a new service order repository.
func NewOrderRepo(txManager *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[orders.ServiceOrder](),
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *OrderRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *OrderRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *OrderRepo) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(ordersTable)
}

// Create inserts the order header.
func (r *OrderRepo) Create(ctx context.Context, o *orders.ServiceOrder) error {
	data := postgres.StructToMap(o)

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.Builder().
		Insert(ordersTable).
		SetMap(filteredData)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

// GetByID retrieves the order with all its lines.
func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*orders.ServiceOrder, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": orderID}).
		Limit(1)

	return r.getOne(ctx, q, orderID.String())
}

// GetByNumber retrieves the order with all its lines.
func (r *OrderRepo) GetByNumber(ctx context.Context, number string) (*orders.ServiceOrder, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"number": number}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	return r.getOne(ctx, q, number)
}

func (r *OrderRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, idOrNumber string) (*orders.ServiceOrder, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	o := &orders.ServiceOrder{}
	if err := pgxscan.Get(ctx, r.querier(ctx), o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("service order", idOrNumber)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if err := r.loadLines(ctx, o); err != nil {
		return nil, err
	}

	return o, nil
}

func (r *OrderRepo) loadLines(ctx context.Context, o *orders.ServiceOrder) error {
	querier := r.querier(ctx)

	o.ServiceLines = make([]orders.ServiceLine, 0)
	o.ProductLines = make([]orders.ProductLine, 0)
	o.ExternalPartLines = make([]orders.ExternalPartLine, 0)

	q := r.Builder().
		Select("line_id", "order_id", "line_no", "description", "price", "done").
		From(serviceLinesTable).
		Where(squirrel.Eq{"order_id": o.ID}).
		OrderBy("line_no")
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build service lines query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &o.ServiceLines, sql, args...); err != nil {
		return fmt.Errorf("load service lines: %w", err)
	}

	q = r.Builder().
		Select("line_id", "order_id", "line_no", "product_id", "quantity",
			"tier", "unit_price", "unit_cost", "subtotal").
		From(productLinesTable).
		Where(squirrel.Eq{"order_id": o.ID}).
		OrderBy("line_no")
	sql, args, err = q.ToSql()
	if err != nil {
		return fmt.Errorf("build product lines query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &o.ProductLines, sql, args...); err != nil {
		return fmt.Errorf("load product lines: %w", err)
	}

	q = r.Builder().
		Select("line_id", "order_id", "line_no", "name", "description",
			"quantity", "purchase_cost", "sale_price", "subtotal", "utility").
		From(partLinesTable).
		Where(squirrel.Eq{"order_id": o.ID}).
		OrderBy("line_no")
	sql, args, err = q.ToSql()
	if err != nil {
		return fmt.Errorf("build part lines query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &o.ExternalPartLines, sql, args...); err != nil {
		return fmt.Errorf("load part lines: %w", err)
	}

	return nil
}

// Update persists header fields with optimistic locking.
func (r *OrderRepo) Update(ctx context.Context, o *orders.ServiceOrder) error {
	data := postgres.StructToMap(o)

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if col == "id" || col == "created_at" || col == "created_by" {
			continue
		}
		if col == "version" || col == "updated_at" {
			continue // managed by repo
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.Builder().
		Update(ordersTable).
		SetMap(filteredData).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": o.ID}).
		Where(squirrel.Eq{"version": o.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("service order", o.ID)
	}

	return nil
}

// UpdateTotals persists only the derived total columns and labor charge.
// Totals follow from the lines, they are not user edits, so the version
// check is bypassed on purpose.
func (r *OrderRepo) UpdateTotals(ctx context.Context, o *orders.ServiceOrder) error {
	q := r.Builder().
		Update(ordersTable).
		Set("labor_charge", o.LaborCharge).
		Set("subtotal_services", o.SubtotalServices).
		Set("subtotal_products", o.SubtotalProducts).
		Set("subtotal_parts", o.SubtotalParts).
		Set("total", o.Total).
		Set("utility", o.Utility).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": o.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update totals: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update totals: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("service order", o.ID.String())
	}

	return nil
}

// UpdateStatus transitions the order status guarded by the previous status.
// Returns false when the order was not in `from` anymore.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID id.ID, from, to orders.Status) (bool, error) {
	q := r.Builder().
		Update(ordersTable).
		Set("status", to).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": orderID}).
		Where(squirrel.Eq{"status": from})

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build update status: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("update status: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// List retrieves orders (headers only) matching the filter.
func (r *OrderRepo) List(ctx context.Context, f orders.OrderFilter) ([]*orders.ServiceOrder, int64, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false})

	if f.Status != nil {
		q = q.Where(squirrel.Eq{"status": *f.Status})
	}
	if f.ClientID != nil {
		q = q.Where(squirrel.Eq{"client_id": *f.ClientID})
	}
	if f.VehicleID != nil {
		q = q.Where(squirrel.Eq{"vehicle_id": *f.VehicleID})
	}
	if f.MechanicID != nil {
		q = q.Where(squirrel.Eq{"mechanic_id": *f.MechanicID})
	}
	if f.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"date": *f.FromDate})
	}
	if f.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"date": *f.ToDate})
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"comment": pattern},
		})
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}

	querier := r.querier(ctx)
	var total int64
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy("date DESC, number DESC")

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

	var items []*orders.ServiceOrder
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	return items, total, nil
}

// ListProfitability aggregates completed orders for a period.
func (r *OrderRepo) ListProfitability(ctx context.Context, from, to time.Time) ([]orders.ProfitabilityRow, error) {
	q := r.Builder().
		Select("id AS order_id", "number", "date", "total", "utility").
		From(ordersTable).
		Where(squirrel.Eq{"status": orders.StatusCompleted}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.GtOrEq{"date": from}).
		Where(squirrel.LtOrEq{"date": to}).
		OrderBy("date", "number")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build profitability query: %w", err)
	}

	var rows []orders.ProfitabilityRow
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list profitability: %w", err)
	}

	return rows, nil
}

// --- Line tables ---

// CreateServiceLine inserts a service line.
func (r *OrderRepo) CreateServiceLine(ctx context.Context, l *orders.ServiceLine) error {
	q := r.Builder().
		Insert(serviceLinesTable).
		Columns("line_id", "order_id", "line_no", "description", "price", "done").
		Values(l.LineID, l.OrderID, l.LineNo, l.Description, l.Price, l.Done)

	sql, args, err := q.ToSql()
	return r.execLine(ctx, sql, args, err)
}

// UpdateServiceLine updates a service line.
func (r *OrderRepo) UpdateServiceLine(ctx context.Context, l *orders.ServiceLine) error {
	q := r.Builder().
		Update(serviceLinesTable).
		Set("description", l.Description).
		Set("price", l.Price).
		Set("done", l.Done).
		Where(squirrel.Eq{"line_id": l.LineID}).
		Where(squirrel.Eq{"order_id": l.OrderID})

	sql, args, err := q.ToSql()
	return r.execLineAffected(ctx, sql, args, err)
}

// DeleteServiceLine removes a service line.
func (r *OrderRepo) DeleteServiceLine(ctx context.Context, orderID, lineID id.ID) error {
	return r.deleteLine(ctx, serviceLinesTable, orderID, lineID)
}

// CreateProductLine inserts a product line.
func (r *OrderRepo) CreateProductLine(ctx context.Context, l *orders.ProductLine) error {
	q := r.Builder().
		Insert(productLinesTable).
		Columns("line_id", "order_id", "line_no", "product_id", "quantity",
			"tier", "unit_price", "unit_cost", "subtotal").
		Values(l.LineID, l.OrderID, l.LineNo, l.ProductID, l.Quantity,
			l.Tier, l.UnitPrice, l.UnitCost, l.Subtotal)

	sql, args, err := q.ToSql()
	return r.execLine(ctx, sql, args, err)
}

// UpdateProductLine updates a product line.
func (r *OrderRepo) UpdateProductLine(ctx context.Context, l *orders.ProductLine) error {
	q := r.Builder().
		Update(productLinesTable).
		Set("product_id", l.ProductID).
		Set("quantity", l.Quantity).
		Set("tier", l.Tier).
		Set("unit_price", l.UnitPrice).
		Set("unit_cost", l.UnitCost).
		Set("subtotal", l.Subtotal).
		Where(squirrel.Eq{"line_id": l.LineID}).
		Where(squirrel.Eq{"order_id": l.OrderID})

	sql, args, err := q.ToSql()
	return r.execLineAffected(ctx, sql, args, err)
}

// DeleteProductLine removes a product line.
func (r *OrderRepo) DeleteProductLine(ctx context.Context, orderID, lineID id.ID) error {
	return r.deleteLine(ctx, productLinesTable, orderID, lineID)
}

// CreateExternalPartLine inserts an external part line.
func (r *OrderRepo) CreateExternalPartLine(ctx context.Context, l *orders.ExternalPartLine) error {
	q := r.Builder().
		Insert(partLinesTable).
		Columns("line_id", "order_id", "line_no", "name", "description",
			"quantity", "purchase_cost", "sale_price", "subtotal", "utility").
		Values(l.LineID, l.OrderID, l.LineNo, l.Name, l.Description,
			l.Quantity, l.PurchaseCost, l.SalePrice, l.Subtotal, l.Utility)

	sql, args, err := q.ToSql()
	return r.execLine(ctx, sql, args, err)
}

// UpdateExternalPartLine updates an external part line.
func (r *OrderRepo) UpdateExternalPartLine(ctx context.Context, l *orders.ExternalPartLine) error {
	q := r.Builder().
		Update(partLinesTable).
		Set("name", l.Name).
		Set("description", l.Description).
		Set("quantity", l.Quantity).
		Set("purchase_cost", l.PurchaseCost).
		Set("sale_price", l.SalePrice).
		Set("subtotal", l.Subtotal).
		Set("utility", l.Utility).
		Where(squirrel.Eq{"line_id": l.LineID}).
		Where(squirrel.Eq{"order_id": l.OrderID})

	sql, args, err := q.ToSql()
	return r.execLineAffected(ctx, sql, args, err)
}

// DeleteExternalPartLine removes an external part line.
func (r *OrderRepo) DeleteExternalPartLine(ctx context.Context, orderID, lineID id.ID) error {
	return r.deleteLine(ctx, partLinesTable, orderID, lineID)
}

func (r *OrderRepo) execLine(ctx context.Context, sql string, args []any, buildErr error) error {
	if buildErr != nil {
		return fmt.Errorf("build line query: %w", buildErr)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("exec line query: %w", err)
	}
	return nil
}

func (r *OrderRepo) execLineAffected(ctx context.Context, sql string, args []any, buildErr error) error {
	if buildErr != nil {
		return fmt.Errorf("build line query: %w", buildErr)
	}
	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("exec line query: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("order line", "matching line")
	}
	return nil
}

func (r *OrderRepo) deleteLine(ctx context.Context, table string, orderID, lineID id.ID) error {
	q := r.Builder().
		Delete(table).
		Where(squirrel.Eq{"line_id": lineID}).
		Where(squirrel.Eq{"order_id": orderID})

	sql, args, err := q.ToSql()
	return r.execLineAffected(ctx, sql, args, err)
}
