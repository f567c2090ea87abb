package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"taller/internal/core/apperror"
	"taller/internal/domain"
	"taller/internal/domain/catalogs/product"
	"taller/internal/infrastructure/storage/postgres"
)

const productTable = "cat_products"

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			productTable,
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
	}
}

// FindBySKU retrieves a product by supplier article number.
func (r *ProductRepo) FindBySKU(ctx context.Context, sku string) (*product.Product, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"sku": sku}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	p, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", sku)
		}
		return nil, err
	}
	return p, nil
}

// UpdatePrices persists only the computed price columns and margin.
// It deliberately bypasses the version check: price recalculation must not
// conflict with concurrent catalog edits, and it never touches user-editable
// columns.
func (r *ProductRepo) UpdatePrices(ctx context.Context, p *product.Product) error {
	q := r.Builder().
		Update(productTable).
		Set("sale_price", p.SalePrice).
		Set("retail_price", p.RetailPrice).
		Set("wholesale_price", p.WholesalePrice).
		Set("effective_margin", p.EffectiveMargin).
		Where(squirrel.Eq{"id": p.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update prices: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update prices: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", p.ID.String())
	}

	return nil
}

// UpdateStock persists only the stock column. Callers hold the row lock
// via GetForUpdate, so the version check is not needed here either.
func (r *ProductRepo) UpdateStock(ctx context.Context, p *product.Product) error {
	q := r.Builder().
		Update(productTable).
		Set("stock", p.Stock).
		Where(squirrel.Eq{"id": p.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update stock: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", p.ID.String())
	}

	return nil
}

// FindLowStock retrieves active products with stock at or below minimum.
func (r *ProductRepo) FindLowStock(ctx context.Context, f domain.ListFilter) (domain.ListResult[*product.Product], error) {
	result := domain.ListResult[*product.Product]{
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q := r.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.Gt{"min_stock": 0}).
		Where(squirrel.Expr("stock <= min_stock")).
		OrderBy("name ASC")

	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build low stock query: %w", err)
	}

	var items []*product.Product
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return result, fmt.Errorf("find low stock: %w", err)
	}
	result.Items = items
	result.TotalCount = int64(len(items))

	return result, nil
}
