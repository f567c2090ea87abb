// Package product provides the Product catalog: sellable stock items across
// the workshop, spare-parts store and lubricants distribution.
package product

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"taller/internal/core/apperror"
	"taller/internal/core/entity"
	"taller/internal/core/types"
	"taller/internal/domain/pricing"
)

// Product is a stock item. Purchase cost and classification are inputs;
// the three price points and effective margin are computed by the pricing
// engine and persisted for querying.
type Product struct {
	entity.Catalog

	// Type drives the pricing bucket and business unit.
	Type pricing.ProductType `db:"type" json:"type"`

	// Category refines the bucket for spare parts (REPUESTOS, FILTROS, ...).
	// Empty for other types.
	Category *string `db:"category" json:"category,omitempty"`

	// SKU is the supplier article number.
	SKU *string `db:"sku" json:"sku,omitempty"`

	// Barcode (EAN-13 etc.)
	Barcode *string `db:"barcode" json:"barcode,omitempty"`

	// Cost is the purchase cost: USD for currency-converted types, local
	// currency otherwise.
	Cost decimal.Decimal `db:"cost" json:"cost"`

	// TaxApplicable marks the product as VAT-liable.
	TaxApplicable bool `db:"tax_applicable" json:"taxApplicable"`

	// Computed prices, whole currency units.
	SalePrice      types.Amount `db:"sale_price" json:"salePrice"`
	RetailPrice    types.Amount `db:"retail_price" json:"retailPrice"`
	WholesalePrice types.Amount `db:"wholesale_price" json:"wholesalePrice"`

	// EffectiveMargin is the bucket margin the prices were computed with.
	EffectiveMargin decimal.Decimal `db:"effective_margin" json:"effectiveMargin"`

	// Unit of measure (un, l, kg)
	Unit string `db:"unit" json:"unit"`

	// Stock is the current on-hand quantity, maintained by the stock
	// register under row lock. Never written by catalog updates.
	Stock types.Quantity `db:"stock" json:"stock"`

	// MinStock triggers low-stock reporting when Stock falls below it.
	MinStock types.Quantity `db:"min_stock" json:"minStock"`

	Description *string `db:"description" json:"description,omitempty"`
}

// NewProduct creates a Product with required fields.
func NewProduct(code, name string, pType pricing.ProductType, cost decimal.Decimal) *Product {
	return &Product{
		Catalog: entity.NewCatalog(code, name),
		Type:    pType,
		Cost:    cost,
		Unit:    "un",
	}
}

// CategoryValue returns the category or empty string.
func (p *Product) CategoryValue() string {
	if p.Category == nil {
		return ""
	}
	return *p.Category
}

// PricingInput builds the engine input for this product.
func (p *Product) PricingInput() pricing.Input {
	return pricing.Input{
		Cost:          p.Cost,
		Type:          p.Type,
		Category:      p.CategoryValue(),
		TaxApplicable: p.TaxApplicable,
	}
}

// ApplyPrices stores a computation result on the product.
func (p *Product) ApplyPrices(r pricing.Result) {
	p.SalePrice = r.SalePrice
	p.RetailPrice = r.RetailPrice
	p.WholesalePrice = r.WholesalePrice
	p.EffectiveMargin = r.EffectiveMargin
}

// PriceForTier returns the wholesale or retail price point.
func (p *Product) PriceForTier(wholesale bool) types.Amount {
	if wholesale {
		return p.WholesalePrice
	}
	return p.RetailPrice
}

// IsLowStock reports whether on-hand quantity is at or below the minimum.
func (p *Product) IsLowStock() bool {
	return p.MinStock > 0 && p.Stock <= p.MinStock
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !pricing.IsValidType(p.Type) {
		return apperror.NewValidation("invalid product type").
			WithDetail("field", "type").
			WithDetail("value", string(p.Type))
	}

	if p.Type == pricing.TypeSparePart {
		if strings.TrimSpace(p.CategoryValue()) == "" {
			return apperror.NewValidation("spare parts require a category").
				WithDetail("field", "category")
		}
	} else if p.CategoryValue() != "" {
		return apperror.NewValidation("category is only valid for spare parts").
			WithDetail("field", "category")
	}

	if p.Cost.LessThanOrEqual(decimal.Zero) {
		return apperror.NewValidation("cost must be positive").
			WithDetail("field", "cost")
	}

	if strings.TrimSpace(p.Unit) == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}

	if p.MinStock.IsNegative() {
		return apperror.NewValidation("minimum stock cannot be negative").
			WithDetail("field", "minStock")
	}

	return nil
}
