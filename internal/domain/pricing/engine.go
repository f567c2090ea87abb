package pricing

import (
	"github.com/shopspring/decimal"

	"taller/internal/core/apperror"
	"taller/internal/core/types"
)

// Input is everything price computation needs about one product.
type Input struct {
	// Cost is the purchase cost. For currency-converted buckets it is in
	// USD; otherwise in local currency.
	Cost decimal.Decimal

	Type     ProductType
	Category string

	// TaxApplicable marks the product as VAT-liable. Some buckets apply
	// tax unconditionally regardless of this flag.
	TaxApplicable bool
}

// Result holds the three computed price points, rounded to whole currency
// units, plus the margin that produced them.
type Result struct {
	SalePrice      types.Amount
	RetailPrice    types.Amount
	WholesalePrice types.Amount

	// EffectiveMargin is the bucket margin that was applied. Stored on the
	// product for reporting; it is input metadata, not derived from the
	// rounded outputs.
	EffectiveMargin decimal.Decimal
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Compute derives sale, retail and wholesale prices from a purchase cost.
// Pure: no I/O, deterministic, same input and config always produce the
// same result.
//
// Rule order is fixed: currency conversion, margin, tax, then the two
// discounts each applied once to the taxed sale price. Rounding to whole
// units happens only on the three outputs, never on intermediates.
func Compute(in Input, cfg Config) (Result, error) {
	if in.Cost.LessThanOrEqual(decimal.Zero) {
		return Result{}, apperror.NewValidation("cost must be positive")
	}
	if !IsValidType(in.Type) {
		return Result{}, apperror.NewValidation("unknown product type: " + string(in.Type))
	}

	bucket := cfg.Table.Resolve(KeyFor(in.Type, in.Category))

	base := in.Cost
	if bucket.ConvertCurrency {
		if cfg.ExchangeRate.LessThanOrEqual(decimal.Zero) {
			return Result{}, apperror.NewValidation("exchange rate must be positive")
		}
		base = base.Mul(cfg.ExchangeRate)
	}

	sale := base.Mul(one.Add(bucket.Margin.Div(hundred)))

	if bucket.TaxAlways || in.TaxApplicable {
		sale = sale.Mul(one.Add(cfg.TaxRate.Div(hundred)))
	}

	retail := sale.Mul(one.Sub(bucket.RetailDiscount.Div(hundred)))
	wholesale := sale.Mul(one.Sub(bucket.WholesaleDiscount.Div(hundred)))

	return Result{
		SalePrice:       types.NewAmountFromMoney(sale),
		RetailPrice:     types.NewAmountFromMoney(retail),
		WholesalePrice:  types.NewAmountFromMoney(wholesale),
		EffectiveMargin: bucket.Margin,
	}, nil
}
