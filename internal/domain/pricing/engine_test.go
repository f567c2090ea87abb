package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taller/internal/core/apperror"
	"taller/internal/core/types"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ExchangeRate = decimal.NewFromInt(7300)
	cfg.TaxRate = decimal.NewFromInt(10)
	return cfg
}

func TestCompute_MarginAndDiscounts(t *testing.T) {
	// Local lubricant: 35% margin, no tax, 3%/10% discounts.
	res, err := Compute(Input{
		Cost: decimal.NewFromInt(100_000),
		Type: TypeLubricantLocal,
	}, testConfig())
	require.NoError(t, err)

	assert.Equal(t, types.Amount(135_000), res.SalePrice)
	assert.Equal(t, types.Amount(130_950), res.RetailPrice)
	assert.Equal(t, types.Amount(121_500), res.WholesalePrice)
	assert.True(t, res.EffectiveMargin.Equal(decimal.NewFromInt(35)))
}

func TestCompute_CurrencyConversionAndTax(t *testing.T) {
	// Imported lubricant: USD cost, converted at 7300, 40% margin,
	// tax applied unconditionally.
	res, err := Compute(Input{
		Cost: decimal.NewFromInt(10),
		Type: TypeLubricantImport,
	}, testConfig())
	require.NoError(t, err)

	// 10 * 7300 = 73,000; * 1.40 = 102,200; * 1.10 = 112,420
	assert.Equal(t, types.Amount(112_420), res.SalePrice)
	// 112,420 * 0.97 = 109,047.4 → 109,047
	assert.Equal(t, types.Amount(109_047), res.RetailPrice)
	// 112,420 * 0.90 = 101,178
	assert.Equal(t, types.Amount(101_178), res.WholesalePrice)
}

func TestCompute_TaxFlag(t *testing.T) {
	cfg := testConfig()
	in := Input{
		Cost: decimal.NewFromInt(50_000),
		Type: TypeHardware,
	}

	untaxed, err := Compute(in, cfg)
	require.NoError(t, err)
	// 50,000 * 1.30 = 65,000
	assert.Equal(t, types.Amount(65_000), untaxed.SalePrice)

	in.TaxApplicable = true
	taxed, err := Compute(in, cfg)
	require.NoError(t, err)
	// 65,000 * 1.10 = 71,500
	assert.Equal(t, types.Amount(71_500), taxed.SalePrice)
}

func TestCompute_SparePartCategoryBuckets(t *testing.T) {
	cfg := testConfig()
	cost := decimal.NewFromInt(100_000)

	filters, err := Compute(Input{Cost: cost, Type: TypeSparePart, Category: CategoryFiltros}, cfg)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(145_000), filters.SalePrice)

	repuestos, err := Compute(Input{Cost: cost, Type: TypeSparePart, Category: CategoryRepuestos}, cfg)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(135_000), repuestos.SalePrice)
}

func TestCompute_UnknownCategoryFallsBackToDefault(t *testing.T) {
	res, err := Compute(Input{
		Cost:     decimal.NewFromInt(100_000),
		Type:     TypeSparePart,
		Category: "ACCESORIOS",
	}, testConfig())
	require.NoError(t, err)

	// Default bucket: 30% margin.
	assert.Equal(t, types.Amount(130_000), res.SalePrice)
	assert.True(t, res.EffectiveMargin.Equal(decimal.NewFromInt(30)))
}

func TestCompute_RoundingHalfUp(t *testing.T) {
	cfg := testConfig()
	cfg.Table.Default.Margin = decimal.NewFromFloat(33.333)
	cfg.Table.Default.RetailDiscount = decimal.Zero
	cfg.Table.Default.WholesaleDiscount = decimal.Zero
	cfg.Table.Buckets = map[BucketKey]Bucket{}

	res, err := Compute(Input{
		Cost: decimal.NewFromInt(3),
		Type: TypeHardware,
	}, cfg)
	require.NoError(t, err)

	// 3 * 1.33333 = 3.99999 → 4; intermediates stay unrounded.
	assert.Equal(t, types.Amount(4), res.SalePrice)
	assert.Equal(t, types.Amount(4), res.RetailPrice)
}

func TestCompute_Idempotent(t *testing.T) {
	cfg := testConfig()
	in := Input{Cost: decimal.NewFromInt(77_777), Type: TypeLubricantImport}

	first, err := Compute(in, cfg)
	require.NoError(t, err)
	second, err := Compute(in, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCompute_Validation(t *testing.T) {
	cfg := testConfig()

	_, err := Compute(Input{Cost: decimal.Zero, Type: TypeHardware}, cfg)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	_, err = Compute(Input{Cost: decimal.NewFromInt(-5), Type: TypeHardware}, cfg)
	assert.Error(t, err)

	_, err = Compute(Input{Cost: decimal.NewFromInt(10), Type: ProductType("paint")}, cfg)
	assert.Error(t, err)

	cfg.ExchangeRate = decimal.Zero
	_, err = Compute(Input{Cost: decimal.NewFromInt(10), Type: TypeLubricantImport}, cfg)
	assert.Error(t, err, "conversion without a rate must fail")
}
