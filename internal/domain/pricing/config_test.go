package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromSettings_Overlay(t *testing.T) {
	cfg, err := ConfigFromSettings(map[string]string{
		"pricing.exchange_rate":             "7450.50",
		"pricing.tax_rate":                  "10",
		"pricing.margin.hardware":           "28",
		"pricing.margin.spare_part.filtros": "50",
		"pricing.retail_discount.default":   "5",
		"unrelated.key":                     "ignored",
	})
	require.NoError(t, err)

	assert.True(t, cfg.ExchangeRate.Equal(decimal.NewFromFloat(7450.50)))

	hw := cfg.Table.Resolve(BucketKey{Type: TypeHardware})
	assert.True(t, hw.Margin.Equal(decimal.NewFromInt(28)))
	// Discounts not overridden keep the defaults.
	assert.True(t, hw.RetailDiscount.Equal(decimal.NewFromInt(3)))

	filters := cfg.Table.Resolve(BucketKey{Type: TypeSparePart, Category: CategoryFiltros})
	assert.True(t, filters.Margin.Equal(decimal.NewFromInt(50)))

	assert.True(t, cfg.Table.Default.RetailDiscount.Equal(decimal.NewFromInt(5)))
}

func TestConfigFromSettings_MalformedValueFailsLoad(t *testing.T) {
	_, err := ConfigFromSettings(map[string]string{
		"pricing.margin.hardware": "not-a-number",
	})
	assert.Error(t, err)

	_, err = ConfigFromSettings(map[string]string{
		"pricing.exchange_rate": "0",
	})
	assert.Error(t, err, "non-positive exchange rate must be rejected")
}

func TestConfigFromSettings_UnknownBucketSlugIgnored(t *testing.T) {
	cfg, err := ConfigFromSettings(map[string]string{
		"pricing.margin.paint_supplies": "60",
	})
	require.NoError(t, err)
	assert.True(t, cfg.Table.Default.Margin.Equal(decimal.NewFromInt(30)))
}

func TestIsPricingKey(t *testing.T) {
	assert.True(t, IsPricingKey("pricing.exchange_rate"))
	assert.True(t, IsPricingKey("pricing.margin.lubricant_import"))
	assert.True(t, IsPricingKey("pricing.wholesale_discount.default"))
	assert.False(t, IsPricingKey("company.name"))
}

func TestBucketSlugRoundTrip(t *testing.T) {
	keys := []BucketKey{
		{Type: TypeLubricantImport},
		{Type: TypeSparePart, Category: CategoryFiltros},
	}
	for _, k := range keys {
		got, ok := slugToKey(bucketSlug(k))
		require.True(t, ok)
		assert.Equal(t, k, got)
	}
}
