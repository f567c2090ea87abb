package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"taller/internal/core/apperror"
)

// Settings keys the pricing configuration is assembled from.
const (
	KeyExchangeRate = "pricing.exchange_rate"
	KeyTaxRate      = "pricing.tax_rate"

	keyMarginPrefix            = "pricing.margin."
	keyRetailDiscountPrefix    = "pricing.retail_discount."
	keyWholesaleDiscountPrefix = "pricing.wholesale_discount."
)

// Config carries everything Compute needs. It is a plain value: callers load
// it once (e.g. per bulk recalculation) and pass it around, so a settings
// change mid-run cannot produce a half-old, half-new batch.
type Config struct {
	// ExchangeRate converts USD purchase costs to local currency.
	ExchangeRate decimal.Decimal

	// TaxRate is the VAT percentage applied when the product is taxed.
	TaxRate decimal.Decimal

	Table Table
}

// Validate checks the config is usable for computation.
func (c Config) Validate() error {
	if c.ExchangeRate.LessThanOrEqual(decimal.Zero) {
		return apperror.NewValidation("exchange rate must be positive")
	}
	if c.TaxRate.IsNegative() {
		return apperror.NewValidation("tax rate must not be negative")
	}
	return nil
}

// bucketSlug maps settings key suffixes to bucket keys. The slug is the
// part after the prefix, e.g. "spare_part.filtros" or "hardware".
func bucketSlug(key BucketKey) string {
	if key.Category != "" {
		return string(key.Type) + "." + strings.ToLower(key.Category)
	}
	return string(key.Type)
}

func slugToKey(slug string) (BucketKey, bool) {
	if slug == "default" {
		return BucketKey{}, true
	}
	typePart, category, hasCategory := strings.Cut(slug, ".")
	t := ProductType(typePart)
	if !IsValidType(t) {
		return BucketKey{}, false
	}
	if hasCategory {
		return BucketKey{Type: t, Category: strings.ToUpper(category)}, true
	}
	return BucketKey{Type: t}, true
}

// DefaultTable returns the built-in bucket table. Values here are the
// fallback when the corresponding settings keys are absent.
func DefaultTable() Table {
	pct := decimal.NewFromInt
	return Table{
		Buckets: map[BucketKey]Bucket{
			{Type: TypeLubricantImport}: {
				Margin:            pct(40),
				RetailDiscount:    pct(3),
				WholesaleDiscount: pct(10),
				ConvertCurrency:   true,
				TaxAlways:         true,
			},
			{Type: TypeLubricantLocal}: {
				Margin:            pct(35),
				RetailDiscount:    pct(3),
				WholesaleDiscount: pct(10),
			},
			{Type: TypeHardware}: {
				Margin:            pct(30),
				RetailDiscount:    pct(3),
				WholesaleDiscount: pct(10),
			},
			{Type: TypeSparePart, Category: CategoryRepuestos}: {
				Margin:            pct(35),
				RetailDiscount:    pct(3),
				WholesaleDiscount: pct(10),
			},
			{Type: TypeSparePart, Category: CategoryFiltros}: {
				Margin:            pct(45),
				RetailDiscount:    pct(3),
				WholesaleDiscount: pct(10),
			},
			{Type: TypeSparePart, Category: CategoryLubricantes}: {
				Margin:            pct(40),
				RetailDiscount:    pct(3),
				WholesaleDiscount: pct(10),
			},
		},
		Default: Bucket{
			Margin:            pct(30),
			RetailDiscount:    pct(3),
			WholesaleDiscount: pct(10),
		},
	}
}

// DefaultConfig returns the built-in configuration used when settings are
// empty (fresh installation, tests).
func DefaultConfig() Config {
	return Config{
		ExchangeRate: decimal.NewFromInt(7300),
		TaxRate:      decimal.NewFromInt(10),
		Table:        DefaultTable(),
	}
}

// ConfigFromSettings overlays stored settings values on top of the defaults.
// Unknown keys are ignored; malformed numeric values fail the whole load so
// a typo in settings cannot silently reprice the catalog on defaults.
func ConfigFromSettings(values map[string]string) (Config, error) {
	cfg := DefaultConfig()

	for key, raw := range values {
		switch {
		case key == KeyExchangeRate:
			d, err := parseRate(key, raw)
			if err != nil {
				return Config{}, err
			}
			cfg.ExchangeRate = d
		case key == KeyTaxRate:
			d, err := parseRate(key, raw)
			if err != nil {
				return Config{}, err
			}
			cfg.TaxRate = d
		case strings.HasPrefix(key, keyMarginPrefix):
			if err := applyBucketValue(&cfg, key, keyMarginPrefix, raw, func(b *Bucket, d decimal.Decimal) {
				b.Margin = d
			}); err != nil {
				return Config{}, err
			}
		case strings.HasPrefix(key, keyRetailDiscountPrefix):
			if err := applyBucketValue(&cfg, key, keyRetailDiscountPrefix, raw, func(b *Bucket, d decimal.Decimal) {
				b.RetailDiscount = d
			}); err != nil {
				return Config{}, err
			}
		case strings.HasPrefix(key, keyWholesaleDiscountPrefix):
			if err := applyBucketValue(&cfg, key, keyWholesaleDiscountPrefix, raw, func(b *Bucket, d decimal.Decimal) {
				b.WholesaleDiscount = d
			}); err != nil {
				return Config{}, err
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseRate(key, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, apperror.NewValidation(
			fmt.Sprintf("setting %s: invalid numeric value %q", key, raw))
	}
	return d, nil
}

func applyBucketValue(cfg *Config, key, prefix, raw string, set func(*Bucket, decimal.Decimal)) error {
	d, err := parseRate(key, raw)
	if err != nil {
		return err
	}
	slug := strings.TrimPrefix(key, prefix)
	if slug == "default" {
		set(&cfg.Table.Default, d)
		return nil
	}
	bk, ok := slugToKey(slug)
	if !ok {
		// Unknown bucket slug: tolerated, the key may belong to a
		// product type added in a newer release.
		return nil
	}
	b := cfg.Table.Buckets[bk]
	set(&b, d)
	cfg.Table.Buckets[bk] = b
	return nil
}

// IsPricingKey reports whether a settings key influences price computation.
// Writes to such keys trigger a catalog-wide recalculation.
func IsPricingKey(key string) bool {
	return key == KeyExchangeRate ||
		key == KeyTaxRate ||
		strings.HasPrefix(key, keyMarginPrefix) ||
		strings.HasPrefix(key, keyRetailDiscountPrefix) ||
		strings.HasPrefix(key, keyWholesaleDiscountPrefix)
}

// MarginKey builds the settings key holding the margin for a bucket.
func MarginKey(key BucketKey) string {
	return keyMarginPrefix + bucketSlug(key)
}
