// Package pricing implements the sale-price computation rules.
// Prices are always derived from purchase cost plus a configuration bucket
// resolved from the product classification; the engine itself is pure and
// receives its configuration as data.
package pricing

import (
	"github.com/shopspring/decimal"
)

// ProductType classifies a product for pricing and business-unit purposes.
type ProductType string

const (
	// TypeLubricantImport is the imported lubricant brand, purchased in USD.
	TypeLubricantImport ProductType = "lubricant_import"
	// TypeLubricantLocal is the locally distributed lubricant brand.
	TypeLubricantLocal ProductType = "lubricant_local"
	// TypeHardware is general hardware-store merchandise.
	TypeHardware ProductType = "hardware"
	// TypeSparePart is a generic spare part; its pricing bucket additionally
	// depends on the category.
	TypeSparePart ProductType = "spare_part"
)

// Spare-part categories with dedicated buckets.
const (
	CategoryRepuestos   = "REPUESTOS"
	CategoryFiltros     = "FILTROS"
	CategoryLubricantes = "LUBRICANTES"
)

// IsValidType reports whether t is a known product type.
func IsValidType(t ProductType) bool {
	switch t {
	case TypeLubricantImport, TypeLubricantLocal, TypeHardware, TypeSparePart:
		return true
	}
	return false
}

// BucketKey addresses a pricing bucket. Category is only significant for
// types whose buckets are category-split (spare parts); for every other type
// it must be empty.
type BucketKey struct {
	Type     ProductType
	Category string
}

// KeyFor normalizes a (type, category) pair into a bucket key.
func KeyFor(t ProductType, category string) BucketKey {
	if t == TypeSparePart {
		return BucketKey{Type: t, Category: category}
	}
	return BucketKey{Type: t}
}

// Bucket is a named set of pricing parameters.
type Bucket struct {
	// Margin percentage applied on top of the base cost
	Margin decimal.Decimal

	// RetailDiscount percentage off the sale price
	RetailDiscount decimal.Decimal

	// WholesaleDiscount percentage off the sale price
	WholesaleDiscount decimal.Decimal

	// ConvertCurrency multiplies the purchase cost by the configured
	// exchange rate before applying the margin (USD-cost brands)
	ConvertCurrency bool

	// TaxAlways applies tax regardless of the product's tax flag
	TaxAlways bool
}

// Table maps bucket keys to buckets, with an explicit default for unknown
// combinations. The fallback is deliberate policy: a product with an
// unmapped category still gets priced, on default parameters.
type Table struct {
	Buckets map[BucketKey]Bucket
	Default Bucket
}

// Resolve returns the bucket for a key, falling back to the default.
func (t Table) Resolve(key BucketKey) Bucket {
	if b, ok := t.Buckets[key]; ok {
		return b
	}
	// Unknown spare-part categories fall back to the bare type bucket first.
	if key.Category != "" {
		if b, ok := t.Buckets[BucketKey{Type: key.Type}]; ok {
			return b
		}
	}
	return t.Default
}
