package dto

import (
	"github.com/shopspring/decimal"

	"taller/internal/core/entity"
	"taller/internal/core/types"
	"taller/internal/domain/catalogs/product"
	"taller/internal/domain/pricing"
)

// --- Request DTOs ---

// CreateProductRequest is the request body for creating a product. Prices
// are never accepted from the client: the pricing engine computes them.
type CreateProductRequest struct {
	Code          string              `json:"code"`
	Name          string              `json:"name" binding:"required"`
	Type          pricing.ProductType `json:"type" binding:"required"`
	Category      *string             `json:"category"`
	SKU           *string             `json:"sku"`
	Barcode       *string             `json:"barcode"`
	Cost          decimal.Decimal     `json:"cost" binding:"required"`
	TaxApplicable bool                `json:"taxApplicable"`
	Unit          string              `json:"unit"`
	MinStock      types.Quantity      `json:"minStock"`
	Description   *string             `json:"description"`
	Attributes    entity.Attributes   `json:"attributes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateProductRequest) ToEntity() *product.Product {
	p := product.NewProduct(r.Code, r.Name, r.Type, r.Cost)
	p.Category = r.Category
	p.SKU = r.SKU
	p.Barcode = r.Barcode
	p.TaxApplicable = r.TaxApplicable
	if r.Unit != "" {
		p.Unit = r.Unit
	}
	p.MinStock = r.MinStock
	p.Description = r.Description
	p.Attributes = r.Attributes
	return p
}

// UpdateProductRequest is the request body for updating a product.
// Stock is owned by the stock register and cannot be set here.
type UpdateProductRequest struct {
	Code          string              `json:"code"`
	Name          string              `json:"name" binding:"required"`
	Type          pricing.ProductType `json:"type" binding:"required"`
	Category      *string             `json:"category"`
	SKU           *string             `json:"sku"`
	Barcode       *string             `json:"barcode"`
	Cost          decimal.Decimal     `json:"cost" binding:"required"`
	TaxApplicable bool                `json:"taxApplicable"`
	Unit          string              `json:"unit" binding:"required"`
	MinStock      types.Quantity      `json:"minStock"`
	Description   *string             `json:"description"`
	Attributes    entity.Attributes   `json:"attributes"`
	Version       int                 `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	p.Code = r.Code
	p.Name = r.Name
	p.Type = r.Type
	p.Category = r.Category
	p.SKU = r.SKU
	p.Barcode = r.Barcode
	p.Cost = r.Cost
	p.TaxApplicable = r.TaxApplicable
	p.Unit = r.Unit
	p.MinStock = r.MinStock
	p.Description = r.Description
	p.Attributes = r.Attributes
	p.Version = r.Version
}

// RecalculatePricesRequest narrows a bulk recalculation run.
type RecalculatePricesRequest struct {
	Type     pricing.ProductType `json:"type"`
	Category string              `json:"category"`
}

// ToFilter converts the request to the service filter.
func (r *RecalculatePricesRequest) ToFilter() product.RecalcFilter {
	return product.RecalcFilter{
		Type:     r.Type,
		Category: r.Category,
	}
}

// --- Response DTOs ---

// ProductResponse is the response body for a product.
type ProductResponse struct {
	ID            string              `json:"id"`
	Code          string              `json:"code"`
	Name          string              `json:"name"`
	Type          pricing.ProductType `json:"type"`
	Category      *string             `json:"category,omitempty"`
	SKU           *string             `json:"sku,omitempty"`
	Barcode       *string             `json:"barcode,omitempty"`
	Cost          decimal.Decimal     `json:"cost"`
	TaxApplicable bool                `json:"taxApplicable"`

	SalePrice       types.Amount    `json:"salePrice"`
	RetailPrice     types.Amount    `json:"retailPrice"`
	WholesalePrice  types.Amount    `json:"wholesalePrice"`
	EffectiveMargin decimal.Decimal `json:"effectiveMargin"`

	Unit     string         `json:"unit"`
	Stock    types.Quantity `json:"stock"`
	MinStock types.Quantity `json:"minStock"`
	LowStock bool           `json:"lowStock"`

	Description  *string           `json:"description,omitempty"`
	DeletionMark bool              `json:"deletionMark"`
	Version      int               `json:"version"`
	Attributes   entity.Attributes `json:"attributes,omitempty"`
}

// FromProduct creates response DTO from domain entity.
func FromProduct(p *product.Product) *ProductResponse {
	return &ProductResponse{
		ID:              p.ID.String(),
		Code:            p.Code,
		Name:            p.Name,
		Type:            p.Type,
		Category:        p.Category,
		SKU:             p.SKU,
		Barcode:         p.Barcode,
		Cost:            p.Cost,
		TaxApplicable:   p.TaxApplicable,
		SalePrice:       p.SalePrice,
		RetailPrice:     p.RetailPrice,
		WholesalePrice:  p.WholesalePrice,
		EffectiveMargin: p.EffectiveMargin,
		Unit:            p.Unit,
		Stock:           p.Stock,
		MinStock:        p.MinStock,
		LowStock:        p.IsLowStock(),
		Description:     p.Description,
		DeletionMark:    p.DeletionMark,
		Version:         p.Version,
		Attributes:      p.Attributes,
	}
}
