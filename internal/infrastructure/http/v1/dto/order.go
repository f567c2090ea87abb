package dto

import (
	"time"

	"taller/internal/core/id"
	"taller/internal/core/types"
	"taller/internal/domain/orders"
)

// --- Request DTOs ---

// CreateOrderRequest opens a new service order for a client's vehicle.
type CreateOrderRequest struct {
	ClientID   string     `json:"clientId" binding:"required"`
	VehicleID  string     `json:"vehicleId" binding:"required"`
	MechanicID *string    `json:"mechanicId"`
	Date       *time.Time `json:"date"`
	Comment    string     `json:"comment"`
}

// ToEntity converts DTO to domain entity. Unparseable ids yield nil IDs,
// which entity validation rejects.
func (r *CreateOrderRequest) ToEntity() *orders.ServiceOrder {
	clientID, _ := id.Parse(r.ClientID)
	vehicleID, _ := id.Parse(r.VehicleID)

	o := orders.NewServiceOrder(clientID, vehicleID)
	if r.MechanicID != nil {
		if mechID, err := id.Parse(*r.MechanicID); err == nil {
			o.MechanicID = &mechID
		}
	}
	if r.Date != nil {
		o.Date = *r.Date
	}
	o.Comment = r.Comment
	return o
}

// UpdateOrderRequest edits header fields of an open order. Client, vehicle
// and lines are managed through their own endpoints.
type UpdateOrderRequest struct {
	MechanicID *string    `json:"mechanicId"`
	Date       *time.Time `json:"date"`
	Comment    string     `json:"comment"`
	Version    int        `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateOrderRequest) ApplyTo(o *orders.ServiceOrder) {
	o.MechanicID = nil
	if r.MechanicID != nil {
		if mechID, err := id.Parse(*r.MechanicID); err == nil {
			o.MechanicID = &mechID
		}
	}
	if r.Date != nil {
		o.Date = *r.Date
	}
	o.Comment = r.Comment
	o.Version = r.Version
}

// ChangeStatusRequest moves an order along the status machine.
type ChangeStatusRequest struct {
	Status orders.Status `json:"status" binding:"required"`
}

// SetLaborChargeRequest sets the flat labor amount.
type SetLaborChargeRequest struct {
	Amount types.Amount `json:"amount"`
}

// ServiceLineRequest adds or updates a service line.
type ServiceLineRequest struct {
	Description string       `json:"description" binding:"required"`
	Price       types.Amount `json:"price"`
	Done        bool         `json:"done"`
}

// ToLine converts the request to a domain line.
func (r *ServiceLineRequest) ToLine() orders.ServiceLine {
	return orders.ServiceLine{
		Description: r.Description,
		Price:       r.Price,
		Done:        r.Done,
	}
}

// AddProductLineRequest sells a stock product on the order.
type AddProductLineRequest struct {
	ProductID string           `json:"productId" binding:"required"`
	Quantity  types.Quantity   `json:"quantity" binding:"required"`
	Tier      orders.PriceTier `json:"tier" binding:"required"`
}

// UpdateProductLineRequest changes the quantity of a product line. Price
// tier is captured at add time and stays fixed.
type UpdateProductLineRequest struct {
	Quantity types.Quantity `json:"quantity" binding:"required"`
}

// ExternalPartLineRequest adds or updates an externally bought part.
type ExternalPartLineRequest struct {
	Name         string         `json:"name" binding:"required"`
	Description  *string        `json:"description"`
	Quantity     types.Quantity `json:"quantity" binding:"required"`
	PurchaseCost types.Amount   `json:"purchaseCost"`
	SalePrice    types.Amount   `json:"salePrice"`
}

// ToLine converts the request to a domain line.
func (r *ExternalPartLineRequest) ToLine() orders.ExternalPartLine {
	return orders.ExternalPartLine{
		Name:         r.Name,
		Description:  r.Description,
		Quantity:     r.Quantity,
		PurchaseCost: r.PurchaseCost,
		SalePrice:    r.SalePrice,
	}
}

// --- Response DTOs ---

// OrderResponse is the full service order with lines and derived totals.
type OrderResponse struct {
	ID      string    `json:"id"`
	Number  string    `json:"number"`
	Date    time.Time `json:"date"`
	Comment string    `json:"comment,omitempty"`

	ClientID   string  `json:"clientId"`
	VehicleID  string  `json:"vehicleId"`
	MechanicID *string `json:"mechanicId,omitempty"`

	Status orders.Status `json:"status"`

	LaborCharge      types.Amount `json:"laborCharge"`
	SubtotalServices types.Amount `json:"subtotalServices"`
	SubtotalProducts types.Amount `json:"subtotalProducts"`
	SubtotalParts    types.Amount `json:"subtotalParts"`
	Total            types.Amount `json:"total"`
	Utility          types.Amount `json:"utility"`

	ServiceLines      []orders.ServiceLine      `json:"serviceLines"`
	ProductLines      []orders.ProductLine      `json:"productLines"`
	ExternalPartLines []orders.ExternalPartLine `json:"externalPartLines"`

	DeletionMark bool      `json:"deletionMark"`
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	CreatedBy    string    `json:"createdBy,omitempty"`
}

// FromOrder creates response DTO from domain entity.
func FromOrder(o *orders.ServiceOrder) *OrderResponse {
	resp := &OrderResponse{
		ID:               o.ID.String(),
		Number:           o.Number,
		Date:             o.Date,
		Comment:          o.Comment,
		ClientID:         o.ClientID.String(),
		VehicleID:        o.VehicleID.String(),
		Status:           o.Status,
		LaborCharge:      o.LaborCharge,
		SubtotalServices: o.SubtotalServices,
		SubtotalProducts: o.SubtotalProducts,
		SubtotalParts:    o.SubtotalParts,
		Total:            o.Total,
		Utility:          o.Utility,
		ServiceLines:     o.ServiceLines,
		ProductLines:     o.ProductLines,
		ExternalPartLines: o.ExternalPartLines,
		DeletionMark:     o.DeletionMark,
		Version:          o.Version,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
		CreatedBy:        o.CreatedBy,
	}
	if o.MechanicID != nil {
		s := o.MechanicID.String()
		resp.MechanicID = &s
	}
	return resp
}

// FromOrders maps a list of orders.
func FromOrders(items []*orders.ServiceOrder) []*OrderResponse {
	out := make([]*OrderResponse, len(items))
	for i, o := range items {
		out[i] = FromOrder(o)
	}
	return out
}
