// Package orders provides the ServiceOrder document: the workshop job card
// that accumulates labor, service work, stock products and externally bought
// parts, and projects its total into the ledger on completion.
package orders

import (
	"context"
	"strings"

	"taller/internal/core/apperror"
	"taller/internal/core/entity"
	"taller/internal/core/id"
	"taller/internal/core/types"
)

// Status is the service order lifecycle state.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// transitions is the full status machine. Completed and cancelled are
// terminal: no outgoing edges.
var transitions = map[Status][]Status{
	StatusOpen:       {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// IsValidStatus reports whether s is a known status.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether from → to is a legal edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PriceTier selects which product price point a line was sold at.
type PriceTier string

const (
	TierSale      PriceTier = "sale"
	TierRetail    PriceTier = "retail"
	TierWholesale PriceTier = "wholesale"
)

// IsValidTier reports whether t is a known price tier.
func IsValidTier(t PriceTier) bool {
	switch t {
	case TierSale, TierRetail, TierWholesale:
		return true
	}
	return false
}

// ServiceOrder is the workshop job card.
type ServiceOrder struct {
	entity.Document

	ClientID  id.ID `db:"client_id" json:"clientId"`
	VehicleID id.ID `db:"vehicle_id" json:"vehicleId"`

	// MechanicID is the assigned mechanic (user id).
	MechanicID *id.ID `db:"mechanic_id" json:"mechanicId,omitempty"`

	Status Status `db:"status" json:"status"`

	// LaborCharge is the flat labor amount on top of the itemized lines.
	LaborCharge types.Amount `db:"labor_charge" json:"laborCharge"`

	// Derived totals, recomputed on every line mutation.
	SubtotalServices types.Amount `db:"subtotal_services" json:"subtotalServices"`
	SubtotalProducts types.Amount `db:"subtotal_products" json:"subtotalProducts"`
	SubtotalParts    types.Amount `db:"subtotal_parts" json:"subtotalParts"`
	Total            types.Amount `db:"total" json:"total"`

	// Utility is the order's profit contribution: external-part margins
	// plus product price-over-cost margins.
	Utility types.Amount `db:"utility" json:"utility"`

	// Table parts
	ServiceLines      []ServiceLine      `db:"-" json:"serviceLines"`
	ProductLines      []ProductLine      `db:"-" json:"productLines"`
	ExternalPartLines []ExternalPartLine `db:"-" json:"externalPartLines"`
}

// ServiceLine is one piece of workshop labor or service work.
type ServiceLine struct {
	LineID  id.ID `db:"line_id" json:"lineId"`
	OrderID id.ID `db:"order_id" json:"orderId"`
	LineNo  int   `db:"line_no" json:"lineNo"`

	Description string       `db:"description" json:"description"`
	Price       types.Amount `db:"price" json:"price"`

	// Done marks the work as performed.
	Done bool `db:"done" json:"done"`
}

// ProductLine is a stock product sold on the order. Adding one consumes
// stock; removing one restores it.
type ProductLine struct {
	LineID  id.ID `db:"line_id" json:"lineId"`
	OrderID id.ID `db:"order_id" json:"orderId"`
	LineNo  int   `db:"line_no" json:"lineNo"`

	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`

	// Tier and UnitPrice are captured at line write time; later catalog
	// repricing does not touch sold lines.
	Tier      PriceTier    `db:"tier" json:"tier"`
	UnitPrice types.Amount `db:"unit_price" json:"unitPrice"`

	// UnitCost is the purchase cost in local currency at sale time, for
	// utility computation.
	UnitCost types.Amount `db:"unit_cost" json:"unitCost"`

	Subtotal types.Amount `db:"subtotal" json:"subtotal"`
}

// ExternalPartLine is a part bought outside for this specific job.
type ExternalPartLine struct {
	LineID  id.ID `db:"line_id" json:"lineId"`
	OrderID id.ID `db:"order_id" json:"orderId"`
	LineNo  int   `db:"line_no" json:"lineNo"`

	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`

	Quantity     types.Quantity `db:"quantity" json:"quantity"`
	PurchaseCost types.Amount   `db:"purchase_cost" json:"purchaseCost"`
	SalePrice    types.Amount   `db:"sale_price" json:"salePrice"`

	Subtotal types.Amount `db:"subtotal" json:"subtotal"`
	Utility  types.Amount `db:"utility" json:"utility"`
}

// NewServiceOrder creates an open order for a client's vehicle.
func NewServiceOrder(clientID, vehicleID id.ID) *ServiceOrder {
	return &ServiceOrder{
		Document:          entity.NewDocument(),
		ClientID:          clientID,
		VehicleID:         vehicleID,
		Status:            StatusOpen,
		ServiceLines:      make([]ServiceLine, 0),
		ProductLines:      make([]ProductLine, 0),
		ExternalPartLines: make([]ExternalPartLine, 0),
	}
}

// RecalculateTotals recomputes all derived amounts from the loaded lines.
// Callers persist the result in the same transaction as the line mutation
// that made them stale.
func (o *ServiceOrder) RecalculateTotals() {
	o.SubtotalServices = 0
	o.SubtotalProducts = 0
	o.SubtotalParts = 0
	o.Utility = 0

	for _, l := range o.ServiceLines {
		o.SubtotalServices += l.Price
	}
	for _, l := range o.ProductLines {
		o.SubtotalProducts += l.Subtotal
		o.Utility += l.Subtotal - l.Quantity.MulAmount(l.UnitCost)
	}
	for _, l := range o.ExternalPartLines {
		o.SubtotalParts += l.Subtotal
		o.Utility += l.Utility
	}

	o.Total = o.LaborCharge + o.SubtotalServices + o.SubtotalProducts + o.SubtotalParts
}

// Validate implements entity.Validatable.
func (o *ServiceOrder) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(o.ClientID) {
		return apperror.NewValidation("client is required").
			WithDetail("field", "clientId")
	}
	if id.IsNil(o.VehicleID) {
		return apperror.NewValidation("vehicle is required").
			WithDetail("field", "vehicleId")
	}
	if !IsValidStatus(o.Status) {
		return apperror.NewValidation("invalid status").
			WithDetail("field", "status").
			WithDetail("value", string(o.Status))
	}
	if o.LaborCharge.IsNegative() {
		return apperror.NewValidation("labor charge cannot be negative").
			WithDetail("field", "laborCharge")
	}

	return nil
}

func (l *ServiceLine) Validate() error {
	if strings.TrimSpace(l.Description) == "" {
		return apperror.NewValidation("service description is required").
			WithDetail("field", "description")
	}
	if l.Price.IsNegative() {
		return apperror.NewValidation("service price cannot be negative").
			WithDetail("field", "price")
	}
	return nil
}

func (l *ProductLine) Validate() error {
	if id.IsNil(l.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}
	if !l.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	if !IsValidTier(l.Tier) {
		return apperror.NewValidation("invalid price tier").
			WithDetail("field", "tier").
			WithDetail("value", string(l.Tier))
	}
	return nil
}

func (l *ExternalPartLine) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return apperror.NewValidation("part name is required").
			WithDetail("field", "name")
	}
	if !l.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	if l.PurchaseCost.IsNegative() {
		return apperror.NewValidation("purchase cost cannot be negative").
			WithDetail("field", "purchaseCost")
	}
	if l.SalePrice.IsNegative() {
		return apperror.NewValidation("sale price cannot be negative").
			WithDetail("field", "salePrice")
	}
	return nil
}

// ComputeDerived fills the line's computed columns.
func (l *ExternalPartLine) ComputeDerived() {
	l.Subtotal = l.Quantity.MulAmount(l.SalePrice)
	l.Utility = l.Quantity.MulAmount(l.SalePrice - l.PurchaseCost)
}
