// Package vehicle provides the Vehicle catalog. Every service order is opened
// against a vehicle, which in turn belongs to a client.
package vehicle

import (
	"context"
	"strings"
	"time"

	"taller/internal/core/apperror"
	"taller/internal/core/entity"
	"taller/internal/core/id"
)

// Vehicle represents a client's vehicle.
type Vehicle struct {
	entity.Catalog

	// ClientID is the owning client.
	ClientID id.ID `db:"client_id" json:"clientId"`

	// Plate is the license plate, stored uppercase without spaces.
	Plate string `db:"plate" json:"plate"`

	Brand string  `db:"brand" json:"brand"`
	Model *string `db:"model" json:"model,omitempty"`

	// Year of manufacture
	Year *int `db:"year" json:"year,omitempty"`

	// VIN is the chassis number
	VIN *string `db:"vin" json:"vin,omitempty"`

	// Mileage is the last recorded odometer reading, km.
	Mileage *int `db:"mileage" json:"mileage,omitempty"`

	Comment *string `db:"comment" json:"comment,omitempty"`
}

// NewVehicle creates a Vehicle with required fields.
func NewVehicle(clientID id.ID, plate, brand string) *Vehicle {
	v := &Vehicle{
		Catalog:  entity.NewCatalog("", plate+" "+brand),
		ClientID: clientID,
		Plate:    NormalizePlate(plate),
		Brand:    brand,
	}
	return v
}

// NormalizePlate uppercases and strips spaces so lookups are insensitive to
// how the plate was typed.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.ReplaceAll(plate, " ", ""))
}

// Validate implements entity.Validatable interface.
func (v *Vehicle) Validate(ctx context.Context) error {
	if err := v.Catalog.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(v.ClientID) {
		return apperror.NewValidation("vehicle must belong to a client").
			WithDetail("field", "clientId")
	}

	if strings.TrimSpace(v.Plate) == "" {
		return apperror.NewValidation("plate is required").
			WithDetail("field", "plate")
	}

	if strings.TrimSpace(v.Brand) == "" {
		return apperror.NewValidation("brand is required").
			WithDetail("field", "brand")
	}

	if v.Year != nil {
		if *v.Year < 1900 || *v.Year > time.Now().Year()+1 {
			return apperror.NewValidation("year out of range").
				WithDetail("field", "year").
				WithDetail("value", *v.Year)
		}
	}

	if v.Mileage != nil && *v.Mileage < 0 {
		return apperror.NewValidation("mileage cannot be negative").
			WithDetail("field", "mileage")
	}

	return nil
}
