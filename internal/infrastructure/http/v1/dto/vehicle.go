package dto

import (
	"taller/internal/core/entity"
	"taller/internal/core/id"
	"taller/internal/domain/catalogs/vehicle"
)

// --- Request DTOs ---

// CreateVehicleRequest is the request body for creating a vehicle.
type CreateVehicleRequest struct {
	ClientID   string            `json:"clientId" binding:"required"`
	Plate      string            `json:"plate" binding:"required"`
	Brand      string            `json:"brand" binding:"required"`
	Model      *string           `json:"model"`
	Year       *int              `json:"year"`
	VIN        *string           `json:"vin"`
	Mileage    *int              `json:"mileage"`
	Comment    *string           `json:"comment"`
	Attributes entity.Attributes `json:"attributes"`
}

// ToEntity converts DTO to domain entity. An unparseable client id yields a
// nil ID, which entity validation rejects.
func (r *CreateVehicleRequest) ToEntity() *vehicle.Vehicle {
	clientID, _ := id.Parse(r.ClientID)
	v := vehicle.NewVehicle(clientID, r.Plate, r.Brand)
	v.Model = r.Model
	v.Year = r.Year
	v.VIN = r.VIN
	v.Mileage = r.Mileage
	v.Comment = r.Comment
	v.Attributes = r.Attributes
	return v
}

// UpdateVehicleRequest is the request body for updating a vehicle.
type UpdateVehicleRequest struct {
	Name       string            `json:"name" binding:"required"`
	Plate      string            `json:"plate" binding:"required"`
	Brand      string            `json:"brand" binding:"required"`
	Model      *string           `json:"model"`
	Year       *int              `json:"year"`
	VIN        *string           `json:"vin"`
	Mileage    *int              `json:"mileage"`
	Comment    *string           `json:"comment"`
	Attributes entity.Attributes `json:"attributes"`
	Version    int               `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity. Ownership (ClientID) is
// immutable through this endpoint.
func (r *UpdateVehicleRequest) ApplyTo(v *vehicle.Vehicle) {
	v.Name = r.Name
	v.Plate = vehicle.NormalizePlate(r.Plate)
	v.Brand = r.Brand
	v.Model = r.Model
	v.Year = r.Year
	v.VIN = r.VIN
	v.Mileage = r.Mileage
	v.Comment = r.Comment
	v.Attributes = r.Attributes
	v.Version = r.Version
}

// --- Response DTOs ---

// VehicleResponse is the response body for a vehicle.
type VehicleResponse struct {
	ID           string            `json:"id"`
	Code         string            `json:"code"`
	Name         string            `json:"name"`
	ClientID     string            `json:"clientId"`
	Plate        string            `json:"plate"`
	Brand        string            `json:"brand"`
	Model        *string           `json:"model,omitempty"`
	Year         *int              `json:"year,omitempty"`
	VIN          *string           `json:"vin,omitempty"`
	Mileage      *int              `json:"mileage,omitempty"`
	Comment      *string           `json:"comment,omitempty"`
	DeletionMark bool              `json:"deletionMark"`
	Version      int               `json:"version"`
	Attributes   entity.Attributes `json:"attributes,omitempty"`
}

// FromVehicle creates response DTO from domain entity.
func FromVehicle(v *vehicle.Vehicle) *VehicleResponse {
	return &VehicleResponse{
		ID:           v.ID.String(),
		Code:         v.Code,
		Name:         v.Name,
		ClientID:     v.ClientID.String(),
		Plate:        v.Plate,
		Brand:        v.Brand,
		Model:        v.Model,
		Year:         v.Year,
		VIN:          v.VIN,
		Mileage:      v.Mileage,
		Comment:      v.Comment,
		DeletionMark: v.DeletionMark,
		Version:      v.Version,
		Attributes:   v.Attributes,
	}
}
