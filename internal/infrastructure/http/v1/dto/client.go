package dto

import (
	"taller/internal/core/entity"
	"taller/internal/domain/catalogs/client"
)

// --- Request DTOs ---

// CreateClientRequest is the request body for creating a client.
type CreateClientRequest struct {
	Code       string            `json:"code"`
	Name       string            `json:"name" binding:"required"`
	RUC        *string           `json:"ruc"`
	Tier       client.PriceTier  `json:"tier"`
	Phone      *string           `json:"phone"`
	Email      *string           `json:"email"`
	Address    *string           `json:"address"`
	Comment    *string           `json:"comment"`
	Attributes entity.Attributes `json:"attributes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateClientRequest) ToEntity() *client.Client {
	c := client.NewClient(r.Code, r.Name)
	if r.Tier != "" {
		c.Tier = r.Tier
	}
	c.RUC = r.RUC
	c.Phone = r.Phone
	c.Email = r.Email
	c.Address = r.Address
	c.Comment = r.Comment
	c.Attributes = r.Attributes
	return c
}

// UpdateClientRequest is the request body for updating a client.
type UpdateClientRequest struct {
	Code       string            `json:"code"`
	Name       string            `json:"name" binding:"required"`
	RUC        *string           `json:"ruc"`
	Tier       client.PriceTier  `json:"tier" binding:"required"`
	Phone      *string           `json:"phone"`
	Email      *string           `json:"email"`
	Address    *string           `json:"address"`
	Comment    *string           `json:"comment"`
	Attributes entity.Attributes `json:"attributes"`
	Version    int               `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateClientRequest) ApplyTo(c *client.Client) {
	c.Code = r.Code
	c.Name = r.Name
	c.RUC = r.RUC
	c.Tier = r.Tier
	c.Phone = r.Phone
	c.Email = r.Email
	c.Address = r.Address
	c.Comment = r.Comment
	c.Attributes = r.Attributes
	c.Version = r.Version
}

// --- Response DTOs ---

// ClientResponse is the response body for a client.
type ClientResponse struct {
	ID           string            `json:"id"`
	Code         string            `json:"code"`
	Name         string            `json:"name"`
	RUC          *string           `json:"ruc,omitempty"`
	Tier         client.PriceTier  `json:"tier"`
	Phone        *string           `json:"phone,omitempty"`
	Email        *string           `json:"email,omitempty"`
	Address      *string           `json:"address,omitempty"`
	Comment      *string           `json:"comment,omitempty"`
	DeletionMark bool              `json:"deletionMark"`
	Version      int               `json:"version"`
	Attributes   entity.Attributes `json:"attributes,omitempty"`
}

// FromClient creates response DTO from domain entity.
func FromClient(c *client.Client) *ClientResponse {
	return &ClientResponse{
		ID:           c.ID.String(),
		Code:         c.Code,
		Name:         c.Name,
		RUC:          c.RUC,
		Tier:         c.Tier,
		Phone:        c.Phone,
		Email:        c.Email,
		Address:      c.Address,
		Comment:      c.Comment,
		DeletionMark: c.DeletionMark,
		Version:      c.Version,
		Attributes:   c.Attributes,
	}
}
