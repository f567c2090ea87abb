// Package client provides the Client catalog: the workshop's customers,
// both walk-in retail buyers and account holders with wholesale terms.
package client

import (
	"context"
	"regexp"

	"taller/internal/core/apperror"
	"taller/internal/core/entity"
)

var (
	rucRE   = regexp.MustCompile(`^\d{1,8}(-\d)?$`)
	emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// PriceTier selects which computed price a client is billed at.
type PriceTier string

const (
	TierRetail    PriceTier = "retail"
	TierWholesale PriceTier = "wholesale"
)

// Client represents a customer of any of the business units.
type Client struct {
	entity.Catalog

	// RUC is the Paraguayan taxpayer number, with optional check digit.
	RUC *string `db:"ruc" json:"ruc,omitempty"`

	// Tier determines retail vs wholesale billing.
	Tier PriceTier `db:"tier" json:"tier"`

	Phone   *string `db:"phone" json:"phone,omitempty"`
	Email   *string `db:"email" json:"email,omitempty"`
	Address *string `db:"address" json:"address,omitempty"`

	// Comment is a free-form note
	Comment *string `db:"comment" json:"comment,omitempty"`
}

// NewClient creates a Client with required fields.
func NewClient(code, name string) *Client {
	return &Client{
		Catalog: entity.NewCatalog(code, name),
		Tier:    TierRetail,
	}
}

// Validate implements entity.Validatable interface.
func (c *Client) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if c.Tier != TierRetail && c.Tier != TierWholesale {
		return apperror.NewValidation("invalid price tier").
			WithDetail("field", "tier").
			WithDetail("value", string(c.Tier))
	}

	if c.RUC != nil && *c.RUC != "" && !rucRE.MatchString(*c.RUC) {
		return apperror.NewValidation("invalid RUC format").
			WithDetail("field", "ruc")
	}

	if c.Email != nil && *c.Email != "" && !emailRE.MatchString(*c.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}

	return nil
}

// IsWholesale returns true if the client buys at wholesale prices.
func (c *Client) IsWholesale() bool {
	return c.Tier == TierWholesale
}
