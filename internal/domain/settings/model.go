// Package settings provides the key-value system configuration store.
// Pricing parameters (exchange rate, tax, bucket margins and discounts)
// live here; writing any of them triggers a catalog-wide price
// recalculation.
package settings

import (
	"context"
	"strings"
	"time"

	"taller/internal/core/apperror"
)

// Setting is one configuration entry. Values are stored as strings and
// parsed by their consumers.
type Setting struct {
	Key   string `db:"key" json:"key"`
	Value string `db:"value" json:"value"`

	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	UpdatedBy *string   `db:"updated_by" json:"updatedBy,omitempty"`
}

// Validate implements entity.Validatable interface.
func (s *Setting) Validate(ctx context.Context) error {
	key := strings.TrimSpace(s.Key)
	if key == "" {
		return apperror.NewValidation("setting key is required").
			WithDetail("field", "key")
	}
	if key != s.Key {
		return apperror.NewValidation("setting key must not have surrounding whitespace").
			WithDetail("field", "key")
	}
	if len(key) > 128 {
		return apperror.NewValidation("setting key too long").
			WithDetail("field", "key")
	}
	return nil
}
