package dto

import (
	"time"

	"taller/internal/domain/settings"
)

// SetSettingRequest writes one configuration value. Values are strings;
// pricing keys are validated by the settings service before persisting.
type SetSettingRequest struct {
	Value string `json:"value" binding:"required"`
}

// SettingResponse is the response body for one setting.
type SettingResponse struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy *string   `json:"updatedBy,omitempty"`
}

// FromSetting creates response DTO from domain entity.
func FromSetting(s *settings.Setting) *SettingResponse {
	return &SettingResponse{
		Key:       s.Key,
		Value:     s.Value,
		UpdatedAt: s.UpdatedAt,
		UpdatedBy: s.UpdatedBy,
	}
}

// FromSettings maps a list of settings.
func FromSettings(items []*settings.Setting) []*SettingResponse {
	out := make([]*SettingResponse, len(items))
	for i, s := range items {
		out[i] = FromSetting(s)
	}
	return out
}
