// Package settings_repo provides the PostgreSQL implementation of the settings store.
package settings_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"taller/internal/core/apperror"
	"taller/internal/domain/settings"
	"taller/internal/infrastructure/storage/postgres"
)

const settingsTable = "sys_settings"

// Compile-time check that SettingsRepo implements settings.Repository.
var _ settings.Repository = (*SettingsRepo)(nil)

// SettingsRepo implements settings.Repository.
type SettingsRepo struct {
	txManager *postgres.TxManager
}

// NewSettingsRepo creates a new settings repository.
func NewSettingsRepo(txManager *postgres.TxManager) *SettingsRepo {
	return &SettingsRepo{txManager: txManager}
}

// Get retrieves a single setting by key.
func (r *SettingsRepo) Get(ctx context.Context, key string) (*settings.Setting, error) {
	sql := `SELECT key, value, updated_at, updated_by FROM ` + settingsTable + ` WHERE key = $1`

	s := &settings.Setting{}
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), s, sql, key); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("setting", key)
		}
		return nil, fmt.Errorf("get setting: %w", err)
	}

	return s, nil
}

// GetByPrefix retrieves all settings whose key starts with prefix.
func (r *SettingsRepo) GetByPrefix(ctx context.Context, prefix string) ([]*settings.Setting, error) {
	sql := `SELECT key, value, updated_at, updated_by FROM ` + settingsTable +
		` WHERE key LIKE $1 || '%' ORDER BY key`

	var items []*settings.Setting
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, prefix); err != nil {
		return nil, fmt.Errorf("get settings by prefix: %w", err)
	}

	return items, nil
}

// List retrieves all settings ordered by key.
func (r *SettingsRepo) List(ctx context.Context) ([]*settings.Setting, error) {
	sql := `SELECT key, value, updated_at, updated_by FROM ` + settingsTable + ` ORDER BY key`

	var items []*settings.Setting
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}

	return items, nil
}

// Upsert inserts or replaces a setting.
func (r *SettingsRepo) Upsert(ctx context.Context, s *settings.Setting) error {
	sql := `
		INSERT INTO ` + settingsTable + ` (key, value, updated_at, updated_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = EXCLUDED.updated_at,
		    updated_by = EXCLUDED.updated_by
	`

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, s.Key, s.Value, s.UpdatedAt, s.UpdatedBy); err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}

	return nil
}

// Delete removes a setting. Deleting an absent key is not an error.
func (r *SettingsRepo) Delete(ctx context.Context, key string) error {
	sql := `DELETE FROM ` + settingsTable + ` WHERE key = $1`

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, key); err != nil {
		return fmt.Errorf("delete setting: %w", err)
	}

	return nil
}
