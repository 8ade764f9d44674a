package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/skynet-legal/legaleagle-api/internal/models"
)

// SettingsRepository persists per-user settings entries.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// ListByUser returns every settings row for the user ordered by key.
func (r *SettingsRepository) ListByUser(ctx context.Context, userID string) ([]models.Setting, error) {
	const query = `SELECT user_id, key, value, type, updated_at FROM settings WHERE user_id = $1 ORDER BY key ASC`
	var settings []models.Setting
	if err := r.db.SelectContext(ctx, &settings, query, userID); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

// Get fetches a single setting by key.
func (r *SettingsRepository) Get(ctx context.Context, userID, key string) (*models.Setting, error) {
	const query = `SELECT user_id, key, value, type, updated_at FROM settings WHERE user_id = $1 AND key = $2`
	var s models.Setting
	if err := r.db.GetContext(ctx, &s, query, userID, key); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListAutoNotifyUsers returns the ids of users that enabled automatic
// dispatch. The scheduler polls this between runs.
func (r *SettingsRepository) ListAutoNotifyUsers(ctx context.Context) ([]string, error) {
	const query = `SELECT user_id FROM settings WHERE key = 'auto_notify' AND value = 'true'`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("list auto-notify users: %w", err)
	}
	return ids, nil
}

// Upsert inserts or updates a settings entry. Last write wins.
func (r *SettingsRepository) Upsert(ctx context.Context, s *models.Setting) error {
	const query = `INSERT INTO settings (user_id, key, value, type, updated_at)
VALUES (:user_id, :key, :value, :type, :updated_at)
ON CONFLICT (user_id, key)
DO UPDATE SET value = EXCLUDED.value, type = EXCLUDED.type, updated_at = EXCLUDED.updated_at`
	s.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}
	return nil
}

// BulkUpsert performs upserts within a transaction.
func (r *SettingsRepository) BulkUpsert(ctx context.Context, settings []models.Setting) error {
	if len(settings) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk settings tx: %w", err)
	}
	const query = `INSERT INTO settings (user_id, key, value, type, updated_at)
VALUES (:user_id, :key, :value, :type, :updated_at)
ON CONFLICT (user_id, key)
DO UPDATE SET value = EXCLUDED.value, type = EXCLUDED.type, updated_at = EXCLUDED.updated_at`
	for i := range settings {
		settings[i].UpdatedAt = time.Now().UTC()
		if _, err := tx.NamedExecContext(ctx, query, settings[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("bulk upsert setting: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk settings tx: %w", err)
	}
	return nil
}
