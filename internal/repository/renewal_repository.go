package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/skynet-legal/legaleagle-api/internal/models"
)

// RenewalRepository persists renewal drafts.
type RenewalRepository struct {
	db *sqlx.DB
}

// NewRenewalRepository constructs the repository.
func NewRenewalRepository(db *sqlx.DB) *RenewalRepository {
	return &RenewalRepository{db: db}
}

const renewalColumns = `id, agreement_id, user_id, content, state, signer_name, signed_at, submitted_at, created_at, updated_at`

// Create inserts a new draft.
func (r *RenewalRepository) Create(ctx context.Context, d *models.RenewalDraft) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	const query = `INSERT INTO renewal_drafts (id, agreement_id, user_id, content, state, signer_name, signed_at, submitted_at, created_at, updated_at)
VALUES (:id, :agreement_id, :user_id, :content, :state, :signer_name, :signed_at, :submitted_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("create renewal draft: %w", err)
	}
	return nil
}

// FindByID returns a draft owned by the given user.
func (r *RenewalRepository) FindByID(ctx context.Context, userID, id string) (*models.RenewalDraft, error) {
	query := fmt.Sprintf(`SELECT %s FROM renewal_drafts WHERE id = $1 AND user_id = $2 LIMIT 1`, renewalColumns)
	var d models.RenewalDraft
	if err := r.db.GetContext(ctx, &d, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find renewal draft: %w", err)
	}
	return &d, nil
}

// Update persists mutable draft fields.
func (r *RenewalRepository) Update(ctx context.Context, d *models.RenewalDraft) error {
	d.UpdatedAt = time.Now().UTC()
	const query = `UPDATE renewal_drafts SET content = :content, state = :state, signer_name = :signer_name,
signed_at = :signed_at, submitted_at = :submitted_at, updated_at = :updated_at
WHERE id = :id AND user_id = :user_id`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("update renewal draft: %w", err)
	}
	return nil
}
