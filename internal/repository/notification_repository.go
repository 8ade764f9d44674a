package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/skynet-legal/legaleagle-api/internal/models"
)

// NotificationRepository persists the dispatch audit trail.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create stores a delivery attempt record.
func (r *NotificationRepository) Create(ctx context.Context, log *models.NotificationLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notification_logs (id, user_id, agreement_id, status, channel, recipient, detail, success, created_at)
VALUES (:id, :user_id, :agreement_id, :status, :channel, :recipient, :detail, :success, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create notification log: %w", err)
	}
	return nil
}

// List returns the user's delivery log newest first, with total count.
func (r *NotificationRepository) List(ctx context.Context, userID string, page, pageSize int) ([]models.NotificationLog, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT id, user_id, agreement_id, status, channel, recipient, detail, success, created_at
FROM notification_logs WHERE user_id = $1 ORDER BY created_at DESC LIMIT %d OFFSET %d`, pageSize, offset)
	var logs []models.NotificationLog
	if err := r.db.SelectContext(ctx, &logs, query, userID); err != nil {
		return nil, 0, fmt.Errorf("list notification logs: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM notification_logs WHERE user_id = $1`, userID); err != nil {
		return nil, 0, fmt.Errorf("count notification logs: %w", err)
	}
	return logs, total, nil
}

// HasSent reports whether a successful delivery exists for the agreement in
// the given status. The sent-log is keyed (agreement id, status) so a new
// status tier re-qualifies the agreement.
func (r *NotificationRepository) HasSent(ctx context.Context, userID, agreementID string, status models.AgreementStatus) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM notification_logs WHERE user_id = $1 AND agreement_id = $2 AND status = $3 AND success = TRUE)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, agreementID, status); err != nil {
		return false, fmt.Errorf("check notification sent: %w", err)
	}
	return exists, nil
}
