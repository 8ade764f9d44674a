package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/skynet-legal/legaleagle-api/internal/models"
)

// AgreementRepository provides database access for agreement records.
type AgreementRepository struct {
	db *sqlx.DB
}

// NewAgreementRepository creates a new instance of AgreementRepository.
func NewAgreementRepository(db *sqlx.DB) *AgreementRepository {
	return &AgreementRepository{db: db}
}

const agreementColumns = `id, user_id, file_name, type, party_a, party_b, location, start_date, renewal_date, expiry_date, status, risk_score, summary, raw_content, object_key, created_at`

// Create inserts a new agreement, assigning identity when absent.
func (r *AgreementRepository) Create(ctx context.Context, a *models.Agreement) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO agreements (id, user_id, file_name, type, party_a, party_b, location, start_date, renewal_date, expiry_date, status, risk_score, summary, raw_content, object_key, created_at)
VALUES (:id, :user_id, :file_name, :type, :party_a, :party_b, :location, :start_date, :renewal_date, :expiry_date, :status, :risk_score, :summary, :raw_content, :object_key, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("create agreement: %w", err)
	}
	return nil
}

// FindByID returns an agreement owned by the given user.
func (r *AgreementRepository) FindByID(ctx context.Context, userID, id string) (*models.Agreement, error) {
	query := fmt.Sprintf(`SELECT %s FROM agreements WHERE id = $1 AND user_id = $2 LIMIT 1`, agreementColumns)
	var a models.Agreement
	if err := r.db.GetContext(ctx, &a, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find agreement by id: %w", err)
	}
	return &a, nil
}

// List returns the user's agreements ordered by creation time descending,
// with total count for pagination.
func (r *AgreementRepository) List(ctx context.Context, userID string, filter models.AgreementFilter) ([]models.Agreement, int, error) {
	baseQuery := `FROM agreements WHERE user_id = $1`
	args := []interface{}{userID}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		baseQuery += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		n := len(args)
		baseQuery += fmt.Sprintf(" AND (LOWER(party_b) LIKE $%d OR LOWER(type) LIKE $%d OR LOWER(location) LIKE $%d)", n, n, n)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", agreementColumns, baseQuery, pageSize, offset)

	var agreements []models.Agreement
	if err := r.db.SelectContext(ctx, &agreements, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list agreements: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count agreements: %w", err)
	}

	return agreements, total, nil
}

// ListAll returns every agreement for the user in creation order descending.
// The notification dispatcher iterates this collection.
func (r *AgreementRepository) ListAll(ctx context.Context, userID string) ([]models.Agreement, error) {
	query := fmt.Sprintf(`SELECT %s FROM agreements WHERE user_id = $1 ORDER BY created_at DESC`, agreementColumns)
	var agreements []models.Agreement
	if err := r.db.SelectContext(ctx, &agreements, query, userID); err != nil {
		return nil, fmt.Errorf("list all agreements: %w", err)
	}
	return agreements, nil
}

// UpdateStatus sets the persisted lifecycle status of an agreement.
func (r *AgreementRepository) UpdateStatus(ctx context.Context, userID, id string, status models.AgreementStatus) error {
	const query = `UPDATE agreements SET status = $3 WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, userID, status)
	if err != nil {
		return fmt.Errorf("update agreement status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a single agreement owned by the user.
func (r *AgreementRepository) Delete(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM agreements WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete agreement: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteAll removes every agreement owned by the user and reports the count.
func (r *AgreementRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	const query = `DELETE FROM agreements WHERE user_id = $1`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("delete all agreements: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// CountByStatus aggregates the portfolio into dashboard stats.
func (r *AgreementRepository) CountByStatus(ctx context.Context, userID string) (models.DashboardStats, error) {
	const query = `SELECT status, COUNT(*) AS count FROM agreements WHERE user_id = $1 GROUP BY status`
	rows := []struct {
		Status models.AgreementStatus `db:"status"`
		Count  int                    `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return models.DashboardStats{}, fmt.Errorf("count agreements by status: %w", err)
	}

	var stats models.DashboardStats
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case models.StatusActive:
			stats.Active = row.Count
		case models.StatusExpiringSoon:
			stats.Expiring = row.Count
		case models.StatusExpired:
			stats.Expired = row.Count
		case models.StatusPendingApproval:
			stats.Pending = row.Count
		}
	}
	return stats, nil
}
