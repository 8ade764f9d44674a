package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skynet-legal/legaleagle-api/internal/dto"
	"github.com/skynet-legal/legaleagle-api/internal/models"
	appErrors "github.com/skynet-legal/legaleagle-api/pkg/errors"
)

type agreementRepository interface {
	Create(ctx context.Context, a *models.Agreement) error
	FindByID(ctx context.Context, userID, id string) (*models.Agreement, error)
	List(ctx context.Context, userID string, filter models.AgreementFilter) ([]models.Agreement, int, error)
	ListAll(ctx context.Context, userID string) ([]models.Agreement, error)
	UpdateStatus(ctx context.Context, userID, id string, status models.AgreementStatus) error
	Delete(ctx context.Context, userID, id string) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
	CountByStatus(ctx context.Context, userID string) (models.DashboardStats, error)
}

type documentExtractor interface {
	ExtractDocument(ctx context.Context, data []byte, mimeType string) (*models.ExtractionResult, error)
}

type documentStore interface {
	Put(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, objectKey string) (string, error)
	Delete(ctx context.Context, objectKey string) error
}

type agreementAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type statsCacheInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}

// AgreementServiceConfig tunes upload limits.
type AgreementServiceConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
}

// AgreementService orchestrates the upload, extraction and lifecycle of
// agreement records.
type AgreementService struct {
	repo      agreementRepository
	extractor documentExtractor
	store     documentStore
	audit     agreementAuditLogger
	stats     statsCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	config    AgreementServiceConfig
	now       func() time.Time
}

// NewAgreementService constructs an AgreementService.
func NewAgreementService(repo agreementRepository, extractor documentExtractor, store documentStore, audit agreementAuditLogger, stats statsCacheInvalidator, validate *validator.Validate, logger *zap.Logger, cfg AgreementServiceConfig) *AgreementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgreementService{
		repo:      repo,
		extractor: extractor,
		store:     store,
		audit:     audit,
		stats:     stats,
		validator: validate,
		logger:    logger,
		config:    cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

const extractionDateLayout = "2006-01-02"

// Upload extracts structured data from the document, classifies its lifecycle
// status and persists the agreement. Object storage failure is logged but
// does not fail the upload; the record is still usable without the source
// document.
func (s *AgreementService) Upload(ctx context.Context, userID, fileName, mimeType string, data []byte) (*dto.AgreementResponse, error) {
	if len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "uploaded file is empty")
	}
	if s.config.MaxFileSize > 0 && int64(len(data)) > s.config.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds maximum size of %d bytes", s.config.MaxFileSize))
	}
	if len(s.config.AllowedMIMEs) > 0 && !mimeAllowed(mimeType, s.config.AllowedMIMEs) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported content type %s", mimeType))
	}

	result, err := s.extractor.ExtractDocument(ctx, data, mimeType)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiry := parseExtractedDate(result.ExpiryDate)
	status := ClassifyStatus(expiry, now)

	agreement := &models.Agreement{
		ID:          uuid.NewString(),
		UserID:      userID,
		FileName:    fileName,
		Type:        fallbackValue(result.Type, "Unknown"),
		PartyA:      result.PartyA,
		PartyB:      fallbackValue(result.PartyB, "Unknown Party"),
		Location:    result.Location,
		StartDate:   parseExtractedDate(result.StartDate),
		RenewalDate: parseExtractedDate(result.RenewalDate),
		ExpiryDate:  expiry,
		Status:      status,
		RiskScore:   RiskScoreFor(status),
		Summary:     result.Summary,
		CreatedAt:   now,
	}
	if result.FullText != "" {
		agreement.RawContent = &result.FullText
	}

	if s.store != nil {
		objectKey := fmt.Sprintf("%s/%s%s", userID, agreement.ID, path.Ext(fileName))
		if err := s.store.Put(ctx, objectKey, bytes.NewReader(data), int64(len(data)), mimeType); err != nil {
			s.logger.Warn("failed to store source document, continuing without it",
				zap.String("agreement_id", agreement.ID), zap.Error(err))
		} else {
			agreement.ObjectKey = &objectKey
		}
	}

	if err := s.repo.Create(ctx, agreement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist agreement")
	}
	s.invalidateStats(ctx, userID)

	resp := dto.FromAgreement(*agreement)
	return &resp, nil
}

// List returns the user's agreements with derived statuses and pagination.
func (s *AgreementService) List(ctx context.Context, userID string, filter models.AgreementFilter) ([]dto.AgreementResponse, *models.Pagination, error) {
	agreements, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list agreements")
	}

	now := s.now()
	for i := range agreements {
		s.refreshStatus(ctx, &agreements[i], now)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
	return dto.FromAgreements(agreements), pagination, nil
}

// Get returns a single agreement with its status re-derived.
func (s *AgreementService) Get(ctx context.Context, userID, id string) (*dto.AgreementResponse, error) {
	agreement, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.refreshStatus(ctx, agreement, s.now())
	resp := dto.FromAgreement(*agreement)
	return &resp, nil
}

// DocumentURL returns a short-lived download link for the stored source
// document.
func (s *AgreementService) DocumentURL(ctx context.Context, userID, id string) (*dto.DocumentURLResponse, error) {
	agreement, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if agreement.ObjectKey == nil || s.store == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no source document stored for this agreement")
	}
	url, err := s.store.PresignedURL(ctx, *agreement.ObjectKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign document url")
	}
	return &dto.DocumentURLResponse{URL: url}, nil
}

// Delete removes a single agreement and its stored document.
func (s *AgreementService) Delete(ctx context.Context, userID, id string) error {
	agreement, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "agreement not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete agreement")
	}

	if agreement.ObjectKey != nil && s.store != nil {
		if err := s.store.Delete(ctx, *agreement.ObjectKey); err != nil {
			s.logger.Warn("failed to remove stored document", zap.String("agreement_id", id), zap.Error(err))
		}
	}

	s.emitAudit(ctx, userID, models.AuditActionAgreementDelete, id, fmt.Sprintf(`{"file_name":%q}`, agreement.FileName))
	s.invalidateStats(ctx, userID)
	return nil
}

// DeleteAll wipes the user's entire portfolio and reports the removed count.
func (s *AgreementService) DeleteAll(ctx context.Context, userID string) (int64, error) {
	agreements, err := s.repo.ListAll(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load agreements")
	}

	count, err := s.repo.DeleteAll(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset agreements")
	}

	if s.store != nil {
		for _, a := range agreements {
			if a.ObjectKey == nil {
				continue
			}
			if err := s.store.Delete(ctx, *a.ObjectKey); err != nil {
				s.logger.Warn("failed to remove stored document", zap.String("agreement_id", a.ID), zap.Error(err))
			}
		}
	}

	s.emitAudit(ctx, userID, models.AuditActionAgreementReset, userID, fmt.Sprintf(`{"removed":%d}`, count))
	s.invalidateStats(ctx, userID)
	return count, nil
}

// Stats aggregates the portfolio by status.
func (s *AgreementService) Stats(ctx context.Context, userID string) (*models.DashboardStats, error) {
	stats, err := s.repo.CountByStatus(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate stats")
	}
	return &stats, nil
}

// MarkPendingApproval flips an agreement into the approval state. The renewal
// submit flow enqueues this transition.
func (s *AgreementService) MarkPendingApproval(ctx context.Context, userID, id string) error {
	if err := s.repo.UpdateStatus(ctx, userID, id, models.StatusPendingApproval); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "agreement not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update agreement status")
	}
	s.invalidateStats(ctx, userID)
	return nil
}

func (s *AgreementService) findOwned(ctx context.Context, userID, id string) (*models.Agreement, error) {
	agreement, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "agreement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load agreement")
	}
	return agreement, nil
}

// refreshStatus re-derives the lifecycle status on read so records drift into
// Expiring Soon and Expired without a background job. Pending Approval is an
// explicit workflow state and is never overwritten.
func (s *AgreementService) refreshStatus(ctx context.Context, a *models.Agreement, now time.Time) {
	if a.Status == models.StatusPendingApproval {
		return
	}
	derived := ClassifyStatus(a.ExpiryDate, now)
	if derived == a.Status {
		return
	}
	a.Status = derived
	a.RiskScore = RiskScoreFor(derived)
	if err := s.repo.UpdateStatus(ctx, a.UserID, a.ID, derived); err != nil {
		s.logger.Warn("failed to persist derived status",
			zap.String("agreement_id", a.ID), zap.Error(err))
	}
	s.invalidateStats(ctx, a.UserID)
}

func (s *AgreementService) invalidateStats(ctx context.Context, userID string) {
	if s.stats == nil {
		return
	}
	s.stats.Invalidate(ctx, userID)
}

func (s *AgreementService) emitAudit(ctx context.Context, userID, action, resourceID, newValues string) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "agreement",
		ResourceID: &resourceID,
		NewValues:  []byte(newValues),
		IPAddress:  "system",
		UserAgent:  "agreement-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record agreement audit", zap.Error(err))
	}
}

// parseExtractedDate coerces extraction output into a nullable date. Empty
// and unparseable strings become NULL.
func parseExtractedDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(extractionDateLayout, value)
	if err != nil {
		return nil
	}
	return &parsed
}

func fallbackValue(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func mimeAllowed(mimeType string, allowed []string) bool {
	for _, m := range allowed {
		if strings.EqualFold(m, mimeType) {
			return true
		}
	}
	return false
}
