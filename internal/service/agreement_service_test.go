package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skynet-legal/legaleagle-api/internal/models"
	appErrors "github.com/skynet-legal/legaleagle-api/pkg/errors"
)

type agreementRepoStub struct {
	items      map[string]models.Agreement
	statusSets map[string]models.AgreementStatus
	err        error
}

func (s *agreementRepoStub) Create(ctx context.Context, a *models.Agreement) error {
	if s.err != nil {
		return s.err
	}
	if s.items == nil {
		s.items = make(map[string]models.Agreement)
	}
	s.items[a.ID] = *a
	return nil
}

func (s *agreementRepoStub) FindByID(ctx context.Context, userID, id string) (*models.Agreement, error) {
	if s.err != nil {
		return nil, s.err
	}
	if a, ok := s.items[id]; ok && a.UserID == userID {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (s *agreementRepoStub) List(ctx context.Context, userID string, filter models.AgreementFilter) ([]models.Agreement, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	result := []models.Agreement{}
	for _, a := range s.items {
		if a.UserID == userID {
			result = append(result, a)
		}
	}
	return result, len(result), nil
}

func (s *agreementRepoStub) ListAll(ctx context.Context, userID string) ([]models.Agreement, error) {
	list, _, err := s.List(ctx, userID, models.AgreementFilter{})
	return list, err
}

func (s *agreementRepoStub) UpdateStatus(ctx context.Context, userID, id string, status models.AgreementStatus) error {
	if s.err != nil {
		return s.err
	}
	a, ok := s.items[id]
	if !ok || a.UserID != userID {
		return sql.ErrNoRows
	}
	a.Status = status
	s.items[id] = a
	if s.statusSets == nil {
		s.statusSets = make(map[string]models.AgreementStatus)
	}
	s.statusSets[id] = status
	return nil
}

func (s *agreementRepoStub) Delete(ctx context.Context, userID, id string) error {
	if s.err != nil {
		return s.err
	}
	a, ok := s.items[id]
	if !ok || a.UserID != userID {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

func (s *agreementRepoStub) DeleteAll(ctx context.Context, userID string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	var n int64
	for id, a := range s.items {
		if a.UserID == userID {
			delete(s.items, id)
			n++
		}
	}
	return n, nil
}

func (s *agreementRepoStub) CountByStatus(ctx context.Context, userID string) (models.DashboardStats, error) {
	if s.err != nil {
		return models.DashboardStats{}, s.err
	}
	stats := models.DashboardStats{}
	for _, a := range s.items {
		if a.UserID != userID {
			continue
		}
		stats.Total++
		switch a.Status {
		case models.StatusActive:
			stats.Active++
		case models.StatusExpiringSoon:
			stats.Expiring++
		case models.StatusExpired:
			stats.Expired++
		case models.StatusPendingApproval:
			stats.Pending++
		}
	}
	return stats, nil
}

type extractorStub struct {
	result *models.ExtractionResult
	err    error
}

func (s *extractorStub) ExtractDocument(ctx context.Context, data []byte, mimeType string) (*models.ExtractionResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type storeStub struct {
	objects map[string][]byte
	putErr  error
	deleted []string
}

func (s *storeStub) Put(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	data, _ := io.ReadAll(r)
	s.objects[objectKey] = data
	return nil
}

func (s *storeStub) PresignedURL(ctx context.Context, objectKey string) (string, error) {
	return "https://store.example/" + objectKey, nil
}

func (s *storeStub) Delete(ctx context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	delete(s.objects, objectKey)
	return nil
}

type statsInvalidatorStub struct {
	calls int
}

func (s *statsInvalidatorStub) Invalidate(ctx context.Context, userID string) {
	s.calls++
}

func newAgreementService(repo *agreementRepoStub, extractor *extractorStub, store *storeStub) (*AgreementService, *statsInvalidatorStub) {
	stats := &statsInvalidatorStub{}
	svc := NewAgreementService(repo, extractor, store, &auditLoggerStub{}, stats, validator.New(), nil, AgreementServiceConfig{
		MaxFileSize:  10 << 20,
		AllowedMIMEs: []string{"application/pdf", "text/plain"},
	})
	return svc, stats
}

func fixedClock(svc *AgreementService, at time.Time) {
	svc.now = func() time.Time { return at }
}

func TestAgreementServiceUploadClassifiesAndStores(t *testing.T) {
	repo := &agreementRepoStub{}
	extractor := &extractorStub{result: &models.ExtractionResult{
		Type:       "Service Agreement",
		PartyA:     "Skynet Legal",
		PartyB:     "Acme Corp",
		ExpiryDate: "2026-09-15",
		StartDate:  "2025-09-15",
		Location:   "Jakarta",
		Summary:    "Annual services.",
		FullText:   "Full contract text body.",
	}}
	store := &storeStub{}
	svc, stats := newAgreementService(repo, extractor, store)
	fixedClock(svc, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))

	resp, err := svc.Upload(context.Background(), "user-1", "vendor.pdf", "application/pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpiringSoon, resp.Status)
	assert.Equal(t, 10, resp.RiskScore)
	assert.Equal(t, "2026-09-15", resp.ExpiryDate)
	assert.Len(t, store.objects, 1)
	assert.Equal(t, 1, stats.calls)

	stored := repo.items[resp.ID]
	require.NotNil(t, stored.RawContent)
	assert.Equal(t, "Full contract text body.", *stored.RawContent)
	require.NotNil(t, stored.ObjectKey)
}

func TestAgreementServiceUploadMissingExpiryMarksExpired(t *testing.T) {
	repo := &agreementRepoStub{}
	extractor := &extractorStub{result: &models.ExtractionResult{
		Type: "NDA", PartyA: "Skynet Legal", PartyB: "Beta LLC", Summary: "Mutual NDA.",
	}}
	svc, _ := newAgreementService(repo, extractor, &storeStub{})

	resp, err := svc.Upload(context.Background(), "user-1", "nda.pdf", "application/pdf", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, resp.Status)
	assert.Equal(t, 90, resp.RiskScore)
	assert.Empty(t, resp.ExpiryDate)
}

func TestAgreementServiceUploadUnparseableDateBecomesNull(t *testing.T) {
	repo := &agreementRepoStub{}
	extractor := &extractorStub{result: &models.ExtractionResult{
		Type: "Lease", PartyA: "A", PartyB: "B", Summary: "s",
		ExpiryDate: "sometime next year",
	}}
	svc, _ := newAgreementService(repo, extractor, &storeStub{})

	resp, err := svc.Upload(context.Background(), "user-1", "lease.pdf", "application/pdf", []byte("data"))
	require.NoError(t, err)
	assert.Empty(t, resp.ExpiryDate)
	assert.Equal(t, models.StatusExpired, resp.Status)
}

func TestAgreementServiceUploadRejectsBadMIME(t *testing.T) {
	svc, _ := newAgreementService(&agreementRepoStub{}, &extractorStub{}, &storeStub{})
	_, err := svc.Upload(context.Background(), "user-1", "virus.exe", "application/octet-stream", []byte("data"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAgreementServiceUploadSurvivesStoreFailure(t *testing.T) {
	repo := &agreementRepoStub{}
	extractor := &extractorStub{result: &models.ExtractionResult{Type: "NDA", PartyA: "A", PartyB: "B", Summary: "s"}}
	store := &storeStub{putErr: errors.New("bucket offline")}
	svc, _ := newAgreementService(repo, extractor, store)

	resp, err := svc.Upload(context.Background(), "user-1", "nda.pdf", "application/pdf", []byte("data"))
	require.NoError(t, err)
	stored := repo.items[resp.ID]
	assert.Nil(t, stored.ObjectKey)
}

func TestAgreementServiceUploadPropagatesExtractionError(t *testing.T) {
	extractor := &extractorStub{err: appErrors.Clone(appErrors.ErrExtraction, "model unavailable")}
	svc, _ := newAgreementService(&agreementRepoStub{}, extractor, &storeStub{})
	_, err := svc.Upload(context.Background(), "user-1", "doc.pdf", "application/pdf", []byte("data"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrExtraction.Code, appErrors.FromError(err).Code)
}

func TestAgreementServiceGetRefreshesDriftedStatus(t *testing.T) {
	expiry := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	repo := &agreementRepoStub{items: map[string]models.Agreement{
		"agr-1": {ID: "agr-1", UserID: "user-1", FileName: "old.pdf", Status: models.StatusActive, RiskScore: 10, ExpiryDate: &expiry},
	}}
	svc, stats := newAgreementService(repo, &extractorStub{}, &storeStub{})
	fixedClock(svc, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))

	resp, err := svc.Get(context.Background(), "user-1", "agr-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, resp.Status)
	assert.Equal(t, 90, resp.RiskScore)
	assert.Equal(t, models.StatusExpired, repo.statusSets["agr-1"])
	assert.Equal(t, 1, stats.calls)
}

func TestAgreementServiceGetPreservesPendingApproval(t *testing.T) {
	expiry := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	repo := &agreementRepoStub{items: map[string]models.Agreement{
		"agr-1": {ID: "agr-1", UserID: "user-1", Status: models.StatusPendingApproval, ExpiryDate: &expiry},
	}}
	svc, _ := newAgreementService(repo, &extractorStub{}, &storeStub{})
	fixedClock(svc, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))

	resp, err := svc.Get(context.Background(), "user-1", "agr-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingApproval, resp.Status)
	assert.Empty(t, repo.statusSets)
}

func TestAgreementServiceGetNotFound(t *testing.T) {
	svc, _ := newAgreementService(&agreementRepoStub{}, &extractorStub{}, &storeStub{})
	_, err := svc.Get(context.Background(), "user-1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAgreementServiceDeleteRemovesStoredObject(t *testing.T) {
	objectKey := "user-1/agr-1.pdf"
	repo := &agreementRepoStub{items: map[string]models.Agreement{
		"agr-1": {ID: "agr-1", UserID: "user-1", FileName: "vendor.pdf", Status: models.StatusActive, ObjectKey: &objectKey},
	}}
	store := &storeStub{objects: map[string][]byte{objectKey: []byte("data")}}
	svc, _ := newAgreementService(repo, &extractorStub{}, store)

	require.NoError(t, svc.Delete(context.Background(), "user-1", "agr-1"))
	assert.Empty(t, repo.items)
	assert.Contains(t, store.deleted, objectKey)
}

func TestAgreementServiceDeleteAllReturnsCount(t *testing.T) {
	repo := &agreementRepoStub{items: map[string]models.Agreement{
		"agr-1": {ID: "agr-1", UserID: "user-1", Status: models.StatusActive},
		"agr-2": {ID: "agr-2", UserID: "user-1", Status: models.StatusExpired},
		"agr-3": {ID: "agr-3", UserID: "user-2", Status: models.StatusActive},
	}}
	svc, _ := newAgreementService(repo, &extractorStub{}, &storeStub{})

	n, err := svc.DeleteAll(context.Background(), "user-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Len(t, repo.items, 1)
}

func TestAgreementServiceDocumentURL(t *testing.T) {
	objectKey := "user-1/agr-1.pdf"
	repo := &agreementRepoStub{items: map[string]models.Agreement{
		"agr-1": {ID: "agr-1", UserID: "user-1", Status: models.StatusActive, ObjectKey: &objectKey},
		"agr-2": {ID: "agr-2", UserID: "user-1", Status: models.StatusActive},
	}}
	svc, _ := newAgreementService(repo, &extractorStub{}, &storeStub{})

	resp, err := svc.DocumentURL(context.Background(), "user-1", "agr-1")
	require.NoError(t, err)
	assert.Equal(t, "https://store.example/"+objectKey, resp.URL)

	_, err = svc.DocumentURL(context.Background(), "user-1", "agr-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
