package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skynet-legal/legaleagle-api/internal/dto"
	"github.com/skynet-legal/legaleagle-api/internal/models"
	appErrors "github.com/skynet-legal/legaleagle-api/pkg/errors"
)

type renewalRepoStub struct {
	items map[string]models.RenewalDraft
	err   error
}

func (s *renewalRepoStub) Create(ctx context.Context, d *models.RenewalDraft) error {
	if s.err != nil {
		return s.err
	}
	if s.items == nil {
		s.items = make(map[string]models.RenewalDraft)
	}
	s.items[d.ID] = *d
	return nil
}

func (s *renewalRepoStub) FindByID(ctx context.Context, userID, id string) (*models.RenewalDraft, error) {
	if s.err != nil {
		return nil, s.err
	}
	if d, ok := s.items[id]; ok && d.UserID == userID {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (s *renewalRepoStub) Update(ctx context.Context, d *models.RenewalDraft) error {
	if s.err != nil {
		return s.err
	}
	s.items[d.ID] = *d
	return nil
}

type textGeneratorStub struct {
	prompts []string
	reply   string
	err     error
}

func (s *textGeneratorStub) GenerateText(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type approvalMarkerStub struct {
	marked []string
	err    error
}

func (s *approvalMarkerStub) MarkPendingApproval(ctx context.Context, userID, id string) error {
	if s.err != nil {
		return s.err
	}
	s.marked = append(s.marked, id)
	return nil
}

type submitQueueStub struct {
	enqueued []string
	err      error
}

func (s *submitQueueStub) EnqueueSubmit(userID, agreementID string) error {
	if s.err != nil {
		return s.err
	}
	s.enqueued = append(s.enqueued, agreementID)
	return nil
}

type pdfRendererStub struct{}

func (pdfRendererStub) RenderDocument(title, body string) ([]byte, error) {
	return []byte("%PDF-1.4 " + title), nil
}

type renewalFixture struct {
	svc       *RenewalService
	drafts    *renewalRepoStub
	generator *textGeneratorStub
	approvals *approvalMarkerStub
	queue     *submitQueueStub
}

func newRenewalFixture(agreements *agreementRepoStub, useQueue bool) *renewalFixture {
	f := &renewalFixture{
		drafts:    &renewalRepoStub{},
		generator: &textGeneratorStub{reply: "# Renewal Agreement\n\nGenerated draft."},
		approvals: &approvalMarkerStub{},
		queue:     &submitQueueStub{},
	}
	var queue submitEnqueuer
	if useQueue {
		queue = f.queue
	}
	f.svc = NewRenewalService(f.drafts, agreements, f.generator, f.approvals, queue, pdfRendererStub{}, &auditLoggerStub{}, validator.New(), nil)
	return f
}

func renewalAgreements() *agreementRepoStub {
	expiry := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	raw := strings.Repeat("This Agreement is made between the parties. ", 5)
	short := "tiny"
	return &agreementRepoStub{items: map[string]models.Agreement{
		"agr-rich": {ID: "agr-rich", UserID: "user-1", Type: "Service Agreement", PartyA: "Skynet Legal", PartyB: "Acme", Location: "Jakarta", ExpiryDate: &expiry, RawContent: &raw, Summary: "Annual services."},
		"agr-bare": {ID: "agr-bare", UserID: "user-1", Type: "NDA", PartyA: "Skynet Legal", PartyB: "Beta", ExpiryDate: &expiry, RawContent: &short, Summary: "Mutual NDA."},
	}}
}

func TestRenewalServiceGenerateHighFidelity(t *testing.T) {
	f := newRenewalFixture(renewalAgreements(), false)

	resp, err := f.svc.Generate(context.Background(), "user-1", "agr-rich")
	require.NoError(t, err)
	assert.Equal(t, models.DraftUnsigned, resp.State)
	assert.Contains(t, resp.Content, "Renewal Agreement")

	require.Len(t, f.generator.prompts, 1)
	prompt := f.generator.prompts[0]
	assert.Contains(t, prompt, "ORIGINAL AGREEMENT")
	// New term runs from the old expiry for one year.
	assert.Contains(t, prompt, "2026-10-01")
	assert.Contains(t, prompt, "2027-10-01")
}

func TestRenewalServiceGenerateSynthesisFallback(t *testing.T) {
	f := newRenewalFixture(renewalAgreements(), false)

	_, err := f.svc.Generate(context.Background(), "user-1", "agr-bare")
	require.NoError(t, err)

	require.Len(t, f.generator.prompts, 1)
	prompt := f.generator.prompts[0]
	assert.NotContains(t, prompt, "ORIGINAL AGREEMENT")
	assert.Contains(t, prompt, "Mutual NDA.")
	assert.Contains(t, prompt, "signature blocks")
}

func TestRenewalServiceGenerateUnknownAgreement(t *testing.T) {
	f := newRenewalFixture(renewalAgreements(), false)
	_, err := f.svc.Generate(context.Background(), "user-1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRenewalServiceEditOnlyWhileUnsigned(t *testing.T) {
	f := newRenewalFixture(renewalAgreements(), false)
	f.drafts.items = map[string]models.RenewalDraft{
		"draft-1": {ID: "draft-1", UserID: "user-1", AgreementID: "agr-rich", Content: "v1", State: models.DraftUnsigned},
	}

	resp, err := f.svc.Edit(context.Background(), "user-1", "draft-1", dto.UpdateDraftRequest{Content: "v2"})
	require.NoError(t, err)
	assert.Equal(t, "v2", resp.Content)

	_, err = f.svc.Sign(context.Background(), "user-1", "draft-1", dto.SignDraftRequest{SignerName: "Jane Roe"})
	require.NoError(t, err)

	_, err = f.svc.Edit(context.Background(), "user-1", "draft-1", dto.UpdateDraftRequest{Content: "v3"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDraftState.Code, appErrors.FromError(err).Code)
}

func TestRenewalServiceSignTransition(t *testing.T) {
	f := newRenewalFixture(renewalAgreements(), false)
	f.drafts.items = map[string]models.RenewalDraft{
		"draft-1": {ID: "draft-1", UserID: "user-1", AgreementID: "agr-rich", Content: "body", State: models.DraftUnsigned},
	}

	resp, err := f.svc.Sign(context.Background(), "user-1", "draft-1", dto.SignDraftRequest{SignerName: "Jane Roe"})
	require.NoError(t, err)
	assert.Equal(t, models.DraftSigned, resp.State)
	assert.Equal(t, "Jane Roe", resp.SignerName)
	assert.NotNil(t, resp.SignedAt)

	// Signing twice is rejected.
	_, err = f.svc.Sign(context.Background(), "user-1", "draft-1", dto.SignDraftRequest{SignerName: "Other"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDraftState.Code, appErrors.FromError(err).Code)
}

func TestRenewalServiceReopenClearsSignature(t *testing.T) {
	signedAt := time.Now().UTC()
	f := newRenewalFixture(renewalAgreements(), false)
	f.drafts.items = map[string]models.RenewalDraft{
		"draft-1": {ID: "draft-1", UserID: "user-1", AgreementID: "agr-rich", Content: "body", State: models.DraftSigned, SignerName: "Jane Roe", SignedAt: &signedAt},
	}

	resp, err := f.svc.Reopen(context.Background(), "user-1", "draft-1")
	require.NoError(t, err)
	assert.Equal(t, models.DraftUnsigned, resp.State)
	assert.Empty(t, resp.SignerName)
	assert.Nil(t, resp.SignedAt)
}

func TestRenewalServiceReopenRejectsSubmitted(t *testing.T) {
	f := newRenewalFixture(renewalAgreements(), false)
	f.drafts.items = map[string]models.RenewalDraft{
		"draft-1": {ID: "draft-1", UserID: "user-1", AgreementID: "agr-rich", Content: "body", State: models.DraftSubmitted},
	}

	_, err := f.svc.Reopen(context.Background(), "user-1", "draft-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDraftState.Code, appErrors.FromError(err).Code)
}

func TestRenewalServiceSubmitRequiresSignature(t *testing.T) {
	f := newRenewalFixture(renewalAgreements(), false)
	f.drafts.items = map[string]models.RenewalDraft{
		"draft-1": {ID: "draft-1", UserID: "user-1", AgreementID: "agr-rich", Content: "body", State: models.DraftUnsigned},
	}

	_, err := f.svc.Submit(context.Background(), "user-1", "draft-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDraftState.Code, appErrors.FromError(err).Code)
}

func TestRenewalServiceSubmitEnqueuesApproval(t *testing.T) {
	signedAt := time.Now().UTC()
	f := newRenewalFixture(renewalAgreements(), true)
	f.drafts.items = map[string]models.RenewalDraft{
		"draft-1": {ID: "draft-1", UserID: "user-1", AgreementID: "agr-rich", Content: "body", State: models.DraftSigned, SignerName: "Jane Roe", SignedAt: &signedAt},
	}

	resp, err := f.svc.Submit(context.Background(), "user-1", "draft-1")
	require.NoError(t, err)
	assert.Equal(t, models.DraftSubmitted, resp.State)
	assert.NotNil(t, resp.SubmittedAt)
	assert.Equal(t, []string{"agr-rich"}, f.queue.enqueued)
	assert.Empty(t, f.approvals.marked)
}

func TestRenewalServiceSubmitFallsBackInlineWhenQueueFails(t *testing.T) {
	signedAt := time.Now().UTC()
	f := newRenewalFixture(renewalAgreements(), true)
	f.queue.err = assert.AnError
	f.drafts.items = map[string]models.RenewalDraft{
		"draft-1": {ID: "draft-1", UserID: "user-1", AgreementID: "agr-rich", Content: "body", State: models.DraftSigned, SignerName: "Jane Roe", SignedAt: &signedAt},
	}

	resp, err := f.svc.Submit(context.Background(), "user-1", "draft-1")
	require.NoError(t, err)
	assert.Equal(t, models.DraftSubmitted, resp.State)
	assert.Equal(t, []string{"agr-rich"}, f.approvals.marked)
}

func TestRenewalServiceRenderPDF(t *testing.T) {
	f := newRenewalFixture(renewalAgreements(), false)
	f.drafts.items = map[string]models.RenewalDraft{
		"draft-12345678": {ID: "draft-12345678", UserID: "user-1", AgreementID: "agr-rich", Content: "# Title\n\nBody.", State: models.DraftUnsigned},
	}

	data, fileName, err := f.svc.RenderPDF(context.Background(), "user-1", "draft-12345678")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
	assert.Equal(t, "renewal-draft-draft-12.pdf", fileName)
}
