package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skynet-legal/legaleagle-api/internal/dto"
	"github.com/skynet-legal/legaleagle-api/internal/models"
	appErrors "github.com/skynet-legal/legaleagle-api/pkg/errors"
)

type renewalRepository interface {
	Create(ctx context.Context, d *models.RenewalDraft) error
	FindByID(ctx context.Context, userID, id string) (*models.RenewalDraft, error)
	Update(ctx context.Context, d *models.RenewalDraft) error
}

type renewalAgreementReader interface {
	FindByID(ctx context.Context, userID, id string) (*models.Agreement, error)
}

type textGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type approvalMarker interface {
	MarkPendingApproval(ctx context.Context, userID, id string) error
}

type submitEnqueuer interface {
	EnqueueSubmit(userID, agreementID string) error
}

type renewalPDFRenderer interface {
	RenderDocument(title, body string) ([]byte, error)
}

type renewalAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// highFidelityMinChars is the minimum raw document length for a grounded
// rewrite; shorter or missing source text falls back to metadata synthesis.
const highFidelityMinChars = 50

// RenewalService drives the renewal drafting workflow from generation through
// signature to submission.
type RenewalService struct {
	drafts     renewalRepository
	agreements renewalAgreementReader
	generator  textGenerator
	approvals  approvalMarker
	queue      submitEnqueuer
	pdf        renewalPDFRenderer
	audit      renewalAuditLogger
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewRenewalService constructs a RenewalService.
func NewRenewalService(drafts renewalRepository, agreements renewalAgreementReader, generator textGenerator, approvals approvalMarker, queue submitEnqueuer, pdf renewalPDFRenderer, audit renewalAuditLogger, validate *validator.Validate, logger *zap.Logger) *RenewalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RenewalService{
		drafts:     drafts,
		agreements: agreements,
		generator:  generator,
		approvals:  approvals,
		queue:      queue,
		pdf:        pdf,
		audit:      audit,
		validator:  validate,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Generate drafts a renewal document for the agreement. When the stored raw
// text is substantial the model rewrites it clause by clause with updated
// dates; otherwise it synthesises a fresh document from the extracted
// metadata.
func (s *RenewalService) Generate(ctx context.Context, userID, agreementID string) (*dto.RenewalDraftResponse, error) {
	agreement, err := s.agreements.FindByID(ctx, userID, agreementID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "agreement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load agreement")
	}

	now := s.now()
	newStart := now
	if agreement.ExpiryDate != nil {
		newStart = *agreement.ExpiryDate
	}
	newExpiry := newStart.AddDate(1, 0, 0)

	prompt := s.buildPrompt(agreement, newStart, newExpiry)
	content, err := s.generator.GenerateText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, appErrors.Clone(appErrors.ErrExtraction, "draft generation returned empty content")
	}

	draft := &models.RenewalDraft{
		ID:          uuid.NewString(),
		AgreementID: agreement.ID,
		UserID:      userID,
		Content:     content,
		State:       models.DraftUnsigned,
	}
	if err := s.drafts.Create(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist renewal draft")
	}

	resp := dto.FromRenewalDraft(*draft)
	return &resp, nil
}

// Get returns a draft by id.
func (s *RenewalService) Get(ctx context.Context, userID, id string) (*dto.RenewalDraftResponse, error) {
	draft, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	resp := dto.FromRenewalDraft(*draft)
	return &resp, nil
}

// Edit replaces the draft content. Only unsigned drafts are editable; a
// signature freezes the text it was applied to.
func (s *RenewalService) Edit(ctx context.Context, userID, id string, req dto.UpdateDraftRequest) (*dto.RenewalDraftResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid draft payload")
	}
	draft, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if draft.State != models.DraftUnsigned {
		return nil, appErrors.Clone(appErrors.ErrDraftState, "only unsigned drafts can be edited")
	}

	draft.Content = req.Content
	if err := s.drafts.Update(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update draft")
	}
	resp := dto.FromRenewalDraft(*draft)
	return &resp, nil
}

// Sign records the signatory and freezes the draft.
func (s *RenewalService) Sign(ctx context.Context, userID, id string, req dto.SignDraftRequest) (*dto.RenewalDraftResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sign payload")
	}
	draft, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if draft.State != models.DraftUnsigned {
		return nil, appErrors.Clone(appErrors.ErrDraftState, "draft is not awaiting signature")
	}

	signedAt := s.now()
	draft.State = models.DraftSigned
	draft.SignerName = req.SignerName
	draft.SignedAt = &signedAt
	if err := s.drafts.Update(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign draft")
	}
	resp := dto.FromRenewalDraft(*draft)
	return &resp, nil
}

// Reopen returns a signed draft to the editable state, discarding the
// signature. Submitted drafts are final.
func (s *RenewalService) Reopen(ctx context.Context, userID, id string) (*dto.RenewalDraftResponse, error) {
	draft, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if draft.State != models.DraftSigned {
		return nil, appErrors.Clone(appErrors.ErrDraftState, "only signed drafts can be reopened")
	}

	draft.State = models.DraftUnsigned
	draft.SignerName = ""
	draft.SignedAt = nil
	if err := s.drafts.Update(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reopen draft")
	}
	resp := dto.FromRenewalDraft(*draft)
	return &resp, nil
}

// Submit finalises a signed draft. The linked agreement moves to Pending
// Approval asynchronously; submission succeeds even if that transition has to
// retry in the background.
func (s *RenewalService) Submit(ctx context.Context, userID, id string) (*dto.RenewalDraftResponse, error) {
	draft, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if draft.State != models.DraftSigned {
		return nil, appErrors.Clone(appErrors.ErrDraftState, "draft must be signed before submission")
	}

	submittedAt := s.now()
	draft.State = models.DraftSubmitted
	draft.SubmittedAt = &submittedAt
	if err := s.drafts.Update(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit draft")
	}

	if s.queue != nil {
		if err := s.queue.EnqueueSubmit(userID, draft.AgreementID); err != nil {
			s.logger.Warn("failed to enqueue approval transition, applying inline",
				zap.String("agreement_id", draft.AgreementID), zap.Error(err))
			s.applyApproval(ctx, userID, draft.AgreementID)
		}
	} else if s.approvals != nil {
		s.applyApproval(ctx, userID, draft.AgreementID)
	}

	s.emitAudit(ctx, userID, draft)

	resp := dto.FromRenewalDraft(*draft)
	return &resp, nil
}

// RenderPDF exports the draft as a PDF document.
func (s *RenewalService) RenderPDF(ctx context.Context, userID, id string) ([]byte, string, error) {
	draft, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}
	title := fmt.Sprintf("Renewal Draft %s", draft.ID[:8])
	data, err := s.pdf.RenderDocument(title, draft.Content)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render draft pdf")
	}
	fileName := fmt.Sprintf("renewal-draft-%s.pdf", draft.ID[:8])
	return data, fileName, nil
}

// ApplyApproval flips the linked agreement into Pending Approval. The
// background queue handler calls this.
func (s *RenewalService) ApplyApproval(ctx context.Context, userID, agreementID string) error {
	if s.approvals == nil {
		return nil
	}
	return s.approvals.MarkPendingApproval(ctx, userID, agreementID)
}

func (s *RenewalService) applyApproval(ctx context.Context, userID, agreementID string) {
	if err := s.ApplyApproval(ctx, userID, agreementID); err != nil {
		s.logger.Warn("failed to mark agreement pending approval",
			zap.String("agreement_id", agreementID), zap.Error(err))
	}
}

func (s *RenewalService) findOwned(ctx context.Context, userID, id string) (*models.RenewalDraft, error) {
	draft, err := s.drafts.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "renewal draft not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load draft")
	}
	return draft, nil
}

func (s *RenewalService) buildPrompt(a *models.Agreement, newStart, newExpiry time.Time) string {
	var sb strings.Builder
	sb.WriteString("You are drafting a renewal agreement in Markdown.\n")
	sb.WriteString(fmt.Sprintf("Agreement type: %s\nParty A: %s\nParty B: %s\nGoverning location: %s\n",
		a.Type, a.PartyA, a.PartyB, a.Location))
	sb.WriteString(fmt.Sprintf("New term start date: %s\nNew term expiry date: %s\n",
		newStart.Format("2006-01-02"), newExpiry.Format("2006-01-02")))

	if a.RawContent != nil && len(*a.RawContent) > highFidelityMinChars {
		sb.WriteString("\nRewrite the original agreement below clause by clause, preserving its structure and numbering. ")
		sb.WriteString("Update only the term dates and any renewal references to the new term. ")
		sb.WriteString("Do not invent clauses that are not in the original.\n\nORIGINAL AGREEMENT:\n")
		sb.WriteString(*a.RawContent)
	} else {
		sb.WriteString(fmt.Sprintf("\nSummary of the prior agreement: %s\n", a.Summary))
		sb.WriteString("No reliable source text is available. Draft a complete, professionally structured renewal agreement ")
		sb.WriteString("from the details above with standard clauses for term, payment, termination, confidentiality and governing law. ")
		sb.WriteString("Include signature blocks for both parties.")
	}
	return sb.String()
}

func (s *RenewalService) emitAudit(ctx context.Context, userID string, draft *models.RenewalDraft) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionRenewalSubmit,
		Resource:   "renewal_draft",
		ResourceID: &draft.ID,
		NewValues:  []byte(fmt.Sprintf(`{"agreement_id":%q,"signer":%q}`, draft.AgreementID, draft.SignerName)),
		IPAddress:  "system",
		UserAgent:  "renewal-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record renewal audit", zap.Error(err))
	}
}
