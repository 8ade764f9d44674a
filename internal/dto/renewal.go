package dto

import (
	"time"

	"github.com/skynet-legal/legaleagle-api/internal/models"
)

// RenewalDraftResponse is the API projection of a renewal draft.
type RenewalDraftResponse struct {
	ID          string            `json:"id"`
	AgreementID string            `json:"agreement_id"`
	Content     string            `json:"content"`
	State       models.DraftState `json:"state"`
	SignerName  string            `json:"signer_name,omitempty"`
	SignedAt    *time.Time        `json:"signed_at,omitempty"`
	SubmittedAt *time.Time        `json:"submitted_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// FromRenewalDraft maps the stored draft onto the response shape.
func FromRenewalDraft(d models.RenewalDraft) RenewalDraftResponse {
	return RenewalDraftResponse{
		ID:          d.ID,
		AgreementID: d.AgreementID,
		Content:     d.Content,
		State:       d.State,
		SignerName:  d.SignerName,
		SignedAt:    d.SignedAt,
		SubmittedAt: d.SubmittedAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// UpdateDraftRequest edits the draft content while unsigned.
type UpdateDraftRequest struct {
	Content string `json:"content" validate:"required"`
}

// SignDraftRequest records the authorized signatory.
type SignDraftRequest struct {
	SignerName string `json:"signer_name" validate:"required"`
}
