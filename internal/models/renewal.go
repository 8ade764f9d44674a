package models

import "time"

// DraftState is the renewal workflow state of a draft.
type DraftState string

const (
	DraftUnsigned  DraftState = "UNSIGNED_DRAFT"
	DraftSigned    DraftState = "SIGNED"
	DraftSubmitted DraftState = "SUBMITTED"
)

// RenewalDraft holds a generated renewal document and its signing state.
// Content edits are only allowed while the draft is UNSIGNED_DRAFT;
// SUBMITTED is terminal.
type RenewalDraft struct {
	ID          string     `db:"id" json:"id"`
	AgreementID string     `db:"agreement_id" json:"agreement_id"`
	UserID      string     `db:"user_id" json:"-"`
	Content     string     `db:"content" json:"content"`
	State       DraftState `db:"state" json:"state"`
	SignerName  string     `db:"signer_name" json:"signer_name"`
	SignedAt    *time.Time `db:"signed_at" json:"signed_at,omitempty"`
	SubmittedAt *time.Time `db:"submitted_at" json:"submitted_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
