package dto

import (
	"time"

	"github.com/skynet-legal/legaleagle-api/internal/models"
)

const dateLayout = "2006-01-02"

// AgreementResponse is the API projection of an agreement. Dates are plain
// calendar days; absent dates serialise as empty strings, never "null" text.
type AgreementResponse struct {
	ID          string                 `json:"id"`
	FileName    string                 `json:"file_name"`
	Type        string                 `json:"type"`
	PartyA      string                 `json:"party_a"`
	PartyB      string                 `json:"party_b"`
	Location    string                 `json:"location"`
	StartDate   string                 `json:"start_date"`
	RenewalDate string                 `json:"renewal_date"`
	ExpiryDate  string                 `json:"expiry_date"`
	Status      models.AgreementStatus `json:"status"`
	RiskScore   int                    `json:"risk_score"`
	Summary     string                 `json:"summary"`
	RawContent  string                 `json:"raw_content,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// FromAgreement maps a stored agreement onto the response shape.
func FromAgreement(a models.Agreement) AgreementResponse {
	resp := AgreementResponse{
		ID:          a.ID,
		FileName:    a.FileName,
		Type:        a.Type,
		PartyA:      a.PartyA,
		PartyB:      a.PartyB,
		Location:    a.Location,
		StartDate:   formatDate(a.StartDate),
		RenewalDate: formatDate(a.RenewalDate),
		ExpiryDate:  formatDate(a.ExpiryDate),
		Status:      a.Status,
		RiskScore:   a.RiskScore,
		Summary:     a.Summary,
		CreatedAt:   a.CreatedAt,
	}
	if a.RawContent != nil {
		resp.RawContent = *a.RawContent
	}
	return resp
}

// FromAgreements maps a slice preserving order.
func FromAgreements(list []models.Agreement) []AgreementResponse {
	out := make([]AgreementResponse, 0, len(list))
	for _, a := range list {
		out = append(out, FromAgreement(a))
	}
	return out
}

// DocumentURLResponse carries a presigned download link.
type DocumentURLResponse struct {
	URL string `json:"url"`
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
