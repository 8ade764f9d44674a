package models

import "time"

// AgreementStatus is the lifecycle state of an agreement.
type AgreementStatus string

const (
	StatusActive          AgreementStatus = "Active"
	StatusExpiringSoon    AgreementStatus = "Expiring Soon"
	StatusExpired         AgreementStatus = "Expired"
	StatusPendingApproval AgreementStatus = "Pending Approval"
)

// Valid reports whether the value is one of the known statuses.
func (s AgreementStatus) Valid() bool {
	switch s {
	case StatusActive, StatusExpiringSoon, StatusExpired, StatusPendingApproval:
		return true
	}
	return false
}

// Agreement represents a stored agreement record. Date columns are nullable:
// the extraction service may not find a usable calendar date, and empty
// strings are coerced to NULL before insert.
type Agreement struct {
	ID          string          `db:"id" json:"id"`
	UserID      string          `db:"user_id" json:"-"`
	FileName    string          `db:"file_name" json:"file_name"`
	Type        string          `db:"type" json:"type"`
	PartyA      string          `db:"party_a" json:"party_a"`
	PartyB      string          `db:"party_b" json:"party_b"`
	Location    string          `db:"location" json:"location"`
	StartDate   *time.Time      `db:"start_date" json:"start_date,omitempty"`
	RenewalDate *time.Time      `db:"renewal_date" json:"renewal_date,omitempty"`
	ExpiryDate  *time.Time      `db:"expiry_date" json:"expiry_date,omitempty"`
	Status      AgreementStatus `db:"status" json:"status"`
	RiskScore   int             `db:"risk_score" json:"risk_score"`
	Summary     string          `db:"summary" json:"summary"`
	RawContent  *string         `db:"raw_content" json:"raw_content,omitempty"`
	ObjectKey   *string         `db:"object_key" json:"-"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// AgreementFilter captures list criteria.
type AgreementFilter struct {
	Status   *AgreementStatus
	Search   string
	Page     int
	PageSize int
}

// DashboardStats summarises the agreement portfolio for the dashboard.
type DashboardStats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Expiring int `json:"expiring"`
	Expired  int `json:"expired"`
	Pending  int `json:"pending"`
}

// ExtractionResult is the structured output of the AI extraction service.
// Every field is optional; date fields are raw strings that may fail to parse.
type ExtractionResult struct {
	Type        string `json:"type"`
	PartyA      string `json:"partyA"`
	PartyB      string `json:"partyB"`
	StartDate   string `json:"startDate"`
	RenewalDate string `json:"renewalDate"`
	ExpiryDate  string `json:"expiryDate"`
	Location    string `json:"location"`
	Summary     string `json:"summary"`
	FullText    string `json:"fullText"`
}
