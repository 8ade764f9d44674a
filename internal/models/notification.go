package models

import "time"

// Notification channels.
const (
	ChannelChat  = "CHAT"
	ChannelEmail = "EMAIL"
)

// NotificationLog records a single delivery attempt.
type NotificationLog struct {
	ID          string          `db:"id" json:"id"`
	UserID      string          `db:"user_id" json:"-"`
	AgreementID string          `db:"agreement_id" json:"agreement_id"`
	Status      AgreementStatus `db:"status" json:"status"`
	Channel     string          `db:"channel" json:"channel"`
	Recipient   string          `db:"recipient" json:"recipient"`
	Detail      string          `db:"detail" json:"detail"`
	Success     bool            `db:"success" json:"success"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// DispatchSummary aggregates the outcome of one dispatcher run.
type DispatchSummary struct {
	Sent    int      `json:"sent"`
	Errors  int      `json:"errors"`
	Details []string `json:"details"`
}
