package service

import (
	"math"
	"time"

	"github.com/skynet-legal/legaleagle-api/internal/models"
)

// ExpiryWarningDays is the window before expiry in which an agreement is
// flagged as expiring soon.
const ExpiryWarningDays = 60

// ClassifyStatus derives the lifecycle status of an agreement from its expiry
// date at the given reference time. A missing expiry date is treated as
// already expired so the record surfaces for attention rather than silently
// passing as active.
func ClassifyStatus(expiry *time.Time, now time.Time) models.AgreementStatus {
	if expiry == nil {
		return models.StatusExpired
	}
	days := DaysUntil(*expiry, now)
	switch {
	case days < 0:
		return models.StatusExpired
	case days < ExpiryWarningDays:
		return models.StatusExpiringSoon
	default:
		return models.StatusActive
	}
}

// DaysUntil returns the number of days from now until the target, rounded up
// so a partial day still counts as a full remaining day.
func DaysUntil(target, now time.Time) int {
	return int(math.Ceil(target.Sub(now).Hours() / 24))
}

// RiskScoreFor assigns the screening risk score for a freshly classified
// agreement. Expired contracts carry the high score; everything else is low.
func RiskScoreFor(status models.AgreementStatus) int {
	if status == models.StatusExpired {
		return 90
	}
	return 10
}
