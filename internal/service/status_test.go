package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/skynet-legal/legaleagle-api/internal/models"
)

func TestClassifyStatusNilExpiry(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, models.StatusExpired, ClassifyStatus(nil, now))
}

func TestClassifyStatusBoundaries(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		expiry   time.Time
		expected models.AgreementStatus
	}{
		{"expired yesterday", now.AddDate(0, 0, -1), models.StatusExpired},
		{"expired over a day ago", now.Add(-25 * time.Hour), models.StatusExpired},
		// A sub-day-past expiry rounds up to zero remaining days, which is
		// still inside the warning window rather than expired.
		{"expired by an hour", now.Add(-time.Hour), models.StatusExpiringSoon},
		{"expires today", now, models.StatusExpiringSoon},
		{"expires tomorrow", now.AddDate(0, 0, 1), models.StatusExpiringSoon},
		{"expires in 59 days", now.AddDate(0, 0, 59), models.StatusExpiringSoon},
		{"expires in 60 days", now.AddDate(0, 0, 60), models.StatusActive},
		{"expires in 61 days", now.AddDate(0, 0, 61), models.StatusActive},
		{"expires next year", now.AddDate(1, 0, 0), models.StatusActive},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expiry := tc.expiry
			assert.Equal(t, tc.expected, ClassifyStatus(&expiry, now))
		})
	}
}

func TestClassifyStatusPartialDayRoundsUp(t *testing.T) {
	now := time.Date(2026, 8, 1, 18, 0, 0, 0, time.UTC)
	// 59 days and 6 hours away rounds up to 60 remaining days.
	expiry := now.AddDate(0, 0, 59).Add(6 * time.Hour)
	assert.Equal(t, models.StatusActive, ClassifyStatus(&expiry, now))

	// Exactly 59 days away stays inside the warning window.
	expiry = now.AddDate(0, 0, 59)
	assert.Equal(t, models.StatusExpiringSoon, ClassifyStatus(&expiry, now))
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysUntil(now, now))
	assert.Equal(t, 1, DaysUntil(now.Add(2*time.Hour), now))
	assert.Equal(t, 30, DaysUntil(now.AddDate(0, 0, 30), now))
	// Rounding up means a partial day in the past still counts as zero.
	assert.Equal(t, 0, DaysUntil(now.Add(-2*time.Hour), now))
	assert.Equal(t, -1, DaysUntil(now.Add(-25*time.Hour), now))
	assert.Equal(t, -1, DaysUntil(now.AddDate(0, 0, -1), now))
}

func TestRiskScoreFor(t *testing.T) {
	assert.Equal(t, 90, RiskScoreFor(models.StatusExpired))
	assert.Equal(t, 10, RiskScoreFor(models.StatusActive))
	assert.Equal(t, 10, RiskScoreFor(models.StatusExpiringSoon))
	assert.Equal(t, 10, RiskScoreFor(models.StatusPendingApproval))
}
