package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/skynet-legal/legaleagle-api/internal/models"
	appErrors "github.com/skynet-legal/legaleagle-api/pkg/errors"
)

type dashboardStatsReader interface {
	CountByStatus(ctx context.Context, userID string) (models.DashboardStats, error)
}

// DashboardService serves the portfolio stats strip, caching the aggregate
// per user. Writes to the portfolio invalidate the cached entry.
type DashboardService struct {
	repo   dashboardStatsReader
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(repo dashboardStatsReader, cache *CacheService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

func dashboardStatsKey(userID string) string {
	return fmt.Sprintf("dashboard:stats:%s", userID)
}

// Stats returns the aggregated portfolio counts, served from cache when warm.
// The boolean reports whether the response came from cache.
func (s *DashboardService) Stats(ctx context.Context, userID string) (*models.DashboardStats, bool, error) {
	key := dashboardStatsKey(userID)

	var cached models.DashboardStats
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	stats, err := s.repo.CountByStatus(ctx, userID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate dashboard stats")
	}

	if err := s.cache.Set(ctx, key, stats, s.ttl); err != nil {
		s.logger.Warn("failed to cache dashboard stats", zap.String("user_id", userID), zap.Error(err))
	}
	return &stats, false, nil
}

// Invalidate drops the cached stats for a user. Agreement mutations call this.
func (s *DashboardService) Invalidate(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, dashboardStatsKey(userID)); err != nil {
		s.logger.Warn("failed to invalidate dashboard stats cache", zap.String("user_id", userID), zap.Error(err))
	}
}
