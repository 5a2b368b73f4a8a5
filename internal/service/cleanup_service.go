package service

import (
	"context"

	"go.uber.org/zap"
)

type retentionStore interface {
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

// CleanupService purges queue records older than the retention window,
// regardless of status. Errors are logged and swallowed; the sweep never
// takes the host process down.
type CleanupService struct {
	store         retentionStore
	retentionDays int
	metrics       *MetricsService
	logger        *zap.Logger
}

// NewCleanupService constructs the sweeper.
func NewCleanupService(store retentionStore, retentionDays int, metrics *MetricsService, logger *zap.Logger) *CleanupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &CleanupService{
		store:         store,
		retentionDays: retentionDays,
		metrics:       metrics,
		logger:        logger,
	}
}

// Run executes one retention sweep.
func (s *CleanupService) Run(ctx context.Context) {
	deleted, err := s.store.DeleteOlderThan(ctx, s.retentionDays)
	if err != nil {
		s.logger.Sugar().Errorw("retention sweep failed", "error", err)
		return
	}
	s.metrics.AddSweptRecords(deleted)
	s.logger.Sugar().Infow("retention sweep finished", "deleted", deleted, "retention_days", s.retentionDays)
}
