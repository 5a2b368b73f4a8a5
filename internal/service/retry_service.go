package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/cd-sync-api/internal/models"
	"github.com/noah-isme/cd-sync-api/internal/repository"
)

type retryStore interface {
	ListByStatus(ctx context.Context, status models.SubmissionStatus) ([]models.SubmissionRecord, error)
	ListWebinarRetries(ctx context.Context, flag int) ([]models.SubmissionRecord, error)
	Update(ctx context.Context, jobID string, params repository.UpdateSubmissionParams) error
}

// RetryService replays eligible queue records on a schedule. Three
// independent retry classes; a failure on one record never aborts the rest
// of its batch.
type RetryService struct {
	store      retryStore
	submission *SubmissionService
	gotoAPI    gotoRegistrar
	zoomAPI    zoomRegistrar
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewRetryService constructs the service.
func NewRetryService(store retryStore, submission *SubmissionService, gotoAPI gotoRegistrar, zoomAPI zoomRegistrar, metrics *MetricsService, logger *zap.Logger) *RetryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryService{
		store:      store,
		submission: submission,
		gotoAPI:    gotoAPI,
		zoomAPI:    zoomAPI,
		metrics:    metrics,
		logger:     logger,
	}
}

// RunAll executes the three retry classes sequentially. Used as the body of
// the scheduled retry task.
func (s *RetryService) RunAll(ctx context.Context) {
	s.RunForceSync(ctx)
	s.RunGotoWebinarRetries(ctx)
	s.RunZoomRetries(ctx)
}

// RunForceSync replays full form delivery for every force_sync record. A
// rejection on replay is not expected to self-correct by another pass, so
// failure is terminal: the record becomes unsuccessful.
func (s *RetryService) RunForceSync(ctx context.Context) {
	recs, err := s.store.ListByStatus(ctx, models.StatusForceSync)
	if err != nil {
		s.logger.Sugar().Errorw("force sync scan failed", "error", err)
		return
	}
	if len(recs) > 0 {
		s.logger.Sugar().Infow("processing force sync queue", "count", len(recs))
	}

	for i := range recs {
		rec := recs[i]
		location, dbg := s.submission.Deliver(ctx, &rec, false)

		status := models.StatusUnsuccessful
		params := repository.UpdateSubmissionParams{IncrementAttempt: true}
		if location != "" {
			status = models.StatusSynced
			now := time.Now().UTC()
			params.SyncedAt = &now
		}
		params.Status = &status
		rendered := dbg.Render()
		params.PrependDebug = &rendered

		if err := s.store.Update(ctx, rec.JobID, params); err != nil {
			s.logger.Sugar().Errorw("force sync update failed", "job_id", rec.JobID, "error", err)
		}
	}
}

// RunGotoWebinarRetries re-attempts provider-A registration for every record
// flagged 1. Success clears the flag; a record that keeps failing stays
// flagged for manual intervention.
func (s *RetryService) RunGotoWebinarRetries(ctx context.Context) {
	recs, err := s.store.ListWebinarRetries(ctx, models.RetryWebinarGoto)
	if err != nil {
		s.logger.Sugar().Errorw("gotowebinar retry scan failed", "error", err)
		return
	}
	if len(recs) > 0 {
		s.logger.Sugar().Infow("processing gotowebinar retries", "count", len(recs))
	}

	for i := range recs {
		rec := recs[i]
		err := s.gotoAPI.Register(ctx, rec.Data[models.FieldGotoWebinarKey],
			rec.Data[models.FieldCompanyName],
			rec.Data[models.FieldEmail],
			rec.Data[models.FieldFirstName],
			rec.Data[models.FieldLastName])
		if err != nil {
			s.logger.Sugar().Errorw("gotowebinar retry failed", "job_id", rec.JobID, "error", err)
			s.metrics.RecordWebinarRetry("gotowebinar", "failed")
			continue
		}

		cleared := models.RetryWebinarNone
		dbg := models.NewDebugLog("GOTOWEBINAR RESYNC")
		dbg.Add("registration retried successfully")
		rendered := dbg.Render()
		if err := s.store.Update(ctx, rec.JobID, repository.UpdateSubmissionParams{
			RetryWebinar: &cleared,
			PrependDebug: &rendered,
		}); err != nil {
			s.logger.Sugar().Errorw("gotowebinar retry update failed", "job_id", rec.JobID, "error", err)
			continue
		}
		s.metrics.RecordWebinarRetry("gotowebinar", "success")
	}
}

// RunZoomRetries re-attempts provider-B registration for every record
// flagged 2. The attempt counter moves either way; the flag clears only on
// success.
func (s *RetryService) RunZoomRetries(ctx context.Context) {
	recs, err := s.store.ListWebinarRetries(ctx, models.RetryWebinarZoom)
	if err != nil {
		s.logger.Sugar().Errorw("zoom retry scan failed", "error", err)
		return
	}
	if len(recs) > 0 {
		s.logger.Sugar().Infow("processing zoom retries", "count", len(recs))
	}

	for i := range recs {
		rec := recs[i]
		err := s.zoomAPI.Register(ctx, rec.Data[models.FieldZoomKey],
			rec.Data[models.FieldEmail],
			rec.Data[models.FieldFirstName],
			rec.Data[models.FieldLastName])

		dbg := models.NewDebugLog("ZOOM RESYNC")
		params := repository.UpdateSubmissionParams{IncrementAttempt: true}
		if err != nil {
			s.logger.Sugar().Errorw("zoom retry failed", "job_id", rec.JobID, "error", err)
			dbg.Add("registration retry failed: %v", err)
			s.metrics.RecordWebinarRetry("zoom", "failed")
		} else {
			cleared := models.RetryWebinarNone
			params.RetryWebinar = &cleared
			dbg.Add("registration retried successfully")
			s.metrics.RecordWebinarRetry("zoom", "success")
		}
		rendered := dbg.Render()
		params.PrependDebug = &rendered

		if err := s.store.Update(ctx, rec.JobID, params); err != nil {
			s.logger.Sugar().Errorw("zoom retry update failed", "job_id", rec.JobID, "error", err)
		}
	}
}
