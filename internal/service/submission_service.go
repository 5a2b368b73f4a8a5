package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/cd-sync-api/internal/client"
	"github.com/noah-isme/cd-sync-api/internal/dto"
	"github.com/noah-isme/cd-sync-api/internal/models"
	"github.com/noah-isme/cd-sync-api/internal/repository"
	appErrors "github.com/noah-isme/cd-sync-api/pkg/errors"
)

// Debug trail block kinds.
const (
	attemptKindSync      = "SYNC"
	attemptKindForceSync = "FORCE SYNC"
)

type submissionStore interface {
	Insert(ctx context.Context, rec *models.SubmissionRecord) error
	Update(ctx context.Context, jobID string, params repository.UpdateSubmissionParams) error
}

type formSubmitter interface {
	Submit(ctx context.Context, captureFormKey string, data models.FormData, referer string, timeout time.Duration) (*client.SubmitResult, error)
}

type gotoRegistrar interface {
	Register(ctx context.Context, webinarKey, companyName, email, firstName, lastName string) error
}

type zoomRegistrar interface {
	Register(ctx context.Context, webinarID, email, firstName, lastName string) error
}

type notificationSink interface {
	Send(ctx context.Context, subject, message string)
}

type schemaProvider interface {
	CaptureFields(ctx context.Context, captureFormKey string) ([]models.CaptureField, error)
	AllFields(ctx context.Context) (models.FormFieldMap, error)
}

// SubmissionConfig tunes the orchestrator.
type SubmissionConfig struct {
	RefererHost     string
	MinCaptchaScore float64
	FrontendTimeout time.Duration
	RetryTimeout    time.Duration
}

// SubmissionService is the orchestrator: it decides whether a submission is
// delivered immediately, interprets the downstream outcome, and persists the
// resulting status and retry flags. All queue status transitions go through
// here (or through the retry scheduler replaying Deliver).
type SubmissionService struct {
	store     submissionStore
	schema    schemaProvider
	validator *FieldValidator
	submitter formSubmitter
	gotoAPI   gotoRegistrar
	zoomAPI   zoomRegistrar
	notifier  notificationSink
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       SubmissionConfig
}

// NewSubmissionService constructs the orchestrator.
func NewSubmissionService(
	store submissionStore,
	schema schemaProvider,
	validator *FieldValidator,
	submitter formSubmitter,
	gotoAPI gotoRegistrar,
	zoomAPI zoomRegistrar,
	notifier notificationSink,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg SubmissionConfig,
) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FrontendTimeout <= 0 {
		cfg.FrontendTimeout = 15 * time.Second
	}
	if cfg.RetryTimeout <= 0 {
		cfg.RetryTimeout = 65 * time.Second
	}
	return &SubmissionService{
		store:     store,
		schema:    schema,
		validator: validator,
		submitter: submitter,
		gotoAPI:   gotoAPI,
		zoomAPI:   zoomAPI,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// Process handles one intake submission: action validation, schema-driven
// field validation, durable queuing, and the synchronous delivery attempt.
//
// The record is always inserted (status undue) before any downstream call so
// the submission survives a delivery that never returns. A captcha score
// below the acceptance threshold skips delivery entirely: the caller is told
// the submission is queued but unconfirmed.
func (s *SubmissionService) Process(ctx context.Context, req dto.IntakeRequest, remoteIP string, captchaScore float64) (*dto.IntakeResult, error) {
	captureFormKey, err := s.validator.ParseCaptureFormAction(req.ActionURL)
	if err != nil {
		return nil, err
	}

	captureFields, err := s.schema.CaptureFields(ctx, captureFormKey)
	if err != nil {
		return nil, err
	}
	formFields, err := s.schema.AllFields(ctx)
	if err != nil {
		return nil, err
	}

	fieldErrs, normalized, err := s.validator.Validate(captureFields, formFields, models.FormData(req.FormFields))
	if err != nil {
		return nil, err
	}
	if len(fieldErrs) > 0 {
		return &dto.IntakeResult{Errors: fieldErrs}, nil
	}

	rec := &models.SubmissionRecord{
		CaptureFormKey: captureFormKey,
		Data:           normalized,
		Status:         models.StatusUndue,
		CaptchaScore:   captchaScore,
		IP:             remoteIP,
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue submission")
	}

	result := &dto.IntakeResult{
		JobID:     rec.JobID,
		LowRating: captchaScore < s.cfg.MinCaptchaScore,
	}

	if result.LowRating {
		s.logger.Sugar().Warnw("low captcha score, delivery deferred", "job_id", rec.JobID, "score", captchaScore)
		s.notifier.Send(ctx, "Low captcha score submission",
			fmt.Sprintf("Submission %s queued undelivered with captcha score %.2f", rec.JobID, captchaScore))
		return result, nil
	}

	location, dbg := s.Deliver(ctx, rec, true)

	params := repository.UpdateSubmissionParams{IncrementAttempt: true}
	if !dbg.Empty() || location != "" {
		rendered := dbg.Render()
		params.PrependDebug = &rendered
	}
	if location != "" {
		synced := models.StatusSynced
		now := time.Now().UTC()
		params.Status = &synced
		params.SyncedAt = &now
		result.Success = true
		result.Location = location
	}
	if err := s.store.Update(ctx, rec.JobID, params); err != nil {
		s.logger.Sugar().Errorw("failed to persist delivery outcome", "job_id", rec.JobID, "error", err)
	}

	return result, nil
}

// Deliver submits the record's payload downstream and interprets the result.
// It returns the redirect target on success and an empty string on any
// rejection or transport failure; the caller decides the resulting status.
// Webinar registration follow-up runs only after a successful delivery and
// never reverts it: failures only raise the webinar retry flag.
func (s *SubmissionService) Deliver(ctx context.Context, rec *models.SubmissionRecord, fromFrontend bool) (string, *models.DebugLog) {
	kind := attemptKindForceSync
	timeout := s.cfg.RetryTimeout
	origin := "scheduler"
	if fromFrontend {
		kind = attemptKindSync
		timeout = s.cfg.FrontendTimeout
		origin = "frontend"
	}
	dbg := models.NewDebugLog(kind)
	referer := "https://" + s.cfg.RefererHost

	resp, err := s.submitter.Submit(ctx, rec.CaptureFormKey, rec.Data, referer, timeout)
	if err != nil {
		dbg.Add("submit error: %v", err)
		s.metrics.RecordDelivery(origin, "error")
		if fromFrontend {
			s.notifier.Send(ctx, "Something is wrong with ClickDimensions",
				fmt.Sprintf("Failed to submit form for job %s: %v", rec.JobID, err))
		}
		return "", dbg
	}

	if resp.StatusCode < 300 || resp.StatusCode >= 400 || resp.Location == "" {
		dbg.Add("unexpected response status %d", resp.StatusCode)
		dbg.Add("response body: %s", resp.Body)
		s.metrics.RecordDelivery(origin, "rejected")
		if fromFrontend {
			s.notifier.Send(ctx, "Something is wrong with ClickDimensions",
				fmt.Sprintf("Unexpected status %d submitting form for job %s", resp.StatusCode, rec.JobID))
		}
		return "", dbg
	}

	if errMsg := redirectErrorMessage(resp.Location); errMsg != "" {
		dbg.Add("redirect location: %s", resp.Location)
		dbg.Add("remote error: %s", errMsg)
		dbg.Add("response body: %s", resp.Body)
		s.metrics.RecordDelivery(origin, "rejected")
		if fromFrontend {
			s.notifier.Send(ctx, "Unsuccessful form submission",
				fmt.Sprintf("Remote system rejected job %s: %s", rec.JobID, errMsg))
		}
		return "", dbg
	}

	s.metrics.RecordDelivery(origin, "success")
	dbg.Add("delivered, redirect: %s", resp.Location)

	s.registerWebinars(ctx, rec, fromFrontend, dbg)

	return resp.Location, dbg
}

func (s *SubmissionService) registerWebinars(ctx context.Context, rec *models.SubmissionRecord, fromFrontend bool, dbg *models.DebugLog) {
	if webinarKey := rec.Data[models.FieldGotoWebinarKey]; webinarKey != "" {
		err := s.gotoAPI.Register(ctx, webinarKey,
			rec.Data[models.FieldCompanyName],
			rec.Data[models.FieldEmail],
			rec.Data[models.FieldFirstName],
			rec.Data[models.FieldLastName])
		if err != nil {
			s.logger.Sugar().Errorw("gotowebinar registration failed", "job_id", rec.JobID, "error", err)
			dbg.Add("gotowebinar registration failed: %v", err)
			s.flagWebinarRetry(ctx, rec.JobID, models.RetryWebinarGoto)
			s.metrics.RecordWebinarRetry("gotowebinar", "flagged")
			if fromFrontend {
				s.notifier.Send(ctx, "GotoWebinar registration failed",
					fmt.Sprintf("Job %s: %v", rec.JobID, err))
			}
		}
	}

	if webinarID := rec.Data[models.FieldZoomKey]; webinarID != "" {
		err := s.zoomAPI.Register(ctx, webinarID,
			rec.Data[models.FieldEmail],
			rec.Data[models.FieldFirstName],
			rec.Data[models.FieldLastName])
		if err != nil {
			s.logger.Sugar().Errorw("zoom registration failed", "job_id", rec.JobID, "error", err)
			dbg.Add("zoom registration failed: %v", err)
			s.flagWebinarRetry(ctx, rec.JobID, models.RetryWebinarZoom)
			s.metrics.RecordWebinarRetry("zoom", "flagged")
			if fromFrontend {
				s.notifier.Send(ctx, "Zoom registration failed",
					fmt.Sprintf("Job %s: %v", rec.JobID, err))
			}
		}
	}
}

func (s *SubmissionService) flagWebinarRetry(ctx context.Context, jobID string, flag int) {
	if err := s.store.Update(ctx, jobID, repository.UpdateSubmissionParams{RetryWebinar: &flag}); err != nil {
		s.logger.Sugar().Errorw("failed to flag webinar retry", "job_id", jobID, "flag", flag, "error", err)
	}
}

// redirectErrorMessage extracts the error indicator the remote system embeds
// in its redirect target. Empty means the delivery was accepted.
func redirectErrorMessage(location string) string {
	parsed, err := url.Parse(location)
	if err != nil {
		return "unparseable redirect location"
	}
	return parsed.Query().Get("errorMessage")
}
