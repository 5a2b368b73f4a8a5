package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cd-sync-api/internal/models"
)

type retryFixture struct {
	*submissionFixture
	retry *RetryService
}

func newRetryFixture(submitter *submitterStub) *retryFixture {
	f := newSubmissionFixture(submitter)
	return &retryFixture{
		submissionFixture: f,
		retry:             NewRetryService(f.store, f.svc, f.gotoAPI, f.zoomAPI, nil, nil),
	}
}

func seedRecord(store *queueStoreStub, rec models.SubmissionRecord) *models.SubmissionRecord {
	copied := rec
	store.records[rec.JobID] = &copied
	return &copied
}

func TestRunForceSyncSuccess(t *testing.T) {
	f := newRetryFixture(acceptedSubmit())
	seedRecord(f.store, models.SubmissionRecord{
		JobID:          "job-1",
		CaptureFormKey: "abc123",
		Data:           models.FormData{"f_email": "a@b.co"},
		Status:         models.StatusForceSync,
	})

	f.retry.RunForceSync(context.Background())

	rec := f.store.records["job-1"]
	assert.Equal(t, models.StatusSynced, rec.Status)
	require.NotNil(t, rec.SyncedAt)
	assert.Equal(t, 1, rec.SyncAttempt)
	assert.Contains(t, rec.Debug, "<FORCE SYNC>")
}

func TestRunForceSyncFailureIsTerminal(t *testing.T) {
	f := newRetryFixture(&submitterStub{err: errors.New("connection reset")})
	seedRecord(f.store, models.SubmissionRecord{
		JobID:          "job-1",
		CaptureFormKey: "abc123",
		Data:           models.FormData{"f_email": "a@b.co"},
		Status:         models.StatusForceSync,
		SyncAttempt:    3,
	})

	f.retry.RunForceSync(context.Background())

	rec := f.store.records["job-1"]
	assert.Equal(t, models.StatusUnsuccessful, rec.Status)
	assert.Nil(t, rec.SyncedAt)
	assert.Equal(t, 4, rec.SyncAttempt)
	assert.Contains(t, rec.Debug, "connection reset")
	// Scheduler-originated failures never page the notifier.
	assert.Empty(t, f.notifier.subjects)
}

func TestRunForceSyncOverwritesSyncedAtOnReplay(t *testing.T) {
	f := newRetryFixture(acceptedSubmit())
	earlier := time.Now().UTC().Add(-time.Hour)
	seedRecord(f.store, models.SubmissionRecord{
		JobID:          "job-1",
		CaptureFormKey: "abc123",
		Data:           models.FormData{"f_email": "a@b.co"},
		Status:         models.StatusForceSync,
		SyncedAt:       &earlier,
	})

	f.retry.RunForceSync(context.Background())

	rec := f.store.records["job-1"]
	require.NotNil(t, rec.SyncedAt)
	assert.True(t, rec.SyncedAt.After(earlier))
}

func TestRunGotoWebinarRetriesClearsFlagOnSuccess(t *testing.T) {
	f := newRetryFixture(acceptedSubmit())
	seedRecord(f.store, models.SubmissionRecord{
		JobID:        "job-1",
		Data:         models.FormData{"GotoWebinarKey": "111", "Email": "a@b.co"},
		Status:       models.StatusSynced,
		RetryWebinar: models.RetryWebinarGoto,
		SyncAttempt:  1,
	})

	f.retry.RunGotoWebinarRetries(context.Background())

	rec := f.store.records["job-1"]
	assert.Equal(t, models.RetryWebinarNone, rec.RetryWebinar)
	assert.Equal(t, models.StatusSynced, rec.Status)
	// Registration-only retries do not count as delivery attempts.
	assert.Equal(t, 1, rec.SyncAttempt)
	assert.Contains(t, rec.Debug, "<GOTOWEBINAR RESYNC>")
	assert.Equal(t, 1, f.gotoAPI.calls)
	assert.Zero(t, f.submitter.calls)
}

func TestRunGotoWebinarRetriesKeepsFlagOnFailure(t *testing.T) {
	f := newRetryFixture(acceptedSubmit())
	f.gotoAPI.err = errors.New("still failing")
	seedRecord(f.store, models.SubmissionRecord{
		JobID:        "job-1",
		Data:         models.FormData{"GotoWebinarKey": "111"},
		Status:       models.StatusSynced,
		RetryWebinar: models.RetryWebinarGoto,
	})

	f.retry.RunGotoWebinarRetries(context.Background())

	rec := f.store.records["job-1"]
	assert.Equal(t, models.RetryWebinarGoto, rec.RetryWebinar)
	assert.Empty(t, rec.Debug)
}

func TestRunZoomRetriesCountsEitherWay(t *testing.T) {
	f := newRetryFixture(acceptedSubmit())
	f.zoomAPI.err = errors.New("still failing")
	seedRecord(f.store, models.SubmissionRecord{
		JobID:        "job-1",
		Data:         models.FormData{"ZoomKey": "999"},
		Status:       models.StatusSynced,
		RetryWebinar: models.RetryWebinarZoom,
		SyncAttempt:  1,
	})

	f.retry.RunZoomRetries(context.Background())
	rec := f.store.records["job-1"]
	assert.Equal(t, models.RetryWebinarZoom, rec.RetryWebinar)
	assert.Equal(t, 2, rec.SyncAttempt)
	assert.Contains(t, rec.Debug, "<ZOOM RESYNC>")

	f.zoomAPI.err = nil
	f.retry.RunZoomRetries(context.Background())
	assert.Equal(t, models.RetryWebinarNone, rec.RetryWebinar)
	assert.Equal(t, 3, rec.SyncAttempt)
}

func TestRunAllTouchesEveryClass(t *testing.T) {
	f := newRetryFixture(acceptedSubmit())
	seedRecord(f.store, models.SubmissionRecord{
		JobID:          "force-1",
		CaptureFormKey: "abc123",
		Data:           models.FormData{"f_email": "a@b.co"},
		Status:         models.StatusForceSync,
	})
	seedRecord(f.store, models.SubmissionRecord{
		JobID:        "zoom-1",
		Data:         models.FormData{"ZoomKey": "999"},
		Status:       models.StatusSynced,
		RetryWebinar: models.RetryWebinarZoom,
	})

	f.retry.RunAll(context.Background())

	assert.Equal(t, models.StatusSynced, f.store.records["force-1"].Status)
	assert.Equal(t, models.RetryWebinarNone, f.store.records["zoom-1"].RetryWebinar)
}
