package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cd-sync-api/internal/models"
)

func newQueueRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestQueueRepositoryInsertDefaults(t *testing.T) {
	db, mock, cleanup := newQueueRepoMock(t)
	defer cleanup()

	repo := NewQueueRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO form_submission_queue")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := &models.SubmissionRecord{
		CaptureFormKey: "abc123",
		Data:           models.FormData{"f_email": "a@b.co"},
		CaptchaScore:   0.9,
		IP:             "203.0.113.10",
	}
	require.NoError(t, repo.Insert(context.Background(), rec))
	require.NotEmpty(t, rec.JobID)
	require.Equal(t, models.StatusUndue, rec.Status)
	require.False(t, rec.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueRepositoryListByStatus(t *testing.T) {
	db, mock, cleanup := newQueueRepoMock(t)
	defer cleanup()

	repo := NewQueueRepository(db)
	rows := sqlmock.NewRows([]string{"job_id", "capture_form_key", "data", "status", "captcha_score", "ip", "retry_webinar", "sync_attempt", "created_at", "synced_at", "debug"}).
		AddRow("job-2", "abc123", `{"f_email":"b@b.co"}`, "force_sync", 0.9, "203.0.113.10", 0, 1, time.Now(), nil, "").
		AddRow("job-1", "abc123", `{"f_email":"a@b.co"}`, "force_sync", 0.8, "203.0.113.11", 0, 2, time.Now().Add(-time.Hour), nil, "")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = $1 ORDER BY created_at DESC")).
		WithArgs(models.StatusForceSync).
		WillReturnRows(rows)

	recs, err := repo.ListByStatus(context.Background(), models.StatusForceSync)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "job-2", recs[0].JobID)
	require.Equal(t, "b@b.co", recs[0].Data["f_email"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueRepositoryListWebinarRetries(t *testing.T) {
	db, mock, cleanup := newQueueRepoMock(t)
	defer cleanup()

	repo := NewQueueRepository(db)
	rows := sqlmock.NewRows([]string{"job_id", "capture_form_key", "data", "status", "captcha_score", "ip", "retry_webinar", "sync_attempt", "created_at", "synced_at", "debug"}).
		AddRow("job-1", "abc123", `{"ZoomKey":"999"}`, "synced", 0.9, "203.0.113.10", 2, 1, time.Now(), time.Now(), "")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE retry_webinar = $1 ORDER BY created_at DESC")).
		WithArgs(models.RetryWebinarZoom).
		WillReturnRows(rows)

	recs, err := repo.ListWebinarRetries(context.Background(), models.RetryWebinarZoom)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, models.RetryWebinarZoom, recs[0].RetryWebinar)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueRepositoryUpdateIncrementsAndPrepends(t *testing.T) {
	db, mock, cleanup := newQueueRepoMock(t)
	defer cleanup()

	repo := NewQueueRepository(db)
	status := models.StatusSynced
	now := time.Now().UTC()
	trail := "<SYNC> block\n"

	mock.ExpectExec(regexp.QuoteMeta("UPDATE form_submission_queue SET status = $1, synced_at = $2, sync_attempt = sync_attempt + 1, debug = $3 || debug WHERE job_id = $4")).
		WithArgs(status, now, trail, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "job-1", UpdateSubmissionParams{
		Status:           &status,
		SyncedAt:         &now,
		IncrementAttempt: true,
		PrependDebug:     &trail,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueRepositoryUpdateRetryFlagOnly(t *testing.T) {
	db, mock, cleanup := newQueueRepoMock(t)
	defer cleanup()

	repo := NewQueueRepository(db)
	flag := models.RetryWebinarGoto

	mock.ExpectExec(regexp.QuoteMeta("UPDATE form_submission_queue SET retry_webinar = $1 WHERE job_id = $2")).
		WithArgs(flag, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), "job-1", UpdateSubmissionParams{RetryWebinar: &flag}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueRepositoryUpdateNoChanges(t *testing.T) {
	db, mock, cleanup := newQueueRepoMock(t)
	defer cleanup()

	repo := NewQueueRepository(db)
	require.NoError(t, repo.Update(context.Background(), "job-1", UpdateSubmissionParams{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueRepositoryDeleteOlderThan(t *testing.T) {
	db, mock, cleanup := newQueueRepoMock(t)
	defer cleanup()

	repo := NewQueueRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM form_submission_queue WHERE created_at <")).
		WithArgs(30).
		WillReturnResult(sqlmock.NewResult(0, 7))

	deleted, err := repo.DeleteOlderThan(context.Background(), 30)
	require.NoError(t, err)
	require.EqualValues(t, 7, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}
