package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/cd-sync-api/internal/models"
)

const submissionColumns = `job_id, capture_form_key, data, status, captcha_score, ip, retry_webinar, sync_attempt, created_at, synced_at, debug`

// QueueRepository persists the form submission queue, the system of record
// for retry decisions.
//
// Read-decide-write sequences across calls are intentionally not wrapped in a
// cross-step lock: a manual force-sync trigger racing the scheduler resolves
// as last-write-wins on the updated columns. The attempt counter and debug
// trail are the exception; both mutate inside the UPDATE statement itself so
// concurrent writers cannot lose them.
type QueueRepository struct {
	db *sqlx.DB
}

// NewQueueRepository constructs the repository.
func NewQueueRepository(db *sqlx.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// Insert stores a new submission row with generated defaults.
func (r *QueueRepository) Insert(ctx context.Context, rec *models.SubmissionRecord) error {
	if rec.JobID == "" {
		rec.JobID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = models.StatusUndue
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO form_submission_queue (job_id, capture_form_key, data, status, captcha_score, ip, retry_webinar, sync_attempt, created_at, synced_at, debug)
VALUES (:job_id, :capture_form_key, :data, :status, :captcha_score, :ip, :retry_webinar, :sync_attempt, :created_at, :synced_at, :debug)`
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// GetByID returns a submission row by its job identifier.
func (r *QueueRepository) GetByID(ctx context.Context, jobID string) (*models.SubmissionRecord, error) {
	query := `SELECT ` + submissionColumns + ` FROM form_submission_queue WHERE job_id = $1`
	var rec models.SubmissionRecord
	if err := r.db.GetContext(ctx, &rec, query, jobID); err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return &rec, nil
}

// ListByStatus returns all rows in the given status, newest first.
func (r *QueueRepository) ListByStatus(ctx context.Context, status models.SubmissionStatus) ([]models.SubmissionRecord, error) {
	query := `SELECT ` + submissionColumns + ` FROM form_submission_queue WHERE status = $1 ORDER BY created_at DESC`
	var recs []models.SubmissionRecord
	if err := r.db.SelectContext(ctx, &recs, query, status); err != nil {
		return nil, fmt.Errorf("list submissions by status: %w", err)
	}
	return recs, nil
}

// ListWebinarRetries returns all rows carrying the given webinar retry flag,
// newest first.
func (r *QueueRepository) ListWebinarRetries(ctx context.Context, flag int) ([]models.SubmissionRecord, error) {
	query := `SELECT ` + submissionColumns + ` FROM form_submission_queue WHERE retry_webinar = $1 ORDER BY created_at DESC`
	var recs []models.SubmissionRecord
	if err := r.db.SelectContext(ctx, &recs, query, flag); err != nil {
		return nil, fmt.Errorf("list webinar retries: %w", err)
	}
	return recs, nil
}

// UpdateSubmissionParams defines the mutable fields of a queue row. Nil
// pointers leave the column untouched.
type UpdateSubmissionParams struct {
	Status       *models.SubmissionStatus
	SyncedAt     *time.Time
	RetryWebinar *int
	// IncrementAttempt bumps sync_attempt atomically in SQL.
	IncrementAttempt bool
	// PrependDebug pushes a rendered trail block in front of the existing
	// debug text inside the UPDATE, keeping the trail append-only under
	// concurrent writers.
	PrependDebug *string
}

// Update persists the provided changes for a queue row in a single statement.
func (r *QueueRepository) Update(ctx context.Context, jobID string, params UpdateSubmissionParams) error {
	set := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)
	argPos := 1

	if params.Status != nil {
		set = append(set, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *params.Status)
		argPos++
	}
	if params.SyncedAt != nil {
		set = append(set, fmt.Sprintf("synced_at = $%d", argPos))
		args = append(args, *params.SyncedAt)
		argPos++
	}
	if params.RetryWebinar != nil {
		set = append(set, fmt.Sprintf("retry_webinar = $%d", argPos))
		args = append(args, *params.RetryWebinar)
		argPos++
	}
	if params.IncrementAttempt {
		set = append(set, "sync_attempt = sync_attempt + 1")
	}
	if params.PrependDebug != nil && *params.PrependDebug != "" {
		set = append(set, fmt.Sprintf("debug = $%d || debug", argPos))
		args = append(args, *params.PrependDebug)
		argPos++
	}

	if len(set) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE form_submission_queue SET %s WHERE job_id = $%d", strings.Join(set, ", "), argPos)
	args = append(args, jobID)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	return nil
}

// DeleteOlderThan purges rows created before the retention window,
// regardless of status, and reports the number removed.
func (r *QueueRepository) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	const query = `DELETE FROM form_submission_queue WHERE created_at < NOW() - ($1 * INTERVAL '1 day')`
	res, err := r.db.ExecContext(ctx, query, days)
	if err != nil {
		return 0, fmt.Errorf("delete old submissions: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted submissions: %w", err)
	}
	return deleted, nil
}
