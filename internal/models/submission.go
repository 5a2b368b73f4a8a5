package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SubmissionStatus captures the queue lifecycle states.
type SubmissionStatus string

const (
	StatusUndue        SubmissionStatus = "undue"
	StatusSynced       SubmissionStatus = "synced"
	StatusUnsuccessful SubmissionStatus = "unsuccessful"
	StatusForceSync    SubmissionStatus = "force_sync"
)

// Webinar retry flag values. The flag is orthogonal to the submission status:
// a synced record can still carry a pending webinar retry.
const (
	RetryWebinarNone int = 0
	RetryWebinarGoto int = 1
	RetryWebinarZoom int = 2
)

// Well-known payload keys consumed by the webinar follow-up.
const (
	FieldGotoWebinarKey = "GotoWebinarKey"
	FieldZoomKey        = "ZoomKey"
	FieldEmail          = "Email"
	FieldFirstName      = "FirstName"
	FieldLastName       = "LastName"
	FieldCompanyName    = "CompanyName"
)

// SubmissionRecord is one row of the form submission queue.
type SubmissionRecord struct {
	JobID          string           `db:"job_id" json:"jobId"`
	CaptureFormKey string           `db:"capture_form_key" json:"captureFormKey"`
	Data           FormData         `db:"data" json:"data"`
	Status         SubmissionStatus `db:"status" json:"status"`
	CaptchaScore   float64          `db:"captcha_score" json:"captchaScore"`
	IP             string           `db:"ip" json:"ip"`
	RetryWebinar   int              `db:"retry_webinar" json:"retryWebinar"`
	SyncAttempt    int              `db:"sync_attempt" json:"syncAttempt"`
	CreatedAt      time.Time        `db:"created_at" json:"createdAt"`
	SyncedAt       *time.Time       `db:"synced_at" json:"syncedAt,omitempty"`
	Debug          string           `db:"debug" json:"-"`
}

// FormData is the validated field-id to value payload persisted as JSONB.
type FormData map[string]string

// Value marshals the payload to JSON for persistence.
func (d FormData) Value() (driver.Value, error) {
	if d == nil {
		d = FormData{}
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal form data: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the map.
func (d *FormData) Scan(value interface{}) error {
	if value == nil {
		*d = FormData{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for FormData", value)
	}
	if len(data) == 0 {
		*d = FormData{}
		return nil
	}
	if err := json.Unmarshal(data, d); err != nil {
		return fmt.Errorf("unmarshal form data: %w", err)
	}
	return nil
}

// DebugEntry is one observation recorded during a delivery attempt.
type DebugEntry struct {
	Timestamp time.Time
	Detail    string
}

// DebugLog collects the observations of a single attempt. Rendering to text
// happens only at the storage boundary; the persisted trail is append-only
// with the newest block first.
type DebugLog struct {
	Kind    string
	entries []DebugEntry
}

// NewDebugLog starts a trail block for the given attempt kind.
func NewDebugLog(kind string) *DebugLog {
	return &DebugLog{Kind: kind}
}

// Add appends a timestamped observation.
func (l *DebugLog) Add(format string, args ...interface{}) {
	l.entries = append(l.entries, DebugEntry{
		Timestamp: time.Now().UTC(),
		Detail:    fmt.Sprintf(format, args...),
	})
}

// Empty reports whether the attempt recorded any observations.
func (l *DebugLog) Empty() bool {
	return l == nil || len(l.entries) == 0
}

// Render produces the textual block persisted in the debug column.
func (l *DebugLog) Render() string {
	if l == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<%s> %s\n", l.Kind, time.Now().UTC().Format(time.RFC3339)))
	for _, entry := range l.entries {
		b.WriteString(fmt.Sprintf("%s %s\n", entry.Timestamp.Format(time.RFC3339), entry.Detail))
	}
	b.WriteString(fmt.Sprintf("</%s>\n", l.Kind))
	return b.String()
}
