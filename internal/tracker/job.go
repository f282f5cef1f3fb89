package tracker

import (
	"math"
	"slices"
	"sync"
	"time"

	"github.com/sensiq/coldmail/internal/content"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusUploaded   Status = "uploaded"
	StatusProcessing Status = "processing"
	StatusSending    Status = "sending"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"

	// Reported by Status only, never stored.
	StatusExpired  Status = "expired"
	StatusNotFound Status = "not_found"
)

// Terminal reports whether s ends the job lifecycle.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

const (
	msgNotFound = "Job not found or expired"
	msgExpired  = "Job data expired"
)

// SendConfig is what a started job sends and to whom.
type SendConfig struct {
	EmailColumn  string
	ExtraColumns []string
	Request      content.Request
}

// RowError records why one recipient was not sent.
type RowError struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

// Snapshot is a point-in-time copy of a job as reported to pollers.
type Snapshot struct {
	Success  bool       `json:"success"`
	JobID    string     `json:"job_id,omitempty"`
	Status   Status     `json:"status"`
	Progress int        `json:"progress"`
	Total    int        `json:"total"`
	Sent     int        `json:"sent"`
	Failed   int        `json:"failed"`
	Error    string     `json:"error,omitempty"`
	Errors   []RowError `json:"errors,omitempty"`
}

// NotFound is the snapshot reported for unknown ids.
func NotFound() Snapshot {
	return Snapshot{Success: true, Status: StatusNotFound, Error: msgNotFound}
}

// Progress returns round(done/total*100) clamped to [0,100], or 0 when
// total is 0.
func Progress(done, total int) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(float64(done) / float64(total) * 100))
	return min(max(p, 0), 100)
}

// job is the mutable record behind a job id. All fields after mu are
// guarded by it.
type job struct {
	id        string
	fileKey   string
	filename  string
	columns   []string
	createdAt time.Time
	canceled  chan struct{}
	cancel    sync.Once

	mu          sync.Mutex
	status      Status
	starting    bool
	config      SendConfig
	total       int
	sent        int
	failed      int
	errMsg      string
	errors      []RowError
	completedAt time.Time
}

func newJob(id, fileKey, filename string, columns []string, now time.Time) *job {
	return &job{
		id:        id,
		fileKey:   fileKey,
		filename:  filename,
		columns:   columns,
		createdAt: now,
		canceled:  make(chan struct{}),
		status:    StatusUploaded,
	}
}

func (j *job) snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snapshotLocked()
}

func (j *job) snapshotLocked() Snapshot {
	return Snapshot{
		Success:  true,
		JobID:    j.id,
		Status:   j.status,
		Progress: Progress(j.sent+j.failed, j.total),
		Total:    j.total,
		Sent:     j.sent,
		Failed:   j.failed,
		Error:    j.errMsg,
		Errors:   slices.Clone(j.errors),
	}
}

func (j *job) setStatus(s Status) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.status.Terminal() {
		j.status = s
	}
}

// record applies one row outcome.
func (j *job) record(res RowResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if res.Sent {
		j.sent++
		return
	}
	j.failed++
	j.errors = append(j.errors, RowError{Recipient: res.Recipient, Message: res.Error})
}

// finish moves the job to a terminal status exactly once.
func (j *job) finish(s Status, msg string, now time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return
	}
	j.status = s
	j.errMsg = msg
	j.completedAt = now
}

func (j *job) requestCancel() {
	j.cancel.Do(func() { close(j.canceled) })
}

func (j *job) isCanceled() bool {
	select {
	case <-j.canceled:
		return true
	default:
		return false
	}
}

// expiredLocked reports whether a terminal job has outlived retention.
func (j *job) expiredLocked(now time.Time, retention time.Duration) bool {
	return j.status.Terminal() && now.Sub(j.completedAt) > retention
}
