// Package tracker runs bulk sends in the background and reports their
// progress to pollers.
//
// A job starts life when a spreadsheet is uploaded (Create), is started
// with a column mapping and content request (Start), and then sends its
// rows one by one on a shared job pool. Records live in memory only.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sensiq/coldmail/internal/batch"
	"github.com/sensiq/coldmail/internal/content"
	jobpool "github.com/sensiq/coldmail/pkg/job"
	"github.com/sensiq/coldmail/pkg/logger"
	"github.com/sensiq/coldmail/pkg/storage"
)

const uploadPrefix = "uploads"

// Dispatcher builds and sends one email.
type Dispatcher interface {
	Preflight(ctx context.Context) error
	Dispatch(ctx context.Context, req content.Request, to string) error
}

// Upload is an incoming spreadsheet.
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// Created describes a freshly uploaded job.
type Created struct {
	ID      string
	Columns []string
}

// Tracker owns the job records.
type Tracker struct {
	store  storage.Storage
	send   Dispatcher
	pool   *jobpool.Pool
	logger *slog.Logger
	now    func() time.Time
	hooks  []RowHook

	rowDelay        time.Duration
	retention       time.Duration
	uploadRetention time.Duration
	maxUploadSize   int64

	mu   sync.Mutex
	jobs map[string]*job
}

// New creates a tracker that stores uploads in store, sends through send
// and runs jobs on pool.
func New(store storage.Storage, send Dispatcher, pool *jobpool.Pool, opts ...Option) *Tracker {
	t := &Tracker{
		store:           store,
		send:            send,
		pool:            pool,
		logger:          logger.NewNope(),
		now:             time.Now,
		rowDelay:        defaultRowDelay,
		retention:       defaultRetention,
		uploadRetention: defaultUploadRetention,
		maxUploadSize:   defaultMaxUploadSize,
		jobs:            make(map[string]*job),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Create stores the upload and reads its header row.
func (t *Tracker) Create(ctx context.Context, u Upload) (*Created, error) {
	if _, err := batch.DetectFormat(u.Filename); err != nil {
		return nil, err
	}

	key := storage.NewKey(uploadPrefix, u.Filename)
	if _, err := t.store.Put(ctx, key, u.Body, u.Size,
		storage.WithFilename(u.Filename),
		storage.WithValidation(
			storage.NotEmpty(),
			storage.MaxSize(t.maxUploadSize),
			storage.AllowedExtensions(batch.Extensions...),
		),
	); err != nil {
		return nil, err
	}

	columns, err := t.columns(ctx, key, u.Filename)
	if err != nil {
		t.removeUpload(ctx, key)
		return nil, err
	}

	id := uuid.NewString()
	t.mu.Lock()
	t.jobs[id] = newJob(id, key, u.Filename, columns, t.now())
	t.mu.Unlock()

	t.logger.InfoContext(ctx, "job created",
		slog.String("job_id", id),
		slog.String("filename", u.Filename),
		slog.Int("columns", len(columns)),
	)
	return &Created{ID: id, Columns: columns}, nil
}

func (t *Tracker) columns(ctx context.Context, key, filename string) ([]string, error) {
	rc, err := t.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return batch.Columns(ctx, filename, rc)
}

func (t *Tracker) rows(ctx context.Context, j *job, cfg SendConfig) ([]batch.Row, error) {
	rc, err := t.store.Get(ctx, j.fileKey)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return batch.Rows(ctx, j.filename, rc, cfg.EmailColumn, cfg.ExtraColumns)
}

func (t *Tracker) lookup(id string) (*job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[id]
	return j, ok
}

// Start parses the rows of job id and queues the send loop. It returns the
// number of rows that will be attempted. The job stays uploaded when the
// columns are missing or the pool is full, so the caller may retry.
func (t *Tracker) Start(ctx context.Context, id string, cfg SendConfig) (int, error) {
	j, ok := t.lookup(id)
	if !ok {
		return 0, ErrNotFound
	}

	j.mu.Lock()
	if j.status != StatusUploaded || j.starting {
		j.mu.Unlock()
		return 0, ErrAlreadyStarted
	}
	j.starting = true
	j.mu.Unlock()

	cfg.Request = cfg.Request.Normalize()
	rows, err := t.rows(ctx, j, cfg)

	j.mu.Lock()
	defer j.mu.Unlock()
	j.starting = false
	if err != nil {
		return 0, err
	}

	// The worker locks j before its first update, so the status below is
	// always set before the loop observes the job.
	if err := t.pool.TrySubmit(func(ctx context.Context) {
		t.run(ctx, j, cfg, rows)
	}); err != nil {
		if errors.Is(err, jobpool.ErrQueueFull) {
			return 0, errors.Join(ErrQueueFull, err)
		}
		return 0, fmt.Errorf("tracker: submit job: %w", err)
	}

	j.status = StatusProcessing
	j.config = cfg
	j.total = len(rows)

	t.logger.InfoContext(ctx, "job started",
		slog.String("job_id", id),
		slog.Int("total", len(rows)),
		slog.String("email_type", cfg.Request.EmailType),
	)
	return len(rows), nil
}

// Status returns a copy of the job state. Unknown ids yield NotFound.
// A finished job past retention is removed and reported once as expired.
func (t *Tracker) Status(id string) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	j, ok := t.jobs[id]
	if !ok {
		return NotFound()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.expiredLocked(t.now(), t.retention) {
		delete(t.jobs, id)
		s := j.snapshotLocked()
		s.Status = StatusExpired
		s.Progress = 100
		s.Error = msgExpired
		s.Errors = nil
		return s
	}
	return j.snapshotLocked()
}

// Cancel asks a running job to stop before its next row.
func (t *Tracker) Cancel(id string) error {
	j, ok := t.lookup(id)
	if !ok {
		return ErrNotFound
	}

	j.mu.Lock()
	status := j.status
	j.mu.Unlock()
	if status != StatusProcessing && status != StatusSending {
		return ErrNotRunning
	}

	j.requestCancel()
	t.logger.Info("job cancel requested", slog.String("job_id", id))
	return nil
}

// CancelAll asks every running job to stop.
func (t *Tracker) CancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		j.mu.Lock()
		running := j.status == StatusProcessing || j.status == StatusSending
		j.mu.Unlock()
		if running {
			j.requestCancel()
		}
	}
}

// Shutdown cancels running jobs and drains the pool.
func (t *Tracker) Shutdown(ctx context.Context) error {
	t.CancelAll()
	return t.pool.Shutdown(ctx)
}

// Sweep removes uploads that were never started within the upload
// retention, together with their records. Finished jobs are left for Status
// to expire. It returns the number removed.
func (t *Tracker) Sweep(ctx context.Context, now time.Time) int {
	var keys []string

	t.mu.Lock()
	for id, j := range t.jobs {
		j.mu.Lock()
		abandoned := j.status == StatusUploaded && !j.starting &&
			now.Sub(j.createdAt) > t.uploadRetention
		j.mu.Unlock()
		if abandoned {
			delete(t.jobs, id)
			keys = append(keys, j.fileKey)
		}
	}
	t.mu.Unlock()

	for _, key := range keys {
		t.removeUpload(ctx, key)
	}
	if len(keys) > 0 {
		t.logger.InfoContext(ctx, "abandoned uploads swept", slog.Int("removed", len(keys)))
	}
	return len(keys)
}

func (t *Tracker) removeUpload(ctx context.Context, key string) {
	if err := t.store.Delete(ctx, key); err != nil {
		t.logger.WarnContext(ctx, "failed to delete upload",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}
}
