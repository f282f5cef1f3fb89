// Package journal persists per-recipient delivery outcomes of bulk jobs
// in PostgreSQL. It is optional and only wired when a database is set up.
package journal

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sensiq/coldmail/internal/tracker"
	"github.com/sensiq/coldmail/pkg/db"
	"github.com/sensiq/coldmail/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations holds the goose migrations at its root.
var Migrations, _ = fs.Sub(migrationsFS, "migrations")

var (
	ErrWriteFailed = errors.New("journal: failed to record delivery")
	ErrReadFailed  = errors.New("journal: failed to list deliveries")
)

const writeTimeout = 5 * time.Second

// Delivery status values.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Delivery is one recorded row outcome.
type Delivery struct {
	JobID     string    `json:"job_id"`
	Line      int       `json:"line"`
	Recipient string    `json:"recipient"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FromResult converts a tracker row outcome.
func FromResult(res tracker.RowResult) Delivery {
	d := Delivery{
		JobID:     res.JobID,
		Line:      res.Line,
		Recipient: res.Recipient,
		Status:    StatusFailed,
		Error:     res.Error,
		CreatedAt: res.At,
	}
	if res.Sent {
		d.Status = StatusSent
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	return d
}

// Journal reads and writes the deliveries table.
type Journal struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New returns a journal over pool. A nil logger discards output.
func New(pool *pgxpool.Pool, log *slog.Logger) *Journal {
	if log == nil {
		log = logger.NewNope()
	}
	return &Journal{pool: pool, logger: log}
}

// Migrate applies the journal schema.
func (j *Journal) Migrate(ctx context.Context, table string) error {
	return db.Migrate(ctx, j.pool, Migrations, table, j.logger)
}

const insertDelivery = `
INSERT INTO deliveries (job_id, line, recipient, status, error, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

// Record stores d.
func (j *Journal) Record(ctx context.Context, d Delivery) error {
	err := db.WithTx(ctx, j.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertDelivery,
			d.JobID, d.Line, d.Recipient, d.Status, d.Error, d.CreatedAt)
		return err
	})
	if err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	return nil
}

// Hook returns a tracker row hook writing every outcome. Write failures
// are logged and never affect the job.
func (j *Journal) Hook() tracker.RowHook {
	return func(ctx context.Context, res tracker.RowResult) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
		defer cancel()

		if err := j.Record(ctx, FromResult(res)); err != nil {
			j.logger.WarnContext(ctx, "delivery not journaled",
				slog.String("job_id", res.JobID),
				slog.Int("line", res.Line),
				slog.Any("error", err),
			)
		}
	}
}

const selectDeliveries = `
SELECT job_id::text, line, recipient, status, error, created_at
FROM deliveries
WHERE job_id = $1
ORDER BY line, id`

// List returns the deliveries of jobID in row order.
func (j *Journal) List(ctx context.Context, jobID string) ([]Delivery, error) {
	rows, err := j.pool.Query(ctx, selectDeliveries, jobID)
	if err != nil {
		return nil, errors.Join(ErrReadFailed, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Delivery, error) {
		var d Delivery
		err := row.Scan(&d.JobID, &d.Line, &d.Recipient, &d.Status, &d.Error, &d.CreatedAt)
		return d, err
	})
	if err != nil {
		return nil, errors.Join(ErrReadFailed, err)
	}
	return out, nil
}
