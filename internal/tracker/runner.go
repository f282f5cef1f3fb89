package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/sensiq/coldmail/internal/batch"
	"github.com/sensiq/coldmail/internal/content"
	"github.com/sensiq/coldmail/pkg/mailer"
)

// RowResult is the outcome of one row, as passed to row hooks.
type RowResult struct {
	JobID     string
	Line      int
	Recipient string
	Sent      bool
	Error     string
	At        time.Time

	// Fields are the extra columns of the row, nil when none were requested.
	Fields map[string]string
}

// RowHook observes row outcomes. Hooks run on the job goroutine, in row order.
type RowHook func(ctx context.Context, res RowResult)

func (t *Tracker) run(ctx context.Context, j *job, cfg SendConfig, rows []batch.Row) {
	log := t.logger.With(slog.String("job_id", j.id))
	defer t.removeUpload(context.WithoutCancel(ctx), j.fileKey)
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "job panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			j.finish(StatusFailed, fmt.Sprintf("%s: %v", ErrJobPanicked, r), t.now())
		}
	}()

	j.setStatus(StatusSending)

	if err := t.send.Preflight(ctx); err != nil {
		log.ErrorContext(ctx, "job preflight failed", slog.Any("error", err))
		j.finish(StatusFailed, err.Error(), t.now())
		return
	}

	for i, row := range rows {
		if j.isCanceled() || ctx.Err() != nil {
			log.WarnContext(ctx, "job canceled", slog.Int("remaining", len(rows)-i))
			j.finish(StatusFailed, ErrJobCanceled.Error(), t.now())
			return
		}

		res := t.sendRow(ctx, j.id, cfg.Request, row)
		j.record(res)
		for _, hook := range t.hooks {
			hook(ctx, res)
		}
		if !res.Sent {
			log.WarnContext(ctx, "row failed",
				slog.Int("line", row.Line),
				slog.String("recipient", res.Recipient),
				slog.String("error", res.Error),
			)
		}

		if i < len(rows)-1 {
			t.wait(ctx, j)
		}
	}

	j.finish(StatusCompleted, "", t.now())
	s := j.snapshot()
	log.InfoContext(ctx, "job completed",
		slog.Int("total", s.Total),
		slog.Int("sent", s.Sent),
		slog.Int("failed", s.Failed),
	)
}

func (t *Tracker) sendRow(ctx context.Context, jobID string, req content.Request, row batch.Row) RowResult {
	res := RowResult{JobID: jobID, Line: row.Line, Recipient: row.Email, Fields: row.Fields}

	if row.Blank() {
		res.Error = ErrNoEmail.Error()
	} else if addr, err := mailer.ParseAddress(row.Email); err != nil {
		res.Error = err.Error()
	} else if err := t.send.Dispatch(ctx, req, addr); err != nil {
		res.Recipient = addr
		res.Error = err.Error()
	} else {
		res.Recipient = addr
		res.Sent = true
	}

	res.At = t.now()
	return res
}

// wait sleeps for the row delay, waking early on cancellation.
func (t *Tracker) wait(ctx context.Context, j *job) {
	if t.rowDelay <= 0 {
		return
	}
	timer := time.NewTimer(t.rowDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-j.canceled:
	case <-ctx.Done():
	}
}
