package tracker

import (
	"context"
	"log/slog"
)

// DefaultSweepSchedule runs the janitor every five minutes.
const DefaultSweepSchedule = "@every 5m"

// Janitor is a scheduled task that calls Sweep to drop abandoned uploads.
// Register it with job.WithScheduledTask.
type Janitor struct {
	tracker  *Tracker
	schedule string
}

// Janitor returns the sweep task for t. An empty schedule uses
// DefaultSweepSchedule.
func (t *Tracker) Janitor(schedule string) *Janitor {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	return &Janitor{tracker: t, schedule: schedule}
}

func (j *Janitor) Name() string     { return "sweep_jobs" }
func (j *Janitor) Schedule() string { return j.schedule }

func (j *Janitor) Handle(ctx context.Context) error {
	n := j.tracker.Sweep(ctx, j.tracker.now())
	j.tracker.logger.DebugContext(ctx, "janitor finished", slog.Int("removed", n))
	return nil
}
