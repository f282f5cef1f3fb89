// Package job runs background work in-process: a bounded worker pool for
// one-off tasks and a cron scheduler for periodic ones.
//
// Nothing is persisted. Tasks submitted to a Pool are lost when the process
// exits, and scheduled tasks simply resume on the next start.
//
// # Pool
//
// A Pool has a fixed number of workers reading from a bounded queue.
// TrySubmit never blocks; when the queue is full it returns ErrQueueFull so
// callers can reject the request instead of piling up goroutines:
//
//	pool := job.NewPool(
//	    job.WithWorkers(2),
//	    job.WithQueueSize(16),
//	    job.WithLogger(log),
//	)
//
//	if err := pool.TrySubmit(func(ctx context.Context) {
//	    sendAll(ctx, rows)
//	}); errors.Is(err, job.ErrQueueFull) {
//	    return internal.ErrServiceUnavailable("too many jobs running")
//	}
//
// Shutdown stops accepting work and waits for queued and running tasks.
// When the shutdown context expires first, the context handed to running
// tasks is canceled and Shutdown returns the context error.
//
// # Scheduled Tasks
//
// Periodic tasks are plain structs with Name, Schedule and Handle methods.
// No interface import is needed:
//
//	type SweepJobs struct{ tracker *tracker.Tracker }
//
//	func (t *SweepJobs) Name() string     { return "sweep_jobs" }
//	func (t *SweepJobs) Schedule() string { return "@every 5m" }
//	func (t *SweepJobs) Handle(ctx context.Context) error {
//	    t.tracker.Sweep(ctx, time.Now())
//	    return nil
//	}
//
//	sched, err := job.NewScheduler(
//	    job.WithScheduledTask(&SweepJobs{tracker: tr}),
//	    job.WithLogger(log),
//	)
//	sched.Start(ctx)
//	defer sched.Stop(ctx)
//
// Schedules accept standard 5-field cron expressions and descriptors such
// as "@hourly" or "@every 30s". A run that is still in progress when the
// next tick fires causes that tick to be skipped.
//
// # Health Checks
//
//	internal.WithHealthChecks(
//	    internal.WithReadinessCheck("jobs", job.Healthcheck(pool)),
//	)
package job
