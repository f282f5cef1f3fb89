package job

import (
	"context"
	"log/slog"
)

const (
	defaultWorkers   = 2
	defaultQueueSize = 16
)

// config holds pool and scheduler configuration.
type config struct {
	logger    *slog.Logger
	schedules []scheduleConfig
	workers   int
	queueSize int
}

func newConfig(opts []Option) *config {
	cfg := &config{
		workers:   defaultWorkers,
		queueSize: defaultQueueSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	return cfg
}

// scheduleConfig holds scheduled task configuration.
//
//nolint:betteralign // all fields contain pointers, no optimization possible
type scheduleConfig struct {
	handler  func(context.Context) error
	name     string
	schedule string
}

// Option configures a Pool or a Scheduler. Options that do not apply to
// the component being built are ignored.
type Option func(*config)

// WithWorkers sets the number of pool workers. Defaults to 2.
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithQueueSize sets how many tasks may wait for a free worker.
// Defaults to 16. Zero means tasks are accepted only when a worker is idle.
func WithQueueSize(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.queueSize = n
		}
	}
}

// WithLogger sets the logger. If not set, a noop logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithScheduledTask registers a periodic task using structural typing.
// The task must implement Name(), Schedule(), and Handle(ctx) methods.
// Schedule() returns a 5-field cron expression or a descriptor like "@every 5m".
//
// Example:
//
//	type PurgeUploads struct{ store storage.Storage }
//
//	func (t *PurgeUploads) Name() string     { return "purge_uploads" }
//	func (t *PurgeUploads) Schedule() string { return "0 3 * * *" }
//	func (t *PurgeUploads) Handle(ctx context.Context) error { ... }
//
//	job.WithScheduledTask(&PurgeUploads{store: store})
func WithScheduledTask[T interface {
	Name() string
	Schedule() string
	Handle(context.Context) error
}](task T) Option {
	return func(c *config) {
		c.schedules = append(c.schedules, scheduleConfig{
			name:     task.Name(),
			schedule: task.Schedule(),
			handler:  task.Handle,
		})
	}
}
