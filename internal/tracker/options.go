package tracker

import (
	"log/slog"
	"time"
)

const (
	defaultRowDelay        = time.Second
	defaultRetention       = 5 * time.Minute
	defaultUploadRetention = 24 * time.Hour
	defaultMaxUploadSize   = 16 << 20
)

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the tracker logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithRowDelay sets the pause between two sends of the same job.
func WithRowDelay(d time.Duration) Option {
	return func(t *Tracker) {
		if d >= 0 {
			t.rowDelay = d
		}
	}
}

// WithRetention sets how long finished jobs stay visible to pollers.
func WithRetention(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.retention = d
		}
	}
}

// WithUploadRetention sets how long an uploaded but never started job is kept.
func WithUploadRetention(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.uploadRetention = d
		}
	}
}

// WithMaxUploadSize caps the accepted upload size in bytes.
func WithMaxUploadSize(n int64) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.maxUploadSize = n
		}
	}
}

// WithRowHook registers a hook called after every row outcome.
func WithRowHook(h RowHook) Option {
	return func(t *Tracker) {
		if h != nil {
			t.hooks = append(t.hooks, h)
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}
