package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler runs registered tasks on their cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	names  []string

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool

	// runCtx is read by firing jobs while Stop may hold mu.
	runCtx atomic.Pointer[context.Context]
}

// NewScheduler parses every registered schedule. Nothing runs until Start.
func NewScheduler(opts ...Option) (*Scheduler, error) {
	cfg := newConfig(opts)

	clog := cronLogger{logger: cfg.logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
			cron.WithLogger(clog),
		),
		logger: cfg.logger,
	}

	for _, sc := range cfg.schedules {
		schedule, err := parseCronSchedule(sc.schedule)
		if err != nil {
			return nil, fmt.Errorf("%w %q for %s: %w", ErrInvalidSchedule, sc.schedule, sc.name, err)
		}
		s.cron.Schedule(schedule, s.wrap(sc))
		s.names = append(s.names, sc.name)
	}

	return s, nil
}

// Tasks returns the names of the registered tasks in registration order.
func (s *Scheduler) Tasks() []string {
	return append([]string(nil), s.names...)
}

// Start begins firing scheduled tasks. Handlers receive a context derived
// from ctx that is canceled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.runCtx.Store(&runCtx)
	s.cancel = cancel
	s.started = true
	s.cron.Start()

	s.logger.Info("scheduler started", slog.Int("tasks", len(s.names)))
	return nil
}

// Stop prevents new runs and waits for running handlers until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	s.started = false

	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
	s.cancel()

	s.logger.Info("scheduler stopped")
	return nil
}

// Shutdown returns a shutdown hook for the scheduler.
func (s *Scheduler) Shutdown() func(context.Context) error {
	return s.Stop
}

func (s *Scheduler) wrap(sc scheduleConfig) cron.Job {
	return cron.FuncJob(func() {
		p := s.runCtx.Load()
		if p == nil {
			return
		}
		ctx := *p

		s.logger.DebugContext(ctx, "executing task", slog.String("task", sc.name))
		if err := sc.handler(ctx); err != nil {
			s.logger.ErrorContext(ctx, "task failed",
				slog.String("task", sc.name),
				slog.Any("error", err),
			)
		}
	})
}

func parseCronSchedule(expr string) (cron.Schedule, error) {
	return cronParser.Parse(expr)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, slog.Any("error", err))...)
}
