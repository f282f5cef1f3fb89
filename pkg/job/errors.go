package job

import "errors"

// Job errors.
var (
	// ErrQueueFull is returned by TrySubmit when every worker is busy and
	// the queue has no free slot.
	ErrQueueFull = errors.New("job: queue is full")

	// ErrPoolClosed is returned when submitting to a pool that is shutting down.
	ErrPoolClosed = errors.New("job: pool is closed")

	// ErrNilTask is returned when submitting a nil task.
	ErrNilTask = errors.New("job: task is nil")

	// ErrInvalidSchedule is returned when a scheduled task has a cron
	// expression that cannot be parsed.
	ErrInvalidSchedule = errors.New("job: invalid schedule")

	// ErrAlreadyStarted is returned when starting a scheduler twice.
	ErrAlreadyStarted = errors.New("job: already started")

	// ErrNotStarted is returned when stopping a scheduler that is not running.
	ErrNotStarted = errors.New("job: not started")
)
