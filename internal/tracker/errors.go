package tracker

import "errors"

var (
	ErrNotFound       = errors.New("tracker: job not found")
	ErrAlreadyStarted = errors.New("tracker: job already started")
	ErrQueueFull      = errors.New("tracker: too many jobs in progress")
	ErrNotRunning     = errors.New("tracker: job is not running")
	ErrJobCanceled    = errors.New("job canceled")
	ErrJobPanicked    = errors.New("job aborted")
	ErrNoEmail        = errors.New("missing email address")
)
