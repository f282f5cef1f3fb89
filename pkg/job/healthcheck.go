package job

import (
	"context"
	"errors"
)

// ErrHealthcheckFailed is returned when the job pool health check fails.
var ErrHealthcheckFailed = errors.New("job: healthcheck failed")

var errPoolNil = errors.New("pool is nil")

// Healthcheck returns a health check function for the pool.
// The check fails once the pool is nil or has been shut down.
// Compatible with health.CheckFunc.
//
// Example:
//
//	internal.WithHealthChecks(
//	    internal.WithReadinessCheck("jobs", job.Healthcheck(pool)),
//	)
func Healthcheck(p *Pool) func(ctx context.Context) error {
	return func(context.Context) error {
		if p == nil {
			return errors.Join(ErrHealthcheckFailed, errPoolNil)
		}
		if p.Closed() {
			return errors.Join(ErrHealthcheckFailed, ErrPoolClosed)
		}
		return nil
	}
}
