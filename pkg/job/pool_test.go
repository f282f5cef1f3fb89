package job_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensiq/coldmail/pkg/job"
)

func TestPool_RunsTasks(t *testing.T) {
	t.Parallel()

	pool := job.NewPool(job.WithWorkers(3), job.WithQueueSize(10))

	var count atomic.Int32
	for range 10 {
		require.NoError(t, pool.TrySubmit(func(context.Context) {
			count.Add(1)
		}))
	}

	require.NoError(t, pool.Shutdown(context.Background()))
	assert.Equal(t, int32(10), count.Load())
}

func TestPool_QueueFull(t *testing.T) {
	t.Parallel()

	pool := job.NewPool(job.WithWorkers(1), job.WithQueueSize(1))

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pool.TrySubmit(func(context.Context) {
		close(started)
		<-release
	}))
	<-started

	// One slot in the queue, then nothing.
	require.NoError(t, pool.TrySubmit(func(context.Context) {}))
	err := pool.TrySubmit(func(context.Context) {})
	assert.ErrorIs(t, err, job.ErrQueueFull)
	assert.Equal(t, 1, pool.Running())
	assert.Equal(t, 1, pool.Pending())

	close(release)
	require.NoError(t, pool.Shutdown(context.Background()))
}

func TestPool_RejectsAfterShutdown(t *testing.T) {
	t.Parallel()

	pool := job.NewPool()
	require.NoError(t, pool.Shutdown(context.Background()))
	require.NoError(t, pool.Shutdown(context.Background()))

	assert.ErrorIs(t, pool.TrySubmit(func(context.Context) {}), job.ErrPoolClosed)
	assert.ErrorIs(t, pool.TrySubmit(nil), job.ErrNilTask)
}

func TestPool_ShutdownTimeoutCancelsTasks(t *testing.T) {
	t.Parallel()

	pool := job.NewPool(job.WithWorkers(1))

	canceled := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pool.TrySubmit(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(canceled)
	}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := pool.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("task context was not canceled")
	}
}

func TestPool_RecoversPanics(t *testing.T) {
	t.Parallel()

	pool := job.NewPool(job.WithWorkers(1))

	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, pool.TrySubmit(func(context.Context) { panic("boom") }))
	require.NoError(t, pool.TrySubmit(func(context.Context) { wg.Done() }))

	wg.Wait()
	require.NoError(t, pool.Shutdown(context.Background()))
}
