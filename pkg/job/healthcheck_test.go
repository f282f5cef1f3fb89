package job

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthcheck_NilPool(t *testing.T) {
	t.Parallel()

	err := Healthcheck(nil)(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHealthcheckFailed)
	assert.ErrorIs(t, err, errPoolNil)
}

func TestHealthcheck_ClosedPool(t *testing.T) {
	t.Parallel()

	pool := NewPool()
	check := Healthcheck(pool)
	require.NoError(t, check(context.Background()))

	require.NoError(t, pool.Shutdown(context.Background()))

	err := check(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHealthcheckFailed)
	assert.ErrorIs(t, err, ErrPoolClosed)
}
