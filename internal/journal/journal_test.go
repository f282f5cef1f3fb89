package journal_test

import (
	"context"
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensiq/coldmail/internal/journal"
	"github.com/sensiq/coldmail/internal/tracker"
	"github.com/sensiq/coldmail/pkg/db"
)

func TestFromResult(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	sent := journal.FromResult(tracker.RowResult{
		JobID: "j1", Line: 1, Recipient: "a@example.com", Sent: true, At: at,
	})
	assert.Equal(t, journal.Delivery{
		JobID: "j1", Line: 1, Recipient: "a@example.com", Status: journal.StatusSent, CreatedAt: at,
	}, sent)

	failed := journal.FromResult(tracker.RowResult{JobID: "j1", Line: 2, Error: "missing email address"})
	assert.Equal(t, journal.StatusFailed, failed.Status)
	assert.Equal(t, "missing email address", failed.Error)
	assert.False(t, failed.CreatedAt.IsZero())
}

func TestMigrations(t *testing.T) {
	t.Parallel()

	files, err := fs.Glob(journal.Migrations, "*.sql")
	require.NoError(t, err)
	require.Len(t, files, 1)

	body, err := fs.ReadFile(journal.Migrations, files[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- +goose Up")
	assert.Contains(t, string(body), "-- +goose Down")
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS deliveries")
}

// TestJournal_Postgres needs a disposable database in COLDMAIL_TEST_DATABASE_URL.
func TestJournal_Postgres(t *testing.T) {
	url := os.Getenv("COLDMAIL_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("COLDMAIL_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, db.Config{URL: url, RetryAttempts: 1})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	j := journal.New(pool, nil)
	require.NoError(t, j.Migrate(ctx, "journal_test_migrations"))

	jobID := uuid.NewString()
	hook := j.Hook()
	hook(ctx, tracker.RowResult{JobID: jobID, Line: 2, Error: "missing email address"})
	hook(ctx, tracker.RowResult{JobID: jobID, Line: 1, Recipient: "a@example.com", Sent: true})

	got, err := j.List(ctx, jobID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Line)
	assert.Equal(t, journal.StatusSent, got[0].Status)
	assert.Equal(t, journal.StatusFailed, got[1].Status)

	none, err := j.List(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, none)
}
