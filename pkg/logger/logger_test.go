package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey struct{}

func requestIDExtractor(ctx context.Context) (slog.Attr, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	if !ok {
		return slog.Attr{}, false
	}
	return slog.String("request_id", id), true
}

func TestNewLogger_JSONWithExtractor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, flush := newLogger(&buf, Config{Level: "info", Format: FormatJSON}, requestIDExtractor, nil)
	defer flush()

	ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
	log.InfoContext(ctx, "job started", slog.String("job_id", "j1"))
	log.DebugContext(ctx, "hidden")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "job started", rec["msg"])
	assert.Equal(t, "req-1", rec["request_id"])
	assert.Equal(t, "j1", rec["job_id"])
}

func TestNewLogger_Console(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, _ := newLogger(&buf, Config{Level: "debug", Format: FormatConsole})
	log.Debug("indexing", slog.Int("chunks", 3))

	assert.Contains(t, buf.String(), "indexing")
	assert.Contains(t, buf.String(), "chunks=3")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		" error ": slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestFanout(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	h := fanout{
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	}
	log := slog.New(h).With(slog.String("component", "tracker"))

	log.Info("row sent")
	log.Error("row failed")

	assert.Contains(t, a.String(), "row sent")
	assert.Contains(t, a.String(), "row failed")
	assert.NotContains(t, b.String(), "row sent")
	assert.Contains(t, b.String(), "component=tracker")
}
