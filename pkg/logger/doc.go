// Package logger builds the service's *slog.Logger.
//
// Two output formats are supported: JSON lines for the server and a
// colored console format (charmbracelet/log) for CLI commands. When a
// Sentry DSN is configured, warnings and errors are also forwarded to
// Sentry; errors become Sentry issues.
//
// Context extractors attach request-scoped attributes, such as the request
// ID, to every record logged with a context:
//
//	log, flush := logger.New(cfg.Log, middlewares.RequestIDExtractor())
//	defer flush()
//	log.InfoContext(ctx, "job started", slog.String("job_id", id))
package logger
