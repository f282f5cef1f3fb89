package internal

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

type runtimeConfig struct {
	handler         http.Handler
	logger          *slog.Logger
	baseCtx         context.Context
	address         string
	shutdownHooks   []func(context.Context) error
	shutdownTimeout time.Duration
}

// runServer starts the HTTP server and blocks until the base context is
// canceled or the process receives SIGINT/SIGTERM.
func runServer(cfg runtimeConfig) error {
	if cfg.address == "" {
		cfg.address = ":3000"
	}
	if cfg.shutdownTimeout == 0 {
		cfg.shutdownTimeout = defaultShutdownTimeout
	}

	log := cfg.logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	server := &http.Server{
		Addr:              cfg.address,
		Handler:           cfg.handler,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		MaxHeaderBytes:    defaultMaxHeaderBytes,
	}

	baseCtx := cfg.baseCtx
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(baseCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
	defer shutdownCancel()

	return shutdown(shutdownCtx, server, cfg.shutdownHooks, log)
}

// shutdown stops accepting connections, waits for in-flight requests and
// then runs hooks in order. Every hook runs even if an earlier one failed;
// all of them share the deadline in ctx.
func shutdown(ctx context.Context, server *http.Server, hooks []func(context.Context) error, log *slog.Logger) error {
	var errs []error
	if err := server.Shutdown(ctx); err != nil {
		log.Error("http server shutdown failed", slog.Any("error", err))
		errs = append(errs, err)
	}

	for i, hook := range hooks {
		start := time.Now()
		err := hook(ctx)
		if err != nil {
			log.Error("shutdown hook failed", slog.Int("hook", i), slog.Any("error", err))
			errs = append(errs, err)
			continue
		}
		log.Debug("shutdown hook done", slog.Int("hook", i), slog.Duration("took", time.Since(start)))
	}

	if err := errors.Join(errs...); err != nil {
		log.Error("shutdown completed with errors", slog.Int("failed", len(errs)))
		return err
	}
	log.Info("shutdown completed")
	return nil
}
