package middlewares

import (
	"bytes"
	"context"
	"errors"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sensiq/coldmail/internal"
)

// DefaultTimeout is the soft wall-clock budget of a request.
const DefaultTimeout = 25 * time.Second

// Timeout runs the handler under a deadline. When the deadline passes first,
// a TimeoutError goes to the error handler and the handler's later output is
// discarded.
//
// The handler runs on its own goroutine against a copy of the request and a
// buffered response, so it may keep running after the timeout without
// touching the connection. Outbound calls made with c.Context() observe the
// canceled deadline. Work already handed to a background worker is not
// affected.
func Timeout(timeout time.Duration) internal.Middleware {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			ctx, cancel := context.WithTimeout(c.Context(), timeout)
			defer cancel()

			req := detachRequest(ctx, c.Request())
			buf := &bufferedResponse{header: c.Response().Header().Clone()}
			hc := internal.Detach(c, buf, req)

			done := make(chan error, 1)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						done <- &PanicError{Value: r}
					}
				}()
				done <- next(hc)
			}()

			select {
			case err := <-done:
				if req.MultipartForm != nil {
					_ = req.MultipartForm.RemoveAll()
				}
				if !IsPanicError(err) {
					buf.flush(c.Response())
				}
				return err
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					c.LogWarn("request timeout", "timeout", timeout.String())
					return &TimeoutError{Duration: timeout}
				}
				return ctx.Err()
			}
		}
	}
}

// detachRequest copies r onto ctx together with its route parameters. chi
// reuses its route context once the request returns.
func detachRequest(ctx context.Context, r *http.Request) *http.Request {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		rc := chi.NewRouteContext()
		rc.Routes = rctx.Routes
		rc.RoutePath = rctx.RoutePath
		rc.RouteMethod = rctx.RouteMethod
		rc.RoutePatterns = slices.Clone(rctx.RoutePatterns)
		rc.URLParams.Keys = slices.Clone(rctx.URLParams.Keys)
		rc.URLParams.Values = slices.Clone(rctx.URLParams.Values)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rc)
	}
	return r.Clone(ctx)
}

// bufferedResponse holds a handler's response until it is known to have
// finished in time.
type bufferedResponse struct {
	header http.Header
	code   int
	body   bytes.Buffer
}

func (w *bufferedResponse) Header() http.Header { return w.header }

func (w *bufferedResponse) WriteHeader(code int) {
	if w.code == 0 {
		w.code = code
	}
}

func (w *bufferedResponse) Write(b []byte) (int, error) {
	if w.code == 0 {
		w.code = http.StatusOK
	}
	return w.body.Write(b)
}

func (w *bufferedResponse) flush(dst http.ResponseWriter) {
	if w.code == 0 {
		return
	}
	maps.Copy(dst.Header(), w.header)
	dst.WriteHeader(w.code)
	_, _ = dst.Write(w.body.Bytes())
}
