package middlewares_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensiq/coldmail/internal"
	"github.com/sensiq/coldmail/middlewares"
)

type routes func(r internal.Router)

func (f routes) Routes(r internal.Router) { f(r) }

func newApp(mw []internal.Middleware, fn func(r internal.Router)) *internal.App {
	return internal.New(
		internal.WithMiddleware(mw...),
		internal.WithHandlers(routes(fn)),
		internal.WithErrorHandler(func(c internal.Context, err error) error {
			code := http.StatusInternalServerError
			if middlewares.IsTimeoutError(err) {
				code = http.StatusGatewayTimeout
			}
			return c.JSON(code, map[string]any{"success": false, "error": err.Error()})
		}),
	)
}

func serve(app http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func TestRecover(t *testing.T) {
	t.Parallel()

	app := newApp([]internal.Middleware{middlewares.Recover()}, func(r internal.Router) {
		r.GET("/panic", func(c internal.Context) error { panic("boom") })
	})

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "panic: boom")
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	var seen string
	app := newApp([]internal.Middleware{middlewares.RequestID()}, func(r internal.Router) {
		r.GET("/", func(c internal.Context) error {
			seen = middlewares.GetRequestID(c)
			return c.NoContent(http.StatusNoContent)
		})
	})

	t.Run("generated", func(t *testing.T) {
		rec := serve(app, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, rec.Header().Get(middlewares.RequestIDHeader))
		assert.Equal(t, rec.Header().Get(middlewares.RequestIDHeader), seen)
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middlewares.RequestIDHeader, "upstream-1")
		rec := serve(app, req)
		assert.Equal(t, "upstream-1", rec.Header().Get(middlewares.RequestIDHeader))
		assert.Equal(t, "upstream-1", seen)
	})
}

func TestRequestIDExtractor(t *testing.T) {
	t.Parallel()

	extract := middlewares.RequestIDExtractor()
	_, ok := extract(context.Background())
	assert.False(t, ok)
}

func TestCORS(t *testing.T) {
	t.Parallel()

	app := newApp([]internal.Middleware{
		middlewares.CORS(middlewares.WithAllowOrigins("http://localhost:5173", "https://automation.sensiq.ae")),
	}, func(r internal.Router) {
		r.POST("/api/send-email", func(c internal.Context) error {
			return c.JSON(http.StatusOK, map[string]bool{"success": true})
		})
	})

	t.Run("preflight allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/send-email", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := serve(app, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
	})

	t.Run("simple request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/send-email", nil)
		req.Header.Set("Origin", "https://automation.sensiq.ae")
		rec := serve(app, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://automation.sensiq.ae", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("foreign origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/send-email", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := serve(app, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	app := newApp([]internal.Middleware{middlewares.Timeout(30 * time.Millisecond)}, func(r internal.Router) {
		r.GET("/slow", func(c internal.Context) error {
			<-release
			return c.JSON(http.StatusOK, map[string]bool{"success": true})
		})
		r.GET("/deadline", func(c internal.Context) error {
			_, ok := c.Context().Deadline()
			return c.JSON(http.StatusOK, map[string]bool{"deadline": ok})
		})
	})

	t.Run("exceeded", func(t *testing.T) {
		rec := serve(app, httptest.NewRequest(http.MethodGet, "/slow", nil))
		require.Equal(t, http.StatusGatewayTimeout, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, false, body["success"])
	})

	t.Run("handler sees deadline", func(t *testing.T) {
		rec := serve(app, httptest.NewRequest(http.MethodGet, "/deadline", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"deadline":true}`, rec.Body.String())
	})
}

func TestTimeout_LateHandlerKeepsItsRequest(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	seen := make(chan string, 1)

	app := newApp([]internal.Middleware{middlewares.Timeout(20 * time.Millisecond)}, func(r internal.Router) {
		r.GET("/items/{id}", func(c internal.Context) error {
			if c.Query("wait") != "" {
				<-release
			}
			id := c.Param("id")
			seen <- id
			c.SetHeader("X-Item", id)
			return c.JSON(http.StatusOK, map[string]string{"id": id})
		})
	})

	late := serve(app, httptest.NewRequest(http.MethodGet, "/items/first?wait=1", nil))
	require.Equal(t, http.StatusGatewayTimeout, late.Code)

	// A second request reuses the router's pooled route context.
	rec := serve(app, httptest.NewRequest(http.MethodGet, "/items/second", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "second", rec.Header().Get("X-Item"))
	assert.JSONEq(t, `{"id":"second"}`, rec.Body.String())
	assert.Equal(t, "second", <-seen)

	close(release)
	select {
	case id := <-seen:
		assert.Equal(t, "first", id)
	case <-time.After(time.Second):
		t.Fatal("late handler did not finish")
	}

	assert.Empty(t, late.Header().Get("X-Item"))
	assert.NotContains(t, late.Body.String(), "first")
}
