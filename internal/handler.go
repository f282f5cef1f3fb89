package internal

// Handler declares routes on a router.
//
// Example:
//
//	type StatusHandler struct {
//	    jobs *tracker.Tracker
//	}
//
//	func (h *StatusHandler) Routes(r internal.Router) {
//	    r.GET("/api/job-status/{id}", h.status)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers.
// Returning a non-nil error hands the request over to the ErrorHandler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc to add cross-cutting concerns.
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler renders errors returned from handlers and middleware.
type ErrorHandler func(Context, error) error
