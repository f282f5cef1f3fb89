// Package internal is the HTTP core of the service: a chi-backed router,
// the request Context handed to handlers, JSON error rendering, and the
// server runtime with graceful shutdown.
//
// Handlers declare their routes through the Handler interface:
//
//	app := internal.New(
//	    internal.WithLogger(log),
//	    internal.WithMiddleware(middlewares.Recover(), middlewares.RequestID()),
//	    internal.WithHandlers(emailHandler, batchHandler),
//	    internal.WithHealthChecks(),
//	)
//	err := app.Run(":3000", internal.ShutdownHook(jobs.Shutdown))
//
// Errors returned from handlers are passed to the ErrorHandler. The default
// renders {"success":false,"error":"..."} using the status code of an
// HTTPError, or 500 for anything else.
package internal
