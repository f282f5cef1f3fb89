// Package middlewares holds the HTTP middleware stack of the API:
// panic recovery, request IDs, CORS and the soft request timeout.
//
// Middleware errors are typed (PanicError, TimeoutError) so the error handler
// can map them to 500 and 504 responses.
package middlewares
