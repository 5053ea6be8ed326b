// Package httpmiddleware provides the HTTP middleware used by the ordering
// API: panic recovery, request IDs, request logging, and rate limiting.
// Every middleware is a plain func(http.Handler) http.Handler, so the set
// composes with chi's Use as well as with Wrap.
package httpmiddleware

import "net/http"

// Middleware wraps an http.Handler with additional behaviour.
type Middleware func(http.Handler) http.Handler

// Wrap applies middlewares to h in order: the first middleware is the
// outermost.
func Wrap(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
