// Package transport holds the http.RoundTripper layers every API request
// passes through: request IDs, request logs, metrics and tracing.
package transport

import (
	"context"
	"net/http"
)

// Func adapts a function to http.RoundTripper.
type Func func(*http.Request) (*http.Response, error)

func (f Func) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Middleware wraps a RoundTripper with extra behaviour.
type Middleware func(http.RoundTripper) http.RoundTripper

// Chain applies mws around base so the first middleware sees the request first.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	rt := base
	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}
	return rt
}

type routeKey struct{}

// WithRoute records the route template (e.g. /api/documents/:id) for the
// request so logs and metrics do not explode on raw ids.
func WithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

// RouteFrom returns the route template stored by WithRoute, falling back to
// the raw path.
func RouteFrom(r *http.Request) string {
	if v, ok := r.Context().Value(routeKey{}).(string); ok && v != "" {
		return v
	}
	return r.URL.Path
}
