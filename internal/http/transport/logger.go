package transport

import (
	"log/slog"
	"net/http"
	"time"
)

// Logger logs each request once it completes.
// Fields: request_id, method, route, status, latency (ms, float).
// The token header is never logged.
func Logger(logger *slog.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return Func(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)
			latency := float64(time.Since(start).Microseconds()) / 1000

			attrs := []any{
				"request_id", r.Header.Get(RequestIDHeader),
				"method", r.Method,
				"route", RouteFrom(r),
				"latency", latency,
			}
			if err != nil {
				logger.Warn("api_request_failed", append(attrs, "error", err.Error())...)
				return resp, err
			}
			logger.Debug("api_request", append(attrs, "status", resp.StatusCode)...)
			return resp, nil
		})
	}
}
