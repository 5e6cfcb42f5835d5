package transport

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader is the header used to correlate client and server logs.
const RequestIDHeader = "X-Request-ID"

// RequestID ensures every outgoing request carries an X-Request-ID.
// An ID already set by the caller is kept.
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return Func(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get(RequestIDHeader) != "" {
				return next.RoundTrip(r)
			}
			r = r.Clone(r.Context())
			r.Header.Set(RequestIDHeader, uuid.NewString())
			return next.RoundTrip(r)
		})
	}
}
