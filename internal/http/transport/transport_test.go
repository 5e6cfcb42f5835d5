package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dockeeper/internal/logging"
)

// stub answers every request with status and remembers what it saw.
func stub(status int, seen *[]*http.Request) http.RoundTripper {
	return Func(func(r *http.Request) (*http.Response, error) {
		if seen != nil {
			*seen = append(*seen, r)
		}
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader("")),
			Header:     http.Header{},
			Request:    r,
		}, nil
	})
}

func TestRequestID(t *testing.T) {
	var seen []*http.Request
	rt := Chain(stub(http.StatusOK, &seen), RequestID())

	t.Run("should generate new request id if not present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://api.test/x", nil)
		_, err := rt.RoundTrip(req)
		require.NoError(t, err)

		got := seen[len(seen)-1].Header.Get(RequestIDHeader)
		assert.NotEmpty(t, got)
		// The caller's request is not mutated.
		assert.Empty(t, req.Header.Get(RequestIDHeader))
	})

	t.Run("should preserve existing request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://api.test/x", nil)
		req.Header.Set(RequestIDHeader, "test-id-123")
		_, err := rt.RoundTrip(req)
		require.NoError(t, err)

		assert.Equal(t, "test-id-123", seen[len(seen)-1].Header.Get(RequestIDHeader))
	})
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return Func(func(r *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(r)
			})
		}
	}

	rt := Chain(stub(http.StatusOK, nil), mark("a"), mark("b"))
	_, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://api.test/", nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestRouteFrom(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "http://api.test/api/documents/42", nil)
	assert.Equal(t, "/api/documents/42", RouteFrom(req))

	req = req.WithContext(WithRoute(context.Background(), "/api/documents/:id"))
	assert.Equal(t, "/api/documents/:id", RouteFrom(req))
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, "debug", "json", time.UTC)

	rt := Chain(stub(http.StatusAccepted, nil), RequestID(), Logger(logger))

	req := httptest.NewRequest(http.MethodGet, "http://api.test/api/documents/bills", nil)
	req = req.WithContext(WithRoute(req.Context(), "/api/documents/:category"))
	req.Header.Set("x-auth-token", "secret")
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var logData map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logData))

	assert.NotEmpty(t, logData["request_id"])
	assert.Equal(t, "GET", logData["method"])
	assert.Equal(t, "/api/documents/:category", logData["route"])
	assert.Equal(t, float64(http.StatusAccepted), logData["status"])
	assert.NotNil(t, logData["latency"])
	assert.NotEmpty(t, logData["ts"])
	assert.NotContains(t, buf.String(), "secret")
}

func TestLogger_TransportError(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, "info", "json", time.UTC)

	failing := Func(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	_, err := Chain(failing, Logger(logger)).RoundTrip(httptest.NewRequest(http.MethodGet, "http://api.test/", nil))
	require.Error(t, err)

	var logData map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logData))
	assert.Equal(t, "warn", logData["level"])
	assert.Equal(t, "connection refused", logData["error"])
}
