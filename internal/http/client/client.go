// Package client talks to the remote document API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"dockeeper/internal/config"
	"dockeeper/internal/http/transport"
	"dockeeper/internal/model"
)

// Route templates, used for logging and metric labels.
const (
	RouteRegister      = "/api/auth/register"
	RouteLogin         = "/api/auth/login"
	RouteListDocuments = "/api/documents/:category"
	RouteUpload        = "/api/documents"
	RouteDelete        = "/api/documents/:id"
)

// FileField is the multipart field carrying the uploaded file.
const FileField = "document"

// maxErrorBody bounds how much of an error response is read for decoding.
const maxErrorBody = 1 << 20

// ErrMissingFile is returned by UploadDocument when no file reader is given.
var ErrMissingFile = errors.New("upload: file is required")

// API is the set of remote operations the services depend on.
type API interface {
	Register(ctx context.Context, req RegisterRequest) (*MessageResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	ListDocuments(ctx context.Context, token string, category model.Category) ([]model.Document, error)
	UploadDocument(ctx context.Context, token string, up Upload) (*model.Document, error)
	DeleteDocument(ctx context.Context, token, id string) error
	// FileURL is where the server serves a stored file path.
	FileURL(filePath string) string
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MessageResponse is an acknowledgement that may carry a message.
type MessageResponse struct {
	Msg string `json:"msg,omitempty"`
}

// LoginResponse carries the issued session token.
type LoginResponse struct {
	Token string `json:"token"`
}

// Upload describes one multipart document upload.
type Upload struct {
	Category model.Category
	Title    string
	// Fields holds extra metadata sent as plain form fields.
	Fields   map[string]string
	FileName string
	File     io.Reader
}

// Client is the HTTP implementation of API. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	authHeader string
	http       *http.Client
	decoder    ErrorDecoder
	logger     *slog.Logger

	base           http.RoundTripper
	middleware     []transport.Middleware
	tracerProvider trace.TracerProvider
	propagators    propagation.TextMapPropagator
}

// Option configures a Client.
type Option func(*Client)

// WithBaseTransport replaces the RoundTripper at the bottom of the chain.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.base = rt }
}

// WithMiddleware appends transport layers (e.g. metrics) to the chain.
func WithMiddleware(mws ...transport.Middleware) Option {
	return func(c *Client) { c.middleware = append(c.middleware, mws...) }
}

// WithErrorDecoder swaps the decoder used for non-2xx bodies.
func WithErrorDecoder(d ErrorDecoder) Option {
	return func(c *Client) { c.decoder = d }
}

// WithLogger sets the logger used for request logs.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTracing sets the provider and propagators used by otelhttp. Without
// it the global ones are used.
func WithTracing(tp trace.TracerProvider, p propagation.TextMapPropagator) Option {
	return func(c *Client) {
		c.tracerProvider = tp
		c.propagators = p
	}
}

// New builds a Client for the API at cfg.BaseURL.
func New(cfg config.APIConfig, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}

	c := &Client{
		baseURL:    u,
		authHeader: cfg.AuthHeader,
		decoder:    DefaultErrorDecoder,
		logger:     slog.Default(),
		base:       http.DefaultTransport,
	}
	if c.authHeader == "" {
		c.authHeader = "x-auth-token"
	}
	for _, opt := range opts {
		opt(c)
	}

	var otelOpts []otelhttp.Option
	if c.tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(c.tracerProvider))
	}
	if c.propagators != nil {
		otelOpts = append(otelOpts, otelhttp.WithPropagators(c.propagators))
	}
	traced := otelhttp.NewTransport(c.base, otelOpts...)

	mws := append([]transport.Middleware{transport.RequestID(), transport.Logger(c.logger)}, c.middleware...)
	c.http = &http.Client{
		Transport: transport.Chain(traced, mws...),
		Timeout:   cfg.Timeout,
	}
	return c, nil
}

// FileURL joins a server-relative file path onto the base origin.
func (c *Client) FileURL(filePath string) string {
	p := strings.TrimLeft(strings.ReplaceAll(filePath, "\\", "/"), "/")
	return c.baseURL.String() + "/" + p
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.doJSON(ctx, "register", RouteRegister, http.MethodPost, RouteRegister, "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.doJSON(ctx, "login", RouteLogin, http.MethodPost, RouteLogin, "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListDocuments(ctx context.Context, token string, category model.Category) ([]model.Document, error) {
	path := "/api/documents/" + url.PathEscape(string(category))
	var out []model.Document
	if err := c.doJSON(ctx, "list documents", RouteListDocuments, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Document{}
	}
	return out, nil
}

// UploadDocument sends the file and metadata as multipart/form-data. The
// body is buffered so the request has a known length.
func (c *Client) UploadDocument(ctx context.Context, token string, up Upload) (*model.Document, error) {
	if up.File == nil {
		return nil, ErrMissingFile
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if err := w.WriteField("category", string(up.Category)); err != nil {
		return nil, fmt.Errorf("upload: write field: %w", err)
	}
	if up.Title != "" {
		if err := w.WriteField("title", up.Title); err != nil {
			return nil, fmt.Errorf("upload: write field: %w", err)
		}
	}
	keys := make([]string, 0, len(up.Fields))
	for k := range up.Fields {
		if k == "category" || k == "title" || k == FileField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, up.Fields[k]); err != nil {
			return nil, fmt.Errorf("upload: write field: %w", err)
		}
	}
	part, err := w.CreateFormFile(FileField, up.FileName)
	if err != nil {
		return nil, fmt.Errorf("upload: create file part: %w", err)
	}
	if _, err := io.Copy(part, up.File); err != nil {
		return nil, fmt.Errorf("upload: read file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("upload: close multipart: %w", err)
	}

	req, err := c.newRequest(ctx, RouteUpload, http.MethodPost, RouteUpload, token, body)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	raw, err := c.do(req, "upload")
	if err != nil {
		return nil, err
	}
	// The server answers with the created record or a bare acknowledgement.
	var doc model.Document
	if len(bytes.TrimSpace(raw)) > 0 && json.Unmarshal(raw, &doc) == nil && doc.ID != "" {
		return &doc, nil
	}
	return nil, nil
}

func (c *Client) DeleteDocument(ctx context.Context, token, id string) error {
	if id == "" {
		return fmt.Errorf("delete document: id is required")
	}
	path := "/api/documents/" + url.PathEscape(id)
	return c.doJSON(ctx, "delete document", RouteDelete, http.MethodDelete, path, token, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, op, route, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, route, method, path, token, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	raw, err := c.do(req, op)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, route, method, path, token string, body io.Reader) (*http.Request, error) {
	ctx = transport.WithRoute(ctx, route)
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set(c.authHeader, token)
	}
	return req, nil
}

// do sends req and returns the body of a 2xx response. Any other status is
// returned as *StatusError with the decoded server message.
func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    c.decoder.Decode(resp.StatusCode, b),
		}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}
	return b, nil
}
