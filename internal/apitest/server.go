// Package apitest is an in-memory fake of the document API for tests.
//
// It is a Fiber app reached through an http.RoundTripper that calls app.Test,
// so tests exercise the real client, transport chain and wire format
// without opening sockets.
package apitest

import (
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"dockeeper/internal/model"
)

// BaseURL is the origin clients should be configured with.
const BaseURL = "http://docs.test"

// AuthHeader is the header the fake reads the token from.
const AuthHeader = "x-auth-token"

// Request is one call observed by the fake.
type Request struct {
	Method string
	Path   string
	Token  string
	Header http.Header
	Form   map[string]string
	File   string
}

type user struct {
	name     string
	email    string
	password string
}

type fault struct {
	status int
	body   fiber.Map
}

// Server is the fake API. All methods are safe for concurrent use.
type Server struct {
	app *fiber.App

	mu       sync.Mutex
	users    map[string]user
	tokens   map[string]string
	docs     map[string]model.Document
	order    []string
	requests []Request
	faults   map[string]fault
	now      func() time.Time
}

// Option configures a Server.
type Option func(*serverConfig)

type serverConfig struct {
	tp          trace.TracerProvider
	propagators propagation.TextMapPropagator
}

// WithTracing instruments the fake with otelfiber so tests can assert that
// client spans propagate.
func WithTracing(tp trace.TracerProvider, p propagation.TextMapPropagator) Option {
	return func(c *serverConfig) {
		c.tp = tp
		c.propagators = p
	}
}

// New returns an empty fake API.
func New(opts ...Option) *Server {
	var cfg serverConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{
		users:  map[string]user{},
		tokens: map[string]string{},
		docs:   map[string]model.Document{},
		faults: map[string]fault{},
		now:    func() time.Time { return time.Now().UTC() },
	}

	// Recorded requests and stored records outlive the handler, so values
	// must not alias fasthttp's reused buffers.
	app := fiber.New(fiber.Config{DisableStartupMessage: true, Immutable: true})
	if cfg.tp != nil {
		app.Use(otelfiber.Middleware(
			otelfiber.WithTracerProvider(cfg.tp),
			otelfiber.WithPropagators(cfg.propagators),
		))
	}
	app.Use(s.record)
	app.Use(s.injectFaults)
	s.routes(app)
	s.app = app
	return s
}

// Transport returns a RoundTripper that delivers requests to the fake.
func (s *Server) Transport() http.RoundTripper {
	return roundTripper{app: s.app}
}

type roundTripper struct{ app *fiber.App }

func (rt roundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if err := r.Context().Err(); err != nil {
		return nil, err
	}
	return rt.app.Test(r, -1)
}

// AddUser registers an account directly, bypassing the register endpoint.
func (s *Server) AddUser(name, email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(email)] = user{name: name, email: email, password: password}
}

// IssueToken creates a valid token for email without going through login.
func (s *Server) IssueToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok := "tok-" + uuid.NewString()
	s.tokens[tok] = strings.ToLower(email)
	return tok
}

// RevokeToken makes tok invalid, simulating server-side expiry.
func (s *Server) RevokeToken(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, tok)
}

// AddDocument seeds a record and returns it with its assigned id.
func (s *Server) AddDocument(doc model.Document) model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = s.now()
	}
	s.docs[doc.ID] = doc
	s.order = append(s.order, doc.ID)
	return doc
}

// RemoveDocument deletes a record as if another client had done it.
func (s *Server) RemoveDocument(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

// Documents returns the stored records of one category, newest first.
func (s *Server) Documents(category model.Category) []model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(category)
}

// Fail makes the next request matching method and path answer with status
// and, if msg is not empty, a {"msg": msg} body.
func (s *Server) Fail(method, path string, status int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body := fiber.Map{}
	if msg != "" {
		body["msg"] = msg
	}
	s.faults[method+" "+path] = fault{status: status, body: body}
}

// Requests returns every request seen so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests matched method (any path when path is "").
func (s *Server) Count(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Method == method && (path == "" || r.Path == path) {
			n++
		}
	}
	return n
}

func (s *Server) record(c *fiber.Ctx) error {
	h := http.Header{}
	c.Request().Header.VisitAll(func(k, v []byte) {
		h.Add(string(k), string(v))
	})
	req := Request{
		Method: c.Method(),
		Path:   c.Path(),
		Token:  c.Get(AuthHeader),
		Header: h,
	}
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		if form, err := c.MultipartForm(); err == nil {
			req.Form = map[string]string{}
			for k, v := range form.Value {
				if len(v) > 0 {
					req.Form[k] = v[0]
				}
			}
			if files := form.File["document"]; len(files) > 0 {
				req.File = files[0].Filename
			}
		}
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	return c.Next()
}

func (s *Server) injectFaults(c *fiber.Ctx) error {
	key := c.Method() + " " + c.Path()
	s.mu.Lock()
	f, ok := s.faults[key]
	if ok {
		delete(s.faults, key)
	}
	s.mu.Unlock()
	if ok {
		return c.Status(f.status).JSON(f.body)
	}
	return c.Next()
}

func (s *Server) routes(app *fiber.App) {
	app.Post("/api/auth/register", s.register)
	app.Post("/api/auth/login", s.login)

	docs := app.Group("/api/documents", s.requireToken)
	docs.Get("/:category", s.list)
	docs.Post("/", s.upload)
	docs.Delete("/:id", s.delete)
}

func writeMsg(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"msg": msg})
}

func (s *Server) register(c *fiber.Ctx) error {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return writeMsg(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if body.Email == "" || body.Password == "" {
		return writeMsg(c, fiber.StatusBadRequest, "Please enter all fields")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(body.Email)
	if _, exists := s.users[key]; exists {
		return writeMsg(c, fiber.StatusBadRequest, "User already exists")
	}
	s.users[key] = user{name: body.Name, email: body.Email, password: body.Password}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"msg": "User registered successfully"})
}

func (s *Server) login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return writeMsg(c, fiber.StatusBadRequest, "Invalid request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(body.Email)
	u, ok := s.users[key]
	if !ok || u.password != body.Password {
		return writeMsg(c, fiber.StatusBadRequest, "Invalid credentials")
	}
	tok := "tok-" + uuid.NewString()
	s.tokens[tok] = key
	return c.JSON(fiber.Map{"token": tok})
}

func (s *Server) requireToken(c *fiber.Ctx) error {
	tok := c.Get(AuthHeader)
	if tok == "" {
		return writeMsg(c, fiber.StatusUnauthorized, "No token, authorization denied")
	}
	s.mu.Lock()
	_, ok := s.tokens[tok]
	s.mu.Unlock()
	if !ok {
		return writeMsg(c, fiber.StatusUnauthorized, "Token is not valid")
	}
	return c.Next()
}

func (s *Server) list(c *fiber.Ctx) error {
	cat, err := model.ParseCategory(c.Params("category"))
	if err != nil {
		return writeMsg(c, fiber.StatusBadRequest, "Invalid category")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.listLocked(cat))
}

func (s *Server) upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("document")
	if err != nil {
		return writeMsg(c, fiber.StatusBadRequest, "No file uploaded")
	}
	cat, err := model.ParseCategory(c.FormValue("category"))
	if err != nil {
		return writeMsg(c, fiber.StatusBadRequest, "Invalid category")
	}
	title := c.FormValue("title")
	if title == "" {
		title = fh.Filename
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	doc := model.Document{
		ID:        id,
		Title:     title,
		Category:  cat,
		FilePath:  "uploads/" + id + strings.ToLower(filepath.Ext(fh.Filename)),
		CreatedAt: s.now(),
	}
	s.docs[id] = doc
	s.order = append(s.order, id)
	return c.Status(fiber.StatusCreated).JSON(doc)
}

func (s *Server) delete(c *fiber.Ctx) error {
	id := c.Params("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return writeMsg(c, fiber.StatusNotFound, "Document not found")
	}
	s.removeLocked(id)
	return c.JSON(fiber.Map{"msg": "Document removed"})
}

func (s *Server) removeLocked(id string) {
	delete(s.docs, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// listLocked returns newest first, the order the API uses.
func (s *Server) listLocked(category model.Category) []model.Document {
	out := []model.Document{}
	for _, id := range s.order {
		if d := s.docs[id]; d.Category == category {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
