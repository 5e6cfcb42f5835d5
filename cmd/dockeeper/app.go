package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"dockeeper/internal/config"
	"dockeeper/internal/http/client"
	"dockeeper/internal/http/transport"
	"dockeeper/internal/logging"
	"dockeeper/internal/model"
	"dockeeper/internal/notify"
	dkotel "dockeeper/internal/otel"
	"dockeeper/internal/prompt"
	"dockeeper/internal/router"
	"dockeeper/internal/session"
	"dockeeper/internal/service"
	"dockeeper/internal/view"
)

// env is what the process hands to the commands. Tests swap every field.
type env struct {
	in        *bufio.Reader
	out       io.Writer
	errOut    io.Writer
	transport http.RoundTripper
	openURL   func(string) error
}

func defaultEnv() *env {
	return &env{
		in:      bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		errOut:  os.Stderr,
		openURL: openBrowser,
	}
}

// options are the persistent flags plus per-command switches.
type options struct {
	apiURL      string
	sessionFile string
	logLevel    string
	token       string
	assumeYes   bool
}

// App is one fully wired client.
type App struct {
	cfg      *config.AppConfig
	env      *env
	logger   *slog.Logger
	store    *trackedStore
	board    *view.Board
	router   *router.Router
	auth     service.AuthService
	docs     service.DocumentService
	fetches  *fetchTracker
	registry *prometheus.Registry
	tracing  *dkotel.Tracing
	toasts   *notify.Console
	closers  []func() error

	// sessionFile is set only for the file backend.
	sessionFile string
}

func newApp(ctx context.Context, e *env, opts *options) (*App, error) {
	cfg := config.Load()
	if opts.apiURL != "" {
		cfg.API.BaseURL = opts.apiURL
	}
	if opts.sessionFile != "" {
		cfg.Session.File = opts.sessionFile
		cfg.Session.Backend = config.BackendFile
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.token != "" {
		cfg.Session.Backend = config.BackendMemory
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		env:      e,
		logger:   logging.New(e.errOut, cfg.Log.Level, cfg.Log.Format, cfg.Render.Location),
		board:    view.NewBoard(),
		registry: prometheus.NewRegistry(),
	}

	store, err := a.openStore(ctx, opts.token)
	if err != nil {
		return nil, err
	}
	a.store = newTrackedStore(store)

	tr, err := dkotel.Init(ctx, a.logger)
	if err != nil {
		return nil, err
	}
	a.tracing = tr

	metrics, err := transport.NewMetrics(a.registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	clientOpts := []client.Option{
		client.WithLogger(a.logger),
		client.WithMiddleware(metrics.Middleware()),
		client.WithTracing(tr.Provider, tr.Propagator),
	}
	if e.transport != nil {
		clientOpts = append(clientOpts, client.WithBaseTransport(e.transport))
	}
	api, err := client.New(cfg.API, clientOpts...)
	if err != nil {
		return nil, err
	}

	var confirmer prompt.Confirmer = &prompt.Terminal{In: e.in, Out: e.out}
	if opts.assumeYes {
		confirmer = prompt.Always(true)
	}
	a.toasts = notify.NewConsole(e.out, e.errOut)

	a.docs = service.NewDocumentService(service.DocumentDeps{
		API:   api,
		Store: a.store,
		Board: a.board,
		Renderer: view.Renderer{
			Placeholder: cfg.Render.Placeholder,
			DateLayout:  cfg.Render.DateLayout,
			Location:    cfg.Render.Location,
		},
		Confirmer: confirmer,
		Notifier:  a.toasts,
		Logger:    a.logger,
	})
	a.fetches = &fetchTracker{next: a.docs}
	a.router = router.New(a.fetches, a.logger)
	a.auth = service.NewAuthService(api, a.store, a.router, a.toasts, a.logger)
	return a, nil
}

func (a *App) openStore(ctx context.Context, token string) (session.Store, error) {
	switch a.cfg.Session.Backend {
	case config.BackendMemory:
		return session.NewMemory(token), nil
	case config.BackendRedis:
		rs, err := session.NewRedis(ctx, a.cfg.Session.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rs.Close)
		return rs, nil
	default:
		a.sessionFile = a.cfg.Session.File
		return session.NewFileStore(a.cfg.Session.File)
	}
}

// Close pushes metrics when a Pushgateway is configured, flushes spans and
// releases the session backend.
func (a *App) Close(ctx context.Context) {
	if url := a.cfg.Metrics.PushURL; url != "" {
		err := push.New(url, a.cfg.Metrics.Job).Gatherer(a.registry).PushContext(ctx)
		if err != nil {
			a.logger.Warn("metrics_push_failed", "error", err.Error())
		}
	}
	if err := a.tracing.Shutdown(ctx); err != nil {
		a.logger.Warn("tracing_shutdown_failed", "error", err.Error())
	}
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("close_failed", "error", err.Error())
		}
	}
}

// showCategory routes to the category and reports the fetch outcome, which
// the router itself only hands to the notifier.
func (a *App) showCategory(ctx context.Context, name string) (*view.List, error) {
	c, err := model.ParseCategory(name)
	if err != nil {
		return nil, err
	}
	if !session.HasToken(a.store) {
		a.router.Show(ctx, string(c))
		return nil, a.requireLogin()
	}
	a.fetches.reset()
	a.router.Show(ctx, string(c))
	if err := a.fetches.last(); err != nil {
		return nil, err
	}
	return a.board.List(c), nil
}

func (a *App) requireLogin() error {
	notify.Failure(a.toasts, "You must be logged in")
	return service.ErrUnauthenticated
}

// watchSession keeps the active section in step with logins and logouts
// made by other processes. It returns once ctx is done. Only the file
// backend can be watched.
func (a *App) watchSession(ctx context.Context, changed func(loggedIn bool)) error {
	if a.sessionFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(a.sessionFile), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	return session.Watch(ctx, a.sessionFile, a.logger, func() {
		loggedIn, ok := a.store.refresh()
		if !ok {
			return
		}
		if loggedIn {
			a.router.Show(ctx, string(router.SectionDashboard))
		} else {
			a.router.Show(ctx, string(router.SectionLogin))
		}
		changed(loggedIn)
	})
}

// trackedStore remembers whether this process last wrote a token, so file
// events caused by its own writes are not taken for outside changes.
type trackedStore struct {
	next session.Store

	mu       sync.Mutex
	loggedIn bool
}

func newTrackedStore(next session.Store) *trackedStore {
	return &trackedStore{next: next, loggedIn: session.HasToken(next)}
}

func (s *trackedStore) Token() (string, bool, error) { return s.next.Token() }

func (s *trackedStore) SetToken(token string) error {
	return s.write(token != "", func() error { return s.next.SetToken(token) })
}

func (s *trackedStore) ClearToken() error {
	return s.write(false, s.next.ClearToken)
}

// write records the expected state before the store is touched, since the
// file event can arrive before the write call returns.
func (s *trackedStore) write(loggedIn bool, fn func() error) error {
	s.mu.Lock()
	s.loggedIn = loggedIn
	s.mu.Unlock()

	err := fn()
	if err != nil {
		s.mu.Lock()
		s.loggedIn = session.HasToken(s.next)
		s.mu.Unlock()
	}
	return err
}

// refresh reads the backing store and reports the login state when it
// differs from what this process last wrote or saw.
func (s *trackedStore) refresh() (loggedIn, changed bool) {
	now := session.HasToken(s.next)
	s.mu.Lock()
	defer s.mu.Unlock()
	if now == s.loggedIn {
		return now, false
	}
	s.loggedIn = now
	return now, true
}

// fetchTracker remembers the last fetch error so commands can exit non-zero.
type fetchTracker struct {
	next router.Fetcher

	mu  sync.Mutex
	err error
}

func (f *fetchTracker) FetchDocuments(ctx context.Context, c model.Category) error {
	err := f.next.FetchDocuments(ctx, c)
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
	return err
}

func (f *fetchTracker) reset() {
	f.mu.Lock()
	f.err = nil
	f.mu.Unlock()
}

func (f *fetchTracker) last() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}
