// Package router switches between the client's logical views.
//
// Exactly one section is active at a time. Entering a category section
// refreshes that category's documents before Show returns.
package router

import (
	"context"
	"log/slog"
	"sync"

	"dockeeper/internal/model"
	"dockeeper/internal/session"
)

// Section names a view.
type Section string

const (
	SectionLogin     Section = "login"
	SectionSignup    Section = "signup"
	SectionDashboard Section = "dashboard"
)

// Fetcher refreshes one category's rendered list.
type Fetcher interface {
	FetchDocuments(ctx context.Context, category model.Category) error
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, category model.Category) error

func (f FetcherFunc) FetchDocuments(ctx context.Context, c model.Category) error { return f(ctx, c) }

// Router is the section state machine. It is safe for concurrent use; a
// Show cancels the fetch started by the previous Show.
type Router struct {
	mu      sync.Mutex
	active  Section
	known   map[Section]bool
	fetcher Fetcher
	logger  *slog.Logger
	cancel  context.CancelFunc
}

// New returns a router over the auth sections, the dashboard and one
// section per category. No section is active until Start or Show.
func New(fetcher Fetcher, logger *slog.Logger) *Router {
	known := map[Section]bool{
		SectionLogin:     true,
		SectionSignup:    true,
		SectionDashboard: true,
	}
	for _, c := range model.Categories() {
		known[Section(c)] = true
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{known: known, fetcher: fetcher, logger: logger}
}

// Start activates the initial section: the dashboard when a token is
// present, login otherwise.
func (r *Router) Start(ctx context.Context, store session.Store) Section {
	initial := SectionLogin
	if session.HasToken(store) {
		initial = SectionDashboard
	}
	r.Show(ctx, string(initial))
	return initial
}

// Show activates the section named id. Unknown ids are ignored and Show
// returns false. For a category section the documents are fetched before
// Show returns; fetch failures are reported by the fetcher itself.
func (r *Router) Show(ctx context.Context, id string) bool {
	sec := Section(id)

	r.mu.Lock()
	if !r.known[sec] {
		r.mu.Unlock()
		r.logger.Debug("section_ignored", "section", id)
		return false
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	prev := r.active
	r.active = sec

	cat := model.Category(sec)
	isCategory := cat.Valid()
	var fetchCtx context.Context
	if isCategory {
		fetchCtx, r.cancel = context.WithCancel(ctx)
	}
	fetcher := r.fetcher
	r.mu.Unlock()

	r.logger.Debug("section_shown", "from", string(prev), "to", id)

	if isCategory && fetcher != nil {
		_ = fetcher.FetchDocuments(fetchCtx, cat)
	}
	return true
}

// Active is the section currently shown.
func (r *Router) Active() Section {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Sections lists every known section: login, signup, dashboard, then the
// categories in display order.
func Sections() []Section {
	out := []Section{SectionLogin, SectionSignup, SectionDashboard}
	for _, c := range model.Categories() {
		out = append(out, Section(c))
	}
	return out
}
