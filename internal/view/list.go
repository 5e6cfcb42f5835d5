// Package view holds the rendered state of the client: one list container
// per category, each with a persistent heading and the items the last
// successful fetch produced.
package view

import (
	"sync"

	"dockeeper/internal/model"
)

// Item is one rendered document.
type Item struct {
	ID        string
	Title     string
	Thumbnail string
	// IsImage reports whether Thumbnail is the file itself.
	IsImage  bool
	ViewURL  string
	Uploaded string
}

// Generation identifies one fetch cycle of a List.
type Generation uint64

// List is the container for one category. Mutations are serialized; a
// response that belongs to an older generation is dropped by Apply.
type List struct {
	mu       sync.RWMutex
	category model.Category
	heading  string
	items    []Item
	gen      Generation
}

// NewList returns an empty container headed by the category title.
func NewList(c model.Category) *List {
	return &List{category: c, heading: c.Heading()}
}

// Category is the category this list renders.
func (l *List) Category() model.Category { return l.category }

// Heading is the persistent title; it survives every Begin.
func (l *List) Heading() string { return l.heading }

// Begin starts a new fetch cycle: items are cleared (the heading stays) and
// any earlier cycle becomes stale.
func (l *List) Begin() Generation {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.items = nil
	return l.gen
}

// Apply replaces the items if gen is still the current cycle. It reports
// whether the items were applied.
func (l *List) Apply(gen Generation, items []Item) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return false
	}
	l.items = append([]Item(nil), items...)
	return true
}

// Current reports whether gen is still the latest cycle.
func (l *List) Current(gen Generation) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return gen == l.gen
}

// Remove drops the item with id and reports whether it was present.
func (l *List) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, it := range l.items {
		if it.ID == id {
			l.items = append(l.items[:i:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns the item with id.
func (l *List) Find(id string) (Item, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, it := range l.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Items returns a copy of the rendered items.
func (l *List) Items() []Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

// Len is the number of rendered items.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Board holds every category's list. Lists of different categories are
// independent and may be updated concurrently.
type Board struct {
	lists map[model.Category]*List
}

// NewBoard creates one list per category.
func NewBoard() *Board {
	b := &Board{lists: map[model.Category]*List{}}
	for _, c := range model.Categories() {
		b.lists[c] = NewList(c)
	}
	return b
}

// List returns the container for c, or nil for an unknown category.
func (b *Board) List(c model.Category) *List {
	return b.lists[c]
}
