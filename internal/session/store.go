// Package session owns the persisted authentication token.
//
// A Store is the single writer of the token. Services receive one explicitly
// instead of reaching into ambient storage. No expiry is tracked here: a stale
// token is only discovered when the server rejects it.
package session

import (
	"errors"
	"sync"
)

// TokenKey is the fixed key the token is stored under.
const TokenKey = "token"

// ErrNoStore is returned when a store is used before it was configured.
var ErrNoStore = errors.New("session store is not configured")

// Store persists a single opaque token.
type Store interface {
	// Token returns the current token and whether one is present.
	Token() (string, bool, error)
	// SetToken replaces the stored token.
	SetToken(token string) error
	// ClearToken removes the token. Clearing an empty store is not an error.
	ClearToken() error
}

// HasToken reports whether s currently holds a non-empty token.
// Read errors count as absence.
func HasToken(s Store) bool {
	if s == nil {
		return false
	}
	tok, ok, err := s.Token()
	return err == nil && ok && tok != ""
}

// Memory keeps the token in process memory only.
type Memory struct {
	mu    sync.RWMutex
	token string
}

// NewMemory returns a store preloaded with token (which may be empty).
func NewMemory(token string) *Memory {
	return &Memory{token: token}
}

func (m *Memory) Token() (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != "", nil
}

func (m *Memory) SetToken(token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) ClearToken() error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}
