// Package notify presents transient success and error messages.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Lifetime is how long a toast stays visible before it is dismissed.
const Lifetime = 4 * time.Second

// Kind classifies a toast.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Toast is one transient message.
type Toast struct {
	Kind    Kind
	Message string
	At      time.Time
}

// Expired reports whether the toast has outlived Lifetime at now.
func (t Toast) Expired(now time.Time) bool {
	return now.Sub(t.At) >= Lifetime
}

// Notifier presents toasts. Implementations must not block the caller.
type Notifier interface {
	Notify(Toast)
}

// Success sends a success toast stamped with the current time.
func Success(n Notifier, msg string) {
	n.Notify(Toast{Kind: KindSuccess, Message: msg, At: time.Now()})
}

// Failure sends an error toast stamped with the current time.
func Failure(n Notifier, msg string) {
	n.Notify(Toast{Kind: KindError, Message: msg, At: time.Now()})
}

// Console writes toasts to a terminal and keeps the ones still on screen.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	tray   []Toast
}

// NewConsole writes success toasts to out and error toasts to errOut.
// A nil errOut sends everything to out.
func NewConsole(out, errOut io.Writer) *Console {
	if errOut == nil {
		errOut = out
	}
	return &Console{out: out, errOut: errOut}
}

func (c *Console) Notify(t Toast) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tray = append(c.pruneLocked(t.At), t)
	if t.Kind == KindError {
		fmt.Fprintf(c.errOut, "✖ %s\n", t.Message)
		return
	}
	fmt.Fprintf(c.out, "✔ %s\n", t.Message)
}

// Active drops expired toasts and returns the ones still visible at now.
func (c *Console) Active(now time.Time) []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tray = c.pruneLocked(now)
	out := make([]Toast, len(c.tray))
	copy(out, c.tray)
	return out
}

func (c *Console) pruneLocked(now time.Time) []Toast {
	live := c.tray[:0]
	for _, t := range c.tray {
		if !t.Expired(now) {
			live = append(live, t)
		}
	}
	return live
}

// Recorder keeps every toast it receives. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) Notify(t Toast) {
	r.mu.Lock()
	r.toasts = append(r.toasts, t)
	r.mu.Unlock()
}

// Toasts returns a copy of everything recorded so far.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Toast, len(r.toasts))
	copy(out, r.toasts)
	return out
}

// Last returns the most recent toast, or false if none arrived.
func (r *Recorder) Last() (Toast, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return Toast{}, false
	}
	return r.toasts[len(r.toasts)-1], true
}
