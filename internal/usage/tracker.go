// Package usage accumulates token usage across model calls.
package usage

import (
	"sync"

	"github.com/hyperjump/kotae/internal/models"
)

// Tracker sums token usage. Totals only grow. The zero value is ready to use and safe for
// concurrent callers; whoever owns the tracker decides its lifetime.
type Tracker struct {
	mu    sync.Mutex
	total models.TokenUsage
	calls int
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{}
}

// Add records the usage of one model call.
func (t *Tracker) Add(u models.TokenUsage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = t.total.Add(u)
	t.calls++
}

// Total returns the accumulated usage.
func (t *Tracker) Total() models.TokenUsage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Calls returns the number of recorded model calls.
func (t *Tracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}
