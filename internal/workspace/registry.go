// Package workspace keeps the in-memory state of each operator session: the
// catalog browser, the sales cart and the stock entry list.
package workspace

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Dropper releases everything held for a session.
type Dropper interface {
	Drop(sessionID string)
}

// Sweeper evicts workspaces idle for longer than a threshold.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

type entry[T any] struct {
	value   T
	touched time.Time
}

// Registry maps session ids to one workspace value each.
type Registry[T any] struct {
	mu      sync.Mutex
	items   map[string]*entry[T]
	release func(T)
	now     func() time.Time
}

// NewRegistry builds a registry. release, when non-nil, runs for every dropped
// or evicted value.
func NewRegistry[T any](release func(T)) *Registry[T] {
	return &Registry[T]{
		items:   make(map[string]*entry[T]),
		release: release,
		now:     time.Now,
	}
}

// Get returns the workspace of sessionID, creating it with create when absent.
func (r *Registry[T]) Get(sessionID string, create func() T) T {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[sessionID]
	if !ok {
		e = &entry[T]{value: create()}
		r.items[sessionID] = e
	}
	e.touched = r.now()
	return e.value
}

// Lookup returns the workspace of sessionID without creating one.
func (r *Registry[T]) Lookup(sessionID string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[sessionID]
	if !ok {
		var zero T
		return zero, false
	}
	e.touched = r.now()
	return e.value, true
}

// Drop removes and releases the workspace of sessionID.
func (r *Registry[T]) Drop(sessionID string) {
	r.mu.Lock()
	e, ok := r.items[sessionID]
	delete(r.items, sessionID)
	r.mu.Unlock()
	if ok && r.release != nil {
		r.release(e.value)
	}
}

// Sweep evicts workspaces untouched for longer than idle and reports how many.
func (r *Registry[T]) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	var stale []T
	r.mu.Lock()
	for id, e := range r.items {
		if e.touched.Before(cutoff) {
			stale = append(stale, e.value)
			delete(r.items, id)
		}
	}
	r.mu.Unlock()
	if r.release != nil {
		for _, v := range stale {
			r.release(v)
		}
	}
	return len(stale)
}

// Len reports the number of live workspaces.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Janitor sweeps the registries every interval until ctx is done.
func Janitor(ctx context.Context, interval, idle time.Duration, logger *slog.Logger, sweepers ...Sweeper) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted := 0
			for _, s := range sweepers {
				evicted += s.Sweep(idle)
			}
			if evicted > 0 && logger != nil {
				logger.Info("idle workspaces evicted", slog.Int("count", evicted))
			}
		}
	}
}
