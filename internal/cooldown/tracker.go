// Package cooldown implements a keyed cooldown tracker: each key maps to a
// minimum interval plus a last-access instant, answering ready/not-ready.
package cooldown

import (
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// State is the outcome of a ready/not-ready decision.
type State struct {
	Ready     bool
	Remaining time.Duration // valid only when !Ready
}

type entry struct {
	mu         sync.Mutex
	interval   time.Duration
	lastAccess time.Time
}

// decide reports the ready/not-ready state for now, without mutating e.
// Caller must hold e.mu.
func (e *entry) decide(now time.Time) State {
	deadline := e.lastAccess.Add(e.interval)
	if !now.Before(deadline) {
		return State{Ready: true}
	}
	return State{Remaining: deadline.Sub(now)}
}

// Tracker maps keys of type K to cooldown entries. The zero value is not
// usable; construct with New. Safe for concurrent use.
type Tracker[K comparable] struct {
	m *xsync.MapOf[K, *entry]
}

// New returns an empty Tracker.
func New[K comparable]() *Tracker[K] {
	return &Tracker[K]{m: xsync.NewMapOf[K, *entry]()}
}

// Insert creates an entry for k. If startReady, the entry starts ready
// (its last-access is backdated by interval).
func (t *Tracker[K]) Insert(k K, interval time.Duration, startReady bool) {
	now := time.Now()
	last := now
	if startReady {
		last = now.Add(-interval)
	}
	t.m.Store(k, &entry{interval: interval, lastAccess: last})
}

// Contains reports whether k has an entry.
func (t *Tracker[K]) Contains(k K) bool {
	_, ok := t.m.Load(k)
	return ok
}

// Update replaces the interval of k's entry. It does not touch last-access.
// Reports false if k is unknown.
func (t *Tracker[K]) Update(k K, interval time.Duration) bool {
	e, ok := t.m.Load(k)
	if !ok {
		return false
	}
	e.mu.Lock()
	e.interval = interval
	e.mu.Unlock()
	return true
}

// Access reports the ready/not-ready state of k and, iff ready, atomically
// bumps last-access to now. Reports false if k is unknown.
func (t *Tracker[K]) Access(k K) (State, bool) {
	e, ok := t.m.Load(k)
	if !ok {
		return State{}, false
	}
	now := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.decide(now)
	if st.Ready {
		e.lastAccess = now
	}
	return st, true
}

// Peek reports the ready/not-ready state of k without ever mutating it.
// Reports false if k is unknown.
func (t *Tracker[K]) Peek(k K) (State, bool) {
	e, ok := t.m.Load(k)
	if !ok {
		return State{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.decide(time.Now()), true
}

// Guard is a held lock on one entry, obtained via PeekGuard. The caller
// must eventually call either TryReset or Release exactly once.
type Guard struct {
	e *entry
}

// PeekGuard reports the ready/not-ready state of k and locks its entry for
// the caller, who commits with TryReset or abandons with Release. Used by
// the executor's combined user+command cooldown check, so the ready
// decision and the eventual reset happen under one critical section.
// Reports false if k is unknown (no guard is returned).
func (t *Tracker[K]) PeekGuard(k K) (*Guard, State, bool) {
	e, ok := t.m.Load(k)
	if !ok {
		return nil, State{}, false
	}
	e.mu.Lock()
	return &Guard{e: e}, e.decide(time.Now()), true
}

// TryReset re-evaluates the guarded entry and, iff ready, bumps its
// last-access to now, then releases the lock. Mirrors Access but operates
// on an entry already locked by PeekGuard.
func (g *Guard) TryReset() State {
	now := time.Now()
	st := g.e.decide(now)
	if st.Ready {
		g.e.lastAccess = now
	}
	g.e.mu.Unlock()
	return st
}

// Release unlocks the guarded entry without touching its state.
func (g *Guard) Release() {
	g.e.mu.Unlock()
}
