// Package history implements a keyed, time-windowed history of recently
// seen payloads, used to detect and count duplicate outbound messages.
package history

import (
	"container/list"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

type record struct {
	at      time.Time
	payload string
	seen    int
}

type queue struct {
	mu sync.Mutex
	l  list.List // of *record, oldest at Front
}

// Tracker maps keys of type K to a FIFO-ordered queue of recently pushed
// payloads, all sharing one TTL. Safe for concurrent use.
type Tracker[K comparable] struct {
	ttl time.Duration
	m   *xsync.MapOf[K, *queue]
}

// New returns a Tracker where entries expire ttl after being pushed.
func New[K comparable](ttl time.Duration) *Tracker[K] {
	return &Tracker[K]{ttl: ttl, m: xsync.NewMapOf[K, *queue]()}
}

func (t *Tracker[K]) queueFor(k K) *queue {
	q, _ := t.m.LoadOrCompute(k, func() *queue { return new(queue) })
	return q
}

// Push enqueues payload for k, timestamped now.
func (t *Tracker[K]) Push(k K, payload string) {
	q := t.queueFor(k)
	q.mu.Lock()
	q.l.PushBack(&record{at: time.Now(), payload: payload})
	q.mu.Unlock()
}

// Contains evicts expired entries for k (FIFO, since insertion order is
// monotonically non-decreasing in time), then scans for payload. It
// returns 0 if not found, else the updated times-observed count for the
// matching entry. This call mutates: both eviction and the hit counter
// bump are intentional side effects callers rely on.
func (t *Tracker[K]) Contains(k K, payload string) int {
	q := t.queueFor(k)
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	for e := q.l.Front(); e != nil; {
		r := e.Value.(*record)
		if r.at.Add(t.ttl).Before(now) {
			next := e.Next()
			q.l.Remove(e)
			e = next
			continue
		}
		break // FIFO: once we hit a non-expired entry, the rest are younger
	}

	for e := q.l.Front(); e != nil; e = e.Next() {
		r := e.Value.(*record)
		if r.payload == payload {
			r.seen++
			return r.seen
		}
	}
	return 0
}
