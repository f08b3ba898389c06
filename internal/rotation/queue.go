// Package rotation selects and gates at most one keypress per tick from
// the analyzer's slot states, the active priority profile and the spell
// queue.
package rotation

import (
	"sync"
	"time"
)

type QueueSource string

const (
	QueueWhitelist QueueSource = "whitelist"
	QueueTracked   QueueSource = "tracked"
)

// QueueEntry is a short-lived manual override captured from the input
// hook. At most one entry is ever live.
type QueueEntry struct {
	Source     QueueSource `json:"source"`
	Key        string      `json:"key"`
	SlotIndex  *int        `json:"slot_index,omitempty"`
	EnqueuedAt time.Time   `json:"enqueued_at"`
	TimeoutAt  time.Time   `json:"timeout_at"`
}

// SpellQueue holds a single override slot with newest-wins semantics.
// It is fed from the input-hook goroutine and drained from the tick
// loop, so every access goes through the mutex.
type SpellQueue struct {
	mu    sync.Mutex
	entry *QueueEntry
}

func NewSpellQueue() *SpellQueue {
	return &SpellQueue{}
}

// Push replaces any existing entry. A newer qualifying key press always
// wins; this is deliberately not a FIFO.
func (q *SpellQueue) Push(e QueueEntry) {
	q.mu.Lock()
	q.entry = &e
	q.mu.Unlock()
}

// Snapshot returns a copy of the live entry, or nil. Expired entries are
// dropped here, by timestamp comparison, not by timers. The snapshot is
// taken once at tick start so a mid-tick push can neither be consumed
// twice nor lost.
func (q *SpellQueue) Snapshot(now time.Time) *QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.entry == nil {
		return nil
	}
	if now.After(q.entry.TimeoutAt) {
		q.entry = nil
		return nil
	}
	e := *q.entry
	return &e
}

// Consume clears the queue if the live entry is still the one the given
// snapshot was taken from. A newer entry pushed mid-tick survives.
func (q *SpellQueue) Consume(snap *QueueEntry) {
	if snap == nil {
		return
	}
	q.mu.Lock()
	if q.entry != nil && q.entry.EnqueuedAt.Equal(snap.EnqueuedAt) && q.entry.Key == snap.Key {
		q.entry = nil
	}
	q.mu.Unlock()
}

// Clear unconditionally drops the live entry.
func (q *SpellQueue) Clear() {
	q.mu.Lock()
	q.entry = nil
	q.mu.Unlock()
}
