// Package fifo implements the FIFO buffer with expiration (spec
// §4.5.5): events accumulate keyed by arrival order, the head expires
// once it has aged past a configurable window, and a snapshot command
// drains and clears the whole buffer as one message.
package fifo

import (
	"time"

	"github.com/ec-jrc/abcd-go/pkg/wire"
)

// DefaultExpiration is the spec's documented default expiration window.
const DefaultExpiration = time.Hour

// entry pairs a buffered event with the monotonic time it arrived.
type entry struct {
	event      wire.PSDEvent
	enqueuedAt time.Time
}

// Buffer is the FIFO expiration buffer. It is not safe for concurrent
// use; every stage is single-threaded (spec §4.0).
type Buffer struct {
	Expiration time.Duration
	entries    []entry
}

// New builds a Buffer with expiration (DefaultExpiration if zero).
func New(expiration time.Duration) *Buffer {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	return &Buffer{Expiration: expiration}
}

// Push enqueues an event, stamped with the current monotonic time.
func (b *Buffer) Push(e wire.PSDEvent) {
	b.PushAt(e, time.Now())
}

// PushAt enqueues an event stamped with an explicit arrival time, for
// deterministic tests.
func (b *Buffer) PushAt(e wire.PSDEvent, at time.Time) {
	b.entries = append(b.entries, entry{event: e, enqueuedAt: at})
}

// Len reports how many events are currently buffered.
func (b *Buffer) Len() int { return len(b.entries) }

// Expire evicts every head entry older than b.Expiration, relative to
// now. Runs to completion in one call, never blocking (spec §4.5.5).
func (b *Buffer) Expire(now time.Time) (evicted int) {
	i := 0
	for i < len(b.entries) && now.Sub(b.entries[i].enqueuedAt) > b.Expiration {
		i++
	}
	if i == 0 {
		return 0
	}
	b.entries = b.entries[i:]
	return i
}

// Snapshot drains the buffer's current contents as a single ordered
// slice and clears it, for the `snapshot` command.
func (b *Buffer) Snapshot() []wire.PSDEvent {
	out := make([]wire.PSDEvent, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.event
	}
	b.entries = nil
	return out
}
