// Package ringbuf provides growable event/waveform accumulation buffers
// for holding records between ticks. No other package of this module
// imports it at present; the stages keep their own buffers.
//
// Grounded on the teacher's metric ring buffer (a chain of
// fixed-capacity buffers recycled through a sync.Pool so hot-path
// appends stay amortised O(1) with no reallocation mid-tick): see
// DESIGN.md. Here there is no time-indexed chain — a stage's events
// buffer only needs to grow across a run and reset at PUBLISH_DATA —
// so the design note from spec §9 ("reserve at 110% of the high-water
// mark after each flush") is implemented directly as a capacity hint
// rather than a linked list of fixed-size segments.
package ringbuf

import "github.com/ec-jrc/abcd-go/pkg/wire"

// EventBuffer accumulates PSDEvent records across ticks until the stage
// runtime flushes it at PUBLISH_DATA. Capacity grows to 110% of the
// previous high-water mark on each Reset so steady-state runs do not
// reallocate during the hot append path.
type EventBuffer struct {
	events []wire.PSDEvent
	hwm    int
}

// Append adds one event, growing the backing slice via normal Go slice
// growth (amortised O(1)); no manual doubling is needed because the
// capacity was already reserved by the previous Reset.
func (b *EventBuffer) Append(e wire.PSDEvent) {
	b.events = append(b.events, e)
}

// Len returns the number of buffered events.
func (b *EventBuffer) Len() int {
	return len(b.events)
}

// Events returns the buffered events. The returned slice aliases the
// buffer's backing array and is invalidated by the next Reset.
func (b *EventBuffer) Events() []wire.PSDEvent {
	return b.events
}

// Reset clears the buffer for reuse, reserving capacity at 110% of the
// high-water mark reached since the last Reset.
func (b *EventBuffer) Reset() {
	if n := len(b.events); n > b.hwm {
		b.hwm = n
	}
	newCap := b.hwm + b.hwm/10
	if newCap < 16 {
		newCap = 16
	}
	b.events = make([]wire.PSDEvent, 0, newCap)
}

// WaveformBuffer is the analogous accumulator for variable-size waveform
// events. Like EventBuffer it tracks its high-water mark in events, not
// in encoded bytes.
type WaveformBuffer struct {
	events []wire.WaveformEvent
	hwm    int
}

func (b *WaveformBuffer) Append(w wire.WaveformEvent) {
	b.events = append(b.events, w)
}

func (b *WaveformBuffer) Len() int {
	return len(b.events)
}

func (b *WaveformBuffer) Events() []wire.WaveformEvent {
	return b.events
}

func (b *WaveformBuffer) Reset() {
	if n := len(b.events); n > b.hwm {
		b.hwm = n
	}
	newCap := b.hwm + b.hwm/10
	if newCap < 16 {
		newCap = 16
	}
	b.events = make([]wire.WaveformEvent, 0, newCap)
}
