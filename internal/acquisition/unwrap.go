// Package acquisition implements the source side of the pipeline (spec
// §4.4): the contract a digitizer or replay file must satisfy to feed
// events into the wire protocol, the per-channel timestamp-wrap
// correction every source is responsible for, and a deterministic
// simulated source for demos and tests.
package acquisition

// Timestamp wrap step widths, spec §4.4: "For 30-bit counters
// offset_step = 2^30; for 47-bit extended counters offset_step = 2^47.
// A source that delivers already-64-bit timestamps reports
// offset_step = 0."
const (
	OffsetStepNone uint64 = 0
	OffsetStep30   uint64 = 1 << 30
	OffsetStep47   uint64 = 1 << 47
)

// TimeUnwrapper tracks, per channel, a hardware counter's wraps and
// extends its low-bit timestamp into a monotonic 64-bit one. Not
// implemented: the 47-bit "shark peak" correction the original
// hints at for isolated future jumps — its intent is unclear and the
// spec itself flags it as behaviour to characterise against captured
// data, not to reimplement blindly (open question, spec §9).
type TimeUnwrapper struct {
	step   uint64
	last   map[uint8]uint64
	offset map[uint8]uint64
}

// NewTimeUnwrapper builds an unwrapper for a counter that wraps every
// step ticks. step of OffsetStepNone disables unwrapping entirely.
func NewTimeUnwrapper(step uint64) *TimeUnwrapper {
	return &TimeUnwrapper{
		step:   step,
		last:   make(map[uint8]uint64),
		offset: make(map[uint8]uint64),
	}
}

// Unwrap extends low (the raw hardware counter value for channel) into
// a monotonic 64-bit timestamp, bumping channel's offset by step every
// time low decreases relative to the previous sample on that channel.
func (u *TimeUnwrapper) Unwrap(channel uint8, low uint64) uint64 {
	if u.step == OffsetStepNone {
		return low
	}
	if prev, ok := u.last[channel]; ok && low < prev {
		u.offset[channel] += u.step
	}
	u.last[channel] = low
	return low + u.offset[channel]
}

// Reset drops all per-channel state, e.g. after a reconfigure that
// restarts the device's counters from zero.
func (u *TimeUnwrapper) Reset() {
	u.last = make(map[uint8]uint64)
	u.offset = make(map[uint8]uint64)
}
