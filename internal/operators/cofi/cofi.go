// Package cofi implements the coincidence filter (spec §4.5.1): groups
// PSD events from a set of reference channels with the other channels'
// activity inside a timing window, and optionally republishes the rest
// on an anticoincidence output. Waveform streams are not filtered.
package cofi

import (
	"sort"

	"github.com/ec-jrc/abcd-go/pkg/wire"
)

// Config holds the filter's tunables, one per reconfigure document.
type Config struct {
	References              map[uint8]bool
	LeftWindow              int64 // ticks, signed
	RightWindow             int64 // ticks, signed, usually nonnegative
	MinMultiplity           int
	KeepUnmatchedReferences bool
	Anticoincidences        bool
	// GrowthMultiplier bounds emitted size relative to input size;
	// records beyond that bound are silently dropped (spec §4.5.1).
	GrowthMultiplier int
}

// DefaultGrowthMultiplier is the spec's documented default output
// buffer growth bound.
const DefaultGrowthMultiplier = 2

// Group is one coincidence group: the reference event plus its members,
// sorted by timestamp ascending.
type Group struct {
	Reference wire.PSDEvent
	Members   []wire.PSDEvent
}

// indexEntry mirrors spec step 2: a parallel index over the decoded
// events, built once and sorted by timestamp so the window scan is a
// pair of linear walks instead of an O(n²) search.
type indexEntry struct {
	offset    int
	timestamp uint64
	channel   uint8
}

// FilterEvents runs the coincidence algorithm over a decoded PSD event
// buffer (spec §4.5.1 steps 1-6). It returns the coincidence groups in
// reference-timestamp order and, when cfg.Anticoincidences is set, the
// events that were not selected into any group, in original order.
func FilterEvents(events []wire.PSDEvent, cfg Config) (groups []Group, anticoincident []wire.PSDEvent) {
	index := make([]indexEntry, len(events))
	for i, e := range events {
		index[i] = indexEntry{offset: i, timestamp: e.Timestamp, channel: e.Channel}
	}
	sort.SliceStable(index, func(i, j int) bool { return index[i].timestamp < index[j].timestamp })

	selected := make([]bool, len(events))

	for pos, e := range index {
		if !cfg.References[e.channel] {
			continue
		}

		var members []indexEntry
		// Left scan over earlier entries, excluding e itself, while
		// "e.ts - L < other.ts" holds.
		for i := pos - 1; i >= 0; i-- {
			o := index[i]
			if !(int64(e.timestamp)-cfg.LeftWindow < int64(o.timestamp)) {
				break
			}
			if cfg.References[o.channel] {
				continue
			}
			members = append(members, o)
		}
		// Right scan.
		for i := pos + 1; i < len(index); i++ {
			o := index[i]
			if !(int64(o.timestamp) < int64(e.timestamp)+cfg.RightWindow) {
				break
			}
			if cfg.References[o.channel] {
				continue
			}
			members = append(members, o)
		}

		sort.SliceStable(members, func(i, j int) bool { return members[i].timestamp < members[j].timestamp })

		if len(members) >= cfg.MinMultiplity {
			ref := events[e.offset]
			ref.GroupCounter = wire.SaturatingGroupCounter(len(members))
			memberEvents := make([]wire.PSDEvent, len(members))
			for i, m := range members {
				memberEvents[i] = events[m.offset]
				selected[m.offset] = true
			}
			groups = append(groups, Group{Reference: ref, Members: memberEvents})
			selected[e.offset] = true
		} else if cfg.KeepUnmatchedReferences {
			ref := events[e.offset]
			ref.GroupCounter = 0
			groups = append(groups, Group{Reference: ref})
			selected[e.offset] = true
		}
	}

	if cfg.Anticoincidences {
		for i, e := range events {
			if !selected[i] {
				anticoincident = append(anticoincident, e)
			}
		}
	}

	return groups, anticoincident
}

// EncodeGroups serialises groups back into the wire layout: each
// group's reference immediately followed by its members, groups
// concatenated in the order given. maxBytes bounds the output per
// spec's growth-multiplier rule; records beyond it are silently
// dropped.
func EncodeGroups(groups []Group, maxBytes int) []byte {
	var buf []byte
	for _, g := range groups {
		if len(buf)+wire.PSDEventSize > maxBytes {
			return buf
		}
		buf = wire.AppendEvent(buf, g.Reference)
		for _, m := range g.Members {
			if len(buf)+wire.PSDEventSize > maxBytes {
				return buf
			}
			buf = wire.AppendEvent(buf, m)
		}
	}
	return buf
}
