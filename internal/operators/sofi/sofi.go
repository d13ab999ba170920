// Package sofi implements the temporal sorter (spec §4.5.2): a single
// decode-sort-reencode pass that re-emits one message with events
// ordered by non-decreasing timestamp, stable on ties, with output
// size identical to input size.
package sofi

import (
	"sort"

	"github.com/ec-jrc/abcd-go/pkg/wire"
)

// SortEvents decodes buf as PSD events, stably sorts by timestamp, and
// re-encodes. Output length always equals len(buf) (spec P3/P1).
func SortEvents(buf []byte) ([]byte, error) {
	events, err := wire.DecodeEvents(buf)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})
	return wire.EncodeEvents(events), nil
}

// SortWaveforms is the waveform-stream equivalent: waveforms are
// variable-size, so only the decode/sort/reencode order changes; total
// byte length is still preserved because every decoded waveform is
// reencoded unchanged.
func SortWaveforms(buf []byte) ([]byte, error) {
	waveforms, err := wire.DecodeWaveforms(buf)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(waveforms, func(i, j int) bool {
		return waveforms[i].Timestamp < waveforms[j].Timestamp
	})
	return wire.EncodeWaveforms(waveforms), nil
}
