// Package chafi implements the channel filter (spec §4.5.3): copies
// events whose channel is in a configured set to the output, in
// original order.
package chafi

import "github.com/ec-jrc/abcd-go/pkg/wire"

// Config holds the filter's channel set.
type Config struct {
	Channels map[uint8]bool
}

// FilterEvents returns the subsequence of buf's PSD events whose
// channel is in cfg.Channels, in original order (spec P4).
func FilterEvents(buf []byte, cfg Config) ([]byte, error) {
	events, err := wire.DecodeEvents(buf)
	if err != nil {
		return nil, err
	}
	var kept []wire.PSDEvent
	for _, e := range events {
		if cfg.Channels[e.Channel] {
			kept = append(kept, e)
		}
	}
	return wire.EncodeEvents(kept), nil
}

// FilterWaveforms decodes the length-prefixed waveform layout and
// reencodes (rewriting offsets implicitly, since EncodeWaveforms always
// lays records out contiguously) every accepted waveform verbatim.
func FilterWaveforms(buf []byte, cfg Config) ([]byte, error) {
	waveforms, err := wire.DecodeWaveforms(buf)
	if err != nil {
		return nil, err
	}
	var kept []wire.WaveformEvent
	for _, w := range waveforms {
		if cfg.Channels[w.Channel] {
			kept = append(kept, w)
		}
	}
	return wire.EncodeWaveforms(kept), nil
}
