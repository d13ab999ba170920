// Package waan implements the waveform analyzer host (spec §4.5.7): a
// per-channel pluggable analysis function that turns a decoded waveform
// into a PSD event, or drops it, with an optional pass-through
// waveform stream alongside the derived events.
package waan

import "github.com/ec-jrc/abcd-go/pkg/wire"

// ChannelConfig carries whatever parameters an AnalyzeFunc needs for
// one channel (gate boundaries, thresholds, ...). Left opaque to the
// host; only analyzers interpret it.
type ChannelConfig struct {
	BaselineSamples int    // leading samples averaged into the baseline estimate
	ShortGate       [2]int // [start, end) sample indices for qshort
	LongGate        [2]int // [start, end) sample indices for qlong
}

// DefaultChannelConfig uses a 16-sample baseline, a short gate of
// samples [16,36) and a long gate of [16,120), sized for the 128-sample
// waveforms a default SimulatedSource produces (spec §4.5.7 leaves gate
// placement to the deployment).
func DefaultChannelConfig() ChannelConfig {
	return ChannelConfig{
		BaselineSamples: 16,
		ShortGate:       [2]int{16, 36},
		LongGate:        [2]int{16, 120},
	}
}

// AnalyzeFunc is the per-channel analysis contract: given the decoded
// waveform's samples and digital probe gates plus its channel config,
// produce a PSD event, or report ok=false to drop the waveform (e.g. a
// failed pulse-shape discrimination cut).
type AnalyzeFunc func(samples []uint16, gates [][]uint8, cfg ChannelConfig) (event wire.PSDEvent, ok bool)

// Host dispatches each waveform to its channel's analyzer and collects
// the derived PSD events plus, optionally, the original waveforms.
type Host struct {
	analyzers map[uint8]AnalyzeFunc
	configs   map[uint8]ChannelConfig
	fallback  AnalyzeFunc

	PassthroughWaveforms bool
}

// NewHost builds a Host whose channels without a dedicated analyzer
// fall back to GatedIntegralAnalyzer.
func NewHost() *Host {
	return &Host{
		analyzers: make(map[uint8]AnalyzeFunc),
		configs:   make(map[uint8]ChannelConfig),
		fallback:  GatedIntegralAnalyzer,
	}
}

// SetAnalyzer installs fn and cfg for channel.
func (h *Host) SetAnalyzer(channel uint8, fn AnalyzeFunc, cfg ChannelConfig) {
	h.analyzers[channel] = fn
	h.configs[channel] = cfg
}

// Process analyzes every waveform, returning the derived PSD events
// (in input order, one per non-dropped waveform) and, when
// PassthroughWaveforms is set, every input waveform unchanged.
func (h *Host) Process(waveforms []wire.WaveformEvent) (events []wire.PSDEvent, passthrough []wire.WaveformEvent) {
	for _, wf := range waveforms {
		fn := h.fallback
		if custom, ok := h.analyzers[wf.Channel]; ok {
			fn = custom
		}
		cfg := h.configs[wf.Channel]

		if event, ok := fn(wf.Samples, wf.Gates, cfg); ok {
			event.Timestamp = wf.Timestamp
			event.Channel = wf.Channel
			events = append(events, event)
		}
	}

	if h.PassthroughWaveforms {
		passthrough = waveforms
	}
	return events, passthrough
}

// GatedIntegralAnalyzer is the default analyzer: it averages the
// leading BaselineSamples as the baseline, then sums the positive
// values of (baseline - sample) over the short and long gates as
// qshort/qlong; samples above the baseline add nothing. Never drops a
// waveform.
func GatedIntegralAnalyzer(samples []uint16, _ [][]uint8, cfg ChannelConfig) (wire.PSDEvent, bool) {
	baseline := estimateBaseline(samples, cfg.BaselineSamples)
	qshort := gatedIntegral(samples, baseline, cfg.ShortGate)
	qlong := gatedIntegral(samples, baseline, cfg.LongGate)

	return wire.PSDEvent{
		Qshort:   clampUint16(qshort),
		Qlong:    clampUint16(qlong),
		Baseline: clampUint16(baseline),
	}, true
}

func estimateBaseline(samples []uint16, n int) float64 {
	if n <= 0 || n > len(samples) {
		n = len(samples)
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples[:n] {
		sum += float64(s)
	}
	return sum / float64(n)
}

func gatedIntegral(samples []uint16, baseline float64, gate [2]int) float64 {
	start, end := gate[0], gate[1]
	if start < 0 {
		start = 0
	}
	if end > len(samples) {
		end = len(samples)
	}
	var sum float64
	for i := start; i < end; i++ {
		d := baseline - float64(samples[i])
		if d > 0 {
			sum += d
		}
	}
	return sum
}

func clampUint16(v float64) uint16 {
	if v < 0 {
		return 0
	}
	if v > 65535 {
		return 65535
	}
	return uint16(v)
}
