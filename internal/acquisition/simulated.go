package acquisition

import (
	"math"
	"math/rand"
	"time"

	"github.com/ec-jrc/abcd-go/pkg/wire"
)

// SimulatedSource is a deterministic pulse generator standing in for a
// real digitizer, used by cmd/abcd (its only source) and by tests that
// need a Source without hardware. Each channel fires as an independent
// Poisson process; the baseline is Gaussian around 8000, qlong is an
// exponentially distributed amplitude above 2000, and qshort is 20-30%
// of qlong, drawn uniformly. Grounded on the kind of
// math/rand-driven synthetic generators used elsewhere in the corpus.
type SimulatedSource struct {
	cfg  SimulatedConfig
	rng  *rand.Rand
	unw  *TimeUnwrapper
	next []float64 // next scheduled event time (seconds) per channel
	tick uint64    // fake 64-bit counter, ticks at cfg.ClockHz

	waveformCapture bool
	startedAt       time.Time
}

// SimulatedConfig configures SimulatedSource.
type SimulatedConfig struct {
	Channels       uint8
	RateHz         float64 // mean trigger rate per channel
	ClockHz        float64 // hardware clock used to derive fake timestamps
	Seed           int64
	WaveformLength uint32 // samples per waveform, when capture is enabled
	GateEdges      []uint32
}

// DefaultSimulatedConfig returns a reasonable single-channel demo config.
func DefaultSimulatedConfig() SimulatedConfig {
	return SimulatedConfig{
		Channels:       1,
		RateHz:         1000,
		ClockHz:        250e6,
		Seed:           1,
		WaveformLength: 128,
		GateEdges:      []uint32{20, 60},
	}
}

// NewSimulatedSource builds a SimulatedSource from cfg. offsetStep
// selects the wrap width the fake hardware counter uses (normally
// OffsetStep30 or OffsetStep47; OffsetStepNone disables wrapping).
func NewSimulatedSource(cfg SimulatedConfig, offsetStep uint64) *SimulatedSource {
	if cfg.Channels == 0 {
		cfg.Channels = 1
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	next := make([]float64, cfg.Channels)
	for ch := range next {
		next[ch] = rng.ExpFloat64() / cfg.RateHz
	}
	return &SimulatedSource{
		cfg:       cfg,
		rng:       rng,
		unw:       NewTimeUnwrapper(offsetStep),
		next:      next,
		startedAt: time.Now(),
	}
}

// SetWaveformCapture enables or disables parallel waveform emission.
func (s *SimulatedSource) SetWaveformCapture(enabled bool) { s.waveformCapture = enabled }

// Poll advances simulated time to now and emits every event whose
// scheduled trigger time has elapsed since the last Poll.
func (s *SimulatedSource) Poll() ([]wire.PSDEvent, []wire.WaveformEvent, error) {
	elapsed := time.Since(s.startedAt).Seconds()

	var events []wire.PSDEvent
	var waveforms []wire.WaveformEvent

	for ch := uint8(0); ch < s.cfg.Channels; ch++ {
		for s.next[ch] <= elapsed {
			lowBits := uint64(s.next[ch] * s.cfg.ClockHz)
			if s.unw.step != OffsetStepNone {
				lowBits %= s.unw.step // the fake counter wraps like the hardware's
			}
			ts := s.unw.Unwrap(ch, lowBits)

			qshort, qlong, baseline := s.drawPulse()
			events = append(events, wire.PSDEvent{
				Timestamp: ts,
				Qshort:    qshort,
				Qlong:     qlong,
				Baseline:  baseline,
				Channel:   ch,
			})

			if s.waveformCapture {
				waveforms = append(waveforms, s.drawWaveform(ts, ch))
			}

			s.next[ch] += s.rng.ExpFloat64() / s.cfg.RateHz
		}
	}

	return events, waveforms, nil
}

func (s *SimulatedSource) drawPulse() (qshort, qlong, baseline uint16) {
	baseline = uint16(8000 + s.rng.NormFloat64()*20)
	amplitude := 2000 + s.rng.ExpFloat64()*3000
	long := amplitude
	short := amplitude * (0.2 + 0.1*s.rng.Float64())
	return clampUint16(short), clampUint16(long), baseline
}

func (s *SimulatedSource) drawWaveform(timestamp uint64, channel uint8) wire.WaveformEvent {
	n := s.cfg.WaveformLength
	if n == 0 {
		n = 128
	}
	samples := make([]uint16, n)
	peak := float64(n) / 4
	amplitude := 2000 + s.rng.ExpFloat64()*3000
	for i := range samples {
		decay := math.Exp(-float64(i) / (float64(n) / 8))
		rise := 1 - math.Exp(-float64(i)/(peak/4))
		v := 8000 + amplitude*rise*decay + s.rng.NormFloat64()*15
		samples[i] = clampUint16(v)
	}

	var gates [][]uint8
	if len(s.cfg.GateEdges) > 0 {
		gate := make([]uint8, n)
		for i := range gate {
			if uint32(i) >= s.cfg.GateEdges[0] {
				gate[i] = 1
			}
		}
		gates = append(gates, gate)
	}

	return wire.WaveformEvent{
		Timestamp:     timestamp,
		Channel:       channel,
		SamplesNumber: n,
		GatesNumber:   uint8(len(gates)),
		Samples:       samples,
		Gates:         gates,
	}
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

// Close releases SimulatedSource's resources. It holds none.
func (s *SimulatedSource) Close() error { return nil }
