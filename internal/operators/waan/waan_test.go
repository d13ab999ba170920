package waan

import (
	"testing"

	"github.com/ec-jrc/abcd-go/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatPulse(n int, baseline uint16) []uint16 {
	s := make([]uint16, n)
	for i := range s {
		s[i] = baseline
	}
	return s
}

func TestGatedIntegralAnalyzerFlatBaselineYieldsZeroCharge(t *testing.T) {
	samples := flatPulse(128, 1000)
	cfg := DefaultChannelConfig()

	event, ok := GatedIntegralAnalyzer(samples, nil, cfg)
	require.True(t, ok)
	assert.EqualValues(t, 1000, event.Baseline)
	assert.EqualValues(t, 0, event.Qshort)
	assert.EqualValues(t, 0, event.Qlong)
}

func TestGatedIntegralAnalyzerDipProducesCharge(t *testing.T) {
	samples := flatPulse(128, 1000)
	for i := 16; i < 36; i++ {
		samples[i] = 900 // 100 counts below baseline, inside both gates
	}
	cfg := DefaultChannelConfig()

	event, ok := GatedIntegralAnalyzer(samples, nil, cfg)
	require.True(t, ok)
	assert.EqualValues(t, 1000, event.Baseline)
	assert.EqualValues(t, 20*100, event.Qshort)
	assert.EqualValues(t, 20*100, event.Qlong)
	assert.LessOrEqual(t, event.Qshort, event.Qlong)
}

func TestHostProcessAssignsTimestampAndChannelFromWaveform(t *testing.T) {
	h := NewHost()
	wf := wire.WaveformEvent{
		Timestamp:     555,
		Channel:       7,
		SamplesNumber: 4,
		Samples:       []uint16{100, 100, 100, 100},
	}

	events, passthrough := h.Process([]wire.WaveformEvent{wf})
	require.Len(t, events, 1)
	assert.EqualValues(t, 555, events[0].Timestamp)
	assert.EqualValues(t, 7, events[0].Channel)
	assert.Nil(t, passthrough)
}

func TestHostProcessPassthroughWaveforms(t *testing.T) {
	h := NewHost()
	h.PassthroughWaveforms = true
	wf := wire.WaveformEvent{Timestamp: 1, Channel: 0, SamplesNumber: 2, Samples: []uint16{1, 2}}

	events, passthrough := h.Process([]wire.WaveformEvent{wf})
	require.Len(t, events, 1)
	require.Len(t, passthrough, 1)
	assert.Equal(t, wf, passthrough[0])
}

func TestHostProcessDropsWaveformWhenAnalyzerRejects(t *testing.T) {
	h := NewHost()
	h.SetAnalyzer(3, func(samples []uint16, gates [][]uint8, cfg ChannelConfig) (wire.PSDEvent, bool) {
		return wire.PSDEvent{}, false
	}, DefaultChannelConfig())

	wf := wire.WaveformEvent{Timestamp: 1, Channel: 3, SamplesNumber: 2, Samples: []uint16{1, 2}}
	events, _ := h.Process([]wire.WaveformEvent{wf})
	assert.Empty(t, events)
}

func TestHostProcessUsesPerChannelAnalyzer(t *testing.T) {
	h := NewHost()
	h.SetAnalyzer(9, func(samples []uint16, gates [][]uint8, cfg ChannelConfig) (wire.PSDEvent, bool) {
		return wire.PSDEvent{Qshort: 42}, true
	}, DefaultChannelConfig())

	wf := wire.WaveformEvent{Timestamp: 1, Channel: 9, SamplesNumber: 1, Samples: []uint16{1}}
	events, _ := h.Process([]wire.WaveformEvent{wf})
	require.Len(t, events, 1)
	assert.EqualValues(t, 42, events[0].Qshort)
}

func TestHostProcessMultipleWaveformsPreservesOrder(t *testing.T) {
	h := NewHost()
	waveforms := []wire.WaveformEvent{
		{Timestamp: 1, Channel: 0, SamplesNumber: 1, Samples: []uint16{1}},
		{Timestamp: 2, Channel: 1, SamplesNumber: 1, Samples: []uint16{1}},
		{Timestamp: 3, Channel: 2, SamplesNumber: 1, Samples: []uint16{1}},
	}
	events, _ := h.Process(waveforms)
	require.Len(t, events, 3)
	for i, e := range events {
		assert.EqualValues(t, waveforms[i].Timestamp, e.Timestamp)
	}
}
