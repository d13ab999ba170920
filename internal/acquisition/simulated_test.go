package acquisition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedSourceProducesEvents(t *testing.T) {
	cfg := DefaultSimulatedConfig()
	cfg.RateHz = 5000
	src := NewSimulatedSource(cfg, OffsetStep30)

	time.Sleep(20 * time.Millisecond)
	events, waveforms, err := src.Poll()
	require.NoError(t, err)
	assert.NotEmpty(t, events)
	assert.Empty(t, waveforms, "waveform capture is off by default")

	for _, ev := range events {
		assert.Less(t, ev.Channel, cfg.Channels)
	}
}

func TestSimulatedSourceWaveformCapture(t *testing.T) {
	cfg := DefaultSimulatedConfig()
	cfg.RateHz = 5000
	src := NewSimulatedSource(cfg, OffsetStep30)
	src.SetWaveformCapture(true)

	time.Sleep(20 * time.Millisecond)
	events, waveforms, err := src.Poll()
	require.NoError(t, err)
	require.Len(t, waveforms, len(events))
	for _, wf := range waveforms {
		assert.EqualValues(t, cfg.WaveformLength, wf.SamplesNumber)
		assert.Len(t, wf.Samples, int(wf.SamplesNumber))
	}
}

func TestSimulatedSourceMultipleChannelsIndependent(t *testing.T) {
	cfg := DefaultSimulatedConfig()
	cfg.Channels = 4
	cfg.RateHz = 2000
	src := NewSimulatedSource(cfg, OffsetStep30)

	time.Sleep(30 * time.Millisecond)
	events, _, err := src.Poll()
	require.NoError(t, err)
	require.NotEmpty(t, events)

	seen := make(map[uint8]bool)
	for _, ev := range events {
		seen[ev.Channel] = true
	}
	assert.NotEmpty(t, seen)
}
