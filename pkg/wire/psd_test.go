package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1: events round-trip.
func TestEncodeDecodeEventsRoundTrip(t *testing.T) {
	events := []PSDEvent{
		{Timestamp: 100, Qshort: 10, Qlong: 20, Baseline: 200, Channel: 3, GroupCounter: 0},
		{Timestamp: 200, Qshort: 15, Qlong: 25, Baseline: 210, Channel: 5, GroupCounter: 0},
	}

	buf := EncodeEvents(events)
	require.Len(t, buf, 32)

	topic := NewDataTopic("x", "events", len(buf))
	assert.Equal(t, Topic("data_x_events_v0_s32"), topic)

	decoded, err := DecodeEvents(buf)
	require.NoError(t, err)
	assert.Equal(t, events, decoded)
}

func TestDecodeEventsMisalignedRejectsWholeBuffer(t *testing.T) {
	buf := make([]byte, 17)
	decoded, err := DecodeEvents(buf)
	assert.Nil(t, decoded)
	require.Error(t, err)
	assert.ErrorIs(t, err, Misaligned)
}

func TestDecodeEventsEmptyBufferIsZeroEvents(t *testing.T) {
	decoded, err := DecodeEvents(nil)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestAppendEventGrowsIncrementally(t *testing.T) {
	var buf []byte
	buf = AppendEvent(buf, PSDEvent{Timestamp: 1, Channel: 9})
	buf = AppendEvent(buf, PSDEvent{Timestamp: 2, Channel: 8})
	require.Len(t, buf, 32)

	decoded, err := DecodeEvents(buf)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.EqualValues(t, 1, decoded[0].Timestamp)
	assert.EqualValues(t, 2, decoded[1].Timestamp)
}

func TestSaturatingGroupCounter(t *testing.T) {
	assert.EqualValues(t, 5, SaturatingGroupCounter(5))
	assert.EqualValues(t, 0xFF, SaturatingGroupCounter(0xFF))
	assert.EqualValues(t, 0xFF, SaturatingGroupCounter(1000))
}
