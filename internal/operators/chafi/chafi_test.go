package chafi

import (
	"testing"

	"github.com/ec-jrc/abcd-go/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterEventsKeepsSubsequenceInOrder(t *testing.T) {
	input := []wire.PSDEvent{
		{Timestamp: 1, Channel: 0},
		{Timestamp: 2, Channel: 1},
		{Timestamp: 3, Channel: 2},
		{Timestamp: 4, Channel: 1},
	}
	buf := wire.EncodeEvents(input)

	out, err := FilterEvents(buf, Config{Channels: map[uint8]bool{1: true}})
	require.NoError(t, err)

	decoded, err := wire.DecodeEvents(out)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.EqualValues(t, 2, decoded[0].Timestamp)
	assert.EqualValues(t, 4, decoded[1].Timestamp)
}

func TestFilterEventsEmptySetDropsEverything(t *testing.T) {
	input := []wire.PSDEvent{{Timestamp: 1, Channel: 0}}
	buf := wire.EncodeEvents(input)
	out, err := FilterEvents(buf, Config{Channels: map[uint8]bool{}})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFilterWaveformsPreservesAcceptedRecordsVerbatim(t *testing.T) {
	wfs := []wire.WaveformEvent{
		{Timestamp: 1, Channel: 0, SamplesNumber: 2, Samples: []uint16{10, 20}},
		{Timestamp: 2, Channel: 5, SamplesNumber: 3, Samples: []uint16{1, 2, 3}},
	}
	buf := wire.EncodeWaveforms(wfs)
	out, err := FilterWaveforms(buf, Config{Channels: map[uint8]bool{5: true}})
	require.NoError(t, err)

	decoded, err := wire.DecodeWaveforms(out)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, wfs[1].Samples, decoded[0].Samples)
}
