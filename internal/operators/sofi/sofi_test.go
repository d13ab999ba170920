package sofi

import (
	"testing"

	"github.com/ec-jrc/abcd-go/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSorterStability is scenario S3 verbatim.
func TestSorterStability(t *testing.T) {
	input := []wire.PSDEvent{
		{Timestamp: 50, Channel: 1},
		{Timestamp: 10, Channel: 2},
		{Timestamp: 10, Channel: 3},
		{Timestamp: 40, Channel: 4},
	}
	buf := wire.EncodeEvents(input)

	out, err := SortEvents(buf)
	require.NoError(t, err)
	require.Len(t, out, len(buf))

	decoded, err := wire.DecodeEvents(out)
	require.NoError(t, err)
	require.Len(t, decoded, 4)

	timestamps := make([]uint64, len(decoded))
	for i, e := range decoded {
		timestamps[i] = e.Timestamp
	}
	assert.Equal(t, []uint64{10, 10, 40, 50}, timestamps)
	// equal-timestamp entries retain their input order (channel 2 before 3).
	assert.EqualValues(t, 2, decoded[0].Channel)
	assert.EqualValues(t, 3, decoded[1].Channel)
}

func TestSortEventsIsPermutationOfInput(t *testing.T) {
	input := []wire.PSDEvent{
		{Timestamp: 9, Channel: 1},
		{Timestamp: 3, Channel: 2},
		{Timestamp: 7, Channel: 3},
	}
	buf := wire.EncodeEvents(input)
	out, err := SortEvents(buf)
	require.NoError(t, err)

	decoded, err := wire.DecodeEvents(out)
	require.NoError(t, err)

	counts := map[uint8]int{}
	for _, e := range input {
		counts[e.Channel]++
	}
	for _, e := range decoded {
		counts[e.Channel]--
	}
	for _, c := range counts {
		assert.Zero(t, c)
	}
}

func TestSortWaveformsPreservesContent(t *testing.T) {
	wfs := []wire.WaveformEvent{
		{Timestamp: 20, Channel: 0, SamplesNumber: 2, Samples: []uint16{1, 2}},
		{Timestamp: 5, Channel: 1, SamplesNumber: 2, Samples: []uint16{3, 4}},
	}
	buf := wire.EncodeWaveforms(wfs)
	out, err := SortWaveforms(buf)
	require.NoError(t, err)

	decoded, err := wire.DecodeWaveforms(out)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.EqualValues(t, 5, decoded[0].Timestamp)
	assert.EqualValues(t, 20, decoded[1].Timestamp)
}
