package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeWaveformRoundTrip(t *testing.T) {
	w := WaveformEvent{
		Timestamp:     12345,
		Channel:       7,
		SamplesNumber: 4,
		GatesNumber:   2,
		Samples:       []uint16{10, 20, 30, 40},
		Gates:         [][]uint8{{1, 0, 1, 0}, {0, 0, 1, 1}},
	}

	buf := EncodeWaveform(w)
	require.Len(t, buf, WaveformHeaderSize+2*4+2*4)

	decoded, err := DecodeWaveforms(buf)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, w.Timestamp, decoded[0].Timestamp)
	assert.Equal(t, w.Channel, decoded[0].Channel)
	assert.Equal(t, w.Samples, decoded[0].Samples)
	assert.Equal(t, w.Gates, decoded[0].Gates)
}

func TestEncodeDecodeWaveformsConcatenated(t *testing.T) {
	a := WaveformEvent{Timestamp: 1, Channel: 0, SamplesNumber: 2, Samples: []uint16{1, 2}}
	b := WaveformEvent{Timestamp: 2, Channel: 1, SamplesNumber: 3, Samples: []uint16{3, 4, 5}}

	buf := EncodeWaveforms([]WaveformEvent{a, b})
	assert.Len(t, buf, a.Size()+b.Size())

	decoded, err := DecodeWaveforms(buf)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, a.Samples, decoded[0].Samples)
	assert.Equal(t, b.Samples, decoded[1].Samples)
}

func TestDecodeWaveformsTruncatedRejectsWholeBuffer(t *testing.T) {
	a := WaveformEvent{Timestamp: 1, Channel: 0, SamplesNumber: 2, Samples: []uint16{1, 2}}
	buf := EncodeWaveform(a)
	buf = buf[:len(buf)-1]

	decoded, err := DecodeWaveforms(buf)
	assert.Nil(t, decoded)
	require.Error(t, err)
	assert.ErrorIs(t, err, Truncated)
}
