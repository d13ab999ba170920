package filereader

import (
	"bytes"
	"io"
	"testing"

	"github.com/ec-jrc/abcd-go/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestADEReaderChunking(t *testing.T) {
	events := []wire.PSDEvent{
		{Timestamp: 1, Channel: 0},
		{Timestamp: 2, Channel: 1},
		{Timestamp: 3, Channel: 2},
	}
	data := wire.EncodeEvents(events)
	r := NewADEReader(bytes.NewReader(data))

	topic, payload, err := r.ReadChunk(wire.PSDEventSize * 2)
	require.NoError(t, err)
	assert.Len(t, payload, wire.PSDEventSize*2)
	assert.Contains(t, string(topic), "_s32")

	_, payload2, err := r.ReadChunk(wire.PSDEventSize * 2)
	require.NoError(t, err)
	assert.Len(t, payload2, wire.PSDEventSize) // short final chunk

	_, _, err = r.ReadChunk(wire.PSDEventSize * 2)
	assert.ErrorIs(t, err, io.EOF)
}

func TestADEReaderRejectsBadChunkSize(t *testing.T) {
	r := NewADEReader(bytes.NewReader(nil))
	_, _, err := r.ReadChunk(17)
	assert.Error(t, err)
}

func TestADEReaderMisalignedTailIsError(t *testing.T) {
	r := NewADEReader(bytes.NewReader(make([]byte, 20)))
	_, _, err := r.ReadChunk(32)
	assert.ErrorIs(t, err, wire.Misaligned)
}

func TestADRReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	topic1 := wire.NewDataTopic("abcd", "events", 16)
	buf.Write(wire.JoinEnvelope(topic1, make([]byte, 16)))
	topic2 := wire.NewStatusTopic("abcd").WithSize(5)
	buf.Write(wire.JoinEnvelope(topic2, []byte("hello")))

	r := NewADRReader(&buf)

	gotTopic1, payload1, err := r.ReadEnvelope()
	require.NoError(t, err)
	assert.Equal(t, topic1, gotTopic1)
	assert.Len(t, payload1, 16)

	gotTopic2, payload2, err := r.ReadEnvelope()
	require.NoError(t, err)
	assert.Equal(t, topic2, gotTopic2)
	assert.Equal(t, []byte("hello"), payload2)

	_, _, err = r.ReadEnvelope()
	assert.ErrorIs(t, err, io.EOF)
}
