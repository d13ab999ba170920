package logwriter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ec-jrc/abcd-go/internal/filereader"
	"github.com/ec-jrc/abcd-go/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenWriteCloseProducesThreeFiles(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "run001")

	var l LogWriter
	require.NoError(t, l.Open(base))

	events := []wire.PSDEvent{{Timestamp: 1, Channel: 0}, {Timestamp: 2, Channel: 1}}
	require.NoError(t, l.WriteEvents(wire.EncodeEvents(events)))

	topic := wire.NewStatusTopic("abcd").WithSize(2)
	require.NoError(t, l.WriteEnvelope(topic, []byte("ok")))

	adeSize, _, adrSize := l.Sizes()
	assert.EqualValues(t, wire.PSDEventSize*2, adeSize)
	assert.EqualValues(t, len(topic)+1+2, adrSize)

	require.NoError(t, l.Close())

	for _, ext := range []string{".ade", ".adw", ".adr"} {
		_, err := os.Stat(base + ext)
		assert.NoError(t, err, "expected %s to exist", ext)
	}
}

// TestReplayRoundTrip is P6: replaying a file written by the log writer
// reproduces the original wire stream byte-for-byte.
func TestReplayRoundTrip(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "run002")

	var l LogWriter
	require.NoError(t, l.Open(base))

	topic1 := wire.NewDataTopic("abcd", "events", wire.PSDEventSize)
	payload1 := wire.EncodeEvents([]wire.PSDEvent{{Timestamp: 42, Channel: 3}})
	require.NoError(t, l.WriteEnvelope(topic1, payload1))

	topic2 := wire.NewStatusTopic("abcd").WithSize(5)
	require.NoError(t, l.WriteEnvelope(topic2, []byte("hello")))
	require.NoError(t, l.Close())

	f, err := os.Open(base + ".adr")
	require.NoError(t, err)
	defer f.Close()

	r := filereader.NewADRReader(f)

	gotTopic1, gotPayload1, err := r.ReadEnvelope()
	require.NoError(t, err)
	assert.Equal(t, topic1, gotTopic1)
	assert.Equal(t, payload1, gotPayload1)

	gotTopic2, gotPayload2, err := r.ReadEnvelope()
	require.NoError(t, err)
	assert.Equal(t, topic2, gotTopic2)
	assert.Equal(t, []byte("hello"), gotPayload2)
}
