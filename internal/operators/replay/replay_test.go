package replay

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ec-jrc/abcd-go/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	topics   []wire.Topic
	payloads [][]byte
}

func (r *recordingPublisher) Send(topic wire.Topic, payload []byte) error {
	r.topics = append(r.topics, topic)
	r.payloads = append(r.payloads, append([]byte(nil), payload...))
	return nil
}

func writeADR(t *testing.T, path string, envelopes int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	for i := 0; i < envelopes; i++ {
		topic := wire.NewStatusTopic("abcd").WithSize(1)
		_, err := f.Write(wire.JoinEnvelope(topic, []byte{byte(i)}))
		require.NoError(t, err)
	}
}

func TestSequencerADRPublishesEveryEnvelope(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.adr")
	writeADR(t, path, 3)

	seq, err := Open(Config{Path: path, Format: FormatADR, BasePeriod: time.Millisecond})
	require.NoError(t, err)
	defer seq.Close()

	pub := &recordingPublisher{}
	require.NoError(t, seq.Run(context.Background(), pub))
	assert.Len(t, pub.payloads, 3)
	assert.Equal(t, []byte{0}, pub.payloads[0])
	assert.Equal(t, []byte{2}, pub.payloads[2])
}

func TestSequencerSkipsLeadingPackets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.adr")
	writeADR(t, path, 3)

	seq, err := Open(Config{Path: path, Format: FormatADR, SkipPackets: 2, BasePeriod: time.Millisecond})
	require.NoError(t, err)
	defer seq.Close()

	pub := &recordingPublisher{}
	require.NoError(t, seq.Run(context.Background(), pub))
	require.Len(t, pub.payloads, 1)
	assert.Equal(t, []byte{2}, pub.payloads[0])
}

func TestSequencerADEChunking(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.ade")
	events := []wire.PSDEvent{{Timestamp: 1}, {Timestamp: 2}, {Timestamp: 3}}
	require.NoError(t, os.WriteFile(path, wire.EncodeEvents(events), 0o644))

	seq, err := Open(Config{
		Path:       path,
		Format:     FormatADE,
		ChunkBytes: wire.PSDEventSize * 2,
		BasePeriod: time.Millisecond,
	})
	require.NoError(t, err)
	defer seq.Close()

	pub := &recordingPublisher{}
	require.NoError(t, seq.Run(context.Background(), pub))
	require.Len(t, pub.payloads, 2)
	assert.Len(t, pub.payloads[0], wire.PSDEventSize*2)
	assert.Len(t, pub.payloads[1], wire.PSDEventSize)
}

func TestSequencerLoopStopsOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.adr")
	writeADR(t, path, 1)

	seq, err := Open(Config{Path: path, Format: FormatADR, Loop: true, BasePeriod: time.Millisecond})
	require.NoError(t, err)
	defer seq.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	pub := &recordingPublisher{}
	err = seq.Run(ctx, pub)
	assert.Error(t, err) // context deadline exceeded
	assert.Greater(t, len(pub.payloads), 1, "looping should have republished more than once")
}
