package gzad

import (
	"crypto/sha256"
	"math/rand"
	"testing"

	"github.com/ec-jrc/abcd-go/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCompressionInvariance is scenario S4: 64 KB of random payload
// round-trips byte-for-byte through compress/decompress, and the inner
// topic survives unchanged.
func TestCompressionInvariance(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	payload := make([]byte, 64*1024)
	rng.Read(payload)

	original := wire.NewDataTopic("abcd", "events", len(payload))

	compressedTopic, compressed, err := Compress(AlgoZlib, original, payload)
	require.NoError(t, err)
	assert.Contains(t, string(compressedTopic), "compressed_zlib_")

	innerTopic, decompressed, err := Decompress(compressedTopic, compressed, 0)
	require.NoError(t, err)
	assert.Equal(t, original.WithoutSize(), innerTopic)
	assert.Equal(t, sha256.Sum256(payload), sha256.Sum256(decompressed))
}

func TestCompressionInvarianceBZ2(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	payload := make([]byte, 8*1024)
	rng.Read(payload)

	original := wire.NewDataTopic("abcd", "events", len(payload))
	compressedTopic, compressed, err := Compress(AlgoBZ2, original, payload)
	require.NoError(t, err)

	_, decompressed, err := Decompress(compressedTopic, compressed, 0)
	require.NoError(t, err)
	assert.Equal(t, payload, decompressed)
}

func TestDecompressOverflowIsRejected(t *testing.T) {
	payload := make([]byte, 1024)
	original := wire.NewDataTopic("abcd", "events", len(payload))
	compressedTopic, compressed, err := Compress(AlgoZlib, original, payload)
	require.NoError(t, err)

	_, _, err = Decompress(compressedTopic, compressed, 4)
	assert.Error(t, err)
}

func TestDecompressRejectsUnknownTopic(t *testing.T) {
	_, _, err := Decompress(wire.Topic("data_abcd_events_v0_s10"), []byte("x"), 0)
	assert.Error(t, err)
}
