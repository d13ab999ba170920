// Package filereader implements the two decoders of spec §4.8,
// matching the append-only formats internal/logwriter produces: the
// bare concatenated `.ade` PSD-event stream and the self-framed `.adr`
// envelope stream. End-of-file is reported as io.EOF, not wrapped as a
// decode failure; only I/O and framing errors are.
package filereader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ec-jrc/abcd-go/pkg/wire"
)

// ADEReader reads fixed-width PSD-event records out of a `.ade` stream
// in caller-chosen chunks.
type ADEReader struct {
	r io.Reader
}

// NewADEReader wraps r (typically an *os.File opened on a `.ade` file).
func NewADEReader(r io.Reader) *ADEReader {
	return &ADEReader{r: r}
}

// ReadChunk reads up to chunkBytes of payload (a multiple of
// wire.PSDEventSize) and fabricates the topic a live `data_abcd_events`
// publication of that size would have carried. Returns io.EOF once no
// further bytes remain; a short, non-16-aligned tail is a misalignment
// error, matching invariant I1.
func (a *ADEReader) ReadChunk(chunkBytes int) (wire.Topic, []byte, error) {
	if chunkBytes <= 0 || chunkBytes%wire.PSDEventSize != 0 {
		return "", nil, fmt.Errorf("filereader: chunk size %d is not a positive multiple of %d", chunkBytes, wire.PSDEventSize)
	}

	buf := make([]byte, chunkBytes)
	n, err := io.ReadFull(a.r, buf)
	switch {
	case err == nil:
		topic := wire.NewDataTopic("abcd", "events", n)
		return topic, buf[:n], nil
	case errors.Is(err, io.EOF):
		return "", nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		if n == 0 {
			return "", nil, io.EOF
		}
		if n%wire.PSDEventSize != 0 {
			return "", nil, wire.Misaligned
		}
		topic := wire.NewDataTopic("abcd", "events", n)
		return topic, buf[:n], nil
	default:
		return "", nil, fmt.Errorf("filereader: read .ade chunk: %w", err)
	}
}

// ADRReader reads whole envelopes (topic + space + payload, framed by
// the topic's own `_s<N>` suffix) out of a `.adr` stream.
type ADRReader struct {
	r *bufio.Reader
}

// NewADRReader wraps r.
func NewADRReader(r io.Reader) *ADRReader {
	return &ADRReader{r: bufio.NewReader(r)}
}

// ReadEnvelope reads one (topic, payload) pair. Returns io.EOF when the
// stream is exhausted exactly at a record boundary.
func (a *ADRReader) ReadEnvelope() (wire.Topic, []byte, error) {
	topicStr, err := a.r.ReadString(' ')
	if err != nil {
		if errors.Is(err, io.EOF) && topicStr == "" {
			return "", nil, io.EOF
		}
		return "", nil, fmt.Errorf("filereader: read .adr topic: %w", err)
	}
	topic := wire.Topic(strings.TrimSuffix(topicStr, " "))

	size, ok := topic.Size()
	if !ok {
		return "", nil, fmt.Errorf("filereader: topic %q carries no size suffix", topic)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(a.r, payload); err != nil {
		return "", nil, fmt.Errorf("filereader: read .adr payload (%d bytes): %w", size, err)
	}
	return topic, payload, nil
}
