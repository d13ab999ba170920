// Package gzad implements the compressor/decompressor pair (spec
// §4.5.4): gzad wraps a payload under a new topic carrying the
// algorithm and compressed size, unzad reverses it and restores the
// original topic. Grounded on the teacher's internal/util compress
// helpers (io.Copy through a stdlib compress writer/reader), extended
// to a second codec (bz2) since compress/bzip2 in the standard library
// is decode-only — see DESIGN.md.
package gzad

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/ec-jrc/abcd-go/pkg/wire"
)

// Algorithm names used in the wrapped topic, spec §4.5.4: "<algo> ∈
// {zlib, bz2}".
const (
	AlgoZlib = "zlib"
	AlgoBZ2  = "bz2"
)

// Compress wraps payload under topic (with any size suffix stripped,
// per spec: "the original size is discarded") using algo, returning the
// new topic and the compressed bytes.
func Compress(algo string, topic wire.Topic, payload []byte) (wire.Topic, []byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error

	switch algo {
	case AlgoZlib:
		w = zlib.NewWriter(&buf)
	case AlgoBZ2:
		w, err = bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: 6})
		if err != nil {
			return "", nil, fmt.Errorf("gzad: open bz2 writer: %w", err)
		}
	default:
		return "", nil, fmt.Errorf("gzad: unknown algorithm %q", algo)
	}

	if _, err := w.Write(payload); err != nil {
		return "", nil, fmt.Errorf("gzad: compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", nil, fmt.Errorf("gzad: flush: %w", err)
	}

	compressed := buf.Bytes()
	inner := topic.WithoutSize()
	return wire.CompressedTopic(algo, inner, len(compressed)), compressed, nil
}

// MaxOutputMultiplier is the spec's default decompression overflow
// guard: "default 4x input, configurable".
const MaxOutputMultiplier = 4

// Decompress reverses Compress: it parses algo/inner topic out of
// topic, decodes payload, and fails if the decompressed size exceeds
// maxBytes (default len(payload)*MaxOutputMultiplier). On overflow the
// message is dropped: callers should log and continue, not retry.
func Decompress(topic wire.Topic, payload []byte, maxBytes int) (wire.Topic, []byte, error) {
	algo, inner, ok := wire.SplitCompressed(topic)
	if !ok {
		return "", nil, fmt.Errorf("gzad: topic %q is not a compressed envelope", topic)
	}
	if maxBytes <= 0 {
		maxBytes = len(payload) * MaxOutputMultiplier
	}

	var r io.ReadCloser
	var err error
	switch algo {
	case AlgoZlib:
		r, err = zlib.NewReader(bytes.NewReader(payload))
	case AlgoBZ2:
		r, err = bzip2.NewReader(bytes.NewReader(payload), nil)
	default:
		return "", nil, fmt.Errorf("gzad: unknown algorithm %q", algo)
	}
	if err != nil {
		return "", nil, fmt.Errorf("gzad: open %s reader: %w", algo, err)
	}
	defer r.Close()

	limited := io.LimitReader(r, int64(maxBytes)+1)
	out, err := io.ReadAll(limited)
	if err != nil {
		return "", nil, fmt.Errorf("gzad: decompress: %w", err)
	}
	if len(out) > maxBytes {
		return "", nil, fmt.Errorf("gzad: decompressed size exceeds %d byte bound", maxBytes)
	}

	return inner, out, nil
}
