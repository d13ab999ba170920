package wire

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Topic is the ASCII prefix identifying a message's producer, kind,
// version, sequence and size, per spec §3: `<kind>_<producer>_<version>
// [_n<seq>][_s<size>]`. Receivers MUST treat it as opaque beyond prefix
// matching on `<kind>_<producer>`; the helpers below exist to build and
// inspect topics consistently, not to make the grammar load-bearing.
type Topic string

// NewDataTopic builds `data_<producer>_<kind>_v0_s<size>`, e.g.
// `data_abcd_events_v0_s32`.
func NewDataTopic(producer, kind string, size int) Topic {
	return Topic(fmt.Sprintf("data_%s_%s_v0_s%d", producer, kind, size))
}

// NewStatusTopic builds `status_<producer>`.
func NewStatusTopic(producer string) Topic {
	return Topic("status_" + producer)
}

// NewEventsTopic builds `events_<producer>`, the topic stages publish
// typed error/notification events on per spec §7.
func NewEventsTopic(producer string) Topic {
	return Topic("events_" + producer)
}

// WithSeq returns a copy of t with `_n<seq>` appended.
func (t Topic) WithSeq(seq uint64) Topic {
	return Topic(fmt.Sprintf("%s_n%d", t, seq))
}

// WithSize returns a copy of t with `_s<size>` appended.
func (t Topic) WithSize(size int) Topic {
	return Topic(fmt.Sprintf("%s_s%d", t, size))
}

// WithoutSize strips a trailing `_s<N>` suffix, if present. Used when
// wrapping a topic for compression, since the compressed size differs
// from the original.
func (t Topic) WithoutSize() Topic {
	s := string(t)
	idx := strings.LastIndex(s, "_s")
	if idx < 0 {
		return t
	}
	if _, err := strconv.Atoi(s[idx+2:]); err != nil {
		return t
	}
	return Topic(s[:idx])
}

// Size extracts the `_s<N>` suffix, if any.
func (t Topic) Size() (int, bool) {
	s := string(t)
	idx := strings.LastIndex(s, "_s")
	if idx < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[idx+2:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// KindProducer returns the `<kind>_<producer>` prefix used for
// subscription matching, by stripping any trailing `_v0`, `_n<seq>` and
// `_s<size>` segments. It is a best-effort split: kind and producer
// themselves may contain underscores, so callers that need exact
// subscription matching should match on the literal prefix string
// instead of relying on this split.
func (t Topic) KindProducer() (kind, producer string) {
	s := string(t)
	parts := strings.SplitN(s, "_", 2)
	if len(parts) < 2 {
		return s, ""
	}
	rest := parts[1]
	rest = trimSuffixField(rest, "_s")
	rest = trimSuffixField(rest, "_n")
	rest = strings.TrimSuffix(rest, "_v0")
	return parts[0], rest
}

func trimSuffixField(s, sep string) string {
	idx := strings.LastIndex(s, sep)
	if idx < 0 {
		return s
	}
	if _, err := strconv.Atoi(s[idx+len(sep):]); err != nil {
		return s
	}
	return s[:idx]
}

// HasPrefix reports whether t begins with prefix: a plain string-prefix
// test, the same match a ZeroMQ subscription applies.
func (t Topic) HasPrefix(prefix string) bool {
	return strings.HasPrefix(string(t), prefix)
}

// CompressedTopic wraps inner (with its size suffix already stripped)
// for the gzad compressor: `compressed_<algo>_<inner>_s<compressedSize>`.
func CompressedTopic(algo string, inner Topic, compressedSize int) Topic {
	return Topic(fmt.Sprintf("compressed_%s_%s", algo, inner)).WithSize(compressedSize)
}

// SplitCompressed parses a `compressed_<algo>_<inner>` topic back into
// its algorithm and inner topic, first stripping any trailing size
// suffix itself via WithoutSize.
func SplitCompressed(t Topic) (algo string, inner Topic, ok bool) {
	s := string(t.WithoutSize())
	if !strings.HasPrefix(s, "compressed_") {
		return "", "", false
	}
	rest := strings.TrimPrefix(s, "compressed_")
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], Topic(parts[1]), true
}

// JoinEnvelope builds the atomic wire message: the ASCII topic, one
// space, then the binary payload. This single byte slice is what a
// transport Send call writes in one frame, and what a .adr file stores
// one-per-record.
func JoinEnvelope(topic Topic, payload []byte) []byte {
	buf := make([]byte, 0, len(topic)+1+len(payload))
	buf = append(buf, topic...)
	buf = append(buf, ' ')
	buf = append(buf, payload...)
	return buf
}

// SplitEnvelope splits a raw envelope into its topic and payload by
// locating the first space. The payload aliases buf.
func SplitEnvelope(buf []byte) (Topic, []byte, error) {
	idx := bytes.IndexByte(buf, ' ')
	if idx < 0 {
		return "", nil, &DecodeError{Kind: ErrTruncated, Detail: "envelope missing topic/payload separator"}
	}
	return Topic(buf[:idx]), buf[idx+1:], nil
}
