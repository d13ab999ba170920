// Package wire implements the on-wire and on-disk binary record formats
// shared by every stage: the fixed-size PSD event, the variable-size
// waveform event, and the topic envelope that prefixes both on the
// transport and in the .adr replay format.
//
// DecodeEvents copies each record into a new PSDEvent, and
// DecodeWaveforms copies the samples into new slices; only a decoded
// waveform's Gates slices alias the input buffer, so callers must not
// mutate the buffer while those gates are still in use.
package wire

import (
	"encoding/binary"
)

// PSDEventSize is the fixed wire size of one PSD event record, in bytes.
const PSDEventSize = 16

// PSDEvent is a single pulse-shape-discrimination trigger: two gated
// integrals of the pulse plus metadata. See spec §3.
type PSDEvent struct {
	Timestamp     uint64
	Qshort        uint16
	Qlong         uint16
	Baseline      uint16
	Channel       uint8
	GroupCounter  uint8
}

// EncodeEvents serializes events into their 16-byte little-endian wire
// layout, concatenated in order.
func EncodeEvents(events []PSDEvent) []byte {
	buf := make([]byte, len(events)*PSDEventSize)
	for i, e := range events {
		encodeEventInto(buf[i*PSDEventSize:], e)
	}
	return buf
}

// AppendEvent appends one event's wire encoding to buf, growing it if
// necessary, and returns the extended slice. It is the hot-path append
// used while a stage accumulates events for the next PUBLISH_DATA tick.
func AppendEvent(buf []byte, e PSDEvent) []byte {
	start := len(buf)
	buf = append(buf, make([]byte, PSDEventSize)...)
	encodeEventInto(buf[start:], e)
	return buf
}

func encodeEventInto(b []byte, e PSDEvent) {
	binary.LittleEndian.PutUint64(b[0:8], e.Timestamp)
	binary.LittleEndian.PutUint16(b[8:10], e.Qshort)
	binary.LittleEndian.PutUint16(b[10:12], e.Qlong)
	binary.LittleEndian.PutUint16(b[12:14], e.Baseline)
	b[14] = e.Channel
	b[15] = e.GroupCounter
}

func decodeEventAt(b []byte) PSDEvent {
	return PSDEvent{
		Timestamp:    binary.LittleEndian.Uint64(b[0:8]),
		Qshort:       binary.LittleEndian.Uint16(b[8:10]),
		Qlong:        binary.LittleEndian.Uint16(b[10:12]),
		Baseline:     binary.LittleEndian.Uint16(b[12:14]),
		Channel:      b[14],
		GroupCounter: b[15],
	}
}

// DecodeEvents validates invariant I1 (N mod 16 == 0) and decodes buf into
// a slice of PSDEvent. On a truncated/misaligned buffer it returns an
// error and zero records — partial decoding is forbidden.
func DecodeEvents(buf []byte) ([]PSDEvent, error) {
	if len(buf)%PSDEventSize != 0 {
		return nil, &DecodeError{Kind: ErrMisaligned, Detail: "events buffer size not a multiple of 16"}
	}
	n := len(buf) / PSDEventSize
	events := make([]PSDEvent, n)
	for i := 0; i < n; i++ {
		events[i] = decodeEventAt(buf[i*PSDEventSize:])
	}
	return events, nil
}

// SaturatingGroupCounter clamps a non-reference member count to the
// 8-bit group_counter field, saturating at 0xFF per spec §3.
func SaturatingGroupCounter(members int) uint8 {
	if members >= 0xFF {
		return 0xFF
	}
	return uint8(members)
}
