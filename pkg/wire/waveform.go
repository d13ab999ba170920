package wire

import (
	"encoding/binary"
)

// WaveformHeaderSize is the fixed header size preceding a waveform's
// sample and gate payload, in bytes.
const WaveformHeaderSize = 14

// WaveformEvent is one detector trigger with the full sampled pulse plus
// optional digital probe/gate traces. See spec §3.
type WaveformEvent struct {
	Timestamp      uint64
	Channel        uint8
	SamplesNumber  uint32
	GatesNumber    uint8
	Samples        []uint16 // len == SamplesNumber, copied out of the decode buffer
	Gates          [][]uint8 // len == GatesNumber, each of len SamplesNumber, view into the decode buffer
}

// Size returns the total wire size of the event: header + samples + gates.
func (w WaveformEvent) Size() int {
	n := int(w.SamplesNumber)
	return WaveformHeaderSize + 2*n + int(w.GatesNumber)*n
}

// EncodeWaveform serializes a single waveform event into its wire layout.
func EncodeWaveform(w WaveformEvent) []byte {
	buf := make([]byte, w.Size())
	encodeWaveformInto(buf, w)
	return buf
}

// EncodeWaveforms concatenates the wire encoding of multiple waveform
// events, matching invariant I2 (a concatenation of complete waveform
// events summing to exactly N bytes).
func EncodeWaveforms(events []WaveformEvent) []byte {
	total := 0
	for _, w := range events {
		total += w.Size()
	}
	buf := make([]byte, total)
	offset := 0
	for _, w := range events {
		encodeWaveformInto(buf[offset:], w)
		offset += w.Size()
	}
	return buf
}

func encodeWaveformInto(b []byte, w WaveformEvent) {
	binary.LittleEndian.PutUint64(b[0:8], w.Timestamp)
	b[8] = w.Channel
	binary.LittleEndian.PutUint32(b[9:13], w.SamplesNumber)
	b[13] = w.GatesNumber

	n := int(w.SamplesNumber)
	offset := WaveformHeaderSize
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(b[offset+2*i:offset+2*i+2], w.Samples[i])
	}
	offset += 2 * n

	for g := 0; g < int(w.GatesNumber); g++ {
		copy(b[offset:offset+n], w.Gates[g])
		offset += n
	}
}

// decodeWaveformAt decodes the waveform event at the start of buf,
// returning the event (its Gates alias buf, its Samples are copied) and
// the number of bytes it consumed.
// It returns an error without modifying state if the header declares a
// size larger than the remaining buffer.
func decodeWaveformAt(buf []byte) (WaveformEvent, int, error) {
	if len(buf) < WaveformHeaderSize {
		return WaveformEvent{}, 0, &DecodeError{Kind: ErrTruncated, Detail: "waveform header truncated"}
	}

	w := WaveformEvent{
		Timestamp:     binary.LittleEndian.Uint64(buf[0:8]),
		Channel:       buf[8],
		SamplesNumber: binary.LittleEndian.Uint32(buf[9:13]),
		GatesNumber:   buf[13],
	}

	n := int(w.SamplesNumber)
	total := w.Size()
	if len(buf) < total {
		return WaveformEvent{}, 0, &DecodeError{Kind: ErrTruncated, Detail: "waveform payload truncated"}
	}

	offset := WaveformHeaderSize
	samples := make([]uint16, n)
	for i := 0; i < n; i++ {
		samples[i] = binary.LittleEndian.Uint16(buf[offset+2*i : offset+2*i+2])
	}
	w.Samples = samples
	offset += 2 * n

	if w.GatesNumber > 0 {
		gates := make([][]uint8, w.GatesNumber)
		for g := 0; g < int(w.GatesNumber); g++ {
			gates[g] = buf[offset : offset+n : offset+n]
			offset += n
		}
		w.Gates = gates
	}

	return w, total, nil
}

// DecodeWaveforms validates invariant I2 (the buffer is a concatenation
// of complete waveform events summing to exactly len(buf) bytes) and
// decodes every event. On any truncation it returns an error and no
// records — partial decoding is forbidden.
func DecodeWaveforms(buf []byte) ([]WaveformEvent, error) {
	var events []WaveformEvent
	offset := 0
	for offset < len(buf) {
		w, n, err := decodeWaveformAt(buf[offset:])
		if err != nil {
			return nil, err
		}
		events = append(events, w)
		offset += n
	}
	return events, nil
}
