package acquisition

import "github.com/ec-jrc/abcd-go/pkg/wire"

// Source is the contract every acquisition backend (digitizer driver or
// replay file) satisfies (spec §4.4): it yields PSD events and,
// optionally, parallel waveform events, with timestamps already
// unwrapped to 64 bits. Poll must not block for longer than the
// caller's tick budget; a source with nothing ready returns a nil slice
// and a nil error.
type Source interface {
	Poll() (events []wire.PSDEvent, waveforms []wire.WaveformEvent, err error)
	Close() error
}

// WaveformCapture reports whether a Source is currently producing
// waveform events alongside PSD events, toggled by configuration.
type WaveformCapture interface {
	SetWaveformCapture(enabled bool)
}
