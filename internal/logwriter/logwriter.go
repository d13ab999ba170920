// Package logwriter implements the three parallel append-only files
// every run produces (spec §4.7): `.ade` (bare PSD-event records),
// `.adw` (bare waveform records), and `.adr` (the full envelope
// stream, topic-framed, suitable for lossless replay). Grounded on the
// teacher's pkg/archive filesystem backend: buffered os.File writers,
// flushed on command or periodically rather than after every write.
package logwriter

import (
	"bufio"
	"fmt"
	"os"

	"github.com/ec-jrc/abcd-go/pkg/wire"
)

// LogWriter owns the three files of one run. A zero LogWriter has no
// files open; Open must be called before any Write* method.
type LogWriter struct {
	ade *bufio.Writer
	adw *bufio.Writer
	adr *bufio.Writer

	adeFile *os.File
	adwFile *os.File
	adrFile *os.File

	adeSize int64
	adwSize int64
	adrSize int64
}

// Open creates (or truncates) baseFilename+".ade"/".adw"/".adr" and
// keeps them open for appending, triggered by the command that carries
// the base filename (spec §4.7).
func (l *LogWriter) Open(baseFilename string) error {
	if l.IsOpen() {
		return fmt.Errorf("logwriter: already open, call Close first")
	}

	var err error
	if l.adeFile, err = os.Create(baseFilename + ".ade"); err != nil {
		return fmt.Errorf("logwriter: open .ade: %w", err)
	}
	if l.adwFile, err = os.Create(baseFilename + ".adw"); err != nil {
		l.adeFile.Close()
		return fmt.Errorf("logwriter: open .adw: %w", err)
	}
	if l.adrFile, err = os.Create(baseFilename + ".adr"); err != nil {
		l.adeFile.Close()
		l.adwFile.Close()
		return fmt.Errorf("logwriter: open .adr: %w", err)
	}

	l.ade = bufio.NewWriter(l.adeFile)
	l.adw = bufio.NewWriter(l.adwFile)
	l.adr = bufio.NewWriter(l.adrFile)
	l.adeSize, l.adwSize, l.adrSize = 0, 0, 0
	return nil
}

// IsOpen reports whether a run is currently being written.
func (l *LogWriter) IsOpen() bool { return l.adeFile != nil }

// WriteEvents appends raw PSD-event bytes (already `EncodeEvents`'d) to
// the `.ade` file.
func (l *LogWriter) WriteEvents(buf []byte) error {
	n, err := l.ade.Write(buf)
	l.adeSize += int64(n)
	if err != nil {
		return fmt.Errorf("logwriter: write .ade: %w", err)
	}
	return nil
}

// WriteWaveforms appends raw waveform bytes to the `.adw` file.
func (l *LogWriter) WriteWaveforms(buf []byte) error {
	n, err := l.adw.Write(buf)
	l.adwSize += int64(n)
	if err != nil {
		return fmt.Errorf("logwriter: write .adw: %w", err)
	}
	return nil
}

// WriteEnvelope appends one topic-framed envelope, exactly as received,
// to the `.adr` file.
func (l *LogWriter) WriteEnvelope(topic wire.Topic, payload []byte) error {
	buf := wire.JoinEnvelope(topic, payload)
	n, err := l.adr.Write(buf)
	l.adrSize += int64(n)
	if err != nil {
		return fmt.Errorf("logwriter: write .adr: %w", err)
	}
	return nil
}

// Sizes reports the running byte counters for status publication.
func (l *LogWriter) Sizes() (adeBytes, adwBytes, adrBytes int64) {
	return l.adeSize, l.adwSize, l.adrSize
}

// Flush flushes all three buffered writers without closing the files,
// called periodically (every status publication) or on command.
func (l *LogWriter) Flush() error {
	if !l.IsOpen() {
		return nil
	}
	for _, w := range []*bufio.Writer{l.ade, l.adw, l.adr} {
		if err := w.Flush(); err != nil {
			return fmt.Errorf("logwriter: flush: %w", err)
		}
	}
	return nil
}

// Close flushes and closes all three files, triggered by `stop` or
// shutdown. No rotation happens inside the core (spec §4.7).
func (l *LogWriter) Close() error {
	if !l.IsOpen() {
		return nil
	}
	flushErr := l.Flush()

	for _, f := range []*os.File{l.adeFile, l.adwFile, l.adrFile} {
		if cerr := f.Close(); cerr != nil && flushErr == nil {
			flushErr = fmt.Errorf("logwriter: close: %w", cerr)
		}
	}
	l.ade, l.adw, l.adr = nil, nil, nil
	l.adeFile, l.adwFile, l.adrFile = nil, nil, nil
	return flushErr
}
