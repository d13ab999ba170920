// Package replay implements the replay sequencer (spec §4.5.6): reads
// an `.ade` or `.adr` file and republishes its contents at a
// controlled rate, honoring packet skipping and continuous looping.
// Replayed timestamps are never rewritten.
package replay

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ec-jrc/abcd-go/internal/filereader"
	"github.com/ec-jrc/abcd-go/pkg/wire"
)

// Format selects which file layout Sequencer reads.
type Format int

const (
	FormatADE Format = iota
	FormatADR
)

// Config holds the sequencer's tunables.
type Config struct {
	Path        string
	Format      Format
	ChunkBytes  int // .ade only; must be a multiple of wire.PSDEventSize
	SkipPackets int // first N packets/chunks suppressed
	Loop        bool
	BasePeriod  time.Duration
}

// Publisher is the seam to the transport layer; cmd/replay wires it to
// a *transport.PubSocket.
type Publisher interface {
	Send(topic wire.Topic, payload []byte) error
}

// reader is the seam between the two file formats' decoders.
type reader interface {
	next() (wire.Topic, []byte, error)
}

// Sequencer drives one replay run.
type Sequencer struct {
	cfg    Config
	file   *os.File
	reader reader
	skip   int
}

// Open opens cfg.Path for reading and prepares the sequencer.
func Open(cfg Config) (*Sequencer, error) {
	if cfg.Format == FormatADE && (cfg.ChunkBytes <= 0 || cfg.ChunkBytes%wire.PSDEventSize != 0) {
		return nil, fmt.Errorf("replay: chunk size %d is not a positive multiple of %d", cfg.ChunkBytes, wire.PSDEventSize)
	}
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("replay: open %q: %w", cfg.Path, err)
	}
	s := &Sequencer{cfg: cfg, file: f, skip: cfg.SkipPackets}
	s.attachReader()
	return s, nil
}

func (s *Sequencer) attachReader() {
	switch s.cfg.Format {
	case FormatADE:
		s.reader = chunkReader{r: filereader.NewADEReader(s.file), size: s.cfg.ChunkBytes}
	case FormatADR:
		s.reader = envelopeReader{r: filereader.NewADRReader(s.file)}
	}
}

// Close releases the underlying file.
func (s *Sequencer) Close() error { return s.file.Close() }

// rewind seeks back to the start of the file for looping and rebuilds
// the reader, since the `.adr` reader buffers internally.
func (s *Sequencer) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	s.attachReader()
	return nil
}

type chunkReader struct {
	r    *filereader.ADEReader
	size int
}

func (c chunkReader) next() (wire.Topic, []byte, error) { return c.r.ReadChunk(c.size) }

type envelopeReader struct{ r *filereader.ADRReader }

func (e envelopeReader) next() (wire.Topic, []byte, error) { return e.r.ReadEnvelope() }

// Run drives the sequencer until the file (or, with Loop, the context)
// is exhausted, calling publish for every chunk/envelope not
// suppressed by SkipPackets, sleeping BasePeriod between them so
// downstream queues do not fill (spec §4.5.6).
func (s *Sequencer) Run(ctx context.Context, publish Publisher) error {
	for {
		topic, payload, err := s.next()
		if err == io.EOF {
			if !s.cfg.Loop {
				return nil
			}
			if err := s.rewind(); err != nil {
				return fmt.Errorf("replay: rewind: %w", err)
			}
			continue
		}
		if err != nil {
			return err
		}

		if s.skip > 0 {
			s.skip--
		} else if err := publish.Send(topic, payload); err != nil {
			return fmt.Errorf("replay: publish: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.BasePeriod):
		}
	}
}

func (s *Sequencer) next() (wire.Topic, []byte, error) {
	if s.reader == nil {
		return "", nil, fmt.Errorf("replay: unknown format %v", s.cfg.Format)
	}
	return s.reader.next()
}
