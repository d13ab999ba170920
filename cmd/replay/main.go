// Command replay runs the replay sequencer (spec §4.5.6): republishes
// a previously recorded `.ade`/`.adr` file at a controlled rate. Unlike
// the other stream operators it is not a tick-driven stage.Hooks
// machine: the spec describes replay as a dedicated run loop with its
// own start/stop semantics, so it drives internal/operators/replay
// directly against a single bound publisher socket.
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/ec-jrc/abcd-go/internal/operators/replay"
	"github.com/ec-jrc/abcd-go/internal/transport"
	"github.com/ec-jrc/abcd-go/pkg/log"
)

func main() {
	dataAddr := flag.String("D", "tcp://*:16200", "data PUB socket address")
	path := flag.String("file", "", "path to the .ade/.adr file to replay")
	format := flag.String("format", "ade", "file format: ade or adr")
	chunkBytes := flag.Int("chunk-bytes", 16*64, "bytes per published chunk (.ade only)")
	skip := flag.Int("skip", 0, "number of leading packets/chunks to suppress")
	loop := flag.Bool("loop", false, "restart from the beginning when the file is exhausted")
	periodMs := flag.Int64("period-ms", 10, "delay between published chunks, in milliseconds")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	log.SetComponent("replay")
	if *verbose {
		log.SetVerbosity(1)
	}

	if *path == "" {
		log.Fatalf("replay: -file is required")
	}

	fileFormat := replay.FormatADE
	if *format == "adr" {
		fileFormat = replay.FormatADR
	}

	cfg := replay.Config{
		Path:        *path,
		Format:      fileFormat,
		ChunkBytes:  *chunkBytes,
		SkipPackets: *skip,
		Loop:        *loop,
		BasePeriod:  time.Duration(*periodMs) * time.Millisecond,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pub, err := transport.Bind(ctx, *dataAddr)
	if err != nil {
		log.Fatalf("replay: %s", err)
	}
	defer pub.Close()

	for !pub.SlowJoinerElapsed() {
		time.Sleep(50 * time.Millisecond)
	}

	seq, err := replay.Open(cfg)
	if err != nil {
		log.Fatalf("replay: %s", err)
	}
	defer seq.Close()

	log.Infof("replay: replaying %q (loop=%v) onto %s", *path, *loop, *dataAddr)
	if err := seq.Run(ctx, pub); err != nil && ctx.Err() == nil {
		log.Fatalf("replay: %s", err)
	}
}
