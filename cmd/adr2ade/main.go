// Command adr2ade extracts the events sub-stream out of a
// heterogeneous `.adr` recording into a bare `.ade` file (spec
// §4.7/§4.8, original `convert/adr2ade.c`).
package main

import (
	"errors"
	"flag"
	"io"
	"os"
	"strings"

	"github.com/ec-jrc/abcd-go/internal/filereader"
	"github.com/ec-jrc/abcd-go/pkg/log"
)

func main() {
	in := flag.String("in", "", "input .adr file")
	out := flag.String("out", "", "output .ade file")
	flag.Parse()

	log.SetComponent("adr2ade")

	if *in == "" || *out == "" {
		log.Fatalf("adr2ade: -in and -out are required")
	}

	inFile, err := os.Open(*in)
	if err != nil {
		log.Fatalf("adr2ade: %s", err)
	}
	defer inFile.Close()

	outFile, err := os.Create(*out)
	if err != nil {
		log.Fatalf("adr2ade: %s", err)
	}
	defer outFile.Close()

	reader := filereader.NewADRReader(inFile)
	var written, skipped int

	for {
		topic, payload, err := reader.ReadEnvelope()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Fatalf("adr2ade: %s", err)
		}

		// Event data travels on data_<producer>_events_v0..., which
		// KindProducer splits as kind "data", producer "<producer>_events".
		kind, producer := topic.KindProducer()
		if kind != "data" || !strings.HasSuffix(producer, "_events") {
			skipped++
			continue
		}
		if _, err := outFile.Write(payload); err != nil {
			log.Fatalf("adr2ade: write: %s", err)
		}
		written++
	}

	log.Infof("adr2ade: wrote %d event messages (%d non-event messages skipped)", written, skipped)
}
