// Command adw2ascii dumps a `.adw` waveform file as human-readable
// columns for debugging (spec §4.7, original `convert/adw2ascii.c`):
// one line per waveform header, followed by its samples.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/ec-jrc/abcd-go/pkg/log"
	"github.com/ec-jrc/abcd-go/pkg/wire"
)

func main() {
	in := flag.String("in", "", "input .adw file")
	out := flag.String("out", "", "output text file (defaults to stdout)")
	flag.Parse()

	log.SetComponent("adw2ascii")

	if *in == "" {
		log.Fatalf("adw2ascii: -in is required")
	}

	raw, err := os.ReadFile(*in)
	if err != nil {
		log.Fatalf("adw2ascii: %s", err)
	}

	waveforms, err := wire.DecodeWaveforms(raw)
	if err != nil {
		log.Fatalf("adw2ascii: %s", err)
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("adw2ascii: %s", err)
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	for i, wf := range waveforms {
		fmt.Fprintf(bw, "# waveform %d: timestamp=%d channel=%d samples=%d gates=%d\n",
			i, wf.Timestamp, wf.Channel, wf.SamplesNumber, wf.GatesNumber)
		for s, sample := range wf.Samples {
			fmt.Fprintf(bw, "%d\t%d", s, sample)
			for g := range wf.Gates {
				fmt.Fprintf(bw, "\t%d", wf.Gates[g][s])
			}
			fmt.Fprintln(bw)
		}
	}

	log.Infof("adw2ascii: wrote %d waveforms", len(waveforms))
}
