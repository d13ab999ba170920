// Package cli wraps the standard flag package with the surface every
// stage binary shares (spec §6: "every stage accepts at minimum: -S
// <status_addr>, -D <data_addr>, -A <input_addr>, -C <commands_addr>,
// -T <base_period_ms>, -f <config_file>, -v/-V, -h"), following
// cmd/cc-backend/main.go's flat flag.StringVar/BoolVar-into-a-struct
// convention.
package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/gops/agent"

	"github.com/ec-jrc/abcd-go/pkg/log"
)

// Flags holds every value the shared surface can set. A stage binary
// embeds this (or reads the fields it cares about) after calling Parse.
type Flags struct {
	StatusAddress   string
	DataAddress     string
	InputAddress    string
	CommandsAddress string
	BasePeriodMs    int
	ConfigFile      string
	Verbose         bool
	VeryVerbose     bool
	Gops            bool

	verbosity int
}

// Parse registers the shared surface on flag.CommandLine, appends any
// stage-specific flags the caller already registered, and parses
// os.Args[1:]. component names the binary in log lines and the -h
// usage banner (e.g. "cofi").
func Parse(component string) *Flags {
	f := &Flags{}

	flag.StringVar(&f.StatusAddress, "S", "", "status publisher address, e.g. tcp://*:16180")
	flag.StringVar(&f.DataAddress, "D", "", "data publisher address, e.g. tcp://*:16181")
	flag.StringVar(&f.InputAddress, "A", "", "input subscriber address, e.g. tcp://127.0.0.1:16181")
	flag.StringVar(&f.CommandsAddress, "C", "", "commands intake address, e.g. tcp://*:16182")
	flag.IntVar(&f.BasePeriodMs, "T", 0, "base tick period in milliseconds; parsed but not applied (the tick period comes from base_period_ms in the -f file, default 10)")
	flag.StringVar(&f.ConfigFile, "f", "", "JSON configuration file")
	flag.BoolVar(&f.Verbose, "v", false, "verbose logging (info level)")
	flag.BoolVar(&f.VeryVerbose, "V", false, "very verbose logging (debug level)")
	flag.BoolVar(&f.Gops, "gops", false, "listen via github.com/google/gops/agent (for debugging)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags]\n", component)
		flag.PrintDefaults()
	}
	flag.Parse()

	switch {
	case f.VeryVerbose:
		f.verbosity = 2
	case f.Verbose:
		f.verbosity = 1
	}

	log.SetComponent(component)
	log.SetVerbosity(f.verbosity)

	if f.Gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Fatalf("gops/agent.Listen failed: %s", err)
		}
	}

	return f
}
