// Command dasa runs the log-writer sink stage (spec §4.7), named after
// the original implementation's own state for this process
// (`include/states.hpp`). It subscribes to the full envelope stream
// and appends the three parallel `.ade`/`.adw`/`.adr` files, opened on
// an `add_file` command and closed on `stop` or shutdown.
package main

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ec-jrc/abcd-go/internal/cli"
	"github.com/ec-jrc/abcd-go/internal/config"
	"github.com/ec-jrc/abcd-go/internal/control"
	"github.com/ec-jrc/abcd-go/internal/logwriter"
	"github.com/ec-jrc/abcd-go/internal/opstage"
	"github.com/ec-jrc/abcd-go/pkg/log"
	"github.com/ec-jrc/abcd-go/pkg/wire"
)

type fileConfig struct {
	config.Common
}

type addFileArgs struct {
	Filename string `json:"filename"`
}

// hooks wraps opstage.Base to intercept the add_file command itself
// (the generic dispatcher only recognises the system-wide vocabulary,
// spec §4.3) and to flush/close the log writer around status
// publication and stop.
type hooks struct {
	*opstage.Base
	lw *logwriter.LogWriter
}

func (h *hooks) ReceiveCommand() (control.Command, bool) {
	cmd, ok := h.Base.ReceiveCommand()
	if ok && cmd.Name == control.CmdAddFile {
		var args addFileArgs
		if err := json.Unmarshal(cmd.Arguments, &args); err != nil || args.Filename == "" {
			log.Warnf("dasa: malformed add_file command: %v", err)
			return cmd, ok
		}
		if err := h.lw.Open(args.Filename); err != nil {
			log.Errorf("dasa: %s", err)
		}
	}
	return cmd, ok
}

func (h *hooks) PublishStatus() error {
	if err := h.lw.Flush(); err != nil {
		log.Warnf("dasa: %s", err)
	}
	return h.Base.PublishStatus()
}

func (h *hooks) StopAcquisition() {
	h.Base.StopAcquisition()
	if err := h.lw.Close(); err != nil {
		log.Errorf("dasa: %s", err)
	}
}

func (h *hooks) DestroyDevice() {
	h.Base.DestroyDevice()
	if h.lw.IsOpen() {
		_ = h.lw.Close()
	}
}

func main() {
	flags := cli.Parse("dasa")

	var fc fileConfig
	if err := config.Load(flags.ConfigFile, true, &fc); err != nil {
		log.Fatalf("dasa: %s", err)
	}
	if flags.StatusAddress != "" {
		fc.StatusAddress = flags.StatusAddress
	}
	if flags.InputAddress != "" {
		fc.InputAddress = flags.InputAddress
	}
	if flags.CommandsAddress != "" {
		fc.CommandsAddress = flags.CommandsAddress
	}

	lw := &logwriter.LogWriter{}

	base := opstage.New("dasa", opstage.Addresses{
		Status:   fc.StatusAddress,
		Input:    fc.InputAddress,
		Commands: fc.CommandsAddress,
	})

	base.OnReadData = func() (bool, error) {
		env, ok := base.RecvEnvelope()
		if !ok {
			return false, nil
		}
		if !lw.IsOpen() {
			return false, nil
		}
		if err := lw.WriteEnvelope(env.Topic, env.Payload); err != nil {
			return false, err
		}

		// Data topics are data_<producer>_{events,waveforms}_v0...:
		// KindProducer returns kind "data" and the stream in the producer.
		kind, producer := env.Topic.KindProducer()
		switch {
		case kind == "data" && strings.HasSuffix(producer, "_events"):
			if err := lw.WriteEvents(env.Payload); err != nil {
				return false, err
			}
		case kind == "data" && strings.HasSuffix(producer, "_waveforms"):
			if err := lw.WriteWaveforms(env.Payload); err != nil {
				return false, err
			}
		}
		return true, nil
	}
	base.PendingCount = func() int { return 0 } // dasa writes through on every tick, nothing buffered across ticks
	base.OnPublishData = func() error { return nil }
	base.ExtraStatus = func() map[string]any {
		ade, adw, adr := lw.Sizes()
		return map[string]any{
			"file_open":  lw.IsOpen(),
			"ade_bytes":  ade,
			"adw_bytes":  adw,
			"adr_bytes":  adr,
		}
	}

	h := &hooks{Base: base, lw: lw}

	opstage.Run(context.Background(), h,
		fc.BasePeriod(), fc.StatusPublishPeriod(), fc.DataPublishTimeout(), fc.HighWaterMarkOrDefault())
}
