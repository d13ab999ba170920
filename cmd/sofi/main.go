// Command sofi runs the temporal sorter stage (spec §4.5.2): buffers
// one inbound message's events (or waveforms) and republishes them
// sorted by timestamp, stable with respect to ties.
package main

import (
	"context"
	"strings"

	"github.com/ec-jrc/abcd-go/internal/cli"
	"github.com/ec-jrc/abcd-go/internal/config"
	"github.com/ec-jrc/abcd-go/internal/opstage"
	"github.com/ec-jrc/abcd-go/internal/operators/sofi"
	"github.com/ec-jrc/abcd-go/pkg/log"
	"github.com/ec-jrc/abcd-go/pkg/wire"
)

type fileConfig struct {
	config.Common
}

func main() {
	flags := cli.Parse("sofi")

	var fc fileConfig
	if err := config.Load(flags.ConfigFile, true, &fc); err != nil {
		log.Fatalf("sofi: %s", err)
	}
	if flags.StatusAddress != "" {
		fc.StatusAddress = flags.StatusAddress
	}
	if flags.DataAddress != "" {
		fc.DataAddress = flags.DataAddress
	}
	if flags.InputAddress != "" {
		fc.InputAddress = flags.InputAddress
	}
	if flags.CommandsAddress != "" {
		fc.CommandsAddress = flags.CommandsAddress
	}

	base := opstage.New("sofi", opstage.Addresses{
		Status:   fc.StatusAddress,
		Data:     fc.DataAddress,
		Input:    fc.InputAddress,
		Commands: fc.CommandsAddress,
	})

	var outBuf []byte
	var isWaveform bool

	base.OnReadData = func() (bool, error) {
		env, ok := base.RecvEnvelope()
		if !ok {
			return false, nil
		}

		isWaveform = topicIsWaveform(env.Topic)

		var sorted []byte
		var err error
		if isWaveform {
			sorted, err = sofi.SortWaveforms(env.Payload)
		} else {
			sorted, err = sofi.SortEvents(env.Payload)
		}
		if err != nil {
			return false, err
		}
		outBuf = append(outBuf, sorted...)
		return len(sorted) > 0, nil
	}
	base.PendingCount = func() int { return len(outBuf) / wire.PSDEventSize }
	base.OnPublishData = func() error {
		if len(outBuf) == 0 {
			return nil
		}
		kind := "events"
		if isWaveform {
			kind = "waveforms"
		}
		topic := wire.NewDataTopic("sofi", kind, len(outBuf))
		if err := base.PublishTopic(topic, outBuf); err != nil {
			return err
		}
		outBuf = outBuf[:0]
		return nil
	}

	opstage.Run(context.Background(), base,
		fc.BasePeriod(), fc.StatusPublishPeriod(), fc.DataPublishTimeout(), fc.HighWaterMarkOrDefault())
}

// topicIsWaveform distinguishes an inbound waveform stream from an
// events stream by its topic's kind segment (spec §4.2's
// `data_<producer>_<kind>_v0_s<size>` grammar).
func topicIsWaveform(t wire.Topic) bool {
	return strings.Contains(string(t), "_waveform")
}
