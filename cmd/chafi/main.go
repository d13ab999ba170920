// Command chafi runs the channel filter stage (spec §4.5.3): keeps
// only the events/waveforms whose channel is in a configured allow-set,
// preserving their relative order.
package main

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ec-jrc/abcd-go/internal/cli"
	"github.com/ec-jrc/abcd-go/internal/config"
	"github.com/ec-jrc/abcd-go/internal/opstage"
	"github.com/ec-jrc/abcd-go/internal/operators/chafi"
	"github.com/ec-jrc/abcd-go/pkg/log"
	"github.com/ec-jrc/abcd-go/pkg/wire"
)

type fileConfig struct {
	config.Common
	Channels []int `json:"channels,omitempty"`
}

func (fc fileConfig) toChafiConfig() chafi.Config {
	set := make(map[uint8]bool, len(fc.Channels))
	for _, c := range fc.Channels {
		set[uint8(c)] = true
	}
	return chafi.Config{Channels: set}
}

func main() {
	flags := cli.Parse("chafi")

	var fc fileConfig
	if err := config.Load(flags.ConfigFile, true, &fc); err != nil {
		log.Fatalf("chafi: %s", err)
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
	cfg := fc.toChafiConfig()

	base := opstage.New("chafi", opstage.Addresses{
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
		isWaveform = strings.Contains(string(env.Topic), "_waveform")

		var filtered []byte
		var err error
		if isWaveform {
			filtered, err = chafi.FilterWaveforms(env.Payload, cfg)
		} else {
			filtered, err = chafi.FilterEvents(env.Payload, cfg)
		}
		if err != nil {
			return false, err
		}
		outBuf = append(outBuf, filtered...)
		return len(filtered) > 0, nil
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
		topic := wire.NewDataTopic("chafi", kind, len(outBuf))
		if err := base.PublishTopic(topic, outBuf); err != nil {
			return err
		}
		outBuf = outBuf[:0]
		return nil
	}
	base.OnApplyReconfigure = func(raw []byte) error {
		var nfc fileConfig
		if err := json.Unmarshal(raw, &nfc); err != nil {
			return err
		}
		cfg = nfc.toChafiConfig()
		return nil
	}

	opstage.Run(context.Background(), base,
		fc.BasePeriod(), fc.StatusPublishPeriod(), fc.DataPublishTimeout(), fc.HighWaterMarkOrDefault())
}
