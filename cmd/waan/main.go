// Command waan runs the waveform analyzer host stage (spec §4.5.7):
// turns inbound waveforms into PSD events, channel by channel,
// optionally republishing the original waveforms alongside.
package main

import (
	"context"
	"encoding/json"

	"github.com/ec-jrc/abcd-go/internal/cli"
	"github.com/ec-jrc/abcd-go/internal/config"
	"github.com/ec-jrc/abcd-go/internal/opstage"
	"github.com/ec-jrc/abcd-go/internal/operators/waan"
	"github.com/ec-jrc/abcd-go/pkg/log"
	"github.com/ec-jrc/abcd-go/pkg/wire"
)

type fileConfig struct {
	config.Common
	PassthroughWaveforms bool `json:"passthrough_waveforms,omitempty"`
}

func main() {
	flags := cli.Parse("waan")

	var fc fileConfig
	if err := config.Load(flags.ConfigFile, true, &fc); err != nil {
		log.Fatalf("waan: %s", err)
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

	host := waan.NewHost()
	host.PassthroughWaveforms = fc.PassthroughWaveforms

	base := opstage.New("waan", opstage.Addresses{
		Status:   fc.StatusAddress,
		Data:     fc.DataAddress,
		Input:    fc.InputAddress,
		Commands: fc.CommandsAddress,
	})

	var eventBuf, waveformBuf []byte

	base.OnReadData = func() (bool, error) {
		env, ok := base.RecvEnvelope()
		if !ok {
			return false, nil
		}
		waveforms, err := wire.DecodeWaveforms(env.Payload)
		if err != nil {
			return false, err
		}
		events, passthrough := host.Process(waveforms)
		if len(events) > 0 {
			eventBuf = append(eventBuf, wire.EncodeEvents(events)...)
		}
		if len(passthrough) > 0 {
			waveformBuf = append(waveformBuf, wire.EncodeWaveforms(passthrough)...)
		}
		return len(events) > 0 || len(passthrough) > 0, nil
	}
	base.PendingCount = func() int { return len(eventBuf)/wire.PSDEventSize + len(waveformBuf) }
	base.OnPublishData = func() error {
		if len(eventBuf) > 0 {
			topic := wire.NewDataTopic("waan", "events", len(eventBuf))
			if err := base.PublishTopic(topic, eventBuf); err != nil {
				return err
			}
			eventBuf = eventBuf[:0]
		}
		if len(waveformBuf) > 0 {
			topic := wire.NewDataTopic("waan", "waveforms", len(waveformBuf))
			if err := base.PublishTopic(topic, waveformBuf); err != nil {
				return err
			}
			waveformBuf = waveformBuf[:0]
		}
		return nil
	}
	base.OnApplyReconfigure = func(raw []byte) error {
		var nfc fileConfig
		if err := json.Unmarshal(raw, &nfc); err != nil {
			return err
		}
		host.PassthroughWaveforms = nfc.PassthroughWaveforms
		return nil
	}

	opstage.Run(context.Background(), base,
		fc.BasePeriod(), fc.StatusPublishPeriod(), fc.DataPublishTimeout(), fc.HighWaterMarkOrDefault())
}
