// Command unzad runs the decompressor stage (spec §4.5.4): reverses a
// gzad-compressed envelope, dropping messages whose decompressed size
// would exceed the configured bound.
package main

import (
	"context"
	"encoding/json"

	"github.com/ec-jrc/abcd-go/internal/cli"
	"github.com/ec-jrc/abcd-go/internal/config"
	"github.com/ec-jrc/abcd-go/internal/opstage"
	"github.com/ec-jrc/abcd-go/internal/operators/gzad"
	"github.com/ec-jrc/abcd-go/pkg/log"
	"github.com/ec-jrc/abcd-go/pkg/wire"
)

type fileConfig struct {
	config.Common
	MaxOutputMultiplier int `json:"max_output_multiplier,omitempty"`
}

func main() {
	flags := cli.Parse("unzad")

	fc := fileConfig{MaxOutputMultiplier: gzad.MaxOutputMultiplier}
	if err := config.Load(flags.ConfigFile, true, &fc); err != nil {
		log.Fatalf("unzad: %s", err)
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
	multiplier := fc.MaxOutputMultiplier

	base := opstage.New("unzad", opstage.Addresses{
		Status:   fc.StatusAddress,
		Data:     fc.DataAddress,
		Input:    fc.InputAddress,
		Commands: fc.CommandsAddress,
	})

	var outTopic wire.Topic
	var outPayload []byte
	var droppedOverflow int

	base.OnReadData = func() (bool, error) {
		env, ok := base.RecvEnvelope()
		if !ok {
			return false, nil
		}
		maxBytes := len(env.Payload) * multiplier
		topic, payload, err := gzad.Decompress(env.Topic, env.Payload, maxBytes)
		if err != nil {
			droppedOverflow++
			log.Warnf("unzad: dropping message: %s", err)
			return false, nil
		}
		if outPayload != nil {
			// Publish the previous message before its slot is reused.
			if err := base.PublishTopic(outTopic, outPayload); err != nil {
				return false, err
			}
		}
		outTopic, outPayload = topic, payload
		return true, nil
	}
	base.PendingCount = func() int {
		if outPayload == nil {
			return 0
		}
		return 1
	}
	base.OnPublishData = func() error {
		if outPayload == nil {
			return nil
		}
		if err := base.PublishTopic(outTopic, outPayload); err != nil {
			return err
		}
		outPayload = nil
		return nil
	}
	base.OnApplyReconfigure = func(raw []byte) error {
		nfc := fileConfig{MaxOutputMultiplier: multiplier}
		if err := json.Unmarshal(raw, &nfc); err != nil {
			return err
		}
		multiplier = nfc.MaxOutputMultiplier
		return nil
	}
	base.ExtraStatus = func() map[string]any {
		return map[string]any{"dropped_overflow": droppedOverflow}
	}

	opstage.Run(context.Background(), base,
		fc.BasePeriod(), fc.StatusPublishPeriod(), fc.DataPublishTimeout(), fc.HighWaterMarkOrDefault())
}
