// Command gzad runs the compressor stage (spec §4.5.4): wraps each
// inbound message's topic and payload under a chosen codec and
// republishes it under a compressed-envelope topic.
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
	Algorithm string `json:"algorithm,omitempty"`
}

func main() {
	flags := cli.Parse("gzad")

	fc := fileConfig{Algorithm: gzad.AlgoZlib}
	if err := config.Load(flags.ConfigFile, true, &fc); err != nil {
		log.Fatalf("gzad: %s", err)
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
	algo := fc.Algorithm

	base := opstage.New("gzad", opstage.Addresses{
		Status:   fc.StatusAddress,
		Data:     fc.DataAddress,
		Input:    fc.InputAddress,
		Commands: fc.CommandsAddress,
	})

	var outTopic wire.Topic
	var outPayload []byte

	base.OnReadData = func() (bool, error) {
		env, ok := base.RecvEnvelope()
		if !ok {
			return false, nil
		}
		topic, payload, err := gzad.Compress(algo, env.Topic, env.Payload)
		if err != nil {
			return false, err
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
		nfc := fileConfig{Algorithm: algo}
		if err := json.Unmarshal(raw, &nfc); err != nil {
			return err
		}
		algo = nfc.Algorithm
		return nil
	}
	base.ExtraStatus = func() map[string]any {
		return map[string]any{"algorithm": algo}
	}

	opstage.Run(context.Background(), base,
		fc.BasePeriod(), fc.StatusPublishPeriod(), fc.DataPublishTimeout(), fc.HighWaterMarkOrDefault())
}
