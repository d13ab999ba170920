// Command cofi runs the coincidence filter stage (spec §4.5.1):
// subscribes to an upstream events stream, groups coincident events
// around a set of reference channels, and republishes the groups (and,
// optionally, the unmatched anticoincidence events).
package main

import (
	"context"
	"encoding/json"

	"github.com/ec-jrc/abcd-go/internal/cli"
	"github.com/ec-jrc/abcd-go/internal/config"
	"github.com/ec-jrc/abcd-go/internal/opstage"
	"github.com/ec-jrc/abcd-go/internal/operators/cofi"
	"github.com/ec-jrc/abcd-go/pkg/log"
	"github.com/ec-jrc/abcd-go/pkg/wire"
)

type fileConfig struct {
	config.Common
	References              []int `json:"references,omitempty"`
	LeftWindow              int64 `json:"left_window,omitempty"`
	RightWindow             int64 `json:"right_window,omitempty"`
	MinMultiplicity         int   `json:"min_multiplicity,omitempty"`
	KeepUnmatchedReferences bool  `json:"keep_unmatched_references,omitempty"`
	Anticoincidences        bool  `json:"anticoincidences,omitempty"`
}

func (fc fileConfig) toCofiConfig() cofi.Config {
	refs := make(map[uint8]bool, len(fc.References))
	for _, r := range fc.References {
		refs[uint8(r)] = true
	}
	cfg := cofi.Config{
		References:              refs,
		LeftWindow:              fc.LeftWindow,
		RightWindow:             fc.RightWindow,
		MinMultiplity:           fc.MinMultiplicity,
		KeepUnmatchedReferences: fc.KeepUnmatchedReferences,
		Anticoincidences:        fc.Anticoincidences,
		GrowthMultiplier:        cofi.DefaultGrowthMultiplier,
	}
	if cfg.MinMultiplity <= 0 {
		cfg.MinMultiplity = 1
	}
	return cfg
}

func main() {
	flags := cli.Parse("cofi")

	fc := fileConfig{MinMultiplicity: 1}
	if err := config.Load(flags.ConfigFile, true, &fc); err != nil {
		log.Fatalf("cofi: %s", err)
	}
	cfg := fc.toCofiConfig()

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

	base := opstage.New("cofi", opstage.Addresses{
		Status:   fc.StatusAddress,
		Data:     fc.DataAddress,
		Input:    fc.InputAddress,
		Commands: fc.CommandsAddress,
	})

	var outBuf []byte
	var anticoincidentCount int

	base.OnReadData = func() (bool, error) {
		env, ok := base.RecvEnvelope()
		if !ok {
			return false, nil
		}
		events, err := wire.DecodeEvents(env.Payload)
		if err != nil {
			return false, err
		}
		groups, anti := cofi.FilterEvents(events, cfg)
		maxBytes := len(events) * wire.PSDEventSize * cfg.GrowthMultiplier
		outBuf = append(outBuf, cofi.EncodeGroups(groups, maxBytes)...)
		if cfg.Anticoincidences {
			outBuf = append(outBuf, wire.EncodeEvents(anti)...)
			anticoincidentCount += len(anti)
		}
		return len(groups) > 0 || len(anti) > 0, nil
	}
	base.PendingCount = func() int { return len(outBuf) / wire.PSDEventSize }
	base.OnPublishData = func() error {
		if len(outBuf) == 0 {
			return nil
		}
		topic := wire.NewDataTopic("cofi", "events", len(outBuf))
		if err := base.PublishTopic(topic, outBuf); err != nil {
			return err
		}
		outBuf = outBuf[:0]
		return nil
	}
	base.OnApplyReconfigure = func(raw []byte) error {
		var nfc fileConfig
		nfc.Common = fc.Common
		if err := json.Unmarshal(raw, &nfc); err != nil {
			return err
		}
		cfg = nfc.toCofiConfig()
		return nil
	}
	base.ExtraStatus = func() map[string]any {
		return map[string]any{"anticoincident_events": anticoincidentCount}
	}

	opstage.Run(context.Background(), base,
		fc.BasePeriod(), fc.StatusPublishPeriod(), fc.DataPublishTimeout(), fc.HighWaterMarkOrDefault())
}
