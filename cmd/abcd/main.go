// Command abcd runs the acquisition source stage (spec §4.4): polls an
// acquisition.SimulatedSource (a seeded pulse generator; no hardware
// digitizer driver is wired in) on every tick and publishes the
// resulting PSD events and, optionally, waveforms.
package main

import (
	"context"
	"encoding/json"

	"github.com/ec-jrc/abcd-go/internal/acquisition"
	"github.com/ec-jrc/abcd-go/internal/cli"
	"github.com/ec-jrc/abcd-go/internal/config"
	"github.com/ec-jrc/abcd-go/internal/opstage"
	"github.com/ec-jrc/abcd-go/pkg/log"
	"github.com/ec-jrc/abcd-go/pkg/wire"
)

type fileConfig struct {
	config.Common
	Channels         uint8    `json:"channels,omitempty"`
	RateHz           float64  `json:"rate_hz,omitempty"`
	ClockHz          float64  `json:"clock_hz,omitempty"`
	Seed             int64    `json:"seed,omitempty"`
	WaveformLength   uint32   `json:"waveform_length,omitempty"`
	GateEdges        []uint32 `json:"gate_edges,omitempty"`
	WaveformsEnabled bool     `json:"waveforms_enabled,omitempty"`
	TimestampBits    int      `json:"timestamp_bits,omitempty"`
}

func (fc fileConfig) toSimulatedConfig() acquisition.SimulatedConfig {
	cfg := acquisition.DefaultSimulatedConfig()
	if fc.Channels > 0 {
		cfg.Channels = fc.Channels
	}
	if fc.RateHz > 0 {
		cfg.RateHz = fc.RateHz
	}
	if fc.ClockHz > 0 {
		cfg.ClockHz = fc.ClockHz
	}
	if fc.Seed != 0 {
		cfg.Seed = fc.Seed
	}
	if fc.WaveformLength > 0 {
		cfg.WaveformLength = fc.WaveformLength
	}
	if len(fc.GateEdges) > 0 {
		cfg.GateEdges = fc.GateEdges
	}
	return cfg
}

func (fc fileConfig) offsetStep() uint64 {
	switch fc.TimestampBits {
	case 30:
		return acquisition.OffsetStep30
	case 47:
		return acquisition.OffsetStep47
	case -1:
		return acquisition.OffsetStepNone
	default:
		return acquisition.OffsetStep47
	}
}

func main() {
	flags := cli.Parse("abcd")

	var fc fileConfig
	if err := config.Load(flags.ConfigFile, true, &fc); err != nil {
		log.Fatalf("abcd: %s", err)
	}
	if flags.StatusAddress != "" {
		fc.StatusAddress = flags.StatusAddress
	}
	if flags.DataAddress != "" {
		fc.DataAddress = flags.DataAddress
	}
	if flags.CommandsAddress != "" {
		fc.CommandsAddress = flags.CommandsAddress
	}

	src := acquisition.NewSimulatedSource(fc.toSimulatedConfig(), fc.offsetStep())
	src.SetWaveformCapture(fc.WaveformsEnabled)

	base := opstage.New("abcd", opstage.Addresses{
		Status:   fc.StatusAddress,
		Data:     fc.DataAddress,
		Commands: fc.CommandsAddress,
	})

	var eventBuf, waveformBuf []byte
	var eventCount, waveformCount int
	acquiring := false

	base.OnReadData = func() (bool, error) {
		if !acquiring {
			return false, nil
		}
		events, waveforms, err := src.Poll()
		if err != nil {
			return false, err
		}
		if len(events) > 0 {
			eventBuf = append(eventBuf, wire.EncodeEvents(events)...)
			eventCount += len(events)
		}
		if len(waveforms) > 0 {
			waveformBuf = append(waveformBuf, wire.EncodeWaveforms(waveforms)...)
			waveformCount += len(waveforms)
		}
		return len(events) > 0 || len(waveforms) > 0, nil
	}
	base.PendingCount = func() int { return len(eventBuf)/wire.PSDEventSize + len(waveformBuf) }
	base.OnPublishData = func() error {
		if len(eventBuf) > 0 {
			topic := wire.NewDataTopic("abcd", "events", len(eventBuf))
			if err := base.PublishTopic(topic, eventBuf); err != nil {
				return err
			}
			eventBuf = eventBuf[:0]
		}
		if len(waveformBuf) > 0 {
			topic := wire.NewDataTopic("abcd", "waveforms", len(waveformBuf))
			if err := base.PublishTopic(topic, waveformBuf); err != nil {
				return err
			}
			waveformBuf = waveformBuf[:0]
		}
		return nil
	}
	base.ExtraStatus = func() map[string]any {
		return map[string]any{
			"acquiring":       acquiring,
			"events_total":    eventCount,
			"waveforms_total": waveformCount,
		}
	}
	base.OnApplyReconfigure = func(raw []byte) error {
		var nfc fileConfig
		if err := json.Unmarshal(raw, &nfc); err != nil {
			return err
		}
		src.SetWaveformCapture(nfc.WaveformsEnabled)
		return nil
	}

	hooks := &acqHooks{Base: base, acquiring: &acquiring}

	opstage.Run(context.Background(), hooks,
		fc.BasePeriod(), fc.StatusPublishPeriod(), fc.DataPublishTimeout(), fc.HighWaterMarkOrDefault())
}

// acqHooks overrides the acquisition lifecycle methods the generic
// Base leaves as no-ops: the state machine calls StartAcquisition and
// StopAcquisition around its polling loop (spec §4.4's START_ACQUISITION
// / STOP_ACQUISITION states), and a stage that never turns itself on
// would never emit anything.
type acqHooks struct {
	*opstage.Base
	acquiring *bool
}

func (h *acqHooks) StartAcquisition() error {
	*h.acquiring = true
	return nil
}

func (h *acqHooks) StopAcquisition() {
	*h.acquiring = false
}
