// Command histo runs the histogram sink stage (spec §4.6): accumulates
// a per-channel qlong spectrum and a qshort-vs-qlong PSD scatter from
// inbound events, publishing both as status extras, and clears all
// bins on a `reset` command.
package main

import (
	"context"
	"sort"
	"strings"

	"github.com/ec-jrc/abcd-go/internal/cli"
	"github.com/ec-jrc/abcd-go/internal/config"
	"github.com/ec-jrc/abcd-go/internal/control"
	"github.com/ec-jrc/abcd-go/internal/opstage"
	"github.com/ec-jrc/abcd-go/pkg/histogram"
	"github.com/ec-jrc/abcd-go/pkg/log"
	"github.com/ec-jrc/abcd-go/pkg/wire"
)

type fileConfig struct {
	config.Common
	QlongBins int     `json:"qlong_bins,omitempty"`
	QlongMin  float64 `json:"qlong_min,omitempty"`
	QlongMax  float64 `json:"qlong_max,omitempty"`
	PSDBins   int     `json:"psd_bins,omitempty"`
}

func (fc fileConfig) qlongRange() (bins int, min, max float64) {
	bins, min, max = fc.QlongBins, fc.QlongMin, fc.QlongMax
	if bins <= 0 {
		bins = 512
	}
	if max <= min {
		min, max = 0, 65536
	}
	return
}

func (fc fileConfig) psdBins() int {
	if fc.PSDBins > 0 {
		return fc.PSDBins
	}
	return 256
}

type channelHistos struct {
	qlong *histogram.Histogram1D
	psd   *histogram.Histogram2D
}

type store struct {
	byChannel map[uint8]*channelHistos
	qlongBins int
	qlongMin  float64
	qlongMax  float64
	psdBins   int
}

func newStore(fc fileConfig) *store {
	bins, min, max := fc.qlongRange()
	return &store{
		byChannel: make(map[uint8]*channelHistos),
		qlongBins: bins,
		qlongMin:  min,
		qlongMax:  max,
		psdBins:   fc.psdBins(),
	}
}

func (s *store) forChannel(ch uint8) *channelHistos {
	if c, ok := s.byChannel[ch]; ok {
		return c
	}
	qlong, err := histogram.New1D(s.qlongBins, s.qlongMin, s.qlongMax)
	if err != nil {
		log.Fatalf("histo: %s", err)
	}
	psd, err := histogram.New2D(s.psdBins, s.qlongMin, s.qlongMax, s.psdBins, 0, 1)
	if err != nil {
		log.Fatalf("histo: %s", err)
	}
	c := &channelHistos{qlong: qlong, psd: psd}
	s.byChannel[ch] = c
	return c
}

func (s *store) fill(e wire.PSDEvent) {
	c := s.forChannel(e.Channel)
	c.qlong.Fill(float64(e.Qlong))
	ratio := 0.0
	if e.Qlong > 0 {
		ratio = float64(e.Qlong-e.Qshort) / float64(e.Qlong)
	}
	c.psd.Fill(float64(e.Qlong), ratio)
}

func (s *store) reset() {
	for _, c := range s.byChannel {
		c.qlong.Reset()
		c.psd.Reset()
	}
}

func (s *store) snapshot() map[string]any {
	out := make(map[string]any, len(s.byChannel))
	channels := make([]uint8, 0, len(s.byChannel))
	for ch := range s.byChannel {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })
	for _, ch := range channels {
		c := s.byChannel[ch]
		out[channelKey(ch)] = map[string]any{"qlong": c.qlong, "psd": c.psd}
	}
	return out
}

func channelKey(ch uint8) string {
	const hex = "0123456789abcdef"
	return "channel_" + string([]byte{hex[ch/16], hex[ch%16]})
}

type hooks struct {
	*opstage.Base
	store *store
}

func (h *hooks) ReceiveCommand() (control.Command, bool) {
	cmd, ok := h.Base.ReceiveCommand()
	if ok && cmd.Name == control.CmdReset {
		h.store.reset()
	}
	return cmd, ok
}

func main() {
	flags := cli.Parse("histo")

	var fc fileConfig
	if err := config.Load(flags.ConfigFile, true, &fc); err != nil {
		log.Fatalf("histo: %s", err)
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

	st := newStore(fc)

	base := opstage.New("histo", opstage.Addresses{
		Status:   fc.StatusAddress,
		Input:    fc.InputAddress,
		Commands: fc.CommandsAddress,
	})

	base.OnReadData = func() (bool, error) {
		env, ok := base.RecvEnvelope()
		if !ok {
			return false, nil
		}
		// Only data_<producer>_events_v0... topics carry PSD events.
		kind, producer := env.Topic.KindProducer()
		if kind != "data" || !strings.HasSuffix(producer, "_events") {
			return false, nil
		}
		events, err := wire.DecodeEvents(env.Payload)
		if err != nil {
			return false, err
		}
		for _, e := range events {
			st.fill(e)
		}
		return len(events) > 0, nil
	}
	base.PendingCount = func() int { return 0 }
	base.OnPublishData = func() error { return nil }
	base.ExtraStatus = func() map[string]any {
		return map[string]any{"histograms": st.snapshot()}
	}

	h := &hooks{Base: base, store: st}

	opstage.Run(context.Background(), h,
		fc.BasePeriod(), fc.StatusPublishPeriod(), fc.DataPublishTimeout(), fc.HighWaterMarkOrDefault())
}
