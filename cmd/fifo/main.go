// Command fifo runs the FIFO expiration buffer stage (spec §4.5.5):
// buffers inbound events, evicts ones older than the configured
// expiration window every tick, and drains the whole buffer on a
// `snapshot` command.
package main

import (
	"context"
	"time"

	"github.com/ec-jrc/abcd-go/internal/cli"
	"github.com/ec-jrc/abcd-go/internal/config"
	"github.com/ec-jrc/abcd-go/internal/control"
	"github.com/ec-jrc/abcd-go/internal/opstage"
	"github.com/ec-jrc/abcd-go/internal/operators/fifo"
	"github.com/ec-jrc/abcd-go/pkg/log"
	"github.com/ec-jrc/abcd-go/pkg/wire"
)

type fileConfig struct {
	config.Common
	ExpirationMs int64 `json:"expiration_ms,omitempty"`
}

// hooks overrides ReceiveCommand so it can intercept the fifo-specific
// `snapshot` command itself: the generic dispatcher only recognises the
// system-wide vocabulary and silently drops anything else, so the
// side effect has to happen here, before the command is handed back.
type hooks struct {
	*opstage.Base
	buf *fifo.Buffer
}

func (h *hooks) ReceiveCommand() (control.Command, bool) {
	cmd, ok := h.Base.ReceiveCommand()
	if ok && cmd.Name == control.CmdSnapshot {
		snapshot := h.buf.Snapshot()
		if len(snapshot) > 0 {
			payload := wire.EncodeEvents(snapshot)
			topic := wire.NewDataTopic("fifo", "snapshot", len(payload))
			_ = h.Base.PublishTopic(topic, payload)
		}
	}
	return cmd, ok
}

func main() {
	flags := cli.Parse("fifo")

	var fc fileConfig
	if err := config.Load(flags.ConfigFile, true, &fc); err != nil {
		log.Fatalf("fifo: %s", err)
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

	expiration := fifo.DefaultExpiration
	if fc.ExpirationMs > 0 {
		expiration = time.Duration(fc.ExpirationMs) * time.Millisecond
	}
	buf := fifo.New(expiration)

	base := opstage.New("fifo", opstage.Addresses{
		Status:   fc.StatusAddress,
		Data:     fc.DataAddress,
		Input:    fc.InputAddress,
		Commands: fc.CommandsAddress,
	})

	base.OnReadData = func() (bool, error) {
		buf.Expire(time.Now())

		env, ok := base.RecvEnvelope()
		if !ok {
			return false, nil
		}
		events, err := wire.DecodeEvents(env.Payload)
		if err != nil {
			return false, err
		}
		for _, e := range events {
			buf.Push(e)
		}
		return len(events) > 0, nil
	}
	base.PendingCount = func() int { return 0 } // fifo publishes only on snapshot, never on high-water-mark
	base.OnPublishData = func() error { return nil }
	base.ExtraStatus = func() map[string]any {
		return map[string]any{"buffered_events": buf.Len()}
	}

	h := &hooks{Base: base, buf: buf}

	opstage.Run(context.Background(), h,
		fc.BasePeriod(), fc.StatusPublishPeriod(), fc.DataPublishTimeout(), fc.HighWaterMarkOrDefault())
}
