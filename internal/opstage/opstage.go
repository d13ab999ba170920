// Package opstage is the shared stage.Hooks scaffolding for a
// software-only filter process: one input subscriber, one output
// publisher, a status publisher and a commands intake, with no
// physical device underneath (spec §4.5's stream operators: cofi,
// sofi, chafi, gzad/unzad, fifo, waan all share exactly this shape).
//
// Base implements every lifecycle/control-plane Hooks method itself;
// the handful of methods that differ per operator (ReadData,
// PendingEvents, PublishData, and optionally ApplyReconfigure) are
// injected as func fields, the way the teacher wires differing
// behaviour into a shared HTTP middleware chain via closures.
package opstage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ec-jrc/abcd-go/internal/config"
	"github.com/ec-jrc/abcd-go/internal/control"
	"github.com/ec-jrc/abcd-go/internal/stage"
	"github.com/ec-jrc/abcd-go/internal/transport"
	"github.com/ec-jrc/abcd-go/pkg/log"
	"github.com/ec-jrc/abcd-go/pkg/wire"
)

// Addresses collects the socket addresses a Base binds/dials. Any
// field left empty is simply not opened.
type Addresses struct {
	Status   string // bind, PUB
	Data     string // bind, PUB
	Input    string // dial, SUB
	Commands string // bind, PULL
}

// Base is the shared Hooks implementation. Construct with New, set the
// OnXxx func fields, then pass to stage.New.
type Base struct {
	Producer  string
	Addresses Addresses

	ctx    context.Context
	cancel context.CancelFunc

	pub       *transport.PubSocket // data topic(s)
	statusPub *transport.PubSocket // status/events topics; aliases pub when only one address is given
	sub       *transport.SubSocket
	cmd       *transport.SubSocket

	msgID uint64

	// OnReadData polls the input socket (via RecvEnvelope) and reports
	// whether it buffered anything.
	OnReadData func() (produced bool, err error)
	// PendingCount reports how many decoded records are buffered.
	PendingCount func() int
	// OnPublishData flushes the buffer through PublishTopic and clears it.
	OnPublishData func() error
	// OnApplyReconfigure is optional; ReceiveCommand hands it the
	// validated config document of each reconfigure command. When it is
	// unset, reconfigure documents are ignored.
	OnApplyReconfigure func(config []byte) error
	// ExtraStatus optionally contributes component-specific status
	// fields, merged into the JSON status envelope.
	ExtraStatus func() map[string]any
}

// New builds a Base for producer, with addr controlling which sockets
// get opened.
func New(producer string, addr Addresses) *Base {
	return &Base{Producer: producer, Addresses: addr}
}

// RecvEnvelope is the non-blocking input poll OnReadData callbacks use.
func (b *Base) RecvEnvelope() (transport.Envelope, bool) {
	if b.sub == nil {
		return transport.Envelope{}, false
	}
	return b.sub.RecvNonblocking()
}

// PublishTopic sends one output envelope via the data PUB socket, the
// method OnPublishData callbacks use to emit their result.
func (b *Base) PublishTopic(topic wire.Topic, payload []byte) error {
	if b.pub == nil {
		return fmt.Errorf("opstage: %s: no data socket bound", b.Producer)
	}
	return b.pub.Send(topic, payload)
}

// --- stage.Hooks: lifecycle ---

func (b *Base) CreateContext() error {
	b.ctx, b.cancel = context.WithCancel(context.Background())
	return nil
}

func (b *Base) CreateSockets() error { return nil }

func (b *Base) BindSockets() error {
	var err error
	if b.Addresses.Data != "" {
		b.pub, err = transport.Bind(b.ctx, b.Addresses.Data)
		if err != nil {
			return fmt.Errorf("opstage: bind data: %w", err)
		}
	}
	switch {
	case b.Addresses.Status == "":
		b.statusPub = b.pub
	case b.Addresses.Status == b.Addresses.Data:
		b.statusPub = b.pub
	default:
		b.statusPub, err = transport.Bind(b.ctx, b.Addresses.Status)
		if err != nil {
			return fmt.Errorf("opstage: bind status: %w", err)
		}
	}
	if b.pub == nil {
		// A pure sink with nothing to publish but its own status still
		// needs a socket for that status (spec §4.2's minimum surface).
		b.pub = b.statusPub
	}
	if b.Addresses.Input != "" {
		b.sub, err = transport.Connect(b.ctx, b.Addresses.Input, "")
		if err != nil {
			return fmt.Errorf("opstage: connect input: %w", err)
		}
	}
	if b.Addresses.Commands != "" {
		b.cmd, err = transport.BindPull(b.ctx, b.Addresses.Commands)
		if err != nil {
			return fmt.Errorf("opstage: bind commands: %w", err)
		}
	}
	for _, s := range []*transport.PubSocket{b.pub, b.statusPub} {
		if s == nil {
			continue
		}
		for !s.SlowJoinerElapsed() {
			time.Sleep(10 * time.Millisecond)
		}
	}
	return nil
}

func (b *Base) ReadConfig() error      { return nil }
func (b *Base) CreateDevice() error    { return nil }
func (b *Base) ConfigureDevice() error { return nil }
func (b *Base) AllocateMemory() error  { return nil }
func (b *Base) ClearMemory()           {}
func (b *Base) DestroyDevice()         {}

func (b *Base) CloseSockets() {
	if b.statusPub != nil && b.statusPub != b.pub {
		b.statusPub.Close()
	}
	if b.pub != nil {
		b.pub.Close()
	}
	if b.sub != nil {
		b.sub.Close()
	}
	if b.cmd != nil {
		b.cmd.Close()
	}
}

func (b *Base) DestroyContext() {
	if b.cancel != nil {
		b.cancel()
	}
}

// --- stage.Hooks: acquisition path ---

func (b *Base) StartAcquisition() error { return nil }
func (b *Base) StopAcquisition()        {}

func (b *Base) ReadData() (bool, error) {
	if b.OnReadData == nil {
		return false, nil
	}
	return b.OnReadData()
}

func (b *Base) PendingEvents() int {
	if b.PendingCount == nil {
		return 0
	}
	return b.PendingCount()
}

func (b *Base) PublishData() error {
	if b.OnPublishData == nil {
		return nil
	}
	return b.OnPublishData()
}

// --- stage.Hooks: control plane ---

func (b *Base) PublishStatus() error {
	if b.statusPub == nil {
		return nil
	}
	b.msgID++
	extra := map[string]any{}
	if b.ExtraStatus != nil {
		for k, v := range b.ExtraStatus() {
			extra[k] = v
		}
	}
	status, err := control.NewStatus(b.Producer, b.msgID, extra)
	if err != nil {
		return fmt.Errorf("opstage: build status: %w", err)
	}
	payload, err := status.MarshalJSON()
	if err != nil {
		return fmt.Errorf("opstage: marshal status: %w", err)
	}
	return b.statusPub.Send(wire.NewStatusTopic(b.Producer), payload)
}

func (b *Base) ReceiveCommand() (control.Command, bool) {
	if b.cmd == nil {
		return control.Command{}, false
	}
	env, ok := b.cmd.RecvNonblocking()
	if !ok {
		return control.Command{}, false
	}
	cmd, err := control.ParseCommand(env.Payload)
	if err != nil {
		log.Warnf("%s: dropping malformed command: %s", b.Producer, err)
		return control.Command{}, false
	}
	if cmd.Name == control.CmdReconfigure {
		raw, err := control.ParseReconfigure(cmd)
		if err == nil && len(raw) > 0 {
			if err = config.ValidateDocument(raw); err == nil {
				err = b.ApplyReconfigure(raw)
			}
		}
		if err != nil {
			log.Warnf("%s: reconfigure: %s", b.Producer, err)
		}
	}
	return cmd, true
}

func (b *Base) ReportError(class stage.ErrorClass, err error) {
	log.Errorf("%s: %s: %s", b.Producer, class, err)
	if b.statusPub == nil {
		return
	}
	event := control.NewErrorEvent(class.String(), err.Error())
	payload, merr := json.Marshal(event)
	if merr != nil {
		return
	}
	_ = b.statusPub.Send(wire.NewEventsTopic(b.Producer), payload)
}

// ApplyReconfigure implements stage.Reconfigurable by delegating to
// OnApplyReconfigure; without it, it does nothing and returns nil.
func (b *Base) ApplyReconfigure(config []byte) error {
	if b.OnApplyReconfigure == nil {
		return nil
	}
	return b.OnApplyReconfigure(config)
}
