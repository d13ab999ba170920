// Package transport implements the topic-prefixed framing convention
// (spec §4.2) over brokerless ZeroMQ PUB/SUB and PUSH/PULL sockets.
//
// Grounded on the teacher's pkg/nats client (a singleton connection
// wrapper with subscription tracking and an async callback -> channel
// bridge for non-blocking consumption) and on the dastard example's use
// of goczmq Pub/Sub channelers addressed with the same `tcp://*:port`
// convention the spec requires. This package uses the pure-Go
// github.com/go-zeromq/zmq4 implementation instead of a cgo binding or
// a broker-backed client — see DESIGN.md.
package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ec-jrc/abcd-go/pkg/wire"
	"github.com/go-zeromq/zmq4"
)

// SlowJoinerWait is the mandatory delay between a publisher Bind and its
// first publication (spec §4.2), so late subscribers register in time to
// catch the first message.
const SlowJoinerWait = time.Second

// Envelope is one received (topic, payload) pair, non-blocking polled off
// the socket's internal receive channel.
type Envelope struct {
	Topic   wire.Topic
	Payload []byte
}

// PubSocket publishes topic-framed envelopes. Every Send is one atomic
// ZeroMQ frame: the topic, a space, then the binary payload (pkg/wire
// JoinEnvelope), matching the convention that ZeroMQ SUB-side prefix
// filtering relies on.
type PubSocket struct {
	sock    zmq4.Socket
	bound   time.Time
	address string
}

// Bind starts a PUB socket listening at address (e.g. "tcp://*:16181")
// and records the bind time from which the slow-joiner wait is counted;
// callers should avoid publishing before SlowJoinerElapsed reports true.
func Bind(ctx context.Context, address string) (*PubSocket, error) {
	sock := zmq4.NewPub(ctx)
	if err := sock.Listen(address); err != nil {
		return nil, fmt.Errorf("transport: bind %q: %w", address, err)
	}
	return &PubSocket{sock: sock, bound: time.Now(), address: address}, nil
}

// SlowJoinerElapsed reports whether SlowJoinerWait has passed since Bind.
func (p *PubSocket) SlowJoinerElapsed() bool {
	return time.Since(p.bound) >= SlowJoinerWait
}

// Address returns the address the socket was bound to, rewriting a
// wildcard bind host to advertiseHost (spec §4.2: a status message that
// publishes its own address MUST turn "*" into a copyable host).
func (p *PubSocket) Address(advertiseHost string) string {
	return RewriteWildcard(p.address, advertiseHost)
}

// RewriteWildcard replaces a "tcp://*:port" bind address with a
// dialable one, substituting host for "*".
func RewriteWildcard(address, host string) string {
	return strings.Replace(address, "*", host, 1)
}

// Send publishes topic and payload as one atomic envelope frame.
func (p *PubSocket) Send(topic wire.Topic, payload []byte) error {
	msg := zmq4.NewMsg(wire.JoinEnvelope(topic, payload))
	if err := p.sock.Send(msg); err != nil {
		return fmt.Errorf("transport: send on %q: %w", p.address, err)
	}
	return nil
}

// Close releases the socket.
func (p *PubSocket) Close() error {
	return p.sock.Close()
}

// SubSocket subscribes to topic-framed envelopes from one or more PUB
// peers, or pulls from PUSH peers when constructed with DialPull. Receives
// are always non-blocking from the caller's perspective: a background
// goroutine drains the underlying blocking Recv into a buffered channel,
// and RecvNonblocking does a non-blocking select against it — mirroring
// the teacher's NATS subscribe-callback-into-channel bridge.
type SubSocket struct {
	sock zmq4.Socket
	ch   chan Envelope
	done chan struct{}
	once sync.Once
}

// Connect dials a SUB socket to address and subscribes to topicPrefix.
// An empty topicPrefix subscribes to everything.
func Connect(ctx context.Context, address, topicPrefix string) (*SubSocket, error) {
	sock := zmq4.NewSub(ctx)
	if err := sock.Dial(address); err != nil {
		return nil, fmt.Errorf("transport: connect %q: %w", address, err)
	}
	if err := sock.SetOption(zmq4.OptionSubscribe, topicPrefix); err != nil {
		return nil, fmt.Errorf("transport: subscribe %q: %w", topicPrefix, err)
	}
	return newSubSocket(sock), nil
}

// DialPull dials a PULL socket, the command-intake side of spec §4.9.
func DialPull(ctx context.Context, address string) (*SubSocket, error) {
	sock := zmq4.NewPull(ctx)
	if err := sock.Dial(address); err != nil {
		return nil, fmt.Errorf("transport: connect %q: %w", address, err)
	}
	return newSubSocket(sock), nil
}

// BindPull binds a PULL socket so other processes can connect and push
// commands to it (spec §6: "commands pull" is bound by the stage).
func BindPull(ctx context.Context, address string) (*SubSocket, error) {
	sock := zmq4.NewPull(ctx)
	if err := sock.Listen(address); err != nil {
		return nil, fmt.Errorf("transport: bind %q: %w", address, err)
	}
	return newSubSocket(sock), nil
}

func newSubSocket(sock zmq4.Socket) *SubSocket {
	s := &SubSocket{
		sock: sock,
		ch:   make(chan Envelope, 256),
		done: make(chan struct{}),
	}
	go s.pump()
	return s
}

func (s *SubSocket) pump() {
	for {
		msg, err := s.sock.Recv()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				continue
			}
		}
		topic, payload, err := wire.SplitEnvelope(msg.Bytes())
		if err != nil {
			continue
		}
		select {
		case s.ch <- Envelope{Topic: topic, Payload: payload}:
		case <-s.done:
			return
		}
	}
}

// RecvNonblocking returns the next received envelope if one is already
// buffered, without blocking the tick loop.
func (s *SubSocket) RecvNonblocking() (Envelope, bool) {
	select {
	case env := <-s.ch:
		return env, true
	default:
		return Envelope{}, false
	}
}

// Close stops the receive pump and releases the socket.
func (s *SubSocket) Close() error {
	s.once.Do(func() { close(s.done) })
	return s.sock.Close()
}
