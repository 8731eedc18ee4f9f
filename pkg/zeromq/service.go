package zeromq

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pebbe/zmq4"
	"go.uber.org/multierr"

	"github.com/open-teleop/keyboard-teleop/domain/teleop"
	customlog "github.com/open-teleop/keyboard-teleop/pkg/log"
	"github.com/open-teleop/keyboard-teleop/pkg/twist"
)

// ErrServiceClosed is returned by Publish after Close.
var ErrServiceClosed = errors.New("zeromq service is closed")

// Options configures the PUB socket.
type Options struct {
	// BindAddress is the endpoint subscribers connect to, e.g. tcp://*:5556.
	BindAddress string
	// Topic is sent as the first frame of every message.
	Topic string
	// SendHWM caps queued outgoing messages per subscriber. With 1, a slow
	// subscriber only ever receives the newest command.
	SendHWM int
	// Linger is how long Close waits for queued messages, so the final stop
	// command still reaches connected subscribers.
	Linger time.Duration
}

// VelocityPublisher publishes velocity commands on a ZeroMQ PUB socket as
// two frames: the topic, then an OttMessage envelope with a Twist payload.
type VelocityPublisher struct {
	ctx    *zmq4.Context
	socket *zmq4.Socket
	topic  string
	clock  clock.Clock
	logger customlog.Logger

	mu      sync.Mutex
	running bool
	sent    uint64
}

// NewVelocityPublisher creates the ZeroMQ context and binds the PUB socket.
func NewVelocityPublisher(opts Options, clk clock.Clock, logger customlog.Logger) (*VelocityPublisher, error) {
	if opts.Topic == "" {
		return nil, fmt.Errorf("zeromq topic cannot be empty")
	}
	if clk == nil {
		clk = clock.New()
	}

	ctx, err := zmq4.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create ZMQ context: %w", err)
	}

	socket, err := newPubSocket(ctx, opts)
	if err != nil {
		ctx.Term()
		return nil, err
	}

	endpoint, _ := socket.GetLastEndpoint()
	logger.Infof("Velocity publisher bound to %s (topic %q, send HWM %d)", endpoint, opts.Topic, opts.SendHWM)

	return &VelocityPublisher{
		ctx:     ctx,
		socket:  socket,
		topic:   opts.Topic,
		clock:   clk,
		logger:  logger,
		running: true,
	}, nil
}

func newPubSocket(ctx *zmq4.Context, opts Options) (*zmq4.Socket, error) {
	socket, err := ctx.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}

	// Options must be set before bind to apply to subscriber pipes.
	if err := socket.SetLinger(opts.Linger); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}
	if opts.SendHWM > 0 {
		if err := socket.SetSndhwm(opts.SendHWM); err != nil {
			socket.Close()
			return nil, fmt.Errorf("failed to set send high water mark: %w", err)
		}
	}

	if err := socket.Bind(opts.BindAddress); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", opts.BindAddress, err)
	}
	return socket, nil
}

// Publish implements teleop.Publisher.
func (p *VelocityPublisher) Publish(cmd teleop.VelocityCommand) error {
	data, err := twist.EncodeOttMessage(p.topic, cmd, p.clock.Now().UnixNano())
	if err != nil {
		return err
	}
	return p.PublishMessage(p.topic, data)
}

// PublishMessage sends a message with the given topic
func (p *VelocityPublisher) PublishMessage(topic string, message []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return fmt.Errorf("%w: %w", ErrServiceClosed, teleop.ErrPublisherClosed)
	}

	if _, err := p.socket.Send(topic, zmq4.SNDMORE); err != nil {
		return fmt.Errorf("failed to send topic: %w", err)
	}
	if _, err := p.socket.SendBytes(message, 0); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.sent++
	return nil
}

// Endpoint returns the address the socket is bound to, with wildcard ports
// resolved.
func (p *VelocityPublisher) Endpoint() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return "", ErrServiceClosed
	}
	return p.socket.GetLastEndpoint()
}

// Sent returns how many messages have been handed to the socket.
func (p *VelocityPublisher) Sent() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent
}

// Close releases the socket and terminates the context. Later calls to
// Publish return ErrServiceClosed.
func (p *VelocityPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil
	}
	p.running = false

	var err error
	if cerr := p.socket.Close(); cerr != nil {
		err = multierr.Append(err, fmt.Errorf("failed to close PUB socket: %w", cerr))
	}
	if terr := p.ctx.Term(); terr != nil {
		err = multierr.Append(err, fmt.Errorf("failed to terminate ZMQ context: %w", terr))
	}
	p.logger.Infof("Velocity publisher stopped after %d messages", p.sent)
	return err
}
