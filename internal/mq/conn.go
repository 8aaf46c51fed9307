package mq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var (
	// ErrNotConfigured is returned when no broker URL was supplied.
	// Publishing is an optional integration; without a URL every publish
	// fails fast without dialing.
	ErrNotConfigured = errors.New("broker not configured")
	// ErrBrokerUnavailable wraps dial, declare, and publish failures.
	ErrBrokerUnavailable = errors.New("broker unavailable")
)

// State is the connection lifecycle state.
type State uint8

const (
	// Disconnected means no usable channel exists; the next publish dials.
	Disconnected State = iota
	// Connecting means a dial plus topology declaration is in flight.
	Connecting
	// Ready means the channel is usable for publishing.
	Ready
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	default:
		return "disconnected"
	}
}

// Connection is the subset of an AMQP connection the state machine needs.
// Tests substitute in-process fakes.
type Connection interface {
	Channel() (Channel, error)
	IsClosed() bool
	Close() error
}

// Channel is the subset of an AMQP channel the state machine needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Dialer opens a broker connection. The default is [Dial]; tests inject
// fakes.
type Dialer func(url string, timeout time.Duration) (Connection, error)

// Dial opens a real AMQP connection with a fixed establishment timeout.
func Dial(url string, timeout time.Duration) (Connection, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(timeout)})
	if err != nil {
		return nil, err
	}
	return &liveConnection{conn: conn}, nil
}

type liveConnection struct {
	conn *amqp.Connection
}

func (c *liveConnection) Channel() (Channel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (c *liveConnection) IsClosed() bool { return c.conn.IsClosed() }
func (c *liveConnection) Close() error   { return c.conn.Close() }

// Conn is the process-wide broker connection/channel pair. All methods are
// safe for concurrent use; publishes and topology declaration serialize on
// one mutex because an AMQP channel is not safe for concurrent mutation.
type Conn struct {
	url     string
	timeout time.Duration
	dial    Dialer
	log     *zap.Logger

	mu    sync.Mutex
	state State
	conn  Connection
	ch    Channel
}

// New creates a [Conn]. An empty url disables publishing entirely. A nil
// dial uses [Dial]; a nil log discards.
func New(url string, timeout time.Duration, dial Dialer, log *zap.Logger) *Conn {
	if dial == nil {
		dial = Dial
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Conn{
		url:     url,
		timeout: timeout,
		dial:    dial,
		log:     log,
		state:   Disconnected,
	}
}

// State reports the current connection state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Configured reports whether a broker URL was supplied.
func (c *Conn) Configured() bool { return c.url != "" }

// Publish sends one message to the topic exchange. It runs the ensure-ready
// transition inline first; on a publish failure the state drops to
// Disconnected and the error is returned, leaving the retry decision (none,
// by contract) to the caller.
func (c *Conn) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureReadyLocked(); err != nil {
		return err
	}

	if err := c.ch.PublishWithContext(ctx, Exchange, routingKey, false, false, msg); err != nil {
		c.teardownLocked()
		return fmt.Errorf("%w: publish %s: %v", ErrBrokerUnavailable, routingKey, err)
	}
	return nil
}

// ensureReadyLocked is the idempotent Disconnected → Connecting → Ready
// transition. A connection the broker has since closed counts as
// Disconnected.
func (c *Conn) ensureReadyLocked() error {
	if c.url == "" {
		return ErrNotConfigured
	}
	if c.state == Ready && c.conn != nil && !c.conn.IsClosed() {
		return nil
	}

	c.teardownLocked()
	c.state = Connecting

	conn, err := c.dial(c.url, c.timeout)
	if err != nil {
		c.state = Disconnected
		return fmt.Errorf("%w: dial: %v", ErrBrokerUnavailable, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		c.state = Disconnected
		return fmt.Errorf("%w: channel: %v", ErrBrokerUnavailable, err)
	}
	if err := declareTopology(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		c.state = Disconnected
		return fmt.Errorf("%w: declare topology: %v", ErrBrokerUnavailable, err)
	}

	c.conn = conn
	c.ch = ch
	c.state = Ready
	c.log.Info("broker connection established")
	return nil
}

func (c *Conn) teardownLocked() {
	if c.ch != nil {
		_ = c.ch.Close()
		c.ch = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.state = Disconnected
}

// Close shuts the channel and connection down best-effort. Errors are
// swallowed; a closed Conn reconnects lazily if published to again.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
}
