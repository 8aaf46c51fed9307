package mq

import (
	"context"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type fakeChannel struct {
	exchanges  []string
	queues     []string
	binds      []binding
	published  []amqp.Publishing
	keys       []string
	failNext   bool
	closed     bool
	declareErr error
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	if f.declareErr != nil {
		return f.declareErr
	}
	if kind != "topic" || !durable {
		return errors.New("unexpected exchange shape")
	}
	f.exchanges = append(f.exchanges, name)
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	if !durable {
		return amqp.Queue{}, errors.New("queue must be durable")
	}
	f.queues = append(f.queues, name)
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	f.binds = append(f.binds, binding{queue: name, routingKey: key})
	return nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.failNext {
		f.failNext = false
		return errors.New("channel gone")
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

type fakeConn struct {
	ch     *fakeChannel
	closed bool
}

func (f *fakeConn) Channel() (Channel, error) { return f.ch, nil }
func (f *fakeConn) IsClosed() bool            { return f.closed }
func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

type fakeBroker struct {
	dials int
	conns []*fakeConn
	err   error
}

func (b *fakeBroker) dial(url string, timeout time.Duration) (Connection, error) {
	b.dials++
	if b.err != nil {
		return nil, b.err
	}
	conn := &fakeConn{ch: &fakeChannel{}}
	b.conns = append(b.conns, conn)
	return conn, nil
}

func (b *fakeBroker) lastChannel() *fakeChannel {
	return b.conns[len(b.conns)-1].ch
}

func TestPublishNotConfigured(t *testing.T) {
	conn := New("", time.Second, nil, nil)

	err := conn.Publish(context.Background(), "user.registered", amqp.Publishing{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if conn.State() != Disconnected {
		t.Fatalf("expected Disconnected, got %v", conn.State())
	}
}

func TestPublishEstablishesTopologyOnce(t *testing.T) {
	broker := &fakeBroker{}
	conn := New("amqp://localhost", time.Second, broker.dial, nil)

	for i := 0; i < 3; i++ {
		if err := conn.Publish(context.Background(), "user.updated", amqp.Publishing{}); err != nil {
			t.Fatalf("Publish %d failed: %v", i, err)
		}
	}

	if broker.dials != 1 {
		t.Fatalf("expected 1 dial, got %d", broker.dials)
	}
	ch := broker.lastChannel()
	if len(ch.exchanges) != 1 || ch.exchanges[0] != Exchange {
		t.Fatalf("unexpected exchanges: %v", ch.exchanges)
	}
	if len(ch.queues) != 4 {
		t.Fatalf("expected 4 queues, got %v", ch.queues)
	}
	want := map[string]string{
		QueueRegistrations: "user.registered",
		QueueUpdates:       "user.updated",
		QueuePreferences:   "preferences.*",
		QueuePushTokens:    "token.*",
	}
	for _, b := range ch.binds {
		if want[b.queue] != b.routingKey {
			t.Fatalf("unexpected binding %v", b)
		}
	}
	if conn.State() != Ready {
		t.Fatalf("expected Ready, got %v", conn.State())
	}
}

func TestDialFailureLeavesDisconnected(t *testing.T) {
	broker := &fakeBroker{err: errors.New("refused")}
	conn := New("amqp://localhost", time.Second, broker.dial, nil)

	err := conn.Publish(context.Background(), "user.registered", amqp.Publishing{})
	if !errors.Is(err, ErrBrokerUnavailable) {
		t.Fatalf("expected ErrBrokerUnavailable, got %v", err)
	}
	if conn.State() != Disconnected {
		t.Fatalf("expected Disconnected, got %v", conn.State())
	}
}

func TestPublishFailureDropsToDisconnected(t *testing.T) {
	broker := &fakeBroker{}
	conn := New("amqp://localhost", time.Second, broker.dial, nil)

	if err := conn.Publish(context.Background(), "user.registered", amqp.Publishing{}); err != nil {
		t.Fatalf("first Publish failed: %v", err)
	}

	broker.lastChannel().failNext = true
	err := conn.Publish(context.Background(), "user.registered", amqp.Publishing{})
	if !errors.Is(err, ErrBrokerUnavailable) {
		t.Fatalf("expected ErrBrokerUnavailable, got %v", err)
	}
	if conn.State() != Disconnected {
		t.Fatalf("expected Disconnected after failed publish, got %v", conn.State())
	}
}

func TestNextPublishReconnectsAndRedeclares(t *testing.T) {
	broker := &fakeBroker{}
	conn := New("amqp://localhost", time.Second, broker.dial, nil)

	if err := conn.Publish(context.Background(), "token.added", amqp.Publishing{}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	// Simulate the broker dropping the connection out from under us.
	broker.conns[0].closed = true

	if err := conn.Publish(context.Background(), "token.removed", amqp.Publishing{}); err != nil {
		t.Fatalf("Publish after drop failed: %v", err)
	}

	if broker.dials != 2 {
		t.Fatalf("expected reconnect dial, got %d dials", broker.dials)
	}
	redeclared := broker.lastChannel()
	if len(redeclared.exchanges) != 1 || len(redeclared.queues) != 4 {
		t.Fatalf("expected full topology re-declaration, got %v / %v", redeclared.exchanges, redeclared.queues)
	}
	if redeclared.keys[0] != "token.removed" {
		t.Fatalf("unexpected routing key %q", redeclared.keys[0])
	}
}

func TestCloseIsBestEffortAndReopens(t *testing.T) {
	broker := &fakeBroker{}
	conn := New("amqp://localhost", time.Second, broker.dial, nil)

	if err := conn.Publish(context.Background(), "user.registered", amqp.Publishing{}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	conn.Close()
	if conn.State() != Disconnected {
		t.Fatalf("expected Disconnected after Close, got %v", conn.State())
	}
	if !broker.conns[0].closed || !broker.conns[0].ch.closed {
		t.Fatal("expected channel and connection closed")
	}

	if err := conn.Publish(context.Background(), "user.registered", amqp.Publishing{}); err != nil {
		t.Fatalf("Publish after Close failed: %v", err)
	}
	if broker.dials != 2 {
		t.Fatalf("expected lazy reopen, got %d dials", broker.dials)
	}
}
