package usercore

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gentwocoder/usercore/internal/mq"
)

type publishedMessage struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

// fakeBroker stands in for a RabbitMQ node. Each dial hands out a new
// fakeConn so reconnect tests can count dials and topology declarations.
type fakeBroker struct {
	mu sync.Mutex

	dialErr    error
	publishErr error

	dials     int
	declares  int
	published []publishedMessage

	conns []*fakeConn
}

func (b *fakeBroker) dial(url string, timeout time.Duration) (mq.Connection, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dials++
	if b.dialErr != nil {
		return nil, b.dialErr
	}
	conn := &fakeConn{broker: b}
	b.conns = append(b.conns, conn)
	return conn, nil
}

// dropConnection simulates the broker closing the current connection.
func (b *fakeBroker) dropConnection() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.conns {
		c.closed = true
	}
}

func (b *fakeBroker) messages() []publishedMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]publishedMessage(nil), b.published...)
}

type fakeConn struct {
	broker *fakeBroker
	closed bool
}

func (c *fakeConn) Channel() (mq.Channel, error) { return &fakeChannel{broker: c.broker}, nil }

func (c *fakeConn) IsClosed() bool {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	return c.closed
}

func (c *fakeConn) Close() error {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	c.closed = true
	return nil
}

type fakeChannel struct {
	broker *fakeBroker
}

func (ch *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	ch.broker.mu.Lock()
	defer ch.broker.mu.Unlock()
	ch.broker.declares++
	return nil
}

func (ch *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	return amqp.Queue{Name: name}, nil
}

func (ch *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	return nil
}

func (ch *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	ch.broker.mu.Lock()
	defer ch.broker.mu.Unlock()
	if ch.broker.publishErr != nil {
		return ch.broker.publishErr
	}
	ch.broker.published = append(ch.broker.published, publishedMessage{exchange: exchange, key: key, msg: msg})
	return nil
}

func (ch *fakeChannel) Close() error { return nil }

func newTestPublisher(broker *fakeBroker) *Publisher {
	return newPublisherWithConn(mq.New("amqp://fake", time.Second, broker.dial, nil), nil)
}

func TestPublishEventNotConfigured(t *testing.T) {
	p := newPublisherWithConn(mq.New("", time.Second, nil, nil), nil)

	if p.Configured() {
		t.Fatal("publisher without a URL must report unconfigured")
	}
	if p.PublishEvent(context.Background(), RouteUserUpdated, map[string]any{"event_type": "user_updated"}, 0) {
		t.Fatal("publish must fail without a broker URL")
	}
}

func TestPublishUserRegisteredEnvelope(t *testing.T) {
	broker := &fakeBroker{}
	p := newTestPublisher(broker)

	if !p.PublishUserRegistered(context.Background(), "u1", "a@b.com", "alice") {
		t.Fatal("publish failed against healthy broker")
	}

	msgs := broker.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	got := msgs[0]
	if got.exchange != "user_events" || got.key != RouteUserRegistered {
		t.Fatalf("wrong envelope address: exchange=%s key=%s", got.exchange, got.key)
	}
	if got.msg.Priority != PriorityRegistration {
		t.Fatalf("expected priority %d, got %d", PriorityRegistration, got.msg.Priority)
	}
	if got.msg.DeliveryMode != amqp.Persistent {
		t.Fatal("registration events must be persistent")
	}
	if got.msg.ContentType != "application/json" {
		t.Fatalf("wrong content type %s", got.msg.ContentType)
	}
	if got.msg.MessageId == "" {
		t.Fatal("message id must be set")
	}

	var payload map[string]any
	if err := json.Unmarshal(got.msg.Body, &payload); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if payload["event_type"] != "user_registered" || payload["user_id"] != "u1" {
		t.Fatalf("wrong payload: %v", payload)
	}
	ts, present := payload["timestamp"]
	if !present || ts != nil {
		t.Fatalf("timestamp must be present and null, got %v (present=%v)", ts, present)
	}
}

func TestPublishTokenAddedPriority(t *testing.T) {
	broker := &fakeBroker{}
	p := newTestPublisher(broker)

	if !p.PublishPushTokenAdded(context.Background(), "u1", "tok-1", "fcm") {
		t.Fatal("publish failed against healthy broker")
	}
	msgs := broker.messages()
	if msgs[0].msg.Priority != PriorityTokenAdded {
		t.Fatalf("expected priority %d, got %d", PriorityTokenAdded, msgs[0].msg.Priority)
	}
	if msgs[0].key != RoutePushTokenAdded {
		t.Fatalf("wrong routing key %s", msgs[0].key)
	}
}

func TestPublishTopologyDeclaredOncePerConnection(t *testing.T) {
	broker := &fakeBroker{}
	p := newTestPublisher(broker)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !p.PublishUserUpdated(ctx, "u1", map[string]any{"bio": "x"}) {
			t.Fatal("publish failed against healthy broker")
		}
	}
	if broker.dials != 1 {
		t.Fatalf("expected 1 dial, got %d", broker.dials)
	}
	if broker.declares != 1 {
		t.Fatalf("expected 1 exchange declaration, got %d", broker.declares)
	}
}

func TestPublishReconnectsAfterConnectionDrop(t *testing.T) {
	broker := &fakeBroker{}
	p := newTestPublisher(broker)
	ctx := context.Background()

	if !p.PublishUserUpdated(ctx, "u1", map[string]any{"bio": "x"}) {
		t.Fatal("publish failed against healthy broker")
	}
	broker.dropConnection()
	if !p.PublishUserUpdated(ctx, "u1", map[string]any{"bio": "y"}) {
		t.Fatal("publish failed after drop; lazy reconnect did not run")
	}

	if broker.dials != 2 {
		t.Fatalf("expected redial after drop, got %d dials", broker.dials)
	}
	if broker.declares != 2 {
		t.Fatalf("topology must be re-declared on reconnect, got %d declarations", broker.declares)
	}
	if p.State() != "ready" {
		t.Fatalf("expected ready after reconnect, got %s", p.State())
	}
}

func TestPublishDropsEventWhenBrokerUnreachable(t *testing.T) {
	broker := &fakeBroker{dialErr: context.DeadlineExceeded}
	p := newTestPublisher(broker)

	if p.PublishUserRegistered(context.Background(), "u1", "a@b.com", "alice") {
		t.Fatal("publish must report failure when the dial fails")
	}
	if p.State() != "disconnected" {
		t.Fatalf("expected disconnected after failed dial, got %s", p.State())
	}
}

func TestPublishFailureTearsDownConnection(t *testing.T) {
	broker := &fakeBroker{}
	p := newTestPublisher(broker)
	ctx := context.Background()

	if !p.PublishUserUpdated(ctx, "u1", map[string]any{"bio": "x"}) {
		t.Fatal("publish failed against healthy broker")
	}

	broker.mu.Lock()
	broker.publishErr = context.DeadlineExceeded
	broker.mu.Unlock()

	if p.PublishUserUpdated(ctx, "u1", map[string]any{"bio": "y"}) {
		t.Fatal("publish must report failure when the channel write fails")
	}
	if p.State() != "disconnected" {
		t.Fatalf("expected disconnected after publish failure, got %s", p.State())
	}

	broker.mu.Lock()
	broker.publishErr = nil
	broker.mu.Unlock()

	if !p.PublishUserUpdated(ctx, "u1", map[string]any{"bio": "z"}) {
		t.Fatal("publish failed after recovery")
	}
}

func TestCloseThenPublishReconnects(t *testing.T) {
	broker := &fakeBroker{}
	p := newTestPublisher(broker)
	ctx := context.Background()

	if !p.PublishUserUpdated(ctx, "u1", map[string]any{"bio": "x"}) {
		t.Fatal("publish failed against healthy broker")
	}
	p.Close()
	if p.State() != "disconnected" {
		t.Fatalf("expected disconnected after close, got %s", p.State())
	}
	if !p.PublishUserUpdated(ctx, "u1", map[string]any{"bio": "y"}) {
		t.Fatal("publish failed after close; lazy reconnect did not run")
	}
}
