package usercore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/gentwocoder/usercore/internal/mq"
)

// Routing keys for the user_events topic exchange.
const (
	RouteUserRegistered     = "user.registered"
	RouteUserUpdated        = "user.updated"
	RoutePreferencesUpdated = "preferences.updated"
	RoutePushTokenAdded     = "token.added"
	RoutePushTokenRemoved   = "token.removed"
)

// Elevated message priorities; registration and token-added events bias
// consumer-side ordering under load. Everything else publishes at 0.
const (
	PriorityRegistration uint8 = 5
	PriorityTokenAdded   uint8 = 3
)

// Publisher is the best-effort, at-most-once domain event emitter. With no
// broker URL configured every publish returns false without dialing; with
// an unreachable broker the event is dropped, logged, and reported as a
// boolean failure. Reconnection is lazy: the next publish after a failure
// re-establishes the connection and re-declares the topology inline.
type Publisher struct {
	conn *mq.Conn
	log  *zap.Logger
}

// NewPublisher creates a [Publisher] for the given broker configuration.
// A nil log discards.
func NewPublisher(cfg BrokerConfig, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{
		conn: mq.New(cfg.URL, cfg.ConnectTimeout, nil, log),
		log:  log,
	}
}

// newPublisherWithConn wires a pre-built connection; tests use it with fake
// dialers.
func newPublisherWithConn(conn *mq.Conn, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{conn: conn, log: log}
}

// Configured reports whether a broker URL was supplied.
func (p *Publisher) Configured() bool { return p.conn.Configured() }

// State reports the connection state name (disconnected, connecting,
// ready).
func (p *Publisher) State() string { return p.conn.State().String() }

// PublishEvent publishes one JSON event to the topic exchange. The message
// is persistent (survives a broker restart) and carries the given routing
// key and priority. Returns false — never an error — when the event could
// not be delivered to the broker.
func (p *Publisher) PublishEvent(ctx context.Context, routingKey string, payload map[string]any, priority uint8) bool {
	body, err := json.Marshal(payload)
	if err != nil {
		p.log.Error("event payload not serializable", zap.String("routing_key", routingKey), zap.Error(err))
		return false
	}

	err = p.conn.Publish(ctx, routingKey, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Priority:     priority,
		MessageId:    uuid.NewString(),
		Body:         body,
	})
	if err != nil {
		if errors.Is(err, mq.ErrNotConfigured) {
			p.log.Debug("broker not configured, event not published", zap.String("routing_key", routingKey))
		} else {
			p.log.Warn("event dropped", zap.String("routing_key", routingKey), zap.Error(err))
		}
		return false
	}

	p.log.Info("published event", zap.String("routing_key", routingKey))
	return true
}

// PublishUserRegistered emits the registration event at elevated priority.
//
// The timestamp field is deliberately published null: the downstream
// contract assigns timestamping to the consumer.
func (p *Publisher) PublishUserRegistered(ctx context.Context, userID, email, username string) bool {
	return p.PublishEvent(ctx, RouteUserRegistered, map[string]any{
		"event_type": "user_registered",
		"user_id":    userID,
		"email":      email,
		"username":   username,
		"timestamp":  nil,
	}, PriorityRegistration)
}

// PublishUserUpdated emits the account-update event carrying the
// changed-field diff.
func (p *Publisher) PublishUserUpdated(ctx context.Context, userID string, updatedFields map[string]any) bool {
	return p.PublishEvent(ctx, RouteUserUpdated, map[string]any{
		"event_type":     "user_updated",
		"user_id":        userID,
		"updated_fields": updatedFields,
		"timestamp":      nil,
	}, 0)
}

// PublishPreferencesUpdated emits the full preference snapshot.
func (p *Publisher) PublishPreferencesUpdated(ctx context.Context, userID string, prefs *PreferenceRecord) bool {
	return p.PublishEvent(ctx, RoutePreferencesUpdated, map[string]any{
		"event_type":  "preferences_updated",
		"user_id":     userID,
		"preferences": prefs,
		"timestamp":   nil,
	}, 0)
}

// PublishPushTokenAdded emits the token-added event at elevated priority.
func (p *Publisher) PublishPushTokenAdded(ctx context.Context, userID, token, deviceType string) bool {
	return p.PublishEvent(ctx, RoutePushTokenAdded, map[string]any{
		"event_type":  "push_token_added",
		"user_id":     userID,
		"token":       token,
		"device_type": deviceType,
		"timestamp":   nil,
	}, PriorityTokenAdded)
}

// PublishPushTokenRemoved emits the token-removed event.
func (p *Publisher) PublishPushTokenRemoved(ctx context.Context, userID, token string) bool {
	return p.PublishEvent(ctx, RoutePushTokenRemoved, map[string]any{
		"event_type": "push_token_removed",
		"user_id":    userID,
		"token":      token,
		"timestamp":  nil,
	}, 0)
}

// Close shuts the broker connection down best-effort. It never returns an
// error; a closed publisher reconnects lazily if used again.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.conn.Close()
}
