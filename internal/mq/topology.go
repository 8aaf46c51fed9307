package mq

// Exchange is the single durable topic exchange all user events route
// through.
const Exchange = "user_events"

// Queue names.
const (
	QueueRegistrations = "user_registrations"
	QueueUpdates       = "user_updates"
	QueuePreferences   = "notification_preferences"
	QueuePushTokens    = "push_tokens"
)

type binding struct {
	queue      string
	routingKey string
}

// bindings is the fixed queue topology, immutable for the process
// lifetime once established.
var bindings = []binding{
	{QueueRegistrations, "user.registered"},
	{QueueUpdates, "user.updated"},
	{QueuePreferences, "preferences.*"},
	{QueuePushTokens, "token.*"},
}

// declareTopology declares the exchange, queues, and bindings. Everything
// is durable and the declarations are idempotent, so this runs on every
// connection establishment, including inline reconnects.
func declareTopology(ch Channel) error {
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	for _, b := range bindings {
		if _, err := ch.QueueDeclare(b.queue, true, false, false, false, nil); err != nil {
			return err
		}
		if err := ch.QueueBind(b.queue, b.routingKey, Exchange, false, nil); err != nil {
			return err
		}
	}
	return nil
}
