package domain

import "context"

// Broker topics. Each pipeline subscribes with its own consumer group so
// thumb persistence and notification delivery progress independently.
const (
	TopicThumb        = "thumb-topic"
	TopicNotification = "notification-topic"

	GroupThumb        = "thumb-subscription"
	GroupNotification = "notification-subscription"
)

// BrokerHandler processes one delivered message. Returning a non-nil error
// leaves the message unacknowledged so the broker redelivers it.
type BrokerHandler func(ctx context.Context, payload []byte) error

// EventBroker is a durable at-least-once publish/subscribe channel,
// ordered per key within a topic.
type EventBroker interface {
	// Publish appends the payload to the topic
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe consumes the topic within the given consumer group until
	// ctx is done. Blocks; callers run it in its own goroutine.
	Subscribe(ctx context.Context, topic, group string, handler BrokerHandler) error
}
