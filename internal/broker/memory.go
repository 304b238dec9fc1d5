package broker

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inceCheng/GigaLike/domain"
)

const (
	memoryBufferSize = 1024
	redeliverDelay   = 100 * time.Millisecond
	maxAttempts      = 5
)

type memoryMessage struct {
	payload  []byte
	attempts int
}

// memoryBroker is a single-process broker with the same at-least-once
// contract as the stream broker: a handler error re-queues the message.
// Used by tests and as a fallback when no Redis stream is configured.
type memoryBroker struct {
	mu     sync.Mutex
	topics map[string]map[string]chan memoryMessage // topic -> group -> queue
}

var _ domain.EventBroker = (*memoryBroker)(nil)

func NewMemoryBroker() *memoryBroker {
	return &memoryBroker{
		topics: make(map[string]map[string]chan memoryMessage),
	}
}

func (b *memoryBroker) queue(topic, group string) chan memoryMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	groups, ok := b.topics[topic]
	if !ok {
		groups = make(map[string]chan memoryMessage)
		b.topics[topic] = groups
	}
	q, ok := groups[group]
	if !ok {
		q = make(chan memoryMessage, memoryBufferSize)
		groups[group] = q
	}
	return q
}

func (b *memoryBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	groups := b.topics[topic]
	queues := make([]chan memoryMessage, 0, len(groups))
	for _, q := range groups {
		queues = append(queues, q)
	}
	b.mu.Unlock()

	// 没有订阅组时消息丢弃, 内存实现不做持久化
	for _, q := range queues {
		select {
		case q <- memoryMessage{payload: payload}:
		default:
			logrus.Warnf("memory broker queue full on %s, message dropped", topic)
		}
	}
	return nil
}

func (b *memoryBroker) Subscribe(ctx context.Context, topic, group string, handler domain.BrokerHandler) error {
	q := b.queue(topic, group)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-q:
			if err := handler(ctx, msg.payload); err != nil {
				msg.attempts++
				if msg.attempts >= maxAttempts {
					logrus.Errorf("message on %s dropped after %d attempts: %v", topic, msg.attempts, err)
					continue
				}
				go func(m memoryMessage) {
					time.Sleep(redeliverDelay)
					select {
					case q <- m:
					case <-ctx.Done():
					}
				}(msg)
			}
		}
	}
}
