package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inceCheng/GigaLike/domain"
)

type NotificationConsumer struct {
	usecase domain.NotificationUsecase
	broker  domain.EventBroker
}

func NewNotificationConsumer(uc domain.NotificationUsecase, eb domain.EventBroker) *NotificationConsumer {
	return &NotificationConsumer{usecase: uc, broker: eb}
}

// Start blocks until ctx is done
func (c *NotificationConsumer) Start(ctx context.Context) error {
	return c.broker.Subscribe(ctx, domain.TopicNotification, domain.GroupNotification, c.handle)
}

func (c *NotificationConsumer) handle(ctx context.Context, payload []byte) error {
	var event domain.NotificationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		logrus.Errorf("malformed notification event dropped: %v", err)
		return nil
	}

	if err := c.usecase.CreateFromEvent(ctx, event); err != nil {
		// 不确认, 让 broker 重投
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}
