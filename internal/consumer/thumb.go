// Package consumer holds the broker-side of the pipelines: durable thumb
// record persistence and notification creation. Handlers are idempotent
// against duplicate delivery and return an error to force redelivery
// instead of acknowledging a half-applied event.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inceCheng/GigaLike/domain"
)

type ThumbConsumer struct {
	thumbRepo  domain.ThumbRepository
	thumbCache domain.ThumbCache
	aggregator domain.ThumbAggregator
	broker     domain.EventBroker
}

func NewThumbConsumer(tr domain.ThumbRepository, tc domain.ThumbCache, agg domain.ThumbAggregator, eb domain.EventBroker) *ThumbConsumer {
	return &ThumbConsumer{
		thumbRepo:  tr,
		thumbCache: tc,
		aggregator: agg,
		broker:     eb,
	}
}

// Start blocks until ctx is done
func (c *ThumbConsumer) Start(ctx context.Context) error {
	return c.broker.Subscribe(ctx, domain.TopicThumb, domain.GroupThumb, c.handle)
}

func (c *ThumbConsumer) handle(ctx context.Context, payload []byte) error {
	var event domain.ThumbEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		// 畸形消息重投也没用, 记日志后确认掉
		logrus.Errorf("malformed thumb event dropped: %v", err)
		return nil
	}

	switch event.Type {
	case domain.ThumbEventIncr:
		return c.applyIncr(ctx, event)
	case domain.ThumbEventDecr:
		return c.applyDecr(ctx, event)
	default:
		logrus.Errorf("unknown thumb event type %q dropped", event.Type)
		return nil
	}
}

// applyIncr 落库点赞记录并累计计数增量。
// 记录已存在说明是重复投递, 直接确认
func (c *ThumbConsumer) applyIncr(ctx context.Context, event domain.ThumbEvent) error {
	if _, err := c.thumbRepo.Find(ctx, event.UserID, event.BlogID); err == nil {
		logrus.Debugf("duplicate INCR delivery, userID: %d, blogID: %d", event.UserID, event.BlogID)
		return nil
	}

	record := domain.Thumb{
		UserID:    event.UserID,
		BlogID:    event.BlogID,
		CreatedAt: event.EventTime,
	}
	if err := c.thumbRepo.Insert(ctx, &record); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil
		}
		return fmt.Errorf("insert thumb record: %w", err)
	}

	// 把缓存里的占位值换成真实记录ID
	if err := c.thumbCache.SetThumbRecordID(ctx, event.UserID, event.BlogID, record.ID); err != nil {
		logrus.Warnf("failed to backfill thumb record id: %v", err)
	}

	c.aggregator.RecordDelta(event.BlogID, 1)
	return nil
}

func (c *ThumbConsumer) applyDecr(ctx context.Context, event domain.ThumbEvent) error {
	record, err := c.thumbRepo.Find(ctx, event.UserID, event.BlogID)
	if err != nil {
		// 只有确定记录不存在才算重复投递, 瞬时库错误要留给重投
		if errors.Is(err, domain.ErrNotFound) {
			logrus.Debugf("duplicate DECR delivery, userID: %d, blogID: %d", event.UserID, event.BlogID)
			return nil
		}
		return fmt.Errorf("find thumb record: %w", err)
	}
	if err := c.thumbRepo.Delete(ctx, record.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("delete thumb record: %w", err)
	}

	c.aggregator.RecordDelta(event.BlogID, -1)
	return nil
}
