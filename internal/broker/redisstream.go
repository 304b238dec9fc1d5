// Package broker provides the durable event channel between the toggle
// engine and its consumers. The Redis Streams implementation gives
// at-least-once delivery with one consumer group per pipeline; entries
// stay pending until acknowledged, and a claim sweep re-delivers entries
// whose consumer died mid-processing.
package broker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/inceCheng/GigaLike/domain"
)

const (
	payloadField = "payload"

	readBlock    = 2 * time.Second
	readCount    = 32
	claimMinIdle = 30 * time.Second
	claimEvery   = 10 * time.Second

	// 流长度上限, 防止无消费时无限增长
	maxStreamLen = 100000
)

type redisStreamBroker struct {
	client   *redis.Client
	consumer string
}

var _ domain.EventBroker = (*redisStreamBroker)(nil)

func NewRedisStreamBroker(client *redis.Client) *redisStreamBroker {
	host, _ := os.Hostname()
	return &redisStreamBroker{
		client:   client,
		consumer: fmt.Sprintf("%s-%d", host, os.Getpid()),
	}
}

func (b *redisStreamBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]any{payloadField: payload},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func (b *redisStreamBroker) Subscribe(ctx context.Context, topic, group string, handler domain.BrokerHandler) error {
	err := b.client.XGroupCreateMkStream(ctx, topic, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create group %s on %s: %w", group, topic, err)
	}

	claimTicker := time.NewTicker(claimEvery)
	defer claimTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-claimTicker.C:
			b.claimStale(ctx, topic, group, handler)
		default:
		}

		streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: b.consumer,
			Streams:  []string{topic, ">"},
			Count:    readCount,
			Block:    readBlock,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logrus.Errorf("read group %s on %s: %v", group, topic, err)
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				b.handle(ctx, topic, group, msg, handler)
			}
		}
	}
}

// handle 调用 handler, 成功才 ACK; 失败的消息留在 pending 列表等待重投
func (b *redisStreamBroker) handle(ctx context.Context, topic, group string, msg redis.XMessage, handler domain.BrokerHandler) {
	raw, ok := msg.Values[payloadField].(string)
	if !ok {
		logrus.Errorf("malformed message %s on %s, dropping", msg.ID, topic)
		b.client.XAck(ctx, topic, group, msg.ID)
		return
	}

	if err := handler(ctx, []byte(raw)); err != nil {
		logrus.Errorf("handler failed for %s on %s: %v", msg.ID, topic, err)
		return
	}

	if err := b.client.XAck(ctx, topic, group, msg.ID).Err(); err != nil {
		logrus.Errorf("ack %s on %s: %v", msg.ID, topic, err)
	}
}

// claimStale 认领空闲过久的 pending 消息 (消费者崩溃场景)
func (b *redisStreamBroker) claimStale(ctx context.Context, topic, group string, handler domain.BrokerHandler) {
	msgs, _, err := b.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   topic,
		Group:    group,
		Consumer: b.consumer,
		MinIdle:  claimMinIdle,
		Start:    "0-0",
		Count:    readCount,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logrus.Warnf("autoclaim on %s: %v", topic, err)
		return
	}
	for _, msg := range msgs {
		b.handle(ctx, topic, group, msg, handler)
	}
}
