package broker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBroker_DeliversToSubscriber(t *testing.T) {
	b := NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan []byte, 1)
	go func() {
		_ = b.Subscribe(ctx, "t", "g", func(ctx context.Context, payload []byte) error {
			received <- payload
			return nil
		})
	}()

	// the queue exists once Subscribe has registered it; give it a beat
	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.topics["t"]) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, b.Publish(ctx, "t", []byte("hello")))

	select {
	case payload := <-received:
		assert.Equal(t, []byte("hello"), payload)
	case <-time.After(time.Second):
		t.Fatal("message was not delivered")
	}
}

func TestMemoryBroker_RedeliversOnHandlerError(t *testing.T) {
	b := NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var attempts atomic.Int64
	done := make(chan struct{})
	go func() {
		_ = b.Subscribe(ctx, "t", "g", func(ctx context.Context, payload []byte) error {
			if attempts.Add(1) < 3 {
				return errors.New("transient")
			}
			close(done)
			return nil
		})
	}()

	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.topics["t"]) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, b.Publish(ctx, "t", []byte("retry me")))

	select {
	case <-done:
		assert.Equal(t, int64(3), attempts.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("message was not redelivered")
	}
}

func TestMemoryBroker_GroupsFanOut(t *testing.T) {
	b := NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var g1, g2 atomic.Int64
	go func() {
		_ = b.Subscribe(ctx, "t", "g1", func(ctx context.Context, payload []byte) error {
			g1.Add(1)
			return nil
		})
	}()
	go func() {
		_ = b.Subscribe(ctx, "t", "g2", func(ctx context.Context, payload []byte) error {
			g2.Add(1)
			return nil
		})
	}()

	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.topics["t"]) == 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, b.Publish(ctx, "t", []byte("x")))

	// 每个订阅组各收到一份
	require.Eventually(t, func() bool {
		return g1.Load() == 1 && g2.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestMemoryBroker_SubscribeStopsOnContextDone(t *testing.T) {
	b := NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- b.Subscribe(ctx, "t", "g", func(ctx context.Context, payload []byte) error {
			return nil
		})
	}()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Subscribe did not return after cancel")
	}
}
