package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/hms-service/pkg/util/errorutil"
)

type testBus struct {
	mr         *miniredis.Miniredis
	command    *redis.Client
	publisher  *Publisher
	subscriber *Subscriber
}

func newTestBus(t *testing.T) *testBus {
	t.Helper()
	mr := miniredis.RunT(t)
	command := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	listen := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	subscriber := NewSubscriber(listen, zap.NewNop())
	t.Cleanup(func() {
		_ = subscriber.Close()
		_ = listen.Close()
		_ = command.Close()
	})
	return &testBus{mr: mr, command: command, publisher: NewPublisher(command), subscriber: subscriber}
}

func (b *testBus) waitForListeners(t *testing.T, channel string, n int64) {
	t.Helper()
	require.Eventually(t, func() bool {
		counts, err := b.command.PubSubNumSub(context.Background(), channel).Result()
		return err == nil && counts[channel] == n
	}, 2*time.Second, 10*time.Millisecond)
}

func receive(t *testing.T, sub *Subscription) Message {
	t.Helper()
	select {
	case msg, ok := <-sub.Messages():
		require.True(t, ok, "subscription closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestPublishWithoutListenersIsLost(t *testing.T) {
	bus := newTestBus(t)
	receivers, err := bus.publisher.Publish(context.Background(), "nobody", "hello")
	require.NoError(t, err)
	assert.Zero(t, receivers)
}

func TestSubscribeReceivesInOrder(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	sub, err := bus.subscriber.Subscribe(ctx, "room")
	require.NoError(t, err)
	assert.Equal(t, "room", sub.Channel())
	bus.waitForListeners(t, "room", 1)

	for _, payload := range []string{"one", "two", "three"} {
		receivers, err := bus.publisher.Publish(ctx, "room", payload)
		require.NoError(t, err)
		assert.Equal(t, int64(1), receivers)
	}

	assert.Equal(t, Message{Channel: "room", Payload: "one"}, receive(t, sub))
	assert.Equal(t, "two", receive(t, sub).Payload)
	assert.Equal(t, "three", receive(t, sub).Payload)
}

func TestMessagesRoutedByChannel(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	alpha, err := bus.subscriber.Subscribe(ctx, "alpha")
	require.NoError(t, err)
	beta, err := bus.subscriber.Subscribe(ctx, "beta")
	require.NoError(t, err)
	bus.waitForListeners(t, "alpha", 1)
	bus.waitForListeners(t, "beta", 1)

	_, err = bus.publisher.Publish(ctx, "beta", "for-beta")
	require.NoError(t, err)
	_, err = bus.publisher.Publish(ctx, "alpha", "for-alpha")
	require.NoError(t, err)

	assert.Equal(t, "for-alpha", receive(t, alpha).Payload)
	assert.Equal(t, "for-beta", receive(t, beta).Payload)
}

func TestSameChannelFansOut(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	first, err := bus.subscriber.Subscribe(ctx, "shared")
	require.NoError(t, err)
	second, err := bus.subscriber.Subscribe(ctx, "shared")
	require.NoError(t, err)
	bus.waitForListeners(t, "shared", 1)

	_, err = bus.publisher.Publish(ctx, "shared", "both")
	require.NoError(t, err)

	assert.Equal(t, "both", receive(t, first).Payload)
	assert.Equal(t, "both", receive(t, second).Payload)
}

func TestSlowConsumerDoesNotBlockOthers(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	slow, err := bus.subscriber.Subscribe(ctx, "busy")
	require.NoError(t, err)
	fast, err := bus.subscriber.Subscribe(ctx, "busy")
	require.NoError(t, err)
	bus.waitForListeners(t, "busy", 1)

	const n = 50
	for i := 0; i < n; i++ {
		_, err := bus.publisher.Publish(ctx, "busy", "m")
		require.NoError(t, err)
	}
	for i := 0; i < n; i++ {
		receive(t, fast)
	}
	for i := 0; i < n; i++ {
		receive(t, slow)
	}
}

func TestCloseSubscriptionUnsubscribesLastListener(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	first, err := bus.subscriber.Subscribe(ctx, "temp")
	require.NoError(t, err)
	second, err := bus.subscriber.Subscribe(ctx, "temp")
	require.NoError(t, err)
	bus.waitForListeners(t, "temp", 1)

	first.Close()
	_, open := <-first.Messages()
	assert.False(t, open)
	bus.waitForListeners(t, "temp", 1)

	second.Close()
	bus.waitForListeners(t, "temp", 0)
}

func TestSubscriberClose(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	sub, err := bus.subscriber.Subscribe(ctx, "closing")
	require.NoError(t, err)
	bus.waitForListeners(t, "closing", 1)

	require.NoError(t, bus.subscriber.Close())
	_, open := <-sub.Messages()
	assert.False(t, open)

	_, err = bus.subscriber.Subscribe(ctx, "again")
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, bus.subscriber.Close())
}

func TestPublishUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err := NewPublisher(client).Publish(context.Background(), "c", "m")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeCacheUnavailable))
}
