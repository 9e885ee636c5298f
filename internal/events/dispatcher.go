package events

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/hms-service/internal/pubsub"
)

const channelPrefix = "hms:events:"

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(ctx context.Context, eventType EventType) (*Stream, error)
}

// Channel returns the pub/sub channel carrying eventType.
func Channel(eventType EventType) string {
	return channelPrefix + string(eventType)
}

type redisDispatcher struct {
	publisher  *pubsub.Publisher
	subscriber *pubsub.Subscriber
	logger     *zap.Logger
}

// NewRedisDispatcher publishes on the command client and listens on the subscriber client.
func NewRedisDispatcher(publisher *pubsub.Publisher, subscriber *pubsub.Subscriber, logger *zap.Logger) Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisDispatcher{publisher: publisher, subscriber: subscriber, logger: logger}
}

// Publish encodes the event and sends it without waiting for listeners.
func (d *redisDispatcher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	receivers, err := d.publisher.Publish(ctx, Channel(event.Type), string(data))
	if err != nil {
		return err
	}
	d.logger.Debug("event published",
		zap.String("type", string(event.Type)),
		zap.String("id", event.ID),
		zap.Int64("receivers", receivers))
	return nil
}

// Subscribe streams decoded events of one type.
func (d *redisDispatcher) Subscribe(ctx context.Context, eventType EventType) (*Stream, error) {
	sub, err := d.subscriber.Subscribe(ctx, Channel(eventType))
	if err != nil {
		return nil, err
	}
	stream := &Stream{sub: sub, events: make(chan Event), quit: make(chan struct{})}
	go stream.decode(d.logger)
	return stream, nil
}

// Stream yields decoded events from one subscription.
type Stream struct {
	sub       *pubsub.Subscription
	events    chan Event
	quit      chan struct{}
	closeOnce sync.Once
}

// Events is closed when the underlying subscription ends.
func (s *Stream) Events() <-chan Event {
	return s.events
}

// Close ends the stream.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
		s.sub.Close()
	})
}

func (s *Stream) decode(logger *zap.Logger) {
	defer close(s.events)
	for msg := range s.sub.Messages() {
		var event Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			logger.Warn("dropping malformed event", zap.String("channel", msg.Channel), zap.Error(err))
			continue
		}
		select {
		case s.events <- event:
		case <-s.quit:
			return
		}
	}
}
