package pubsub

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/hms-service/pkg/util/errorutil"
)

// ErrClosed is returned when subscribing after Close.
var ErrClosed = errors.New("pubsub: subscriber closed")

// Message is one notification received on a channel.
type Message struct {
	Channel string
	Payload string
}

// Subscriber multiplexes every subscription over one listening connection
// and routes each incoming message by channel name.
type Subscriber struct {
	client *redis.Client
	logger *zap.Logger

	mu     sync.Mutex
	ps     *redis.PubSub
	subs   map[string][]*Subscription
	closed bool
	done   chan struct{}
}

// NewSubscriber takes the dedicated subscriber client. The connection is
// opened on the first Subscribe.
func NewSubscriber(client *redis.Client, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{
		client: client,
		logger: logger,
		subs:   make(map[string][]*Subscription),
		done:   make(chan struct{}),
	}
}

// Subscribe starts listening on channel. The returned subscription yields
// every message published on it until the subscription or subscriber closes.
func (s *Subscriber) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	if s.ps == nil {
		s.ps = s.client.Subscribe(ctx, channel)
		go s.dispatch(s.ps.Channel())
	} else if len(s.subs[channel]) == 0 {
		if err := s.ps.Subscribe(ctx, channel); err != nil {
			return nil, apperrors.NewCacheUnavailable("subscribe", err)
		}
	}

	sub := newSubscription(s, channel)
	s.subs[channel] = append(s.subs[channel], sub)
	s.logger.Info("subscribed to channel", zap.String("channel", channel))
	return sub, nil
}

func (s *Subscriber) dispatch(incoming <-chan *redis.Message) {
	defer close(s.done)
	for msg := range incoming {
		s.mu.Lock()
		targets := append([]*Subscription(nil), s.subs[msg.Channel]...)
		s.mu.Unlock()

		for _, sub := range targets {
			sub.deliver(Message{Channel: msg.Channel, Payload: msg.Payload})
		}
	}
}

func (s *Subscriber) remove(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.subs[sub.channel]
	for i, candidate := range current {
		if candidate == sub {
			current = append(current[:i], current[i+1:]...)
			break
		}
	}
	if len(current) > 0 {
		s.subs[sub.channel] = current
		return
	}

	delete(s.subs, sub.channel)
	if s.ps != nil && !s.closed {
		if err := s.ps.Unsubscribe(context.Background(), sub.channel); err != nil {
			s.logger.Warn("unsubscribe failed", zap.String("channel", sub.channel), zap.Error(err))
		}
	}
}

// Close drops every subscription and releases the listening connection.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ps := s.ps
	subs := s.subs
	s.subs = make(map[string][]*Subscription)
	s.mu.Unlock()

	var err error
	if ps != nil {
		err = ps.Close()
		<-s.done
	}
	for _, list := range subs {
		for _, sub := range list {
			sub.stop()
		}
	}
	return err
}

// Subscription is the stream of messages for one channel.
type Subscription struct {
	owner   *Subscriber
	channel string

	in       chan Message
	out      chan Message
	quit     chan struct{}
	stopOnce sync.Once
}

func newSubscription(owner *Subscriber, channel string) *Subscription {
	sub := &Subscription{
		owner:   owner,
		channel: channel,
		in:      make(chan Message),
		out:     make(chan Message),
		quit:    make(chan struct{}),
	}
	go sub.pump()
	return sub
}

// Channel returns the channel name this subscription listens on.
func (s *Subscription) Channel() string {
	return s.channel
}

// Messages yields messages in arrival order. It is closed when the
// subscription ends.
func (s *Subscription) Messages() <-chan Message {
	return s.out
}

// Close ends the subscription. Undelivered messages are dropped.
func (s *Subscription) Close() {
	s.owner.remove(s)
	s.stop()
}

func (s *Subscription) stop() {
	s.stopOnce.Do(func() { close(s.quit) })
}

func (s *Subscription) deliver(msg Message) {
	select {
	case s.in <- msg:
	case <-s.quit:
	}
}

// pump buffers without bound so a slow consumer never stalls dispatch to
// other subscriptions.
func (s *Subscription) pump() {
	defer close(s.out)

	var queue []Message
	for {
		var out chan Message
		var next Message
		if len(queue) > 0 {
			out = s.out
			next = queue[0]
		}

		select {
		case msg := <-s.in:
			queue = append(queue, msg)
		case out <- next:
			queue[0] = Message{}
			queue = queue[1:]
		case <-s.quit:
			return
		}
	}
}
