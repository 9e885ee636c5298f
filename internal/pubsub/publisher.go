package pubsub

import (
	"context"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/spec-kit/hms-service/pkg/util/errorutil"
)

// Publisher sends fire-and-forget notifications over the command client.
type Publisher struct {
	client redis.Cmdable
}

// NewPublisher wraps the command client.
func NewPublisher(client redis.Cmdable) *Publisher {
	return &Publisher{client: client}
}

// Publish hands message to the server and returns the number of listeners
// that received it. Messages sent with no listener are lost.
func (p *Publisher) Publish(ctx context.Context, channel, message string) (int64, error) {
	receivers, err := p.client.Publish(ctx, channel, message).Result()
	if err != nil {
		return 0, apperrors.NewCacheUnavailable("publish", err)
	}
	return receivers, nil
}
