package refresh

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RefreshHandler receives explicit refresh requests.
type RefreshHandler interface {
	HandleRefreshRequest(reason string)
}

// subscription is the part of *redis.PubSub the relay uses.
type subscription interface {
	Channel(opts ...redis.ChannelOption) <-chan *redis.Message
	Close() error
}

// RedisRelay fans explicit refresh requests out to every instance
// subscribed to a redis channel. The message payload is the reason.
type RedisRelay struct {
	client  redis.UniversalClient
	channel string
	target  RefreshHandler
	logger  zerolog.Logger

	subscribe func(ctx context.Context) (subscription, error)
}

// NewRedisRelay returns a relay forwarding messages on channel to target.
func NewRedisRelay(client redis.UniversalClient, channel string, target RefreshHandler, logger zerolog.Logger) *RedisRelay {
	r := &RedisRelay{
		client:  client,
		channel: channel,
		target:  target,
		logger:  logger.With().Str("component", "redis-relay").Str("channel", channel).Logger(),
	}
	r.subscribe = func(ctx context.Context) (subscription, error) {
		ps := client.Subscribe(ctx, channel)
		// wait for the subscription confirmation so errors surface here
		if _, err := ps.Receive(ctx); err != nil {
			ps.Close()
			return nil, err
		}
		return ps, nil
	}
	return r
}

// Run forwards messages until ctx is done or the subscription ends.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub, err := r.subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	defer sub.Close()

	r.logger.Info().Msg("relaying refresh requests")
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			reason := msg.Payload
			if reason == "" {
				reason = "refresh requested"
			}
			r.logger.Debug().Str("reason", reason).Msg("refresh request received")
			r.target.HandleRefreshRequest("relayed: " + reason)
		}
	}
}

// Publish asks every subscribed instance to refresh.
func (r *RedisRelay) Publish(ctx context.Context, reason string) error {
	if err := r.client.Publish(ctx, r.channel, reason).Err(); err != nil {
		return fmt.Errorf("publish refresh request: %w", err)
	}
	return nil
}
