package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"postfeed/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPublisher relays events through a redis pub/sub channel so that every
// instance's Hub sees mutations made on any instance.
type RedisPublisher struct {
	rdb        *redis.Client
	channel    string
	hub        *Hub
	logger     *zap.Logger
	retryDelay time.Duration
}

var errSubscriptionClosed = errors.New("redis subscription closed")

func NewRedisPublisher(rdb *redis.Client, channel string, hub *Hub, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{
		rdb:     rdb,
		channel: channel,
		hub:        hub,
		logger:     logger,
		retryDelay: 5 * time.Second,
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, event models.MutationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.rdb.Publish(ctx, p.channel, data).Err()
}

// Run forwards channel messages into the local hub until ctx is done,
// resubscribing after every failure.
func (p *RedisPublisher) Run(ctx context.Context) error {
	for {
		err := p.relay(ctx)
		if ctx.Err() != nil {
			return nil
		}

		p.logger.Sugar().Warnf("redis relay on channel(%s) failed: %s, retrying in %s", p.channel, err.Error(), p.retryDelay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(p.retryDelay):
		}
	}
}

func (p *RedisPublisher) relay(ctx context.Context) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	p.logger.Sugar().Infof("relaying events from redis channel(%s)", p.channel)

	return p.forward(ctx, sub.Channel())
}

func (p *RedisPublisher) forward(ctx context.Context, messages <-chan *redis.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return errSubscriptionClosed
			}
			p.hub.Broadcast([]byte(msg.Payload))
		}
	}
}
