// Package redis implements the realtime channel on Redis pub/sub.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/docschat/docschat/internal/config"
	"github.com/docschat/docschat/internal/stream"
)

type redisPublisher struct {
	client *goredis.Client
}

// NewRedisClient dials Redis.
func NewRedisClient(cfg *config.Config) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// NewRedisPublisher creates the channel publisher.
func NewRedisPublisher(client *goredis.Client) stream.Publisher {
	return &redisPublisher{client: client}
}

// Publish sends one event on the user's channel.
func (p *redisPublisher) Publish(ctx context.Context, userID string, event stream.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal channel event: %w", err)
	}
	if err := p.client.Publish(ctx, stream.ChannelName(userID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish channel event: %w", err)
	}
	return nil
}
