package events

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisClient is the slice of *redis.Client the publisher needs.
type redisClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisPublisher mirrors events onto a redis pub/sub channel so other
// processes can follow pipeline runs.
type RedisPublisher struct {
	Client  redisClient
	Channel string
	Timeout time.Duration
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{Client: client, Channel: channel, Timeout: 2 * time.Second}
}

// Publish is best effort: failures are logged and the event is dropped.
func (p *RedisPublisher) Publish(evt string) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := p.Client.Publish(ctx, p.Channel, evt).Err(); err != nil {
		log.Printf("[events:redis] publish failed channel=%s err=%v", p.Channel, err)
	}
}
