// Package notify delivers committed borrow lifecycle events to external
// sinks. Delivery runs in after-commit callbacks, so failures here are
// logged by the unit of work and never surface as an operation's result.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Wahyuw1j4/ziyad-book/internal/config"
	"github.com/Wahyuw1j4/ziyad-book/internal/services/borrow"
)

// Ensure RedisPublisher implements borrow.Publisher
var _ borrow.Publisher = (*RedisPublisher)(nil)

// RedisPublisher publishes borrow events on a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisPublisher connects to Redis and returns a publisher.
func NewRedisPublisher(cfg config.RedisConfig, logger *zap.Logger) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Connected to Redis", zap.String("addr", cfg.Address()), zap.String("channel", cfg.Channel))

	return &RedisPublisher{
		client:  client,
		channel: cfg.Channel,
		logger:  logger.Named("redis-publisher"),
	}, nil
}

// Publish sends the event as JSON on the configured channel.
func (p *RedisPublisher) Publish(ctx context.Context, event borrow.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	p.logger.Debug("Published event", zap.String("type", event.Type))
	return nil
}

// Close closes the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// Health checks if Redis is reachable.
func (p *RedisPublisher) Health(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
