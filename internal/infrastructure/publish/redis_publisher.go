package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Cedriik/CCTVBoardDraft/internal/core/domain"
	"github.com/Cedriik/CCTVBoardDraft/pkg/circuitbreaker"
	"github.com/Cedriik/CCTVBoardDraft/pkg/retry"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPublisher pushes each published snapshot onto a Redis channel so
// off-box dashboards and recorders can subscribe without touching the
// monitor's HTTP surface.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.SugaredLogger
}

type redisPayload struct {
	Snapshot domain.MetricsSnapshot `json:"snapshot"`
	Quality  domain.QualityReport   `json:"quality"`
}

// NewRedisPublisher connects with exponential backoff; the monitor
// should come up even when Redis is restarting alongside it.
func NewRedisPublisher(ctx context.Context, address, password string, db, poolSize int, channel string, logger *zap.SugaredLogger) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         address,
		Password:     password,
		DB:           db,
		PoolSize:     poolSize,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	err := retry.Retry(ctx, retry.DefaultConfig(), func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return client.Ping(pingCtx).Err()
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", address, err)
	}

	logger.Infow("connected to Redis", "address", address, "channel", channel)
	return &RedisPublisher{
		client:  client,
		channel: channel,
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig()),
		logger:  logger,
	}, nil
}

// Publish implements ports.SnapshotPublisher. A breaker guards the
// PUBLISH so a dead Redis costs the publish loop one rejected call per
// snapshot instead of a write timeout.
func (p *RedisPublisher) Publish(ctx context.Context, snapshot domain.MetricsSnapshot, quality domain.QualityReport) error {
	data, err := json.Marshal(redisPayload{Snapshot: snapshot, Quality: quality})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	err = p.breaker.Execute(ctx, func() error {
		return p.client.Publish(ctx, p.channel, data).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
