// Package store provides the checkpoint stores agent runners persist their
// interrupt state in.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	memstore "github.com/cloudwego/eino-examples/adk/common/store"
	"github.com/cloudwego/eino/compose"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"newsletter-agent/config"
	"newsletter-agent/logging"
)

// KeyPrefix namespaces checkpoint keys in Redis.
const KeyPrefix = "newsletter:checkpoint:"

var _ compose.CheckPointStore = (*RedisStore)(nil)

// RedisStore keeps checkpoints in Redis with an expiry.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg config.CheckpointConfig) (*RedisStore, error) {
	if cfg.RedisAddr == "" {
		return nil, errors.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, prefix: KeyPrefix, ttl: cfg.TTL}, nil
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Get returns the checkpoint stored under id.
func (s *RedisStore) Get(ctx context.Context, checkPointID string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.key(checkPointID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read checkpoint %s: %w", checkPointID, err)
	}
	return data, true, nil
}

// Set stores a checkpoint, replacing any previous one with the same id.
func (s *RedisStore) Set(ctx context.Context, checkPointID string, checkPoint []byte) error {
	if err := s.client.Set(ctx, s.key(checkPointID), checkPoint, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write checkpoint %s: %w", checkPointID, err)
	}
	return nil
}

// Delete removes a checkpoint.
func (s *RedisStore) Delete(ctx context.Context, checkPointID string) error {
	return s.client.Del(ctx, s.key(checkPointID)).Err()
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// NewCheckPointStore returns a Redis store when an address is configured and
// an in-memory store otherwise. A Redis store that cannot be reached falls
// back to memory with a warning. The returned close function is never nil.
func NewCheckPointStore(ctx context.Context, cfg config.CheckpointConfig, logger *zap.Logger) (compose.CheckPointStore, func() error) {
	logger = logging.OrNop(logger)
	noop := func() error { return nil }

	if cfg.RedisAddr == "" {
		logger.Debug("using in-memory checkpoint store")
		return memstore.NewInMemoryStore(), noop
	}

	rs, err := NewRedisStore(ctx, cfg)
	if err != nil {
		logger.Warn("redis checkpoint store unavailable, using memory",
			zap.String("addr", cfg.RedisAddr), zap.Error(err))
		return memstore.NewInMemoryStore(), noop
	}

	logger.Info("using redis checkpoint store",
		zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.TTL))
	return rs, rs.Close
}
