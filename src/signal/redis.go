// Package signal shares run cancellations between processes through redis.
package signal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	DefaultPrefix = "polaris:cancel:"
	DefaultTTL    = 24 * time.Hour
)

type RedisConfig struct {
	Address  string `json:"address" yaml:"address" validate:"required,hostname_port"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db" validate:"gte=0"`
}

// RedisSignal records a cancel per run key as a unix-nanosecond timestamp.
type RedisSignal struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisClient connects and pings the server.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

func NewRedisSignal(client redis.UniversalClient, logger *slog.Logger) *RedisSignal {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisSignal{
		client: client,
		prefix: DefaultPrefix,
		ttl:    DefaultTTL,
		logger: logger.With("component", "cancel_signal"),
	}
}

func (s *RedisSignal) key(runKey string) string {
	return s.prefix + runKey
}

// Cancel records that the run with this key should stop.
func (s *RedisSignal) Cancel(ctx context.Context, runKey string) error {
	now := strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := s.client.Set(ctx, s.key(runKey), now, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to record cancel for %s: %w", runKey, err)
	}
	s.logger.Debug("cancel recorded", "run_key", runKey)
	return nil
}

// CancelledSince reports whether a cancel for runKey was recorded after since.
// Older cancels belong to an earlier run with the same key and are ignored.
func (s *RedisSignal) CancelledSince(ctx context.Context, runKey string, since time.Time) (bool, error) {
	raw, err := s.client.Get(ctx, s.key(runKey)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	nanos, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("malformed cancel record for %s: %w", runKey, err)
	}
	return !time.Unix(0, nanos).Before(since), nil
}

// Clear drops any recorded cancel for runKey.
func (s *RedisSignal) Clear(ctx context.Context, runKey string) error {
	return s.client.Del(ctx, s.key(runKey)).Err()
}

func (s *RedisSignal) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
