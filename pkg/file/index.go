package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	redisconn "github.com/dmitrymomot/uploadkit/pkg/redis"
)

// IndexConfig configures the optional Redis metadata index.
type IndexConfig struct {
	RedisURL string        `env:"REDIS_URL" yaml:"redis_url"`
	Prefix   string        `env:"PREFIX" envDefault:"uploads:" yaml:"prefix"`
	TTL      time.Duration `env:"TTL" yaml:"ttl"` // Zero keeps entries forever
}

// RedisIndex implements MetadataIndex on Redis, one JSON document per
// public id.
type RedisIndex struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisIndex creates a RedisIndex. An empty prefix defaults to "uploads:".
func NewRedisIndex(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisIndex {
	if prefix == "" {
		prefix = "uploads:"
	}
	return &RedisIndex{client: client, prefix: prefix, ttl: ttl}
}

func connectRedisIndex(ctx context.Context, cfg IndexConfig) (*RedisIndex, error) {
	client, err := redisconn.Connect(ctx, redisconn.Config{
		ConnectionURL:  cfg.RedisURL,
		RetryAttempts:  3,
		RetryInterval:  time.Second,
		ConnectTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrInvalidConfig, ErrIndexUnavailable, err)
	}
	return NewRedisIndex(client, cfg.Prefix, cfg.TTL), nil
}

// Key returns the Redis key holding publicID.
func (i *RedisIndex) Key(publicID string) string {
	return i.prefix + publicID
}

// Put stores res under its public id.
func (i *RedisIndex) Put(ctx context.Context, res *UploadResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	if err := i.client.Set(ctx, i.Key(res.PublicID), data, i.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return nil
}

// Get loads the result stored for publicID. Numbers in Metadata come back
// as float64, as with any JSON document.
func (i *RedisIndex) Get(ctx context.Context, publicID string) (*UploadResult, error) {
	data, err := i.client.Get(ctx, i.Key(publicID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, publicID)
		}
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	var res UploadResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return &res, nil
}

// Remove drops the entry for publicID. Missing entries are not an error.
func (i *RedisIndex) Remove(ctx context.Context, publicID string) error {
	if err := i.client.Del(ctx, i.Key(publicID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return nil
}

// Ping reports whether Redis answers.
func (i *RedisIndex) Ping(ctx context.Context) error {
	if err := redisconn.Healthcheck(i.client)(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return nil
}
