package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Faultbox/planloft/internal/engine/mesh"
)

// RedisStore persists encoded buffers in Redis. Suitable for sharing
// generated geometry across multiple nodes.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "planloft:"
	}

	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix + "mesh:",
		ttl:       cfg.TTL,
	}, nil
}

func (s *RedisStore) key(fingerprint string) string {
	return s.keyPrefix + fingerprint
}

// Get retrieves and decodes the buffer stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) (*mesh.Buffer, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis store: %w", err)
	}
	return mesh.Decode(data)
}

// Put stores the encoded buffer under key with the configured TTL.
func (s *RedisStore) Put(ctx context.Context, key string, buf *mesh.Buffer) error {
	if err := s.client.Set(ctx, s.key(key), mesh.Encode(buf), s.ttl).Err(); err != nil {
		return fmt.Errorf("redis store: %w", err)
	}
	return nil
}

// Delete removes the value under key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis store: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
