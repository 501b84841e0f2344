package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Faultbox/planloft/internal/engine/mesh"
)

// Store errors.
var (
	ErrNotFound    = errors.New("buffer not found")
	ErrStoreClosed = errors.New("store is closed")
)

// StoreType selects a persistent store backend.
type StoreType string

// Store backends.
const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeFile   StoreType = "file"
	StoreTypeRedis  StoreType = "redis"
)

// StoreConfig configures the persistent geometry store.
type StoreConfig struct {
	// Type selects the backend. Memory is the default.
	Type StoreType `yaml:"type" json:"type"`

	// Dir is the base directory for the file backend.
	Dir string `yaml:"dir" json:"dir"`

	// Redis holds connection settings for the redis backend.
	Redis RedisConfig `yaml:"redis" json:"redis"`
}

// RedisConfig holds connection settings for a Redis-backed store.
type RedisConfig struct {
	Addr      string        `yaml:"addr" json:"addr"`
	Password  string        `yaml:"password" json:"password"`
	DB        int           `yaml:"db" json:"db"`
	PoolSize  int           `yaml:"pool_size" json:"poolSize"`
	KeyPrefix string        `yaml:"key_prefix" json:"keyPrefix"`
	TTL       time.Duration `yaml:"ttl" json:"ttl"`
}

// DefaultStoreConfig returns the store configuration used when none is given.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Type: StoreTypeMemory,
		Dir:  "./data/geometry",
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			PoolSize:  10,
			KeyPrefix: "planloft:",
			TTL:       24 * time.Hour,
		},
	}
}

// Store is a persistent content-addressed buffer store shared across
// processes. Keys are fingerprints; values survive restarts for the file
// and redis backends.
type Store interface {
	// Get retrieves the buffer stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (*mesh.Buffer, error)

	// Put stores buf under key, overwriting any previous value.
	Put(ctx context.Context, key string, buf *mesh.Buffer) error

	// Delete removes the value under key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Ping checks that the backend is reachable and open.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// OpenStore constructs the store selected by the configuration.
func OpenStore(cfg StoreConfig) (Store, error) {
	switch cfg.Type {
	case StoreTypeMemory, "":
		return NewMemoryStore(), nil
	case StoreTypeFile:
		return NewFileStore(cfg.Dir)
	case StoreTypeRedis:
		return NewRedisStore(cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}
