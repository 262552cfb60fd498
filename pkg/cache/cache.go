// Package cache stores query results in Redis.
//
// Keys:
//
//	minionview:<dataset checksum>:<statement key>        rows as JSON
//	minionview:<dataset checksum>:<statement key>:count  COUNT(*) result
//
// The dataset checksum is part of the key, so a reload never serves rows of the
// previous asset. A nil *Cache is a valid disabled cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ruslano69/minionview/pkg/core/minion"
	"github.com/ruslano69/minionview/pkg/core/query"
	"github.com/ruslano69/minionview/pkg/metrics"
)

const keyPrefix = "minionview:"

// DefaultTTL is used when Config.TTL is zero.
const DefaultTTL = 10 * time.Minute

// Config configures the Redis connection.
type Config struct {
	Enabled  bool          `yaml:"enabled"`
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// Cache wraps a Redis client.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// Open connects to Redis. It returns nil, nil when the cache is disabled.
func Open(ctx context.Context, cfg Config) (*Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("cache: redis ping %s: %w", cfg.Address, err)
	}
	return New(rdb, cfg.TTL), nil
}

// New creates a Cache over an existing client.
func New(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// Key builds the Redis key of stmt against the dataset identified by checksum.
func Key(checksum string, stmt query.Statement) string {
	if checksum == "" {
		checksum = "-"
	}
	return keyPrefix + checksum + ":" + stmt.Key()
}

// GetResults returns cached rows. ok is false on a miss.
func (c *Cache) GetResults(ctx context.Context, checksum string, stmt query.Statement) (rows []minion.Result, ok bool, err error) {
	if c == nil {
		return nil, false, nil
	}
	data, err := c.get(ctx, Key(checksum, stmt))
	if err != nil || data == nil {
		return nil, false, err
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		metrics.CacheError()
		return nil, false, fmt.Errorf("cache: decode results: %w", err)
	}
	return rows, true, nil
}

// SetResults stores rows with the configured TTL.
func (c *Cache) SetResults(ctx context.Context, checksum string, stmt query.Statement, rows []minion.Result) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("cache: encode results: %w", err)
	}
	if err := c.rdb.Set(ctx, Key(checksum, stmt), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

// GetCount returns a cached row count. ok is false on a miss.
func (c *Cache) GetCount(ctx context.Context, checksum string, stmt query.Statement) (n int64, ok bool, err error) {
	if c == nil {
		return 0, false, nil
	}
	data, err := c.get(ctx, Key(checksum, stmt)+":count")
	if err != nil || data == nil {
		return 0, false, err
	}
	n, err = strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		metrics.CacheError()
		return 0, false, fmt.Errorf("cache: decode count: %w", err)
	}
	return n, true, nil
}

// SetCount stores a row count.
func (c *Cache) SetCount(ctx context.Context, checksum string, stmt query.Statement, n int64) error {
	if c == nil {
		return nil
	}
	if err := c.rdb.Set(ctx, Key(checksum, stmt)+":count", n, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

// Ping checks the connection. A disabled cache is always healthy.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMiss()
		return nil, nil
	}
	if err != nil {
		metrics.CacheError()
		return nil, fmt.Errorf("cache: redis get: %w", err)
	}
	metrics.CacheHit()
	return data, nil
}
