// Package cache provides an optional Redis-backed response cache for the
// external annotator and detector calls.  Both collaborators are pure
// functions of their input text, so cached responses never go stale; the
// TTL only bounds memory usage.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/MeasureLink/internal/config"
	"github.com/turtacn/MeasureLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MeasureLink/pkg/errors"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New(errors.ErrCodeNotFound, "cache miss")

// Cache is the read-through cache used around collaborator calls.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration,
		loader func(ctx context.Context) (interface{}, error)) error
	Ping(ctx context.Context) error
	Close() error
}

type redisCache struct {
	rdb        *redis.Client
	logger     logging.Logger
	prefix     string
	defaultTTL time.Duration
	group      singleflight.Group
}

// New connects to Redis and verifies the connection with a ping.
func New(cfg config.RedisConfig, logger logging.Logger) (Cache, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "redis connection failed")
	}

	logger.Info("redis cache connected", logging.String("addr", cfg.Addr))
	return &redisCache{
		rdb:        rdb,
		logger:     logger.Named("cache"),
		prefix:     cfg.KeyPrefix,
		defaultTTL: cfg.DefaultTTL,
	}, nil
}

// NewWithClient wraps an existing Redis client; used by tests.
func NewWithClient(rdb *redis.Client, prefix string, defaultTTL time.Duration, logger logging.Logger) Cache {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &redisCache{rdb: rdb, logger: logger, prefix: prefix, defaultTTL: defaultTTL}
}

// Key derives a stable cache key from arbitrary text.
func Key(kind, text string) string {
	sum := sha256.Sum256([]byte(text))
	return kind + ":" + hex.EncodeToString(sum[:])
}

func (c *redisCache) fullKey(key string) string { return c.prefix + key }

// jitterTTL spreads expirations +/- 10% so cached sentences of one
// document do not all expire in the same instant.
func (c *redisCache) jitterTTL(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return 0
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.rdb.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return ErrMiss
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to get from cache")
	}
	return json.Unmarshal(data, dest)
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to serialize cache value")
	}
	return c.rdb.Set(ctx, c.fullKey(key), data, c.jitterTTL(ttl)).Err()
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	return c.rdb.Del(ctx, full...).Err()
}

// GetOrSet reads through the cache, collapsing concurrent loads of the
// same key into one loader call.
func (c *redisCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration,
	loader func(ctx context.Context) (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if err != ErrMiss {
		return err
	}

	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		v, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		if setErr := c.Set(ctx, key, v, ttl); setErr != nil {
			c.logger.Warn("failed to populate cache", logging.String("key", key), logging.Err(setErr))
		}
		return v, nil
	})
	if err != nil {
		return err
	}

	data, err := json.Marshal(val)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to serialize loaded value")
	}
	return json.Unmarshal(data, dest)
}

func (c *redisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *redisCache) Close() error {
	return c.rdb.Close()
}
