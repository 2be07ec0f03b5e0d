package fno

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	zerrors "zonix/internal/errors"
	"zonix/internal/resilience"
	"zonix/pkg/utils"
)

// Cache stores encoded analytics by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// MemoryCache is the default in-process cache.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string][]byte)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	return v, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	c.items[key] = value
	c.mu.Unlock()
	return nil
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisCache shares analytics between processes through Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection with a retried
// ping.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	err := utils.Retry(ctx, utils.DefaultRetryConfig(), func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, zerrors.Wrapf(zerrors.ErrCacheUnavailable, "redis %s: %v", opts.Addr, err)
	}

	return &RedisCache{client: client, ttl: opts.TTL}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, zerrors.Wrapf(zerrors.ErrCacheUnavailable, "get %s: %v", key, err)
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		return zerrors.Wrapf(zerrors.ErrCacheUnavailable, "set %s: %v", key, err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GuardedCache routes to a primary backend through a circuit breaker and
// serves from an in-process cache while the circuit is open. Every write also
// lands in the fallback so an outage starts warm.
type GuardedCache struct {
	primary  Cache
	fallback *MemoryCache
	breaker  *resilience.CircuitBreaker
}

// NewGuardedCache wraps primary. State changes are logged.
func NewGuardedCache(primary Cache, cfg resilience.CircuitBreakerConfig, logger zerolog.Logger) *GuardedCache {
	breaker := resilience.NewCircuitBreaker("fno-cache", cfg)
	log := logger.With().Str("component", "fno-cache").Logger()
	breaker.OnStateChange(func(from, to resilience.CircuitState) {
		log.Warn().Str("from", string(from)).Str("to", string(to)).Msg("Cache circuit changed state")
	})
	return &GuardedCache{primary: primary, fallback: NewMemoryCache(), breaker: breaker}
}

type cacheHit struct {
	value []byte
	ok    bool
}

func (c *GuardedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	hit, err := resilience.ExecuteWithResult(c.breaker, func() (cacheHit, error) {
		v, ok, err := c.primary.Get(ctx, key)
		return cacheHit{value: v, ok: ok}, err
	})
	if err != nil {
		return c.fallback.Get(ctx, key)
	}
	return hit.value, hit.ok, nil
}

func (c *GuardedCache) Set(ctx context.Context, key string, value []byte) error {
	_ = c.fallback.Set(ctx, key, value)
	_ = c.breaker.Execute(func() error {
		return c.primary.Set(ctx, key, value)
	})
	return nil
}

// Stats reports the circuit guarding the primary backend.
func (c *GuardedCache) Stats() resilience.CircuitBreakerStats {
	return c.breaker.Stats()
}
