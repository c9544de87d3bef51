package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CacheHelper provides prefixed cache-aside operations over Redis.
// A nil client turns every read into a miss and every write into a no-op.
type CacheHelper struct {
	client *redis.Client
	prefix string
	group  singleflight.Group
}

// NewCacheHelper creates a new cache helper instance
func NewCacheHelper(client *redis.Client, prefix string) *CacheHelper {
	return &CacheHelper{
		client: client,
		prefix: prefix,
	}
}

// CacheConfig defines cache configuration for different data types
type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

var (
	// Aggregates recomputed from grades and attendance
	AnalyticsCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "analytics:",
	}

	// Overview counters
	StatsCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "stats:",
	}
)

// GetCacheKey generates a cache key with prefix
func (c *CacheHelper) GetCacheKey(key string) string {
	return fmt.Sprintf("%s%s", c.prefix, key)
}

// Enabled reports whether a Redis client is attached
func (c *CacheHelper) Enabled() bool {
	return c.client != nil
}

// Get retrieves and unmarshals data from cache
func (c *CacheHelper) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	data, err := c.client.Get(ctx, c.GetCacheKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheNotFound
		}
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache unmarshal error: %w", err)
	}

	return nil
}

// Set marshals and stores data in cache
func (c *CacheHelper) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	return c.client.Set(ctx, c.GetCacheKey(key), data, ttl).Err()
}

// Delete removes keys using a single DEL
func (c *CacheHelper) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}

	cacheKeys := make([]string, len(keys))
	for i, key := range keys {
		cacheKeys[i] = c.GetCacheKey(key)
	}

	return c.client.Del(ctx, cacheKeys...).Err()
}

// generationKey holds the invalidation counter of the prefix. It lives
// outside the prefix so pattern deletes never reset it.
func (c *CacheHelper) generationKey() string {
	return "cachegen:" + c.prefix
}

// generation reads the invalidation counter, zero when never bumped
func (c *CacheHelper) generation(ctx context.Context) (int64, error) {
	if c.client == nil {
		return 0, nil
	}
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// setIfGeneration stores data only while the counter still equals gen, so a
// result computed before an invalidation is never written after it.
func (c *CacheHelper) setIfGeneration(ctx context.Context, cacheKey string, data []byte, ttl time.Duration, gen int64) error {
	genKey := c.generationKey()
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, cacheKey, data, ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return errStaleGeneration
	}
	return err
}

// InvalidatePattern bumps the prefix generation, then removes all keys
// matching a pattern using SCAN instead of KEYS
func (c *CacheHelper) InvalidatePattern(ctx context.Context, pattern string) error {
	if c.client == nil {
		return nil
	}

	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("cache generation bump error: %w", err)
	}

	fullPattern := c.GetCacheKey(pattern)
	var cursor uint64
	var keys []string

	for {
		var scanKeys []string
		var err error
		scanKeys, cursor, err = c.client.Scan(ctx, cursor, fullPattern, 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan pattern error: %w", err)
		}
		keys = append(keys, scanKeys...)
		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	const batchSize = 100
	for i := 0; i < len(keys); i += batchSize {
		end := min(i+batchSize, len(keys))
		pipe.Del(ctx, keys[i:end]...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache pipeline delete error: %w", err)
	}

	return nil
}

// CacheOrExecute implements cache-aside. Concurrent misses on the same key
// share one fetchFunc call.
func (c *CacheHelper) CacheOrExecute(ctx context.Context, key string, dest interface{}, ttl time.Duration, fetchFunc func() (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}

	if !errors.Is(err, ErrCacheNotFound) && !errors.Is(err, ErrCacheNotAvailable) {
		slog.WarnContext(ctx, "Cache get error, proceeding to fetch", "error", err, "key", key)
	}

	// the generation is read before fetching; callers arriving after an
	// invalidation get their own flight
	gen, genErr := c.generation(ctx)
	if genErr != nil {
		slog.WarnContext(ctx, "Cache generation read error, result will not be stored", "error", genErr, "key", key)
	}

	cacheKey := c.GetCacheKey(key)
	flightKey := fmt.Sprintf("%s@%d", cacheKey, gen)
	payload, err, _ := c.group.Do(flightKey, func() (interface{}, error) {
		value, err := fetchFunc()
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal result error: %w", err)
		}

		if c.client != nil && genErr == nil {
			setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			switch err := c.setIfGeneration(setCtx, cacheKey, data, ttl, gen); {
			case errors.Is(err, errStaleGeneration):
				slog.DebugContext(ctx, "Cache invalidated during fetch, result not stored", "key", key)
			case err != nil:
				slog.ErrorContext(ctx, "Cache set error", "error", err, "key", key)
			}
		}

		return data, nil
	})
	if err != nil {
		return fmt.Errorf("fetch function error: %w", err)
	}

	return json.Unmarshal(payload.([]byte), dest)
}

// Cache errors
var (
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrCacheNotFound     = errors.New("cache not found")

	errStaleGeneration = errors.New("cache generation changed")
)

// CacheManager groups the cache helpers used by the services
type CacheManager struct {
	client    *redis.Client
	Analytics *CacheHelper
	Stats     *CacheHelper
	TTL       time.Duration
}

// NewCacheManager creates cache manager with all cache helpers. ttl overrides
// the analytics default when positive.
func NewCacheManager(client *redis.Client, ttl time.Duration) *CacheManager {
	if ttl <= 0 {
		ttl = AnalyticsCacheConfig.TTL
	}

	return &CacheManager{
		client:    client,
		Analytics: NewCacheHelper(client, AnalyticsCacheConfig.Prefix),
		Stats:     NewCacheHelper(client, StatsCacheConfig.Prefix),
		TTL:       ttl,
	}
}

// HealthCheck verifies cache connectivity
func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if cm.client == nil {
		return ErrCacheNotAvailable
	}

	if err := cm.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache health check failed: %w", err)
	}

	return nil
}
