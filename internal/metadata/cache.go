package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"certledger/internal/platform/metrics"
	"certledger/pkg/domain"
)

const cacheKeyPrefix = "certledger:metadata:"

// Cache is the subset of *redis.Client the cached store uses.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// CachedStore reads through Redis in front of a slower Store. Documents are
// immutable under their hash, so entries are never invalidated; the TTL only
// bounds memory. Cache failures fall back to the backing store.
type CachedStore struct {
	next    Store
	cache   Cache
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewCachedStore(next Store, cache Cache, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *CachedStore {
	return &CachedStore{next: next, cache: cache, ttl: ttl, logger: logger, metrics: m}
}

// Put pins through the backing store and primes the cache with the result.
func (c *CachedStore) Put(ctx context.Context, m *Metadata) (domain.ContentHash, error) {
	hash, err := c.next.Put(ctx, m)
	if err != nil {
		return "", err
	}
	if body, err := Canonical(m); err == nil {
		c.store(ctx, hash, body)
	}
	return hash, nil
}

func (c *CachedStore) Get(ctx context.Context, hash domain.ContentHash) (*Metadata, error) {
	data, err := c.cache.Get(ctx, cacheKey(hash)).Bytes()
	switch {
	case err == nil:
		var m Metadata
		if jsonErr := json.Unmarshal(data, &m); jsonErr == nil {
			c.lookup("hit")
			return &m, nil
		}
		c.lookup("error")
	case errors.Is(err, redis.Nil):
		c.lookup("miss")
	default:
		c.lookup("error")
		c.warn(ctx, "metadata cache read failed", hash, err)
	}

	m, err := c.next.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	if body, err := json.Marshal(m); err == nil {
		c.store(ctx, hash, body)
	}
	return m, nil
}

func (c *CachedStore) store(ctx context.Context, hash domain.ContentHash, body []byte) {
	if err := c.cache.Set(ctx, cacheKey(hash), body, c.ttl).Err(); err != nil {
		c.warn(ctx, "metadata cache write failed", hash, err)
	}
}

func (c *CachedStore) lookup(result string) {
	if c.metrics != nil {
		c.metrics.IncCacheLookup(result)
	}
}

func (c *CachedStore) warn(ctx context.Context, msg string, hash domain.ContentHash, err error) {
	if c.logger != nil {
		c.logger.WarnContext(ctx, msg, "content_hash", hash.String(), "error", err)
	}
}

func cacheKey(hash domain.ContentHash) string {
	return cacheKeyPrefix + hash.String()
}
