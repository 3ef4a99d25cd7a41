// Package readcache keeps JSON copies of hot catalog reads in Redis and drops
// them by tag when the back office writes.
package readcache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// TagActiveProducts covers every listing of active products.
const TagActiveProducts = "products:active"

// ProductTag covers every cached read of one product.
func ProductTag(id string) string {
	return "product:" + id
}

// Store is the Redis surface the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	CacheKey(name string) string
	TagKey(tag string) string
}

// Observer counts hits and misses.
type Observer interface {
	CacheHit(cache string)
	CacheMiss(cache string)
}

type Cache struct {
	store    Store
	ttl      time.Duration
	logg     *logger.Logger
	observer Observer
}

// New builds a cache. A nil store disables caching and every Fetch goes to
// the loader.
func New(store Store, ttl time.Duration, logg *logger.Logger, observer Observer) *Cache {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Cache{store: store, ttl: ttl, logg: logg, observer: observer}
}

// Fetch returns the cached value for name or calls load and caches its
// result under tags. Results load reports as not found are never cached.
// Cache errors are logged and never fail the read.
func Fetch[T any](ctx context.Context, c *Cache, name string, tags []string, load func(context.Context) (T, bool, error)) (T, bool, error) {
	if c == nil || c.store == nil || c.ttl <= 0 {
		return load(ctx)
	}
	key := c.store.CacheKey(name)
	label := metricLabel(name)
	logCtx := c.logg.WithField(ctx, "cache_key", key)

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var cached T
		if jerr := json.Unmarshal([]byte(raw), &cached); jerr == nil {
			c.hit(label)
			return cached, true, nil
		}
		c.logg.Warn(logCtx, "discarding undecodable cache entry")
	case !redis.IsMiss(err):
		c.logg.Error(logCtx, "read cache get failed", err)
	}
	c.miss(label)

	value, found, err := load(ctx)
	if err != nil || !found {
		return value, found, err
	}
	if err := c.put(ctx, key, tags, value); err != nil {
		c.logg.Error(logCtx, "read cache store failed", err)
	}
	return value, true, nil
}

func (c *Cache) put(ctx context.Context, key string, tags []string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, key, string(payload), c.ttl); err != nil {
		return err
	}
	return c.addTags(ctx, key, tags)
}

func (c *Cache) addTags(ctx context.Context, key string, tags []string) error {
	var errs error
	for _, tag := range tags {
		tagKey := c.store.TagKey(tag)
		errs = multierr.Append(errs, c.store.SAdd(ctx, tagKey, key))
		errs = multierr.Append(errs, c.store.Expire(ctx, tagKey, c.ttl))
	}
	return errs
}

// Tag registers the entry for name under more tags once its subject is known.
// Failures are logged.
func (c *Cache) Tag(ctx context.Context, name string, tags ...string) {
	if c == nil || c.store == nil || c.ttl <= 0 {
		return
	}
	key := c.store.CacheKey(name)
	if errs := c.addTags(ctx, key, tags); errs != nil {
		c.logg.Error(c.logg.WithField(ctx, "cache_key", key), "read cache tag failed", errs)
	}
}

// Invalidate drops every entry registered under tags along with the tag sets.
// It keeps going after a failure and returns all errors combined.
func (c *Cache) Invalidate(ctx context.Context, tags ...string) error {
	if c == nil || c.store == nil {
		return nil
	}
	var errs error
	for _, tag := range tags {
		tagKey := c.store.TagKey(tag)
		keys, err := c.store.SMembers(ctx, tagKey)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		errs = multierr.Append(errs, c.store.Del(ctx, append(keys, tagKey)...))
	}
	if errs == nil && len(tags) > 0 {
		c.logg.Debug(c.logg.WithField(ctx, "tags", tags), "read cache invalidated")
	}
	return errs
}

func (c *Cache) hit(label string) {
	if c.observer != nil {
		c.observer.CacheHit(label)
	}
}

func (c *Cache) miss(label string) {
	if c.observer != nil {
		c.observer.CacheMiss(label)
	}
}

// metricLabel keeps ids out of metric labels: "product:<id>" becomes "product".
func metricLabel(name string) string {
	if i := strings.IndexByte(name, ':'); i > 0 {
		return name[:i]
	}
	return name
}
