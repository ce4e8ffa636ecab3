// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"chart_backend/internal/feature/ingest/domain"
	"chart_backend/internal/feature/ingest/domain/entity"
)

// DatasetStore is the repository the cache decorates.
type DatasetStore interface {
	Save(ctx context.Context, ds entity.Dataset) error
	Find(ctx context.Context, id string, now time.Time) (*entity.Dataset, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// CachingDatasetRepository decorates a DatasetStore with Redis caching.
// It implements the decorator pattern, transparently adding caching without
// modifying the underlying repository.
type CachingDatasetRepository struct {
	inner     DatasetStore
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// NewCachingDatasetRepository decorates a DatasetStore with Redis caching.
// ttl caps how long an entry lives; an entry never outlives its dataset.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "datasets".
func NewCachingDatasetRepository(rdb *redis.Client, ttl time.Duration, inner DatasetStore, namespace string) *CachingDatasetRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "datasets"
	}
	return &CachingDatasetRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Save stores the dataset and drops any stale cache entry for its id.
func (c *CachingDatasetRepository) Save(ctx context.Context, ds entity.Dataset) error {
	if err := c.inner.Save(ctx, ds); err != nil {
		return err
	}
	if c.rdb != nil {
		_ = c.rdb.Del(ctx, c.cacheKey(ds.ID)).Err() // Best effort
	}
	return nil
}

// Find retrieves a dataset, checking cache first then falling back to the database.
func (c *CachingDatasetRepository) Find(ctx context.Context, id string, now time.Time) (*entity.Dataset, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.Find(ctx, id, now)
	}

	key := c.cacheKey(id)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var ds entity.Dataset
		if err := json.Unmarshal(b, &ds); err == nil {
			if ds.Expired(now) {
				_ = c.rdb.Del(ctx, key).Err()
				return nil, domain.ErrDatasetNotFound
			}
			return &ds, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	ds, err := c.inner.Find(ctx, id, now)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	ttl := min(c.ttl, ds.ExpiresAt.Sub(now))
	if ttl > 0 {
		if b, err := json.Marshal(ds); err == nil {
			_ = c.rdb.Set(ctx, key, b, ttl).Err()
		}
	}

	return ds, nil
}

// Delete removes the dataset and its cache entry.
func (c *CachingDatasetRepository) Delete(ctx context.Context, id string) error {
	err := c.inner.Delete(ctx, id)
	if c.rdb != nil && (err == nil || errors.Is(err, domain.ErrDatasetNotFound)) {
		_ = c.rdb.Del(ctx, c.cacheKey(id)).Err()
	}
	return err
}

// DeleteExpired purges expired datasets. Cached copies expire on their own TTL.
func (c *CachingDatasetRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return c.inner.DeleteExpired(ctx, now)
}

// cacheKey generates a cache key for a dataset.
func (c *CachingDatasetRepository) cacheKey(id string) string {
	return fmt.Sprintf("%s:%s", c.namespace, safe(id))
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
