package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// Catalog responses are cheap to rebuild and go stale the moment a claim
// lands, so their TTL is short; viewer lookups live longer.
const (
	CatalogCacheTTL = time.Minute
	ViewerCacheTTL  = 5 * time.Minute
)

// CacheService provides a Redis cache-aside layer for catalog and viewer
// lookups.
type CacheService struct {
	rdb *redis.Client

	hits   prometheus.Counter
	misses prometheus.Counter
}

// NewCacheService creates a new CacheService. If redisURL is empty or the
// connection fails, it returns a CacheService with a nil client (cache
// operations become no-ops).
func NewCacheService(redisURL string) *CacheService {
	if redisURL == "" {
		log.Println("redis: no URL configured, caching disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("redis: invalid URL %q, caching disabled: %v", redisURL, err)
		return &CacheService{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("redis: connection failed, caching disabled: %v", err)
		return &CacheService{}
	}

	log.Println("redis: connected, caching enabled")
	return &CacheService{rdb: rdb}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

// InstrumentWith attaches hit/miss counters to the Get paths. Counters are
// registered at startup, after the cache is constructed, so they arrive here
// rather than through the constructor. A disabled cache counts nothing.
func (c *CacheService) InstrumentWith(hits, misses prometheus.Counter) {
	c.hits = hits
	c.misses = misses
}

func (c *CacheService) countHit() {
	if c.hits != nil {
		c.hits.Inc()
	}
}

func (c *CacheService) countMiss() {
	if c.misses != nil {
		c.misses.Inc()
	}
}

// GetCatalog retrieves a cached catalog response. Returns nil if not cached
// or cache is disabled.
func (c *CacheService) GetCatalog(ctx context.Context, surface, viewerID, day string) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, catalogKey(surface, viewerID, day)).Bytes()
	if err == redis.Nil {
		c.countMiss()
		return nil, nil
	}
	if err == nil {
		c.countHit()
	}
	return data, err
}

// SetCatalog stores a catalog response in cache.
func (c *CacheService) SetCatalog(ctx context.Context, surface, viewerID, day string, data interface{}) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, catalogKey(surface, viewerID, day), b, CatalogCacheTTL).Err()
}

// GetViewer retrieves a cached viewer response. Returns nil if not cached.
func (c *CacheService) GetViewer(ctx context.Context, viewerID string) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, viewerKey(viewerID)).Bytes()
	if err == redis.Nil {
		c.countMiss()
		return nil, nil
	}
	if err == nil {
		c.countHit()
	}
	return data, err
}

// SetViewer stores a viewer response in cache.
func (c *CacheService) SetViewer(ctx context.Context, viewerID string, data interface{}) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, viewerKey(viewerID), b, ViewerCacheTTL).Err()
}

// InvalidateViewer drops a viewer's cached lookup and their per-surface
// catalog entries for the given day (called after a claim changes state).
func (c *CacheService) InvalidateViewer(ctx context.Context, viewerID, day string) error {
	if c.rdb == nil {
		return nil
	}
	keys := []string{
		viewerKey(viewerID),
		catalogKey("landing", viewerID, day),
		catalogKey("user", viewerID, day),
		catalogKey("advertiser", viewerID, day),
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func catalogKey(surface, viewerID, day string) string {
	return fmt.Sprintf("catalog:%s:%s:%s", surface, viewerID, day)
}

func viewerKey(viewerID string) string {
	return fmt.Sprintf("viewer:%s", viewerID)
}
