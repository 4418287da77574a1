// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"stock_ingest/internal/feature/candles/domain/entity"
	"stock_ingest/internal/feature/candles/usecase"
)

// CachingCandleReader decorates a CandleReader with Redis caching. Writes go
// through the ingest process, never through this reader, and stored candles
// are immutable, so entries simply expire by TTL instead of being
// invalidated.
type CachingCandleReader struct {
	inner     usecase.CandleReader
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.CandleReader = (*CachingCandleReader)(nil)

// NewCachingCandleReader decorates a CandleReader with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "candles".
func NewCachingCandleReader(rdb *redis.Client, ttl time.Duration, inner usecase.CandleReader, namespace string) *CachingCandleReader {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "candles"
	}
	return &CachingCandleReader{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Find retrieves candles, checking the cache first then falling back to the
// database.
func (c *CachingCandleReader) Find(ctx context.Context, kind entity.TableKind, f usecase.QueryFilter) ([]entity.Candle, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.Find(ctx, kind, f)
	}

	key := c.cacheKey(kind, f)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.Candle
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := c.inner.Find(ctx, kind, f)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// cacheKey generates a cache key for a specific query.
func (c *CachingCandleReader) cacheKey(kind entity.TableKind, f usecase.QueryFilter) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s:%d",
		c.namespace,
		kind.TableName(),
		safe(f.Ticker),
		day(f.StartDate),
		day(f.EndDate),
		f.Limit,
	)
}

// day renders a day-granular filter value, "-" when unset.
func day(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
