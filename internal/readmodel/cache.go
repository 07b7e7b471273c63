// Package readmodel keeps a Redis-backed copy of the availability view so the
// public availability endpoint does not hit the primary store on every page
// load. The cache is derived state: a miss or a Redis outage falls back to the
// store, and writes refresh it after commit.
package readmodel

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"rifa/internal/platform/redis"
)

const (
	claimedKey = "rifa:availability:claimed"
	countKey   = "rifa:availability:count"

	// Entries expire so a missed refresh cannot serve stale data forever.
	ttl = 5 * time.Minute
)

// Cache implements the availability read model over Redis. All errors are
// logged and reported as cache misses; the cache never fails a request.
type Cache struct {
	client *redis.Client
	logger *slog.Logger
}

func New(client *redis.Client, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, logger: logger}
}

// Claimed returns the cached claimed-number set. The second return reports
// whether the cache held a value.
func (c *Cache) Claimed(ctx context.Context) ([]int, bool) {
	members, err := c.client.SMembers(ctx, claimedKey).Result()
	if err != nil {
		c.logger.WarnContext(ctx, "availability cache read failed", "key", claimedKey, "error", err)
		return nil, false
	}
	// An empty set is indistinguishable from an absent key, so the count key
	// acts as the presence marker for both.
	if exists, err := c.client.Exists(ctx, countKey).Result(); err != nil || exists == 0 {
		return nil, false
	}
	claimed := make([]int, 0, len(members))
	for _, m := range members {
		n, err := strconv.Atoi(m)
		if err != nil {
			c.logger.WarnContext(ctx, "availability cache holds a non-numeric member", "member", m)
			return nil, false
		}
		claimed = append(claimed, n)
	}
	sort.Ints(claimed)
	return claimed, true
}

// Count returns the cached participant count.
func (c *Cache) Count(ctx context.Context) (int, bool) {
	val, err := c.client.Get(ctx, countKey).Result()
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		c.logger.WarnContext(ctx, "availability cache holds a non-numeric count", "value", val)
		return 0, false
	}
	return n, true
}

// Refresh replaces the cached view atomically via a pipeline.
func (c *Cache) Refresh(ctx context.Context, claimed []int, count int) {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, claimedKey)
	if len(claimed) > 0 {
		members := make([]any, 0, len(claimed))
		for _, n := range claimed {
			members = append(members, strconv.Itoa(n))
		}
		pipe.SAdd(ctx, claimedKey, members...)
		pipe.Expire(ctx, claimedKey, ttl)
	}
	pipe.Set(ctx, countKey, strconv.Itoa(count), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.WarnContext(ctx, "availability cache refresh failed", "error", err)
	}
}

// Invalidate drops the cached view. Used by the cycle reset.
func (c *Cache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, claimedKey, countKey).Err(); err != nil {
		c.logger.WarnContext(ctx, "availability cache invalidation failed", "error", err)
	}
}
