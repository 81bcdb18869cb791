package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheTTL    = 5 * time.Minute
	cacheGenTTL = 24 * time.Hour
)

// DailyCache caches daily analytics responses in Redis. Invalidation bumps a
// per-driver generation counter, so stale keys simply expire instead of
// needing pattern deletes.
type DailyCache struct {
	client *redis.Client
	logger *slog.Logger
}

func NewDailyCache(client *redis.Client, logger *slog.Logger) *DailyCache {
	return &DailyCache{client: client, logger: logger}
}

// Get returns the cached report for the query, if any. Cache failures are
// treated as misses.
func (c *DailyCache) Get(ctx context.Context, driverID string, from, to time.Time) (DailyReport, bool) {
	if c == nil || c.client == nil {
		return DailyReport{}, false
	}
	key, err := c.key(ctx, driverID, from, to)
	if err != nil {
		return DailyReport{}, false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return DailyReport{}, false
	}
	var report DailyReport
	if err := json.Unmarshal(raw, &report); err != nil {
		c.logger.WarnContext(ctx, "corrupt analytics cache entry", "key", key, "error", err)
		return DailyReport{}, false
	}
	return report, true
}

// Set stores the report for the query. Best effort.
func (c *DailyCache) Set(ctx context.Context, driverID string, from, to time.Time, report DailyReport) {
	if c == nil || c.client == nil {
		return
	}
	key, err := c.key(ctx, driverID, from, to)
	if err != nil {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
		c.logger.WarnContext(ctx, "analytics cache write failed", "key", key, "error", err)
	}
}

// InvalidateDriver bumps the driver's generation, orphaning all cached
// reports for that driver.
func (c *DailyCache) InvalidateDriver(ctx context.Context, driverID string) {
	if c == nil || c.client == nil {
		return
	}
	genKey := "rosterd:analytics:gen:" + driverID
	if err := c.client.Incr(ctx, genKey).Err(); err != nil {
		c.logger.WarnContext(ctx, "analytics cache invalidation failed", "driver_id", driverID, "error", err)
		return
	}
	c.client.Expire(ctx, genKey, cacheGenTTL)
}

func (c *DailyCache) key(ctx context.Context, driverID string, from, to time.Time) (string, error) {
	genKey := "rosterd:analytics:gen:" + driverID
	gen, err := c.client.Get(ctx, genKey).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	return fmt.Sprintf("rosterd:analytics:daily:%s:%d:%d:%d", driverID, gen, from.Unix(), to.Unix()), nil
}
