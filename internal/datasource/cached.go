package datasource

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"stockdash/internal/cache"
	"stockdash/internal/logger"
	"stockdash/internal/metrics"
	"stockdash/internal/model"
)

// DefaultTTL is how long fetched snapshots are served from the cache.
const DefaultTTL = 300 * time.Second

type historySnapshot struct {
	Frame *model.Frame       `json:"frame"`
	Info  *model.CompanyInfo `json:"info"`
}

// Cached decorates a Fetcher with a snapshot cache. Cache backend failures
// are logged and answered with a live fetch; they never fail a request.
type Cached struct {
	inner   Fetcher
	cache   cache.Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	health  *metrics.HealthStatus
}

// NewCached wraps inner. m and health may be nil.
func NewCached(inner Fetcher, c cache.Cache, ttl time.Duration, m *metrics.Metrics, health *metrics.HealthStatus) *Cached {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cached{inner: inner, cache: c, ttl: ttl, metrics: m, health: health}
}

func (c *Cached) FetchHistory(ctx context.Context, symbol string, period model.Period) (*model.Frame, *model.CompanyInfo, error) {
	key := cache.HistoryKey(symbol, string(period))

	var snap historySnapshot
	if c.lookup(ctx, OpHistory, key, &snap) && snap.Frame != nil {
		return snap.Frame, snap.Info, nil
	}

	start := time.Now()
	frame, info, err := c.inner.FetchHistory(ctx, symbol, period)
	c.observe(OpHistory, start, err)
	if err != nil {
		return nil, nil, err
	}

	c.store(ctx, OpHistory, key, historySnapshot{Frame: frame, Info: info})
	return frame, info, nil
}

func (c *Cached) FetchProfile(ctx context.Context, symbol string) (*model.CompanyInfo, error) {
	key := cache.ProfileKey(symbol)

	var info model.CompanyInfo
	if c.lookup(ctx, OpProfile, key, &info) {
		return &info, nil
	}

	start := time.Now()
	live, err := c.inner.FetchProfile(ctx, symbol)
	c.observe(OpProfile, start, err)
	if err != nil {
		return nil, err
	}

	c.store(ctx, OpProfile, key, live)
	return live, nil
}

// lookup decodes a cached snapshot into out and reports whether it did.
func (c *Cached) lookup(ctx context.Context, kind, key string, out any) bool {
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.metrics.CacheError(kind)
		slog.Warn("cache read failed, fetching live",
			append(logger.LogWithTrace(ctx), "key", key, "error", err)...)
		return false
	}
	if ok {
		if err := json.Unmarshal(data, out); err == nil {
			c.metrics.CacheLookup(kind, true)
			return true
		}
		slog.Warn("discarding undecodable cache entry",
			append(logger.LogWithTrace(ctx), "key", key)...)
	}
	c.metrics.CacheLookup(kind, false)
	return false
}

func (c *Cached) store(ctx context.Context, kind, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("cache encode failed", append(logger.LogWithTrace(ctx), "key", key, "error", err)...)
		return
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.metrics.CacheError(kind)
		slog.Warn("cache write failed", append(logger.LogWithTrace(ctx), "key", key, "error", err)...)
	}
}

// observe records a live fetch. An unknown symbol says nothing about the
// upstream's health and leaves it untouched.
func (c *Cached) observe(op string, start time.Time, err error) {
	c.metrics.ObserveFetch(op, time.Since(start), err)
	if IsNotFound(err) {
		return
	}
	c.health.SetFetchResult(err)
}
