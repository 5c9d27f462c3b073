// Package cache stores fetched market data snapshots for a bounded time.
//
// Values are opaque byte slices written once per key and replaced wholesale
// on the next Set; readers never see a partially written value. Expiry is
// enforced when an entry is read, so an expired entry behaves as a miss even
// before a Janitor has removed it.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Cache is a keyed byte store with per-entry expiry.
type Cache interface {
	// Get returns the value stored under key. A missing or expired entry
	// reports ok == false with a nil error.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set stores value under key. A ttl <= 0 stores the entry without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Pruner is implemented by backends that keep expired entries around until
// they are explicitly removed.
type Pruner interface {
	Prune(ctx context.Context) (int, error)
}

// Config selects and configures a backend.
type Config struct {
	Backend string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	SQLitePath string

	// OnBreakerChange is forwarded to the Redis backend's breaker.
	OnBreakerChange func(from, to BreakerState)
}

// New builds the backend named by cfg.Backend. An empty name selects memory.
func New(cfg Config) (Cache, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendRedis:
		return NewRedis(RedisConfig{
			Addr:            cfg.RedisAddr,
			Password:        cfg.RedisPassword,
			DB:              cfg.RedisDB,
			Prefix:          cfg.RedisPrefix,
			OnBreakerChange: cfg.OnBreakerChange,
		})
	case BackendSQLite:
		return NewSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// HistoryKey is the cache key of a price history snapshot.
func HistoryKey(symbol, period string) string {
	return "history:" + symbol + ":" + period
}

// ProfileKey is the cache key of a company profile snapshot.
func ProfileKey(symbol string) string {
	return "profile:" + symbol
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
