package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

const (
	defaultRedisPrefix = "stockdash:"
	breakerFailures    = 5
	breakerCooldown    = 30 * time.Second
)

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // prepended to every key, default "stockdash:"

	OnBreakerChange func(from, to BreakerState)
}

// Redis stores snapshots as plain string keys with a server-side TTL.
// Calls go through a Breaker: while it is open Get reports a miss and Set
// is dropped, so a Redis outage only costs live fetches.
type Redis struct {
	client  *goredis.Client
	prefix  string
	breaker *Breaker
}

// NewRedis connects to Redis and pings the server.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	r := newRedis(client, cfg.Prefix)
	r.breaker.OnStateChange = func(from, to BreakerState) {
		slog.Warn("redis cache breaker transition", "from", from.String(), "to", to.String())
		if cfg.OnBreakerChange != nil {
			cfg.OnBreakerChange(from, to)
		}
	}

	slog.Info("redis cache connected", "addr", cfg.Addr, "prefix", r.prefix)
	return r, nil
}

func newRedis(client *goredis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &Redis{
		client:  client,
		prefix:  prefix,
		breaker: NewBreaker(breakerFailures, breakerCooldown),
	}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var value []byte
	err := r.breaker.Do(func() error {
		b, err := r.client.Get(ctx, r.prefix+key).Bytes()
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		if err != nil {
			if cerr := callerErr(ctx); cerr != nil {
				return cerr
			}
		}
		value = b
		return err
	})
	if errors.Is(err, ErrBreakerOpen) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, value != nil, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	err := r.breaker.Do(func() error {
		err := r.client.Set(ctx, r.prefix+key, value, ttl).Err()
		if err != nil {
			if cerr := callerErr(ctx); cerr != nil {
				return cerr
			}
		}
		return err
	})
	if errors.Is(err, ErrBreakerOpen) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// callerErr reports whether ctx has ended. go-redis turns a context
// deadline into a socket timeout, so the deadline is checked directly.
func callerErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dl, ok := ctx.Deadline(); ok && !time.Now().Before(dl) {
		return context.DeadlineExceeded
	}
	return nil
}

// BreakerState reports the state of the breaker guarding the connection.
func (r *Redis) BreakerState() BreakerState {
	return r.breaker.State()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
