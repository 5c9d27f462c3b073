package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"stockdash/internal/cache"
	"stockdash/internal/logger"
	"stockdash/internal/model"
)

// Config holds all application configuration. Values come from defaults,
// then an optional YAML file, then environment variables.
type Config struct {
	Server struct {
		ListenAddr     string `yaml:"listen_addr"`
		AllowedOrigins string `yaml:"allowed_origins"` // comma-separated, "*" allows any
		TOTPSecret     string `yaml:"totp_secret"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Yahoo struct {
		BaseURL   string        `yaml:"base_url"`
		Timeout   time.Duration `yaml:"timeout"`
		Proxy     string        `yaml:"proxy"`
		UserAgent string        `yaml:"user_agent"`
	} `yaml:"yahoo"`
	Cache struct {
		Backend       string        `yaml:"backend"`
		TTL           time.Duration `yaml:"ttl"`
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db"`
		RedisPrefix   string        `yaml:"redis_prefix"`
		SQLitePath    string        `yaml:"sqlite_path"`
		PruneSchedule string        `yaml:"prune_schedule"`
	} `yaml:"cache"`
	Dashboard struct {
		DefaultPeriod     string `yaml:"default_period"`
		IndicatorsDefault bool   `yaml:"indicators_default"`
	} `yaml:"dashboard"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.ListenAddr = ":8080"
	cfg.Server.AllowedOrigins = "*"
	cfg.Log.Level = "info"
	cfg.Yahoo.BaseURL = "https://query1.finance.yahoo.com"
	cfg.Yahoo.Timeout = 15 * time.Second
	cfg.Yahoo.UserAgent = "Mozilla/5.0"
	cfg.Cache.Backend = cache.BackendMemory
	cfg.Cache.TTL = 300 * time.Second
	cfg.Cache.RedisAddr = "localhost:6379"
	cfg.Cache.RedisPrefix = "stockdash:"
	cfg.Cache.SQLitePath = "data/cache.db"
	cfg.Cache.PruneSchedule = cache.DefaultPruneSchedule
	cfg.Dashboard.DefaultPeriod = string(model.DefaultPeriod)
	cfg.Dashboard.IndicatorsDefault = true
	return cfg
}

// Load reads config from a YAML file, then applies environment variable
// overrides. An empty path or a missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.Server.ListenAddr = getEnv("LISTEN_ADDR", cfg.Server.ListenAddr)
	cfg.Server.AllowedOrigins = getEnv("ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)
	cfg.Server.TOTPSecret = getEnv("TOTP_SECRET", cfg.Server.TOTPSecret)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)

	cfg.Yahoo.BaseURL = getEnv("YAHOO_BASE_URL", cfg.Yahoo.BaseURL)
	cfg.Yahoo.Timeout = getEnvDuration("YAHOO_TIMEOUT", cfg.Yahoo.Timeout)
	cfg.Yahoo.Proxy = getEnv("HTTPS_PROXY", cfg.Yahoo.Proxy)
	cfg.Yahoo.UserAgent = getEnv("YAHOO_USER_AGENT", cfg.Yahoo.UserAgent)

	cfg.Cache.Backend = getEnv("CACHE_BACKEND", cfg.Cache.Backend)
	cfg.Cache.TTL = getEnvDuration("CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.RedisAddr = getEnv("REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = getEnv("REDIS_PASSWORD", cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = getEnvInt("REDIS_DB", cfg.Cache.RedisDB)
	cfg.Cache.RedisPrefix = getEnv("REDIS_PREFIX", cfg.Cache.RedisPrefix)
	cfg.Cache.SQLitePath = getEnv("SQLITE_PATH", cfg.Cache.SQLitePath)
	cfg.Cache.PruneSchedule = getEnv("CACHE_PRUNE_SCHEDULE", cfg.Cache.PruneSchedule)

	cfg.Dashboard.DefaultPeriod = getEnv("DEFAULT_PERIOD", cfg.Dashboard.DefaultPeriod)
	cfg.Dashboard.IndicatorsDefault = getEnvBool("INDICATORS_DEFAULT", cfg.Dashboard.IndicatorsDefault)

	return cfg, nil
}

// Validate checks enumerated values and positive durations.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Yahoo.BaseURL == "" {
		return fmt.Errorf("yahoo.base_url is required")
	}
	if c.Yahoo.Timeout <= 0 {
		return fmt.Errorf("yahoo.timeout must be positive")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	switch strings.ToLower(c.Cache.Backend) {
	case "", cache.BackendMemory:
	case cache.BackendRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for the redis backend")
		}
	case cache.BackendSQLite:
		if c.Cache.SQLitePath == "" {
			return fmt.Errorf("cache.sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("cache.backend must be one of memory, redis, sqlite; got %q", c.Cache.Backend)
	}
	if _, err := model.ParsePeriod(c.Dashboard.DefaultPeriod); err != nil {
		return fmt.Errorf("dashboard.default_period: %w", err)
	}
	return nil
}

// ParseOrigins splits AllowedOrigins into a list, dropping blanks.
func (c *Config) ParseOrigins() []string {
	parts := strings.Split(c.Server.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] ignoring invalid %s=%q", key, v)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] ignoring invalid %s=%q", key, v)
		return fallback
	}
	return b
}

// getEnvDuration accepts Go durations ("30s") or plain seconds ("30").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	log.Printf("[config] ignoring invalid %s=%q", key, v)
	return fallback
}
