package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockdash/config"
	"stockdash/internal/cache"
	"stockdash/internal/dashboard"
	"stockdash/internal/datasource"
	"stockdash/internal/gateway"
	"stockdash/internal/logger"
	"stockdash/internal/metrics"
	"stockdash/internal/model"
)

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", "config.yaml"), "path to YAML config file")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[dashboard] starting...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[dashboard] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[dashboard] invalid config: %v", err)
	}

	level, _ := logger.ParseLevel(cfg.Log.Level)
	logger.Init("dashboard", level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prom := metrics.NewMetrics(nil)
	health := metrics.NewHealthStatus(cfg.Cache.Backend)

	store, err := cache.New(cache.Config{
		Backend:       cfg.Cache.Backend,
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
		RedisPrefix:   cfg.Cache.RedisPrefix,
		SQLitePath:    cfg.Cache.SQLitePath,
		OnBreakerChange: func(_, to cache.BreakerState) {
			prom.BreakerState(int(to))
			health.SetBreakerOpen(to == cache.BreakerOpen)
		},
	})
	if err != nil {
		log.Fatalf("[dashboard] cache %s: %v", cfg.Cache.Backend, err)
	}
	defer store.Close()
	log.Printf("[dashboard] cache backend=%s ttl=%s", cfg.Cache.Backend, cfg.Cache.TTL)

	if pruner, ok := store.(cache.Pruner); ok {
		janitor, err := cache.NewJanitor(ctx, pruner, cfg.Cache.PruneSchedule)
		if err != nil {
			log.Fatalf("[dashboard] cache janitor: %v", err)
		}
		janitor.OnPrune = func(n int, err error) {
			if err == nil {
				prom.Pruned(n)
			}
		}
		janitor.Start()
		defer janitor.Stop()
	}

	yahoo := datasource.NewYahooFetcher(datasource.YahooConfig{
		BaseURL:   cfg.Yahoo.BaseURL,
		Timeout:   cfg.Yahoo.Timeout,
		ProxyURL:  cfg.Yahoo.Proxy,
		UserAgent: cfg.Yahoo.UserAgent,
	})
	fetcher := datasource.NewCached(yahoo, store, cfg.Cache.TTL, prom, health)

	defaultPeriod, _ := model.ParsePeriod(cfg.Dashboard.DefaultPeriod)
	svc := dashboard.NewService(fetcher, prom, defaultPeriod)

	gw := gateway.NewServer(gateway.Config{
		AllowedOrigins:    cfg.ParseOrigins(),
		TOTPSecret:        cfg.Server.TOTPSecret,
		IndicatorsDefault: cfg.Dashboard.IndicatorsDefault,
		DefaultPeriod:     defaultPeriod,
		RequestTimeout:    2*cfg.Yahoo.Timeout + 5*time.Second,
	}, svc, prom, health)
	if cfg.Server.TOTPSecret != "" {
		log.Println("[dashboard] access code gate enabled")
	}

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("[dashboard] serving at http://localhost%s", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[dashboard] server error: %v", err)
		}
	}()

	<-sigCh
	log.Println("[dashboard] shutting down...")
	cancel()
	gw.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[dashboard] shutdown: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
