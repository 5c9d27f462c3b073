// Package gateway exposes the dashboard over HTTP and WebSocket.
package gateway

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"stockdash/internal/metrics"
	"stockdash/internal/model"
)

// Config configures a Server.
type Config struct {
	AllowedOrigins    []string
	TOTPSecret        string
	IndicatorsDefault bool
	DefaultPeriod     model.Period
	RequestTimeout    time.Duration
	// Gatherer backs /metrics. Nil serves the default registry.
	Gatherer prometheus.Gatherer
}

// Server routes dashboard requests to a Renderer.
type Server struct {
	cfg      Config
	svc      Renderer
	hub      *Hub
	health   *metrics.HealthStatus
	latency  *LatencyTracker
	upgrader websocket.Upgrader
	started  time.Time
	now      func() time.Time
}

// NewServer creates a server. m and health may be nil.
func NewServer(cfg Config, svc Renderer, m *metrics.Metrics, health *metrics.HealthStatus) *Server {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if cfg.DefaultPeriod == "" {
		cfg.DefaultPeriod = model.DefaultPeriod
	}
	if health == nil {
		health = metrics.NewHealthStatus("")
	}
	lt := NewLatencyTracker(1024)
	return &Server{
		cfg:      cfg,
		svc:      svc,
		hub:      NewHub(svc, cfg.IndicatorsDefault, cfg.RequestTimeout, m, lt),
		health:   health,
		latency:  lt,
		upgrader: newUpgrader(cfg.AllowedOrigins),
		started:  time.Now(),
		now:      time.Now,
	}
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the routed handler with trace, CORS and access-code
// middleware applied. /health and /metrics are never gated.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /api/dashboard", s.handleDashboard)
	api.HandleFunc("GET /api/chart", s.handleChart)
	api.HandleFunc("GET /api/summary", s.handleSummary)
	api.HandleFunc("GET /api/export", s.handleExport)
	api.HandleFunc("GET /api/periods", s.handlePeriods)
	api.HandleFunc("GET /api/stats", s.handleStats)
	api.HandleFunc("GET /ws", s.handleWS)

	gated := withAccessCode(s.cfg.TOTPSecret, func() time.Time { return s.now() }, api)

	mux := http.NewServeMux()
	mux.Handle("/api/", gated)
	mux.Handle("/ws", gated)
	mux.Handle("GET /health", s.health)
	mux.Handle("GET /metrics", metrics.Handler(s.cfg.Gatherer))

	return withTrace(withCORS(s.cfg.AllowedOrigins, mux))
}

// Close disconnects WebSocket clients.
func (s *Server) Close() {
	s.hub.Close()
}
