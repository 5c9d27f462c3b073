package metrics

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the dashboard service.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	// Upstream data source
	FetchDur    *prometheus.HistogramVec // labels: op
	FetchErrors *prometheus.CounterVec   // labels: op

	// Snapshot cache
	CacheHits   *prometheus.CounterVec // labels: kind
	CacheMisses *prometheus.CounterVec // labels: kind
	CacheErrors *prometheus.CounterVec // labels: kind
	CachePruned prometheus.Counter

	// Render passes
	RenderDur       *prometheus.HistogramVec // labels: outcome
	SectionFailures *prometheus.CounterVec   // labels: section

	IndicatorComputeDur prometheus.Histogram

	WSClients prometheus.Gauge

	RedisCircuitBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisCircuitBreakerTrips prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg registers on the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		FetchDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stockdash_fetch_duration_seconds",
			Help:    "Latency of upstream market data fetches",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"op"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockdash_fetch_errors_total",
			Help: "Upstream fetches that failed or returned no data",
		}, []string{"op"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockdash_cache_hits_total",
			Help: "Snapshot cache hits",
		}, []string{"kind"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockdash_cache_misses_total",
			Help: "Snapshot cache misses",
		}, []string{"kind"}),
		CacheErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockdash_cache_errors_total",
			Help: "Snapshot cache backend errors (served from a live fetch)",
		}, []string{"kind"}),
		CachePruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockdash_cache_pruned_total",
			Help: "Expired cache entries removed by the janitor",
		}),
		RenderDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stockdash_render_duration_seconds",
			Help:    "Duration of one dashboard render pass",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		SectionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockdash_section_failures_total",
			Help: "Dashboard sections that failed while the rest of the page rendered",
		}, []string{"section"}),
		IndicatorComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockdash_indicator_compute_seconds",
			Help:    "Time spent computing the indicator set of one series",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stockdash_ws_clients",
			Help: "Connected WebSocket clients",
		}),
		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stockdash_redis_circuit_breaker_state",
			Help: "Redis cache circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockdash_redis_circuit_breaker_trips_total",
			Help: "Times the Redis cache circuit breaker opened",
		}),
	}

	reg.MustRegister(
		m.FetchDur,
		m.FetchErrors,
		m.CacheHits,
		m.CacheMisses,
		m.CacheErrors,
		m.CachePruned,
		m.RenderDur,
		m.SectionFailures,
		m.IndicatorComputeDur,
		m.WSClients,
		m.RedisCircuitBreakerState,
		m.RedisCircuitBreakerTrips,
	)

	return m
}

// ObserveFetch records one upstream fetch.
func (m *Metrics) ObserveFetch(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.FetchDur.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		m.FetchErrors.WithLabelValues(op).Inc()
	}
}

// CacheLookup records a hit or a miss for kind ("history" or "profile").
func (m *Metrics) CacheLookup(kind string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.WithLabelValues(kind).Inc()
	} else {
		m.CacheMisses.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) CacheError(kind string) {
	if m == nil {
		return
	}
	m.CacheErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) Pruned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CachePruned.Add(float64(n))
}

// ObserveRender records a render pass. outcome is "ok" or "error".
func (m *Metrics) ObserveRender(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RenderDur.WithLabelValues(outcome).Observe(d.Seconds())
}

// InitSections exports a zero failure count for each section so dashboards
// see the series before the first failure.
func (m *Metrics) InitSections(sections ...string) {
	if m == nil {
		return
	}
	for _, s := range sections {
		m.SectionFailures.WithLabelValues(s)
	}
}

func (m *Metrics) SectionFailed(section string) {
	if m == nil {
		return
	}
	m.SectionFailures.WithLabelValues(section).Inc()
}

func (m *Metrics) ObserveIndicators(d time.Duration) {
	if m == nil {
		return
	}
	m.IndicatorComputeDur.Observe(d.Seconds())
}

// WSClientDelta adjusts the WebSocket client gauge by delta.
func (m *Metrics) WSClientDelta(delta int) {
	if m == nil {
		return
	}
	m.WSClients.Add(float64(delta))
}

// BreakerState records a breaker transition. state uses the gauge encoding.
func (m *Metrics) BreakerState(state int) {
	if m == nil {
		return
	}
	m.RedisCircuitBreakerState.Set(float64(state))
	if state == 1 {
		m.RedisCircuitBreakerTrips.Inc()
	}
}

// HealthStatus represents the service health reported on /health.
type HealthStatus struct {
	mu sync.RWMutex

	CacheBackend string    `json:"cache_backend"`
	LastFetchOK  bool      `json:"last_fetch_ok"`
	LastFetchAt  time.Time `json:"last_fetch_at"`
	LastFetchErr string    `json:"last_fetch_error,omitempty"`
	BreakerOpen  bool      `json:"breaker_open"`
	StartedAt    time.Time `json:"started_at"`
	now          func() time.Time
}

// NewHealthStatus returns a health status for a service using cacheBackend.
func NewHealthStatus(cacheBackend string) *HealthStatus {
	return &HealthStatus{
		CacheBackend: cacheBackend,
		StartedAt:    time.Now(),
		now:          time.Now,
	}
}

// SetFetchResult records the outcome of the latest upstream fetch.
func (h *HealthStatus) SetFetchResult(err error) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.LastFetchOK = err == nil
	h.LastFetchAt = h.now()
	h.LastFetchErr = ""
	if err != nil {
		h.LastFetchErr = err.Error()
	}
	h.mu.Unlock()
}

func (h *HealthStatus) SetBreakerOpen(v bool) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.BreakerOpen = v
	h.mu.Unlock()
}

// ServeHTTP handles the /health endpoint. The service is "degraded" while
// the last upstream fetch failed or the Redis breaker is open; it still
// answers 200 because cached pages may be served.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overall := "healthy"
	if (!h.LastFetchAt.IsZero() && !h.LastFetchOK) || h.BreakerOpen {
		overall = "degraded"
	}

	lastFetch := ""
	if !h.LastFetchAt.IsZero() {
		lastFetch = h.LastFetchAt.Format(time.RFC3339)
	}

	status := struct {
		Status       string `json:"status"`
		Uptime       string `json:"uptime"`
		CacheBackend string `json:"cache_backend"`
		BreakerOpen  bool   `json:"breaker_open"`
		LastFetchOK  bool   `json:"last_fetch_ok"`
		LastFetchAt  string `json:"last_fetch_at"`
		LastFetchErr string `json:"last_fetch_error,omitempty"`
	}{
		Status:       overall,
		Uptime:       h.now().Sub(h.StartedAt).Round(time.Second).String(),
		CacheBackend: h.CacheBackend,
		BreakerOpen:  h.BreakerOpen,
		LastFetchOK:  h.LastFetchOK,
		LastFetchAt:  lastFetch,
		LastFetchErr: h.LastFetchErr,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// Handler returns the Prometheus scrape handler for g.
// A nil g serves the default gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
