package metrics

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	var pb dto.Metric
	if err := (<-ch).Write(&pb); err != nil {
		t.Fatalf("read metric: %v", err)
	}
	if pb.Counter != nil {
		return pb.GetCounter().GetValue()
	}
	return pb.GetGauge().GetValue()
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveFetch("history", time.Second, errors.New("x"))
	m.CacheLookup("history", true)
	m.CacheError("history")
	m.Pruned(3)
	m.ObserveRender("ok", time.Second)
	m.SectionFailed("chart")
	m.InitSections("chart")
	m.ObserveIndicators(time.Millisecond)
	m.WSClientDelta(1)
	m.BreakerState(1)
}

func TestNewMetrics_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveFetch("profile", 20*time.Millisecond, errors.New("502"))
	m.ObserveFetch("profile", 20*time.Millisecond, nil)
	m.SectionFailed("summary")
	m.SectionFailed("summary")
	m.WSClientDelta(1)
	m.WSClientDelta(1)
	m.WSClientDelta(-1)
	m.BreakerState(1)
	m.BreakerState(2)
	m.Pruned(4)
	m.Pruned(0)

	if got := counterValue(t, m.FetchErrors.WithLabelValues("profile")); got != 1 {
		t.Errorf("fetch errors = %v", got)
	}
	if got := counterValue(t, m.SectionFailures.WithLabelValues("summary")); got != 2 {
		t.Errorf("section failures = %v", got)
	}
	if got := counterValue(t, m.WSClients); got != 1 {
		t.Errorf("ws clients = %v", got)
	}
	if got := counterValue(t, m.RedisCircuitBreakerState); got != 2 {
		t.Errorf("breaker state = %v", got)
	}
	if got := counterValue(t, m.RedisCircuitBreakerTrips); got != 1 {
		t.Errorf("breaker trips = %v", got)
	}
	if got := counterValue(t, m.CachePruned); got != 4 {
		t.Errorf("pruned = %v", got)
	}

	if _, err := reg.Gather(); err != nil {
		t.Fatalf("gather: %v", err)
	}
}

func TestHealthStatus(t *testing.T) {
	h := NewHealthStatus("redis")

	read := func() map[string]any {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
		if rec.Code != 200 {
			t.Fatalf("status code = %d", rec.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return body
	}

	if got := read()["status"]; got != "healthy" {
		t.Errorf("fresh status = %v", got)
	}

	h.SetFetchResult(errors.New("yahoo: status 503"))
	body := read()
	if body["status"] != "degraded" || body["last_fetch_error"] != "yahoo: status 503" {
		t.Errorf("after failure = %v", body)
	}

	h.SetFetchResult(nil)
	if got := read()["status"]; got != "healthy" {
		t.Errorf("after recovery = %v", got)
	}

	h.SetBreakerOpen(true)
	if got := read()["status"]; got != "degraded" {
		t.Errorf("breaker open = %v", got)
	}
	if read()["cache_backend"] != "redis" {
		t.Error("missing cache backend")
	}
}

func TestInitSections(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.InitSections("overview", "chart")

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if mf.GetName() != "stockdash_section_failures_total" {
			continue
		}
		if len(mf.GetMetric()) != 2 {
			t.Fatalf("series = %d, want 2", len(mf.GetMetric()))
		}
		for _, pb := range mf.GetMetric() {
			if v := pb.GetCounter().GetValue(); v != 0 {
				t.Errorf("initial count = %v", v)
			}
		}
		return
	}
	t.Fatal("section failure family not exported")
}
