package gateway

import (
	"math"
	"testing"
	"time"
)

func TestLatencyTracker_Empty(t *testing.T) {
	lt := NewLatencyTracker(100)
	p50, p95, p99 := lt.Percentiles()
	if p50 != 0 || p95 != 0 || p99 != 0 {
		t.Errorf("empty tracker: expected (0,0,0), got (%f,%f,%f)", p50, p95, p99)
	}
}

func TestLatencyTracker_SingleSample(t *testing.T) {
	lt := NewLatencyTracker(100)
	lt.Record(42 * time.Millisecond)

	p50, p95, p99 := lt.Percentiles()
	if p50 != 42 || p95 != 42 || p99 != 42 {
		t.Errorf("single sample: got (%f,%f,%f), want 42 each", p50, p95, p99)
	}
}

func TestLatencyTracker_Percentiles(t *testing.T) {
	lt := NewLatencyTracker(1000)
	for i := 1; i <= 100; i++ {
		lt.Record(time.Duration(i) * time.Millisecond)
	}

	p50, p95, p99 := lt.Percentiles()
	if math.Abs(p50-50.5) > 0.01 {
		t.Errorf("p50: got %f, want 50.5", p50)
	}
	if math.Abs(p95-95.05) > 0.01 {
		t.Errorf("p95: got %f, want 95.05", p95)
	}
	if math.Abs(p99-99.01) > 0.01 {
		t.Errorf("p99: got %f, want 99.01", p99)
	}
}

func TestLatencyTracker_Wraps(t *testing.T) {
	lt := NewLatencyTracker(10)
	for i := 0; i < 25; i++ {
		lt.Record(time.Second)
	}
	for i := 0; i < 10; i++ {
		lt.Record(5 * time.Millisecond)
	}
	if lt.Count() != 10 {
		t.Errorf("count: got %d, want 10", lt.Count())
	}
	if p99 := func() float64 { _, _, p := lt.Percentiles(); return p }(); p99 != 5 {
		t.Errorf("old samples should be overwritten, p99=%f", p99)
	}
}
