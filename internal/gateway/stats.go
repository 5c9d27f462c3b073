package gateway

import (
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
)

// Stats is the /api/stats snapshot of the running process.
type Stats struct {
	Uptime      string  `json:"uptime"`
	Goroutines  int     `json:"goroutines"`
	HeapAlloc   string  `json:"heap_alloc"`
	Sys         string  `json:"sys"`
	GCRuns      uint32  `json:"gc_runs"`
	WSClients   int     `json:"ws_clients"`
	Renders     int     `json:"renders_sampled"`
	RenderP50Ms float64 `json:"render_p50_ms"`
	RenderP95Ms float64 `json:"render_p95_ms"`
	RenderP99Ms float64 `json:"render_p99_ms"`
	GeneratedAt string  `json:"ts"`
}

// CollectStats gathers runtime and render latency figures.
func CollectStats(start time.Time, lt *LatencyTracker, wsClients int) Stats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	s := Stats{
		Uptime:      time.Since(start).Round(time.Second).String(),
		Goroutines:  runtime.NumGoroutine(),
		HeapAlloc:   humanize.Bytes(ms.HeapAlloc),
		Sys:         humanize.Bytes(ms.Sys),
		GCRuns:      ms.NumGC,
		WSClients:   wsClients,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if lt != nil {
		s.Renders = lt.Count()
		s.RenderP50Ms, s.RenderP95Ms, s.RenderP99Ms = lt.Percentiles()
	}
	return s
}
