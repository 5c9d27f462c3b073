package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultPruneSchedule is used when no schedule is configured.
const DefaultPruneSchedule = "@every 5m"

// Janitor periodically removes expired entries from a Pruner.
type Janitor struct {
	cron   *cron.Cron
	pruner Pruner
	ctx    context.Context

	// OnPrune, when set, receives the outcome of every run.
	OnPrune func(removed int, err error)
}

// NewJanitor registers a prune job on schedule. The job stops running once
// ctx is cancelled or Stop is called.
func NewJanitor(ctx context.Context, p Pruner, schedule string) (*Janitor, error) {
	if schedule == "" {
		schedule = DefaultPruneSchedule
	}
	j := &Janitor{
		cron:   cron.New(),
		pruner: p,
		ctx:    ctx,
	}
	if _, err := j.cron.AddFunc(schedule, j.run); err != nil {
		return nil, fmt.Errorf("register prune job %q: %w", schedule, err)
	}
	return j, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
	slog.Info("cache janitor started")
}

// Stop halts the schedule and waits for a running prune to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
	slog.Info("cache janitor stopped")
}

// RunNow prunes immediately and returns the number of removed entries.
func (j *Janitor) RunNow() (int, error) {
	return j.prune()
}

func (j *Janitor) run() {
	if j.ctx.Err() != nil {
		return
	}
	j.prune()
}

func (j *Janitor) prune() (int, error) {
	ctx, cancel := context.WithTimeout(j.ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	n, err := j.pruner.Prune(ctx)
	if err != nil {
		slog.Error("cache prune failed", "error", err)
	} else if n > 0 {
		slog.Debug("cache pruned", "removed", n, "took", time.Since(start))
	}
	if j.OnPrune != nil {
		j.OnPrune(n, err)
	}
	return n, err
}
