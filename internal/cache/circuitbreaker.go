package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// BreakerState is the position of a Breaker.
type BreakerState int

const (
	BreakerClosed   BreakerState = 0 // backend calls pass through
	BreakerOpen     BreakerState = 1 // backend calls are skipped
	BreakerHalfOpen BreakerState = 2 // a single probe call is in flight
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen is returned instead of calling a backend whose breaker is open.
var ErrBreakerOpen = errors.New("cache backend unavailable: circuit open")

// Breaker stops a failing remote cache from adding latency to every render.
// After maxFailures consecutive failures it opens and skips the backend for
// cooldown; the next call after that is a probe that closes it on success
// and reopens it on failure. Calls arriving while the probe runs are
// skipped. Context cancellation and deadline errors belong to the caller
// and are never counted.
type Breaker struct {
	mu          sync.Mutex
	state       BreakerState
	failures    int
	maxFailures int
	cooldown    time.Duration
	openedAt    time.Time
	now         func() time.Time

	// OnStateChange, when set, is called on every transition with the lock held.
	OnStateChange func(from, to BreakerState)
}

// NewBreaker creates a closed breaker.
func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &Breaker{
		maxFailures: maxFailures,
		cooldown:    cooldown,
		now:         time.Now,
	}
}

// Do runs fn unless the breaker is open.
func (b *Breaker) Do(fn func() error) error {
	b.mu.Lock()
	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			b.mu.Unlock()
			return ErrBreakerOpen
		}
		b.transition(BreakerHalfOpen)
	case BreakerHalfOpen:
		b.mu.Unlock()
		return ErrBreakerOpen
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if callerAborted(err) {
		// The probe proved nothing; let the next call probe again.
		if b.state == BreakerHalfOpen {
			b.transition(BreakerOpen)
		}
		return err
	}

	if err != nil {
		b.failures++
		if b.state == BreakerHalfOpen || b.failures >= b.maxFailures {
			b.openedAt = b.now()
			b.transition(BreakerOpen)
		}
		return err
	}

	if b.state == BreakerHalfOpen {
		b.transition(BreakerClosed)
	}
	b.failures = 0
	return nil
}

// State returns the current breaker state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) transition(to BreakerState) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if to == BreakerClosed {
		b.failures = 0
	}
	if b.OnStateChange != nil {
		b.OnStateChange(from, to)
	}
}

func callerAborted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
