package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(max int, cooldown time.Duration) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := NewBreaker(max, cooldown)
	b.now = clock.Now
	return b, clock
}

var errFail = errors.New("fail")

func TestBreaker_StartsClosed(t *testing.T) {
	b, _ := newTestBreaker(3, time.Second)
	if b.State() != BreakerClosed {
		t.Errorf("expected closed, got %v", b.State())
	}
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	b, _ := newTestBreaker(3, time.Second)

	for i := 0; i < 3; i++ {
		if err := b.Do(func() error { return errFail }); err != errFail {
			t.Fatalf("expected errFail, got %v", err)
		}
	}
	if b.State() != BreakerOpen {
		t.Errorf("expected open after 3 failures, got %v", b.State())
	}

	called := false
	err := b.Do(func() error { called = true; return nil })
	if err != ErrBreakerOpen || called {
		t.Errorf("expected backend skipped with ErrBreakerOpen, got %v (called=%v)", err, called)
	}
}

func TestBreaker_ProbeRecovers(t *testing.T) {
	b, clock := newTestBreaker(2, time.Second)
	b.Do(func() error { return errFail })
	b.Do(func() error { return errFail })

	clock.Advance(2 * time.Second)
	if err := b.Do(func() error { return nil }); err != nil {
		t.Fatalf("expected probe to run, got %v", err)
	}
	if b.State() != BreakerClosed {
		t.Errorf("expected closed after successful probe, got %v", b.State())
	}
}

func TestBreaker_ProbeFailureReopens(t *testing.T) {
	b, clock := newTestBreaker(2, time.Second)
	b.Do(func() error { return errFail })
	b.Do(func() error { return errFail })

	clock.Advance(2 * time.Second)
	b.Do(func() error { return errFail })

	if b.State() != BreakerOpen {
		t.Errorf("expected open after failed probe, got %v", b.State())
	}
	if err := b.Do(func() error { return nil }); err != ErrBreakerOpen {
		t.Errorf("cooldown should restart after failed probe, got %v", err)
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(3, time.Second)
	b.Do(func() error { return errFail })
	b.Do(func() error { return errFail })
	b.Do(func() error { return nil })
	b.Do(func() error { return errFail })
	b.Do(func() error { return errFail })

	if b.State() != BreakerClosed {
		t.Errorf("expected closed, got %v", b.State())
	}
}

func TestBreaker_OnStateChange(t *testing.T) {
	var transitions []BreakerState
	b, clock := newTestBreaker(1, time.Second)
	b.OnStateChange = func(from, to BreakerState) {
		transitions = append(transitions, to)
	}

	b.Do(func() error { return errFail })
	clock.Advance(2 * time.Second)
	b.Do(func() error { return nil })

	want := []BreakerState{BreakerOpen, BreakerHalfOpen, BreakerClosed}
	if len(transitions) != len(want) {
		t.Fatalf("expected %v, got %v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d: got %v, want %v", i, transitions[i], want[i])
		}
	}
}

func TestBreaker_HalfOpenAdmitsOneProbe(t *testing.T) {
	b, clock := newTestBreaker(1, time.Second)
	b.Do(func() error { return errFail })
	clock.Advance(2 * time.Second)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- b.Do(func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	called := false
	if err := b.Do(func() error { called = true; return nil }); err != ErrBreakerOpen || called {
		t.Errorf("concurrent call during probe = %v (called=%v); want ErrBreakerOpen", err, called)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("probe returned %v", err)
	}
	if b.State() != BreakerClosed {
		t.Errorf("expected closed after probe, got %v", b.State())
	}
}

func TestBreaker_IgnoresContextErrors(t *testing.T) {
	b, _ := newTestBreaker(2, time.Second)

	for i := 0; i < 5; i++ {
		b.Do(func() error { return context.Canceled })
		b.Do(func() error { return context.DeadlineExceeded })
	}
	if b.State() != BreakerClosed {
		t.Errorf("expected closed after caller-side errors, got %v", b.State())
	}

	// A real failure still counts from zero.
	b.Do(func() error { return errFail })
	if b.State() != BreakerClosed {
		t.Errorf("one failure should not open, got %v", b.State())
	}
}

func TestBreaker_CancelledProbeLetsNextCallProbe(t *testing.T) {
	b, clock := newTestBreaker(1, time.Minute)
	b.Do(func() error { return errFail })
	clock.Advance(2 * time.Minute)

	if err := b.Do(func() error { return context.Canceled }); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if b.State() != BreakerOpen {
		t.Fatalf("expected open after cancelled probe, got %v", b.State())
	}

	called := false
	if err := b.Do(func() error { called = true; return nil }); err != nil || !called {
		t.Fatalf("next call should probe without waiting a new cooldown: %v (called=%v)", err, called)
	}
	if b.State() != BreakerClosed {
		t.Errorf("expected closed, got %v", b.State())
	}
}
