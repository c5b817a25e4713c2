package httputil

import (
	"context"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func genPolicy(t *rapid.T) Policy {
	base := rapid.IntRange(1, 5000).Draw(t, "baseMs")
	maxDelay := rapid.IntRange(base, 60000).Draw(t, "maxMs")
	return Policy{
		MaxAttempts: rapid.IntRange(1, 10).Draw(t, "attempts"),
		BaseDelay:   time.Duration(base) * time.Millisecond,
		MaxDelay:    time.Duration(maxDelay) * time.Millisecond,
		Timeout:     time.Second,
	}
}

func TestBackoffWithinJitterBand(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := genPolicy(t)
		attempt := rapid.IntRange(1, 12).Draw(t, "attempt")
		r := NewFixedRandSource(rapid.Float64Range(0, 1).Draw(t, "rand"))

		base := p.BaseBackoff(attempt)
		wait := p.Backoff(attempt, r)

		if wait < base {
			t.Fatalf("wait %v below base %v", wait, base)
		}
		if float64(wait) > float64(base)*(1+JitterFraction) {
			t.Fatalf("wait %v above base*1.25 (%v)", wait, base)
		}
		if wait > p.MaxDelay {
			t.Fatalf("wait %v above MaxDelay %v", wait, p.MaxDelay)
		}
	})
}

func TestBaseBackoffMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := genPolicy(t)
		prev := time.Duration(0)
		for attempt := 1; attempt <= 12; attempt++ {
			cur := p.BaseBackoff(attempt)
			if cur < prev {
				t.Fatalf("BaseBackoff(%d) = %v < previous %v", attempt, cur, prev)
			}
			if cur > p.MaxDelay {
				t.Fatalf("BaseBackoff(%d) = %v > MaxDelay %v", attempt, cur, p.MaxDelay)
			}
			prev = cur
		}
	})
}

func TestAlwaysFailingMakesExactlyMaxAttempts(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := genPolicy(t)
		reason := rapid.SampledFrom([]Reason{ReasonNetwork, ReasonHTTP, ReasonData}).Draw(t, "reason")

		var events []Event
		r := &Retrier{
			Policy:  p,
			Rand:    NewFixedRandSource(0.5),
			Sleep:   func(context.Context, time.Duration) error { return nil },
			OnRetry: func(e Event) { events = append(events, e) },
		}

		calls := 0
		_ = r.Do(context.Background(), func(ctx context.Context, attempt int) error {
			calls++
			return Retryable(reason, errTransient)
		})

		if calls != p.MaxAttempts {
			t.Fatalf("calls = %d, want %d", calls, p.MaxAttempts)
		}
		if len(events) != p.MaxAttempts-1 {
			t.Fatalf("events = %d, want %d", len(events), p.MaxAttempts-1)
		}
		for i, e := range events {
			if e.Attempt != i+1 || e.Attempt > e.MaxAttempts || e.Wait > p.MaxDelay {
				t.Fatalf("event %d malformed: %+v", i, e)
			}
		}
	})
}
