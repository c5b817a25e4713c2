package httputil

import (
	"context"
	"errors"
	"time"
)

// Default policy values substituted by [Policy.Normalized].
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
	DefaultMaxDelay    = 8 * time.Second
	DefaultTimeout     = 10 * time.Second

	// JitterFraction is the largest jitter added to a backoff, as a
	// fraction of the un-jittered delay.
	JitterFraction = 0.25
)

// Reason classifies why an attempt is retried.
type Reason string

const (
	// ReasonNetwork covers transport failures: DNS, refused connections and
	// attempts aborted by the per-attempt timeout.
	ReasonNetwork Reason = "network"
	// ReasonHTTP covers rate limiting (429) and server errors (5xx).
	ReasonHTTP Reason = "http"
	// ReasonData covers successful responses whose payload the caller
	// flagged as not ready yet.
	ReasonData Reason = "data"
)

// Policy bounds a retried operation.
//
// Zero values select the package defaults; see [Policy.Normalized].
type Policy struct {
	MaxAttempts int           // Total attempts including the first
	BaseDelay   time.Duration // Delay before the second attempt
	MaxDelay    time.Duration // Cap on any single backoff
	Timeout     time.Duration // Bound on one attempt, not the whole call
}

// DefaultPolicy returns the policy used when callers pass a zero Policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		Timeout:     DefaultTimeout,
	}
}

// Normalized returns a copy of p with unset or malformed fields replaced by
// defaults. Zero means unset, so Policy{} behaves as DefaultPolicy; a
// near-immediate retry takes a positive BaseDelay such as time.Nanosecond.
func (p Policy) Normalized() Policy {
	cfg := p
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg
}

// BaseBackoff returns the un-jittered wait after the given 1-based attempt:
// min(MaxDelay, BaseDelay * 2^(attempt-1)).
func (p Policy) BaseBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		if d >= p.MaxDelay {
			break
		}
		d *= 2
	}
	return min(d, p.MaxDelay)
}

// Backoff returns the jittered wait after the given 1-based attempt.
// The result lies in [base, base*1.25] and never exceeds MaxDelay.
func (p Policy) Backoff(attempt int, r RandSource) time.Duration {
	base := p.BaseBackoff(attempt)
	jitter := time.Duration(r.Float64() * JitterFraction * float64(base))
	return min(base+jitter, p.MaxDelay)
}

// WorstCase returns the wall-clock bound of a call under p:
// MaxAttempts * (Timeout + MaxDelay).
func (p Policy) WorstCase() time.Duration {
	return time.Duration(p.MaxAttempts) * (p.Timeout + p.MaxDelay)
}

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network timeouts, 5xx responses, pending
// payloads) with this type so that [Retrier.Do] knows to attempt the
// operation again.
type RetryableError struct {
	Reason Reason
	Err    error
	Data   any // Payload that triggered a ReasonData retry
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as a RetryableError with the given reason.
func Retryable(reason Reason, err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Reason: reason, Err: err}
}

// IsRetryable reports whether err is wrapped with RetryableError.
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// ReasonOf returns the retry reason carried by err, or "".
func ReasonOf(err error) Reason {
	var re *RetryableError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ""
}

// Event describes a retry that is about to happen.
type Event struct {
	Reason      Reason
	Attempt     int // 1-based attempt that just failed
	MaxAttempts int
	Wait        time.Duration
	Err         error
	Data        any
}

// Retrier runs an operation under a Policy.
//
// A Retrier holds no state between calls and may be shared.
type Retrier struct {
	Policy  Policy
	Rand    RandSource                                       // nil uses a crypto-seeded source
	Sleep   func(ctx context.Context, d time.Duration) error // nil uses a timer
	OnRetry func(Event)                                      // called before each backoff sleep
}

// Do executes fn up to Policy.MaxAttempts times with exponential backoff.
//
// Each attempt receives a context bounded by Policy.Timeout. Only errors
// wrapped with [RetryableError] are retried; other errors are returned
// immediately. Attempts are strictly sequential. Do returns nil on the
// first success, the last error if all attempts fail, or ctx.Err() if the
// caller's context is done before or during a backoff sleep.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	p := r.Policy.Normalized()
	rnd := r.Rand
	if rnd == nil {
		rnd = defaultRand
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = r.attempt(ctx, p.Timeout, attempt, fn)
		if lastErr == nil {
			return nil
		}
		var re *RetryableError
		if !errors.As(lastErr, &re) {
			return lastErr
		}
		// A caller cancellation surfaces as a network error from the
		// transport; report the cancellation instead of retrying it.
		if err := ctx.Err(); err != nil {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}

		wait := p.Backoff(attempt, rnd)
		if r.OnRetry != nil {
			r.OnRetry(Event{
				Reason:      re.Reason,
				Attempt:     attempt,
				MaxAttempts: p.MaxAttempts,
				Wait:        wait,
				Err:         re.Err,
				Data:        re.Data,
			})
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
	return lastErr
}

func (r *Retrier) attempt(ctx context.Context, timeout time.Duration, attempt int, fn func(context.Context, int) error) error {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(actx, attempt)
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
