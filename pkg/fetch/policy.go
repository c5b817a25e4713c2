package fetch

import (
	"time"

	"github.com/myastroboard/astroboard/pkg/httputil"
)

// Retry reasons reported in [RetryEvent.Reason].
const (
	ReasonNetwork = httputil.ReasonNetwork
	ReasonHTTP    = httputil.ReasonHTTP
	ReasonData    = httputil.ReasonData
)

// RetryPolicy bounds one call. Every field is optional; zero values take
// the defaults of [httputil.DefaultPolicy] (3 attempts, 1s base delay, 8s
// cap, 10s per attempt), a ShouldRetryData that never approves, and no
// OnRetry callback.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Timeout     time.Duration

	// ShouldRetryData reports whether a 2xx payload should be retried.
	// Only payloads that decode as JSON are offered.
	ShouldRetryData func(*Payload) bool

	// OnRetry is called before each backoff sleep.
	OnRetry func(RetryEvent)
}

// RetryEvent describes a retry about to happen.
type RetryEvent struct {
	Reason      httputil.Reason
	Attempt     int // 1-based attempt that just failed
	MaxAttempts int
	Wait        time.Duration // never above the policy's MaxDelay
	Data        *Payload      // set only for ReasonData
	Err         error         // set for network and http reasons
}

// RetryPending is a ShouldRetryData predicate approving pending-cache
// payloads.
func RetryPending(p *Payload) bool {
	return p.IsPending()
}

// SingleAttempt is the policy used by FetchJSON and the mutation helpers.
var SingleAttempt = RetryPolicy{MaxAttempts: 1}

// Normalized returns p with malformed numeric fields replaced by defaults.
func (p RetryPolicy) Normalized() RetryPolicy {
	n := p.engine().Normalized()
	p.MaxAttempts = n.MaxAttempts
	p.BaseDelay = n.BaseDelay
	p.MaxDelay = n.MaxDelay
	p.Timeout = n.Timeout
	return p
}

// WithOnRetry returns a copy of p whose OnRetry calls fn and then the
// previously configured callback.
func (p RetryPolicy) WithOnRetry(fn func(RetryEvent)) RetryPolicy {
	prev := p.OnRetry
	p.OnRetry = func(e RetryEvent) {
		fn(e)
		if prev != nil {
			prev(e)
		}
	}
	return p
}

func (p RetryPolicy) engine() httputil.Policy {
	return httputil.Policy{
		MaxAttempts: p.MaxAttempts,
		BaseDelay:   p.BaseDelay,
		MaxDelay:    p.MaxDelay,
		Timeout:     p.Timeout,
	}
}

func (p RetryPolicy) shouldRetry(payload *Payload) bool {
	return p.ShouldRetryData != nil && payload != nil && p.ShouldRetryData(payload)
}
