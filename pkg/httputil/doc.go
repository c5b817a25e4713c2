// Package httputil provides the retry engine behind the dashboard fetch client.
//
// # Overview
//
//   - [Policy]: attempt count, exponential backoff bounds and per-attempt timeout
//   - [Retrier]: runs an operation under a Policy
//   - [RetryableError]: marks a failure as transient and records why
//
// # Backoff
//
// After a failed attempt n (1-based) the wait is
//
//	base = min(MaxDelay, BaseDelay * 2^(n-1))
//	wait = min(MaxDelay, base + rand[0, 0.25*base])
//
// Jitter keeps many dashboards that were opened together from hammering a
// warming server in lockstep.
//
// # Retry
//
// Only errors wrapped with [RetryableError] are retried. The wrapper carries
// a [Reason]: network (transport failures and timeouts), http (429 and 5xx)
// or data (a success response whose payload the caller flagged as pending):
//
//	r := &httputil.Retrier{Policy: httputil.Policy{MaxAttempts: 6}}
//	err := r.Do(ctx, func(ctx context.Context, attempt int) error {
//	    resp, err := client.Do(req.WithContext(ctx))
//	    if err != nil {
//	        return httputil.Retryable(httputil.ReasonNetwork, err)
//	    }
//	    ...
//	})
//
// # Configuration
//
// Default settings mirror the dashboard front end:
//
//   - Max attempts: 3
//   - Base backoff: 1 second
//   - Max backoff: 8 seconds
//   - Per-attempt timeout: 10 seconds
package httputil
