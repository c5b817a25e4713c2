// Package fetch is the resilient JSON client for the MyAstroBoard API.
//
// Every call goes to {baseURL}{path}, where path starts with /api/. The
// client retries three kinds of transient conditions with exponential
// backoff and jitter (see [httputil.Policy]):
//
//   - network: transport failures and attempts that exceed the per-attempt
//     timeout
//   - http: 429 and 5xx statuses
//   - data: 2xx payloads the caller flags through
//     [RetryPolicy.ShouldRetryData], normally the pending-cache marker
//     {"status": "pending"} returned while the server warms its caches
//
// Other 4xx statuses end a call after one attempt.
//
// # Payloads
//
// Bodies are decoded once into a [Payload] tagged as success, pending or
// error. Use [Decode] to turn a success payload into a typed value:
//
//	p, err := client.FetchJSONWithRetry(ctx, "/api/moon/dark-window", fetch.Request{}, fetch.RetryPolicy{
//	    MaxAttempts:     6,
//	    MaxDelay:        12 * time.Second,
//	    Timeout:         15 * time.Second,
//	    ShouldRetryData: fetch.RetryPending,
//	})
//	if err != nil {
//	    return err
//	}
//	if p.IsPending() {
//	    // still warming after every attempt
//	}
//	window, err := fetch.Decode[DarkWindow](p)
//
// # Authentication
//
// A final 401 runs the hook given to [WithUnauthorized]; a 403 is logged
// at warn level and reported to observability hooks only.
//
// # Cancellation
//
// Cancelling the context stops the in-flight attempt and any backoff
// sleep; the call then returns ctx.Err().
package fetch
