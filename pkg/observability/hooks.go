// Package observability lets an application watch the fetch client and the
// resource store without this module importing a metrics or tracing SDK.
//
// Three hook sets exist: HTTP (one event per attempt), Retry (scheduled
// retries and exhausted calls) and Cache (hits, misses, writes and
// invalidations). Each defaults to a no-op; register replacements once,
// before the first request:
//
//	observability.SetRetryHooks(&retryCounter{})
//	observability.SetCacheHooks(&cacheStats{})
//
// Emitters read the current set on every event:
//
//	observability.Retry().OnRetry(ctx, path, "data", attempt, maxAttempts, wait)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request (one per attempt).
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// Retry Hooks
// =============================================================================

// RetryHooks receives events from the retry engine.
type RetryHooks interface {
	// OnRetry records a retry about to be scheduled after a failed attempt.
	OnRetry(ctx context.Context, path, reason string, attempt, maxAttempts int, wait time.Duration)

	// OnExhausted records a call that used every attempt without a usable result.
	OnExhausted(ctx context.Context, path, reason string, attempts int)

	// OnAuthFailure records a terminal 401 or 403.
	OnAuthFailure(ctx context.Context, path string, statusCode int)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from resource cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, key string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, key string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, key string, size int)

	// OnCacheInvalidate records an entry dropped after a mutation.
	OnCacheInvalidate(ctx context.Context, key string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// NoopRetryHooks is a no-op implementation of RetryHooks.
type NoopRetryHooks struct{}

func (NoopRetryHooks) OnRetry(context.Context, string, string, int, int, time.Duration) {}
func (NoopRetryHooks) OnExhausted(context.Context, string, string, int)                 {}
func (NoopRetryHooks) OnAuthFailure(context.Context, string, int)                       {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)        {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)       {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int)   {}
func (NoopCacheHooks) OnCacheInvalidate(context.Context, string) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	retryHooks RetryHooks = NoopRetryHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	hooksMu    sync.RWMutex
)

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// SetRetryHooks registers custom retry hooks.
func SetRetryHooks(h RetryHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		retryHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Retry returns the registered retry hooks.
func Retry() RetryHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return retryHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	httpHooks = NoopHTTPHooks{}
	retryHooks = NoopRetryHooks{}
	cacheHooks = NoopCacheHooks{}
}
