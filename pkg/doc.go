// Package pkg holds the libraries behind the astroboard client.
//
// # Overview
//
// astroboard reads the reports a MyAstroBoard server computes (moon, sun,
// weather and observing windows). Those reports are produced lazily: until
// the server's cache is warm, an endpoint answers {"status":"pending"}.
// The packages are layered so that each one only knows the one below:
//
//  1. [httputil] - Bounded retry with exponential backoff and jitter
//  2. [fetch] - JSON-over-HTTP client: payload classification, retry
//     policies, 401/403 handling
//  3. [ui] - Adapter driving a loading/error/notice container from a fetch
//  4. [resources] - Catalogue of dashboard endpoints and a cached store
//  5. [cache], [session] - Storage for responses and login cookies
//
// # Data flow
//
//	CLI command
//	     ↓
//	resources.Store ── cache hit ──→ Entry
//	     ↓ miss
//	fetch.Client.FetchJSONWithRetry
//	     ↓ per attempt
//	httputil.Retrier ── network | http | data ──→ sleep and retry
//	     ↓
//	fetch.Payload (success | pending | error)
//	     ↓
//	ui.FetchJSONWithUI → Container
//
// [errors] carries the error codes shared by every layer and
// [observability] exposes hooks for request, retry and cache events.
//
// [httputil]: github.com/myastroboard/astroboard/pkg/httputil
// [fetch]: github.com/myastroboard/astroboard/pkg/fetch
// [ui]: github.com/myastroboard/astroboard/pkg/ui
// [resources]: github.com/myastroboard/astroboard/pkg/resources
// [cache]: github.com/myastroboard/astroboard/pkg/cache
// [session]: github.com/myastroboard/astroboard/pkg/session
// [errors]: github.com/myastroboard/astroboard/pkg/errors
// [observability]: github.com/myastroboard/astroboard/pkg/observability
package pkg
