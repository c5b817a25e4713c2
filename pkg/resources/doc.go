// Package resources names the dashboard's API resources and caches reads
// of them.
//
// [Resource] values pair a cache name with an API path, a TTL and a retry
// policy; resources computed by the server in the background use
// [WarmupPolicy] so pending-cache answers are retried. [Store] replaces
// ad hoc per-screen caches with one read-through cache keyed by resource
// and server, and [Store.Mutate] invalidates whatever a write affects.
package resources
