package cache

import "strings"

// KeyPrefix starts every key written by astroboard.
const KeyPrefix = "astroboard:"

// ResourceKey builds the cache key of a named resource served by scope
// (normally the API base URL). The scope is hashed so keys stay short and
// safe for every backend.
func ResourceKey(scope, name string) string {
	return KeyPrefix + Hash([]byte(strings.TrimRight(scope, "/")))[:16] + ":" + name
}
