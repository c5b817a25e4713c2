package cache

import (
	"errors"
	"fmt"
)

// Sentinel errors for caching operations.
var (
	// ErrClosed is returned by operations on a closed cache.
	ErrClosed = errors.New("cache closed")

	// ErrBackend is returned when a remote backend cannot be reached.
	ErrBackend = errors.New("cache backend unavailable")

	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown cache backend")
)

func backendError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrBackend, op, err)
}
