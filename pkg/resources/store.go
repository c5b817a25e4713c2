package resources

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/myastroboard/astroboard/pkg/cache"
	"github.com/myastroboard/astroboard/pkg/fetch"
	"github.com/myastroboard/astroboard/pkg/observability"
)

// Client is the part of *fetch.Client the store needs.
type Client interface {
	BaseURL() string
	FetchJSONWithRetry(ctx context.Context, path string, req fetch.Request, policy fetch.RetryPolicy) (*fetch.Payload, error)
}

// Entry is a resource read, from the cache or the server.
type Entry struct {
	Payload   *fetch.Payload
	FetchedAt time.Time // when the server produced the payload
	Cached    bool      // served from the cache without a request
}

// Age returns how old the entry is at now.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// storedEntry is the cache encoding of an Entry.
type storedEntry struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Body      json.RawMessage `json:"body"`
}

// Store is a read-through cache of server resources keyed by resource
// identity. Only success payloads are stored; pending and error payloads
// always go back to the server. Writes made through [Store.Mutate]
// invalidate the resources they affect.
type Store struct {
	client Client
	cache  cache.Cache
	scope  string
	logger *log.Logger
	now    func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger for cache failures.
func WithLogger(l *log.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now for fetch timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store over client. A nil cache disables caching.
func NewStore(client Client, c cache.Cache, opts ...StoreOption) *Store {
	if c == nil {
		c = cache.NewNullCache()
	}
	s := &Store{
		client: client,
		cache:  c,
		scope:  client.BaseURL(),
		logger: log.New(io.Discard),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the cache key of r for this store's server.
func (s *Store) Key(r Resource) string {
	return cache.ResourceKey(s.scope, r.Name)
}

// Get reads r with its own retry policy. With refresh set the cache is
// bypassed, and a successful result replaces the cached one.
func (s *Store) Get(ctx context.Context, r Resource, refresh bool) (*Entry, error) {
	return s.get(ctx, r, refresh, r.Policy())
}

// GetWithPolicy is Get with a caller-supplied policy, typically one
// carrying an OnRetry callback for progress display.
func (s *Store) GetWithPolicy(ctx context.Context, r Resource, refresh bool, policy fetch.RetryPolicy) (*Entry, error) {
	return s.get(ctx, r, refresh, policy)
}

func (s *Store) get(ctx context.Context, r Resource, refresh bool, policy fetch.RetryPolicy) (*Entry, error) {
	key := s.Key(r)
	if r.Cacheable() && !refresh {
		if e, ok := s.lookup(ctx, key); ok {
			return e, nil
		}
	}

	p, err := s.client.FetchJSONWithRetry(ctx, r.Path, fetch.Request{}, policy)
	if err != nil {
		return nil, err
	}
	e := &Entry{Payload: p, FetchedAt: s.now()}
	if r.Cacheable() && p.Kind() == fetch.KindSuccess {
		s.store(ctx, key, r.TTL, e)
	}
	return e, nil
}

func (s *Store) lookup(ctx context.Context, key string) (*Entry, bool) {
	data, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache read failed", "key", key, "err", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, key)
		return nil, false
	}

	var se storedEntry
	if err := json.Unmarshal(data, &se); err != nil {
		_ = s.cache.Delete(ctx, key)
		observability.Cache().OnCacheMiss(ctx, key)
		return nil, false
	}
	p, err := fetch.ParsePayload(se.Body)
	if err != nil || p.Kind() != fetch.KindSuccess {
		_ = s.cache.Delete(ctx, key)
		observability.Cache().OnCacheMiss(ctx, key)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, key)
	return &Entry{Payload: p, FetchedAt: se.FetchedAt, Cached: true}, true
}

func (s *Store) store(ctx context.Context, key string, ttl time.Duration, e *Entry) {
	data, err := json.Marshal(storedEntry{FetchedAt: e.FetchedAt, Body: e.Payload.Raw()})
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, ttl); err != nil {
		s.logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, key, len(data))
}

// FetchJSONWithRetry lets a Store stand in for *fetch.Client. GET
// requests for catalogue resources are served read-through; everything
// else goes straight to the client.
func (s *Store) FetchJSONWithRetry(ctx context.Context, path string, req fetch.Request, policy fetch.RetryPolicy) (*fetch.Payload, error) {
	if req.Method == "" || req.Method == http.MethodGet {
		if r, ok := ForPath(path); ok {
			e, err := s.get(ctx, r, false, policy)
			if err != nil {
				return nil, err
			}
			return e.Payload, nil
		}
	}
	return s.client.FetchJSONWithRetry(ctx, path, req, policy)
}

// BaseURL returns the server the store reads from.
func (s *Store) BaseURL() string { return s.scope }

// Invalidate drops the cached entries of rs.
func (s *Store) Invalidate(ctx context.Context, rs ...Resource) error {
	var errs []error
	for _, r := range rs {
		key := s.Key(r)
		if err := s.cache.Delete(ctx, key); err != nil {
			errs = append(errs, err)
			continue
		}
		observability.Cache().OnCacheInvalidate(ctx, key)
	}
	return stderrors.Join(errs...)
}

// Mutate sends a write in a single attempt and, once the server has
// accepted it, invalidates the resources it affects. A 2xx answer carrying
// an "error" field is a rejected write and leaves the cache alone. body is
// JSON-encoded when non-nil.
func (s *Store) Mutate(ctx context.Context, method, path string, body any, invalidates ...Resource) (*fetch.Payload, error) {
	req := fetch.Request{Method: method}
	if body != nil {
		var err error
		if req, err = fetch.JSONRequest(method, body); err != nil {
			return nil, err
		}
	}
	p, err := s.client.FetchJSONWithRetry(ctx, path, req, fetch.SingleAttempt)
	if err != nil {
		return nil, err
	}
	if p.IsError() {
		return p, nil
	}
	if err := s.Invalidate(ctx, invalidates...); err != nil {
		s.logger.Warn("cache invalidation failed", "path", path, "err", err)
	}
	return p, nil
}

// Load reads r and decodes a success payload into T.
func Load[T any](ctx context.Context, s *Store, r Resource, refresh bool) (T, *Entry, error) {
	e, err := s.Get(ctx, r, refresh)
	if err != nil {
		var zero T
		return zero, nil, err
	}
	v, err := fetch.Decode[T](e.Payload)
	return v, e, err
}
