package cache

import (
	"context"
	"fmt"
	"time"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendNone   = "none"
)

// Options selects and configures a backend for Open.
type Options struct {
	Backend  string // one of the Backend* names; "" means file
	Dir      string // file backend; "" means DefaultDir()
	RedisURL string // redis backend, host:port
	MongoURI string // mongo backend
	Timeout  time.Duration
}

// Open builds the cache named by opts.Backend.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendFile:
		dir := opts.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		c, err := NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendMemory:
		return NewMemoryCache(), nil
	case BackendNone:
		return NewNullCache(), nil
	case BackendRedis:
		c, err := NewRedisCache(ctx, RedisConfig{Addr: opts.RedisURL, DialTimeout: opts.Timeout})
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendMongo:
		c, err := NewMongoCache(ctx, MongoConfig{URI: opts.MongoURI, ConnectTimeout: opts.Timeout})
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
}
