// Package config loads astroboard's settings.
//
// Settings are resolved in three layers, later ones winning:
//
//  1. built-in defaults ([Default])
//  2. the TOML file at $XDG_CONFIG_HOME/astroboard/config.toml
//  3. ASTROBOARD_* environment variables
//
// Command-line flags are applied on top by the CLI.
//
// Example file:
//
//	url = "http://astro.local:5000"
//	timeout = "10s"
//
//	[retry]
//	attempts = 6
//	base_delay = "1s"
//	max_delay = "12s"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/myastroboard/astroboard/pkg/cache"
	"github.com/myastroboard/astroboard/pkg/errors"
	"github.com/myastroboard/astroboard/pkg/fetch"
)

// DefaultURL is the address of a locally running dashboard.
const DefaultURL = "http://localhost:5000"

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Retry configures the policy used for warm-up resources.
type Retry struct {
	Attempts  int      `toml:"attempts"`
	BaseDelay Duration `toml:"base_delay"`
	MaxDelay  Duration `toml:"max_delay"`
	Timeout   Duration `toml:"timeout"`
}

// Cache selects the client-side response cache.
type Cache struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	MongoURI  string   `toml:"mongo_uri"`
	Timeout   Duration `toml:"timeout"`
}

// Config is the resolved configuration.
type Config struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
	Retry   Retry    `toml:"retry"`
	Cache   Cache    `toml:"cache"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		URL:     DefaultURL,
		Timeout: Duration{10 * time.Second},
		Retry: Retry{
			Attempts:  6,
			BaseDelay: Duration{time.Second},
			MaxDelay:  Duration{12 * time.Second},
			Timeout:   Duration{15 * time.Second},
		},
		Cache: Cache{
			Backend: cache.BackendFile,
			Timeout: Duration{3 * time.Second},
		},
	}
}

// Path returns the default config file location.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(dir, "astroboard", "config.toml"), nil
}

// Load resolves the configuration from path (the default location when
// empty) and the environment. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := Path()
		if err != nil {
			return cfg, err
		}
		path = p
	}
	if err := cfg.loadFile(path); err != nil {
		return cfg, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidInput, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// Environment variables read by Load.
const (
	EnvURL          = "ASTROBOARD_URL"
	EnvTimeout      = "ASTROBOARD_TIMEOUT"
	EnvCacheBackend = "ASTROBOARD_CACHE_BACKEND"
	EnvCacheDir     = "ASTROBOARD_CACHE_DIR"
	EnvRedisAddr    = "ASTROBOARD_REDIS_ADDR"
	EnvMongoURI     = "ASTROBOARD_MONGO_URI"
	EnvAttempts     = "ASTROBOARD_RETRY_ATTEMPTS"
)

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str(EnvURL, &c.URL)
	str(EnvCacheBackend, &c.Cache.Backend)
	str(EnvCacheDir, &c.Cache.Dir)
	str(EnvRedisAddr, &c.Cache.RedisAddr)
	str(EnvMongoURI, &c.Cache.MongoURI)

	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s", EnvTimeout)
		}
		c.Timeout = Duration{d}
	}
	if v, ok := lookup(EnvAttempts); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s", EnvAttempts)
		}
		c.Retry.Attempts = n
	}
	return nil
}

// Validate checks the resolved values.
func (c Config) Validate() error {
	if err := errors.ValidateBaseURL(c.URL); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case "", cache.BackendFile, cache.BackendMemory, cache.BackendNone:
	case cache.BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache backend redis needs redis_addr")
		}
	case cache.BackendMongo:
		if c.Cache.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache backend mongo needs mongo_uri")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Retry.Attempts < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "retry attempts must not be negative")
	}
	return nil
}

// WarmupPolicy returns the configured policy for warm-up resources.
func (c Config) WarmupPolicy(base fetch.RetryPolicy) fetch.RetryPolicy {
	p := base
	if c.Retry.Attempts > 0 {
		p.MaxAttempts = c.Retry.Attempts
	}
	if c.Retry.BaseDelay.Duration > 0 {
		p.BaseDelay = c.Retry.BaseDelay.Duration
	}
	if c.Retry.MaxDelay.Duration > 0 {
		p.MaxDelay = c.Retry.MaxDelay.Duration
	}
	if c.Retry.Timeout.Duration > 0 {
		p.Timeout = c.Retry.Timeout.Duration
	}
	return p
}

// CacheOptions converts the cache section for cache.Open.
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:  c.Cache.Backend,
		Dir:      c.Cache.Dir,
		RedisURL: c.Cache.RedisAddr,
		MongoURI: c.Cache.MongoURI,
		Timeout:  c.Cache.Timeout.Duration,
	}
}
