package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/myastroboard/astroboard/pkg/cache"
	"github.com/myastroboard/astroboard/pkg/errors"
	"github.com/myastroboard/astroboard/pkg/fetch"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{EnvURL, EnvTimeout, EnvCacheBackend, EnvCacheDir, EnvRedisAddr, EnvMongoURI, EnvAttempts} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.URL != DefaultURL || cfg.Timeout.Duration != 10*time.Second || cfg.Cache.Backend != cache.BackendFile {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
url = "http://astro.local:5000"
timeout = "4s"

[retry]
attempts = 8
max_delay = "20s"

[cache]
backend = "memory"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.URL != "http://astro.local:5000" || cfg.Timeout.Duration != 4*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Retry.Attempts != 8 || cfg.Retry.MaxDelay.Duration != 20*time.Second || cfg.Retry.BaseDelay.Duration != time.Second {
		t.Errorf("retry = %+v", cfg.Retry)
	}
	if cfg.Cache.Backend != cache.BackendMemory {
		t.Errorf("cache = %+v", cfg.Cache)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `url = "http://file:5000"`)
	t.Setenv(EnvURL, "http://env:5000")
	t.Setenv(EnvTimeout, "2s")
	t.Setenv(EnvCacheBackend, "redis")
	t.Setenv(EnvRedisAddr, "localhost:6379")
	t.Setenv(EnvAttempts, "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.URL != "http://env:5000" || cfg.Timeout.Duration != 2*time.Second || cfg.Retry.Attempts != 3 {
		t.Errorf("cfg = %+v", cfg)
	}
	opts := cfg.CacheOptions()
	if opts.Backend != cache.BackendRedis || opts.RedisURL != "localhost:6379" {
		t.Errorf("CacheOptions() = %+v", opts)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{"unknown key", `colour = "red"`, nil},
		{"bad toml", `url = `, nil},
		{"bad url", `url = "ftp://x"`, nil},
		{"redis without addr", "[cache]\nbackend = \"redis\"", nil},
		{"mongo without uri", "[cache]\nbackend = \"mongo\"", nil},
		{"unknown backend", "[cache]\nbackend = \"memcached\"", nil},
		{"bad env timeout", ``, map[string]string{EnvTimeout: "soon"}},
		{"bad env attempts", ``, map[string]string{EnvAttempts: "many"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			if code := errors.GetCode(err); code != errors.ErrCodeInvalidInput && code != errors.ErrCodeInvalidURL {
				t.Errorf("code = %s, err = %v", code, err)
			}
		})
	}
}

func TestWarmupPolicy(t *testing.T) {
	cfg := Default()
	cfg.Retry.Attempts = 4
	cfg.Retry.Timeout = Duration{}
	base := fetch.RetryPolicy{MaxAttempts: 6, Timeout: 15 * time.Second, ShouldRetryData: fetch.RetryPending}

	p := cfg.WarmupPolicy(base)
	if p.MaxAttempts != 4 || p.Timeout != 15*time.Second || p.MaxDelay != 12*time.Second || p.ShouldRetryData == nil {
		t.Errorf("WarmupPolicy() = %+v", p)
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1m30s")); err != nil || d.Duration != 90*time.Second {
		t.Errorf("UnmarshalText = %v, %v", d, err)
	}
	if err := d.UnmarshalText([]byte("x")); err == nil {
		t.Error("invalid duration accepted")
	}
	out, _ := Duration{2 * time.Second}.MarshalText()
	if string(out) != "2s" {
		t.Errorf("MarshalText = %s", out)
	}
}
