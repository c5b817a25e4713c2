package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// testCacheContract exercises behaviour every persistent backend shares.
func testCacheContract(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()
	key := ResourceKey("http://localhost:5000", "moon:report")

	if _, hit, err := c.Get(ctx, key); err != nil || hit {
		t.Fatalf("Get on empty cache = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, key, []byte(`{"phase":"Full"}`), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit || string(data) != `{"phase":"Full"}` {
		t.Fatalf("Get after Set = %q, %v, %v", data, hit, err)
	}

	// overwrite
	if err := c.Set(ctx, key, []byte(`{"phase":"New"}`), 0); err != nil {
		t.Fatalf("Set overwrite error: %v", err)
	}
	data, _, _ = c.Get(ctx, key)
	if string(data) != `{"phase":"New"}` {
		t.Errorf("overwritten value = %q", data)
	}

	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Errorf("Delete of missing key error: %v", err)
	}

	// expiry
	short := ResourceKey("http://localhost:5000", "sun:today")
	if err := c.Set(ctx, short, []byte(`{}`), 10*time.Millisecond); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, short); hit {
		t.Error("expired entry should miss")
	}

	// clear
	a := ResourceKey("http://localhost:5000", "weather:forecast")
	b := ResourceKey("http://localhost:5000", "astrodex")
	_ = c.Set(ctx, a, []byte(`1`), time.Hour)
	_ = c.Set(ctx, b, []byte(`2`), time.Hour)
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	for _, k := range []string{a, b} {
		if _, hit, _ := c.Get(ctx, k); hit {
			t.Errorf("%s survived Clear", k)
		}
	}
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	testCacheContract(t, c)
}

func TestFileCacheCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	key := ResourceKey("http://localhost:5000", "version")
	if err := c.Set(ctx, key, []byte(`"1.0"`), 0); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path(key), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, key); hit || err != nil {
		t.Errorf("corrupt entry: hit %v, err %v", hit, err)
	}
	if _, err := os.Stat(c.path(key)); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCacheLayout(t *testing.T) {
	dir := t.TempDir()
	c, _ := NewFileCache(dir)
	p := c.path("astroboard:abc:moon:report")
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) != 2 || len(parts[0]) != 2 || !strings.HasSuffix(parts[1], ".json") {
		t.Errorf("path layout = %s", rel)
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %s", c.Dir())
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	testCacheContract(t, c)
}

func TestMemoryCacheCopiesValues(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	buf := []byte("abc")
	_ = c.Set(ctx, "k", buf, 0)
	buf[0] = 'x'
	got, _, _ := c.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value aliased caller buffer: %q", got)
	}
	got[1] = 'y'
	again, _, _ := c.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("returned value aliased store: %q", again)
	}
}

func TestMemoryCacheClosed(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	_ = c.Set(ctx, "k", []byte("v"), 0)
	if c.Len() != 1 {
		t.Errorf("Len() = %d", c.Len())
	}
	c.Close()
	if _, _, err := c.Get(ctx, "k"); !errors.Is(err, ErrClosed) {
		t.Errorf("Get after Close error = %v", err)
	}
	if err := c.Set(ctx, "k", nil, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("Set after Close error = %v", err)
	}
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("NullCache.Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Errorf("Clear error: %v", err)
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("ASTROBOARD_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ASTROBOARD_TEST_REDIS_ADDR not set")
	}
	c, err := NewRedisCache(context.Background(), RedisConfig{Addr: addr})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	testCacheContract(t, c)
}

func TestMongoCache(t *testing.T) {
	uri := os.Getenv("ASTROBOARD_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("ASTROBOARD_TEST_MONGO_URI not set")
	}
	c, err := NewMongoCache(context.Background(), MongoConfig{URI: uri, Database: "astroboard_test"})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	testCacheContract(t, c)
}

func TestRedisCacheUnreachable(t *testing.T) {
	_, err := NewRedisCache(context.Background(), RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})
	if !errors.Is(err, ErrBackend) {
		t.Errorf("error = %v, want ErrBackend", err)
	}
}

func TestRedisCacheFromClientReportsBackendErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewRedisCacheFromClient(client)
	defer c.Close()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "k"); hit || !errors.Is(err, ErrBackend) {
		t.Errorf("Get() = hit %v, err %v, want ErrBackend", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); !errors.Is(err, ErrBackend) {
		t.Errorf("Set() error = %v, want ErrBackend", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		backend string
		check   func(Cache) bool
	}{
		{BackendMemory, func(c Cache) bool { _, ok := c.(*MemoryCache); return ok }},
		{BackendNone, func(c Cache) bool { _, ok := c.(*NullCache); return ok }},
		{BackendFile, func(c Cache) bool { _, ok := c.(*FileCache); return ok }},
	}
	for _, tt := range tests {
		c, err := Open(ctx, Options{Backend: tt.backend, Dir: t.TempDir()})
		if err != nil {
			t.Fatalf("Open(%q) error: %v", tt.backend, err)
		}
		if !tt.check(c) {
			t.Errorf("Open(%q) = %T", tt.backend, c)
		}
		c.Close()
	}

	if _, err := Open(ctx, Options{Backend: "memcached"}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("unknown backend error = %v", err)
	}
}

func TestResourceKey(t *testing.T) {
	a := ResourceKey("http://localhost:5000", "moon:report")
	b := ResourceKey("http://localhost:5000/", "moon:report")
	c := ResourceKey("https://astro.example.com", "moon:report")
	if a != b {
		t.Errorf("trailing slash changed key: %s vs %s", a, b)
	}
	if a == c {
		t.Error("different servers should produce different keys")
	}
	if !strings.HasPrefix(a, KeyPrefix) || !strings.HasSuffix(a, ":moon:report") {
		t.Errorf("key = %s", a)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}
