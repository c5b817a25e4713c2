package session

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewSession(t *testing.T) {
	cookies := []*http.Cookie{
		{Name: "session", Value: "abc", Path: "/"},
		{Name: "old", Value: "x", Expires: time.Now().Add(-time.Hour)},
	}
	sess, err := New("http://localhost:5000", "admin", "admin", cookies, 0)
	if err != nil {
		t.Fatal(err)
	}
	if sess.ID == "" || sess.Username != "admin" || !sess.IsAdmin() {
		t.Errorf("session = %+v", sess)
	}
	if got := sess.ExpiresAt.Sub(sess.CreatedAt); got != DefaultTTL {
		t.Errorf("ttl = %v, want %v", got, DefaultTTL)
	}
	hc := sess.HTTPCookies()
	if len(hc) != 1 || hc[0].Name != "session" || hc[0].Value != "abc" {
		t.Errorf("HTTPCookies() = %+v", hc)
	}
	if sess.IsExpired() {
		t.Error("new session should not be expired")
	}
}

func TestNilSession(t *testing.T) {
	var s *Session
	if s.IsAdmin() || s.HTTPCookies() != nil || Age(s) != 0 {
		t.Error("nil session should be empty")
	}
}

func TestGenerateIDUnique(t *testing.T) {
	a, _ := GenerateID()
	b, _ := GenerateID()
	if a == "" || a == b {
		t.Errorf("GenerateID() = %q, %q", a, b)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	sess, _ := New("http://localhost:5000", "alice", "user", []*http.Cookie{{Name: "session", Value: "v"}}, time.Hour)

	if err := store.Set(ctx, sess); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, sess.ID)
	if err != nil || got == nil {
		t.Fatalf("Get() = %v, %v", got, err)
	}
	if got.Username != "alice" || len(got.Cookies) != 1 {
		t.Errorf("Get() = %+v", got)
	}

	info, err := os.Stat(store.file(sess.ID))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("mode = %o, want 600", perm)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatal(err)
	}
	if got, _ := store.Get(ctx, sess.ID); got != nil {
		t.Error("Get after Delete should be nil")
	}
	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Errorf("second Delete error: %v", err)
	}
}

func TestFileStoreExpiredAndCorrupt(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, _ := NewFileStore(dir)

	expired := &Session{ID: "expired", ExpiresAt: time.Now().Add(-time.Minute)}
	if err := store.Set(ctx, expired); err != nil {
		t.Fatal(err)
	}
	if got, err := store.Get(ctx, "expired"); got != nil || err != nil {
		t.Errorf("expired Get() = %v, %v", got, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "expired.json")); !os.IsNotExist(err) {
		t.Error("expired session file should be removed")
	}

	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	live := &Session{ID: "live", ExpiresAt: time.Now().Add(time.Hour)}
	_ = store.Set(ctx, live)
	stale := &Session{ID: "stale", ExpiresAt: time.Now().Add(-time.Hour)}
	_ = store.Set(ctx, stale)

	if err := store.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || entries[0].Name() != "live.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("after Cleanup = %v, want [live.json]", names)
	}
}

func TestFileStoreRejectsEmptyID(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	if err := store.Set(context.Background(), &Session{}); err == nil {
		t.Error("Set with empty ID should fail")
	}
}

func TestCLIStorePerServer(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	local, _ := NewCLIStore(dir, "http://localhost:5000/")
	remote, _ := NewCLIStore(dir, "https://astro.example.com")

	sess, _ := New("http://localhost:5000", "bob", "user", nil, time.Hour)
	if err := local.SaveSession(ctx, sess); err != nil {
		t.Fatal(err)
	}
	if got, _ := local.GetSession(ctx); got == nil || got.Username != "bob" {
		t.Errorf("local GetSession() = %+v", got)
	}
	if got, _ := remote.GetSession(ctx); got != nil {
		t.Errorf("remote GetSession() = %+v, want nil", got)
	}
	if local.Path() == remote.Path() {
		t.Error("servers should map to distinct files")
	}
	if ServerID("http://localhost:5000") != ServerID("http://localhost:5000/") {
		t.Error("ServerID should ignore a trailing slash")
	}

	if err := local.DeleteSession(ctx); err != nil {
		t.Fatal(err)
	}
	if got, _ := local.GetSession(ctx); got != nil {
		t.Error("GetSession after DeleteSession should be nil")
	}
}
