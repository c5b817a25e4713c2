package resources

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/myastroboard/astroboard/pkg/cache"
	"github.com/myastroboard/astroboard/pkg/errors"
	"github.com/myastroboard/astroboard/pkg/fetch"
)

// fakeServer serves fixed bodies per path and counts requests.
type fakeServer struct {
	*httptest.Server
	mu     sync.Mutex
	bodies map[string]string
	status map[string]int
	hits   map[string]int
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{bodies: map[string]string{}, status: map[string]int{}, hits: map[string]int{}}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.RequestURI()
		fs.mu.Lock()
		fs.hits[key]++
		body, ok := fs.bodies[key]
		status := fs.status[key]
		fs.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":"not found"}`)
			return
		}
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) set(key, body string, status int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.bodies[key] = body
	fs.status[key] = status
}

func (fs *fakeServer) count(key string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.hits[key]
}

func newTestStore(t *testing.T, baseURL string, c cache.Cache, opts ...StoreOption) *Store {
	t.Helper()
	client, err := fetch.NewClient(baseURL, fetch.WithSleep(func(context.Context, time.Duration) error { return nil }))
	if err != nil {
		t.Fatal(err)
	}
	return NewStore(client, c, opts...)
}

const darkWindowBody = `{"next_dark_night":{"start":"2026-10-18 21:04","end":"2026-10-19 05:12"}}`

func TestStoreCachesSuccess(t *testing.T) {
	fs := newFakeServer(t)
	fs.set("GET /api/moon/dark-window", darkWindowBody, 0)
	fetchedAt := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)
	s := newTestStore(t, fs.URL, cache.NewMemoryCache(), WithClock(func() time.Time { return fetchedAt }))
	ctx := context.Background()

	first, err := s.Get(ctx, DarkWindow, false)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if first.Cached {
		t.Error("first read should come from the server")
	}

	second, err := s.Get(ctx, DarkWindow, false)
	if err != nil {
		t.Fatalf("second Get() error: %v", err)
	}
	if !second.Cached || !second.FetchedAt.Equal(fetchedAt) {
		t.Errorf("second read = cached %v at %v", second.Cached, second.FetchedAt)
	}
	if string(second.Payload.Raw()) != darkWindowBody {
		t.Errorf("cached payload = %s", second.Payload.Raw())
	}
	if got := fs.count("GET /api/moon/dark-window"); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}

	third, err := s.Get(ctx, DarkWindow, true)
	if err != nil || third.Cached {
		t.Errorf("refresh read = %+v, %v", third, err)
	}
	if got := fs.count("GET /api/moon/dark-window"); got != 2 {
		t.Errorf("server hits after refresh = %d, want 2", got)
	}
	if age := second.Age(fetchedAt.Add(time.Minute)); age != time.Minute {
		t.Errorf("Age() = %v", age)
	}
}

func TestStoreDoesNotCachePendingOrErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		kind   fetch.Kind
	}{
		{"pending", `{"status":"pending","message":"Sun report cache is not ready yet"}`, http.StatusAccepted, fetch.KindPending},
		{"error payload", `{"status":"error","message":"broken"}`, http.StatusOK, fetch.KindError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeServer(t)
			fs.set("GET /api/sun/today", tt.body, tt.status)
			mem := cache.NewMemoryCache()
			s := newTestStore(t, fs.URL, mem)

			r := SunToday
			r.Warmup = false // single attempt per read
			for range 2 {
				e, err := s.Get(context.Background(), r, false)
				if err != nil {
					t.Fatalf("Get() error: %v", err)
				}
				if e.Payload.Kind() != tt.kind || e.Cached {
					t.Errorf("entry = %v cached=%v", e.Payload.Kind(), e.Cached)
				}
			}
			if got := fs.count("GET /api/sun/today"); got != 2 {
				t.Errorf("server hits = %d, want 2", got)
			}
			if mem.Len() != 0 {
				t.Errorf("cache entries = %d, want 0", mem.Len())
			}
		})
	}
}

func TestStoreWarmupRetriesPending(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 4 {
			w.WriteHeader(http.StatusAccepted)
			io.WriteString(w, `{"status":"pending","message":"Moon report cache is not ready yet"}`)
			return
		}
		io.WriteString(w, `{"moon":{"phase_name":"Full"}}`)
	}))
	defer srv.Close()

	s := newTestStore(t, srv.URL, cache.NewMemoryCache())
	report, e, err := Load[MoonReportData](context.Background(), s, MoonReport, false)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if report.Moon.PhaseName != "Full" || e.Cached || calls != 4 {
		t.Errorf("report = %+v after %d calls", report, calls)
	}
}

func TestStoreUncacheableResource(t *testing.T) {
	fs := newFakeServer(t)
	fs.set("GET /api/auth/status", `{"authenticated":true,"username":"admin","role":"admin"}`, 0)
	s := newTestStore(t, fs.URL, cache.NewMemoryCache())

	for range 2 {
		st, _, err := Load[AuthStatus](context.Background(), s, Auth, false)
		if err != nil || !st.Authenticated || st.Role != "admin" {
			t.Fatalf("Load() = %+v, %v", st, err)
		}
	}
	if got := fs.count("GET /api/auth/status"); got != 2 {
		t.Errorf("server hits = %d, want 2", got)
	}
}

func TestStoreMutateInvalidates(t *testing.T) {
	fs := newFakeServer(t)
	fs.set("GET /api/astrodex", `{"items":[]}`, 0)
	fs.set("POST /api/astrodex/items", `{"status":"success","item":{"id":"1","name":"M31"}}`, 0)
	fs.set("DELETE /api/astrodex/items/1", `{"status":"success"}`, 0)
	s := newTestStore(t, fs.URL, cache.NewMemoryCache())
	ctx := context.Background()

	if _, err := s.Get(ctx, Astrodex, false); err != nil {
		t.Fatal(err)
	}
	if e, _ := s.Get(ctx, Astrodex, false); !e.Cached {
		t.Fatal("astrodex should be cached before the mutation")
	}

	p, err := s.AddAstrodexItem(ctx, AstrodexItem{Name: "M31", Type: "Galaxy"})
	if err != nil || p.Status() != "success" {
		t.Fatalf("AddAstrodexItem() = %v, %v", p, err)
	}
	if e, _ := s.Get(ctx, Astrodex, false); e.Cached {
		t.Error("astrodex should be refetched after a mutation")
	}

	if _, err := s.DeleteAstrodexItem(ctx, "1"); err != nil {
		t.Fatal(err)
	}
	if e, _ := s.Get(ctx, Astrodex, false); e.Cached {
		t.Error("astrodex should be refetched after a delete")
	}
	if got := fs.count("GET /api/astrodex"); got != 3 {
		t.Errorf("astrodex reads = %d, want 3", got)
	}
}

func TestStoreMutateFailureKeepsCache(t *testing.T) {
	fs := newFakeServer(t)
	fs.set("GET /api/astrodex", `{"items":[]}`, 0)
	fs.set("POST /api/astrodex/items", `{"error":"Item already exists in Astrodex"}`, http.StatusBadRequest)
	s := newTestStore(t, fs.URL, cache.NewMemoryCache())
	ctx := context.Background()

	_, _ = s.Get(ctx, Astrodex, false)
	_, err := s.AddAstrodexItem(ctx, AstrodexItem{Name: "M31"})
	if errors.StatusCode(err) != http.StatusBadRequest {
		t.Fatalf("error = %v, want 400", err)
	}
	if e, _ := s.Get(ctx, Astrodex, false); !e.Cached {
		t.Error("a rejected write should not invalidate")
	}
}

func TestStoreMutateErrorPayloadKeepsCache(t *testing.T) {
	fs := newFakeServer(t)
	fs.set("GET /api/astrodex", `{"items":[]}`, 0)
	fs.set("POST /api/astrodex/items", `{"error":"Item already exists in Astrodex"}`, http.StatusOK)
	s := newTestStore(t, fs.URL, cache.NewMemoryCache())
	ctx := context.Background()

	_, _ = s.Get(ctx, Astrodex, false)
	p, err := s.AddAstrodexItem(ctx, AstrodexItem{Name: "M31"})
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsError() || p.ErrorText() != "Item already exists in Astrodex" {
		t.Fatalf("payload = %s, want error payload", p.Raw())
	}
	if e, _ := s.Get(ctx, Astrodex, false); !e.Cached {
		t.Error("a 2xx error payload should not invalidate")
	}
	if got := fs.count("GET /api/astrodex"); got != 1 {
		t.Errorf("astrodex reads = %d, want 1", got)
	}
}

func TestStoreValidatesMutations(t *testing.T) {
	s := newTestStore(t, "http://localhost:5000", nil)
	ctx := context.Background()
	if _, err := s.AddAstrodexItem(ctx, AstrodexItem{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty name error = %v", err)
	}
	if _, err := s.DeleteAstrodexItem(ctx, ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty id error = %v", err)
	}
}

func TestStoreSaveConfigInvalidatesAstronomy(t *testing.T) {
	fs := newFakeServer(t)
	fs.set("GET /api/moon/dark-window", darkWindowBody, 0)
	fs.set("POST /api/config", `{"status":"success"}`, 0)
	mem := cache.NewMemoryCache()
	s := newTestStore(t, fs.URL, mem)
	ctx := context.Background()

	_, _ = s.Get(ctx, DarkWindow, false)
	if mem.Len() != 1 {
		t.Fatalf("cache entries = %d", mem.Len())
	}
	if _, err := s.SaveConfig(ctx, map[string]any{"location": map[string]any{"latitude": 48.85}}); err != nil {
		t.Fatal(err)
	}
	if e, _ := s.Get(ctx, DarkWindow, false); e.Cached {
		t.Error("dark window should be refetched after a config change")
	}
}

func TestStoreCorruptEntryIsMiss(t *testing.T) {
	fs := newFakeServer(t)
	fs.set("GET /api/version", `{"version":"1.4.0"}`, 0)
	mem := cache.NewMemoryCache()
	s := newTestStore(t, fs.URL, mem)
	ctx := context.Background()

	_ = mem.Set(ctx, s.Key(VersionInfo), []byte("garbage"), time.Hour)
	v, e, err := Load[Version](ctx, s, VersionInfo, false)
	if err != nil || v.Version != "1.4.0" || e.Cached {
		t.Errorf("Load() = %+v cached=%v, %v", v, e != nil && e.Cached, err)
	}
}

func TestStoreAsFetcher(t *testing.T) {
	fs := newFakeServer(t)
	fs.set("GET /api/tonight/best-window?mode=practical", `{"best_window":{"start":"22:15","end":"04:40","duration_hours":6.42,"moon_condition":"practical","score":100}}`, 0)
	fs.set("GET /api/health", `{"status":"ok"}`, 0)
	s := newTestStore(t, fs.URL, cache.NewMemoryCache())
	ctx := context.Background()

	for range 2 {
		p, err := s.FetchJSONWithRetry(ctx, "/api/tonight/best-window?mode=practical", fetch.Request{}, fetch.RetryPolicy{})
		if err != nil {
			t.Fatal(err)
		}
		bw, err := fetch.Decode[BestWindowData](p)
		if err != nil || bw.BestWindow.Score != 100 || bw.BestWindow.Start != "22:15" {
			t.Fatalf("decoded = %+v, %v", bw, err)
		}
	}
	if got := fs.count("GET /api/tonight/best-window?mode=practical"); got != 1 {
		t.Errorf("best-window hits = %d, want 1", got)
	}

	for range 2 {
		if _, err := s.FetchJSONWithRetry(ctx, "/api/health", fetch.Request{}, fetch.RetryPolicy{}); err != nil {
			t.Fatal(err)
		}
	}
	if got := fs.count("GET /api/health"); got != 2 {
		t.Errorf("uncatalogued path should pass through, hits = %d", got)
	}
}

func TestStoredEntryEncoding(t *testing.T) {
	fs := newFakeServer(t)
	fs.set("GET /api/catalogues", `["Messier","NGC"]`, 0)
	mem := cache.NewMemoryCache()
	s := newTestStore(t, fs.URL, mem)
	ctx := context.Background()

	if _, err := s.Get(ctx, Catalogues, false); err != nil {
		t.Fatal(err)
	}
	raw, hit, _ := mem.Get(ctx, s.Key(Catalogues))
	if !hit {
		t.Fatal("catalogues not cached")
	}
	var se storedEntry
	if err := json.Unmarshal(raw, &se); err != nil {
		t.Fatal(err)
	}
	if string(se.Body) != `["Messier","NGC"]` || se.FetchedAt.IsZero() {
		t.Errorf("stored entry = %s at %v", se.Body, se.FetchedAt)
	}
}

func TestStoreCachesCatalogueReports(t *testing.T) {
	fs := newFakeServer(t)
	fs.set("GET /api/uptonight/reports/Messier", `{"plot_image":true,"report":[{"id":"M31","name":"Andromeda Galaxy","foto":0.85,"mag":3.4,"in_astrodex":false}]}`, 0)
	fs.set("GET /api/uptonight/reports/Herschel%20400", `{"plot_image":false,"report":[]}`, 0)
	fs.set("GET /api/uptonight/logs/Messier", `{"catalogue":"Messier","log_content":"done","file_size":4}`, 0)
	s := newTestStore(t, fs.URL, cache.NewMemoryCache())
	ctx := context.Background()

	for range 2 {
		p, err := s.FetchJSONWithRetry(ctx, "/api/uptonight/reports/Messier", fetch.Request{}, fetch.RetryPolicy{})
		if err != nil {
			t.Fatal(err)
		}
		data, err := fetch.Decode[CatalogueReportData](p)
		if err != nil || len(data.Report) != 1 || data.Report[0].ID != "M31" || data.Report[0].Mag != 3.4 {
			t.Fatalf("decoded = %+v, %v", data, err)
		}
	}
	if got := fs.count("GET /api/uptonight/reports/Messier"); got != 1 {
		t.Errorf("report hits = %d, want 1", got)
	}

	r, err := CatalogueReport("Herschel 400")
	if err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if _, _, err := Load[CatalogueReportData](ctx, s, r, false); err != nil {
			t.Fatal(err)
		}
	}
	if got := fs.count("GET /api/uptonight/reports/Herschel%20400"); got != 1 {
		t.Errorf("escaped report hits = %d, want 1", got)
	}

	for range 2 {
		if _, err := s.FetchJSONWithRetry(ctx, "/api/uptonight/logs/Messier", fetch.Request{}, fetch.RetryPolicy{}); err != nil {
			t.Fatal(err)
		}
	}
	if got := fs.count("GET /api/uptonight/logs/Messier"); got != 2 {
		t.Errorf("logs should not be cached, hits = %d", got)
	}
}
