package resources

import (
	"testing"
	"time"

	"github.com/myastroboard/astroboard/pkg/errors"
)

func TestBestWindow(t *testing.T) {
	tests := []struct {
		mode     string
		wantPath string
		wantErr  bool
	}{
		{"", "/api/tonight/best-window?mode=strict", false},
		{"strict", "/api/tonight/best-window?mode=strict", false},
		{"practical", "/api/tonight/best-window?mode=practical", false},
		{"illumination", "/api/tonight/best-window?mode=illumination", false},
		{"moonless", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			r, err := BestWindow(tt.mode)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidMode) {
					t.Errorf("error = %v, want INVALID_MODE", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if r.Path != tt.wantPath || !r.Warmup {
				t.Errorf("resource = %+v", r)
			}
			if err := errors.ValidateAPIPath(r.Path); err != nil {
				t.Errorf("path invalid: %v", err)
			}
		})
	}
}

func TestCatalogueNamesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range Catalogue() {
		if seen[r.Name] {
			t.Errorf("duplicate resource name %q", r.Name)
		}
		seen[r.Name] = true
		if err := errors.ValidateAPIPath(r.Path); err != nil {
			t.Errorf("%s: %v", r.Name, err)
		}
	}
	if len(Names()) != len(seen) {
		t.Errorf("Names() = %d entries, want %d", len(Names()), len(seen))
	}
}

func TestLookupAndForPath(t *testing.T) {
	r, ok := Lookup("moon:dark-window")
	if !ok || r.Path != "/api/moon/dark-window" {
		t.Errorf("Lookup() = %+v, %v", r, ok)
	}
	if _, ok := Lookup("nope"); ok {
		t.Error("Lookup(nope) should fail")
	}

	r, ok = ForPath("/api/tonight/best-window")
	if !ok || r.Name != "tonight:best-window:strict" {
		t.Errorf("ForPath(best-window) = %+v, %v", r, ok)
	}
	if _, ok := ForPath("/api/health"); ok {
		t.Error("ForPath(/api/health) should fail")
	}
}

func TestCatalogueReport(t *testing.T) {
	tests := []struct {
		name     string
		wantPath string
		wantErr  bool
	}{
		{"Messier", "/api/uptonight/reports/Messier", false},
		{"Herschel 400", "/api/uptonight/reports/Herschel%20400", false},
		{"", "", true},
		{"../config", "", true},
		{"a/b", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := CatalogueReport(tt.name)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidInput) {
					t.Errorf("error = %v, want INVALID_INPUT", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if r.Path != tt.wantPath || r.TTL != StaticTTL || r.Warmup {
				t.Errorf("resource = %+v", r)
			}
			if err := errors.ValidateAPIPath(r.Path); err != nil {
				t.Errorf("path invalid: %v", err)
			}
			got, ok := ForPath(r.Path)
			if !ok || got != r {
				t.Errorf("ForPath(%q) = %+v, %v", r.Path, got, ok)
			}
		})
	}
}

func TestForPathCatalogueRoutes(t *testing.T) {
	r, ok := ForPath("/api/uptonight/reports/messier")
	if !ok || r.Name != "uptonight:report:messier" || !r.Cacheable() {
		t.Errorf("ForPath(report) = %+v, %v", r, ok)
	}
	r, ok = ForPath("/api/uptonight/logs/Messier")
	if !ok || r.Name != "uptonight:log:Messier" || r.Cacheable() {
		t.Errorf("ForPath(log) = %+v, %v", r, ok)
	}
	for _, path := range []string{
		"/api/uptonight/reports/",
		"/api/uptonight/reports/Messier/extra",
		"/api/uptonight/logs/Messier/exists",
		"/api/uptonight/reports/%zz",
	} {
		if _, ok := ForPath(path); ok {
			t.Errorf("ForPath(%q) should fail", path)
		}
	}
}

func TestResourcePolicy(t *testing.T) {
	p := MoonReport.Policy()
	if p.MaxAttempts != 6 || p.MaxDelay != 12*time.Second || p.Timeout != 15*time.Second || p.ShouldRetryData == nil {
		t.Errorf("warm-up policy = %+v", p)
	}
	if q := Forecast.Policy(); q.ShouldRetryData != nil || q.MaxAttempts != 0 {
		t.Errorf("plain policy = %+v", q)
	}
	if Auth.Cacheable() || !Forecast.Cacheable() {
		t.Error("Cacheable() mismatch")
	}
}

func TestDashboardResourcesAreWarmupOrWeather(t *testing.T) {
	for _, r := range Dashboard() {
		if !r.Warmup && r.TTL != WeatherTTL {
			t.Errorf("%s is neither warm-up nor weather", r.Name)
		}
	}
}

func TestCacheStatusPending(t *testing.T) {
	s := CacheStatus{Details: map[string]bool{
		"moon_report": true,
		"sun_report":  false,
		"dark_window": false,
		"all_ready":   false,
		"in_progress": false,
	}}
	got := s.Pending()
	if len(got) != 2 || got[0] != "dark_window" || got[1] != "sun_report" {
		t.Errorf("Pending() = %v", got)
	}
}

func TestAffected(t *testing.T) {
	names := func(rs []Resource) []string {
		var out []string
		for _, r := range rs {
			out = append(out, r.Name)
		}
		return out
	}

	if got := names(Affected("/api/astrodex/items/42")); len(got) != 1 || got[0] != "astrodex" {
		t.Errorf("astrodex item = %v", got)
	}
	if got := Affected("/api/config"); len(got) != 12 {
		t.Errorf("config affects %d resources, want 12: %v", len(got), names(got))
	}
	if got := names(Affected("/api/tonight/best-window?mode=practical")); len(got) != 3 {
		t.Errorf("best-window = %v, want every mode", got)
	}
	if got := Affected("/api/users"); len(got) != 0 {
		t.Errorf("users = %v", names(got))
	}
}
