package resources

import (
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/myastroboard/astroboard/pkg/errors"
	"github.com/myastroboard/astroboard/pkg/fetch"
)

// Cache lifetimes matching the server's own refresh intervals.
const (
	AstronomyTTL = 30 * time.Minute
	WeatherTTL   = time.Hour
	StaticTTL    = 12 * time.Hour
)

// WarmupPolicy is used for resources the server computes in the
// background. Such endpoints answer {"status":"pending"} with HTTP 202
// until their cache is ready, which can take a minute after start-up.
var WarmupPolicy = fetch.RetryPolicy{
	MaxAttempts:     6,
	BaseDelay:       time.Second,
	MaxDelay:        12 * time.Second,
	Timeout:         15 * time.Second,
	ShouldRetryData: fetch.RetryPending,
}

// Resource identifies one readable API resource.
type Resource struct {
	Name   string        // cache name, unique in the catalogue
	Path   string        // API path including any query string
	Label  string        // human-readable title
	TTL    time.Duration // 0 disables client-side caching
	Warmup bool          // served from a background-filled server cache
}

// Policy returns the retry policy for r.
func (r Resource) Policy() fetch.RetryPolicy {
	if r.Warmup {
		return WarmupPolicy
	}
	return fetch.RetryPolicy{}
}

// Cacheable reports whether successful reads of r are stored.
func (r Resource) Cacheable() bool { return r.TTL > 0 }

var (
	MoonReport   = Resource{Name: "moon:report", Path: "/api/moon/report", Label: "Moon report", TTL: AstronomyTTL, Warmup: true}
	DarkWindow   = Resource{Name: "moon:dark-window", Path: "/api/moon/dark-window", Label: "Next dark window", TTL: AstronomyTTL, Warmup: true}
	MoonPlanner  = Resource{Name: "moon:next-7-nights", Path: "/api/moon/next-7-nights", Label: "Moon planner", TTL: AstronomyTTL, Warmup: true}
	SunToday     = Resource{Name: "sun:today", Path: "/api/sun/today", Label: "Sun today", TTL: AstronomyTTL, Warmup: true}
	Forecast     = Resource{Name: "weather:forecast", Path: "/api/weather/forecast", Label: "Weather forecast", TTL: WeatherTTL}
	AstroWeather = Resource{Name: "weather:astro-analysis", Path: "/api/weather/astro-analysis", Label: "Astro weather analysis", TTL: WeatherTTL}
	AstroCurrent = Resource{Name: "weather:astro-current", Path: "/api/weather/astro-current", Label: "Current conditions", TTL: WeatherTTL}
	Alerts       = Resource{Name: "weather:alerts", Path: "/api/weather/alerts", Label: "Weather alerts", TTL: WeatherTTL}
	CacheState   = Resource{Name: "server:cache", Path: "/api/cache", Label: "Server cache status"}
	Catalogues   = Resource{Name: "catalogues", Path: "/api/catalogues", Label: "Target catalogues", TTL: StaticTTL}
	VersionInfo  = Resource{Name: "version", Path: "/api/version", Label: "Server version", TTL: StaticTTL}
	Config       = Resource{Name: "config", Path: "/api/config", Label: "Configuration", TTL: StaticTTL}
	Astrodex     = Resource{Name: "astrodex", Path: "/api/astrodex", Label: "Astrodex", TTL: StaticTTL}
	Auth         = Resource{Name: "auth:status", Path: "/api/auth/status", Label: "Session"}
)

// BestWindow returns the best-window resource for mode. Modes are
// validated here because the server rejects unknown ones with a 400.
func BestWindow(mode string) (Resource, error) {
	if mode == "" {
		mode = errors.WindowModes[0]
	}
	if err := errors.ValidateWindowMode(mode); err != nil {
		return Resource{}, err
	}
	return Resource{
		Name:   "tonight:best-window:" + mode,
		Path:   "/api/tonight/best-window?mode=" + url.QueryEscape(mode),
		Label:  "Best window (" + mode + ")",
		TTL:    AstronomyTTL,
		Warmup: true,
	}, nil
}

// Catalogue report and log paths take the catalogue name as their last
// segment.
const (
	catalogueReportPrefix = "/api/uptonight/reports/"
	catalogueLogPrefix    = "/api/uptonight/logs/"
)

// CatalogueReport returns the target report resource for one catalogue.
// Reports are recomputed once per night, so they share StaticTTL.
func CatalogueReport(name string) (Resource, error) {
	if err := errors.ValidateCatalogueName(name); err != nil {
		return Resource{}, err
	}
	return Resource{
		Name:  "uptonight:report:" + name,
		Path:  catalogueReportPrefix + url.PathEscape(name),
		Label: name + " targets",
		TTL:   StaticTTL,
	}, nil
}

// CatalogueLog returns the computation log resource for one catalogue.
// Logs grow while a report is computed and are never cached.
func CatalogueLog(name string) (Resource, error) {
	if err := errors.ValidateCatalogueName(name); err != nil {
		return Resource{}, err
	}
	return Resource{
		Name:  "uptonight:log:" + name,
		Path:  catalogueLogPrefix + url.PathEscape(name),
		Label: name + " log",
	}, nil
}

// catalogueResource resolves a per-catalogue path against prefix.
func catalogueResource(path, prefix string, build func(string) (Resource, error)) (Resource, bool) {
	seg, ok := strings.CutPrefix(path, prefix)
	if !ok || strings.ContainsAny(seg, "/?") {
		return Resource{}, false
	}
	name, err := url.PathUnescape(seg)
	if err != nil {
		return Resource{}, false
	}
	r, err := build(name)
	if err != nil {
		return Resource{}, false
	}
	return r, true
}

// Catalogue returns every known resource, best-window modes included.
func Catalogue() []Resource {
	all := []Resource{
		MoonReport, DarkWindow, MoonPlanner, SunToday,
		Forecast, AstroWeather, AstroCurrent, Alerts,
		CacheState, Catalogues, VersionInfo, Config, Astrodex, Auth,
	}
	for _, mode := range errors.WindowModes {
		r, _ := BestWindow(mode)
		all = append(all, r)
	}
	return all
}

// Dashboard returns the resources shown by the dashboard, in display order.
func Dashboard() []Resource {
	strict, _ := BestWindow("strict")
	return []Resource{MoonReport, DarkWindow, SunToday, strict, MoonPlanner, AstroCurrent}
}

// Lookup finds a resource by name.
func Lookup(name string) (Resource, bool) {
	all := Catalogue()
	i := slices.IndexFunc(all, func(r Resource) bool { return r.Name == name })
	if i < 0 {
		return Resource{}, false
	}
	return all[i], true
}

// ForPath finds the resource served at path. Query strings must match
// exactly except that a bare best-window path selects the strict mode.
// Per-catalogue report and log paths resolve for any valid name.
func ForPath(path string) (Resource, bool) {
	if path == "/api/tonight/best-window" {
		r, _ := BestWindow("")
		return r, true
	}
	if r, ok := catalogueResource(path, catalogueReportPrefix, CatalogueReport); ok {
		return r, true
	}
	if r, ok := catalogueResource(path, catalogueLogPrefix, CatalogueLog); ok {
		return r, true
	}
	for _, r := range Catalogue() {
		if r.Path == path {
			return r, true
		}
	}
	return Resource{}, false
}

// Names returns every resource name, sorted.
func Names() []string {
	var names []string
	for _, r := range Catalogue() {
		names = append(names, r.Name)
	}
	slices.Sort(names)
	return names
}

// astrodexItemPath is the path of one Astrodex item.
func astrodexItemPath(id string) string {
	return "/api/astrodex/items/" + url.PathEscape(strings.TrimSpace(id))
}

// Affected returns the resources a write to path makes stale.
func Affected(path string) []Resource {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	switch {
	case path == Config.Path:
		return configDependents()
	case path == Astrodex.Path || strings.HasPrefix(path, Astrodex.Path+"/"):
		return []Resource{Astrodex}
	}
	var out []Resource
	for _, r := range Catalogue() {
		p := r.Path
		if i := strings.IndexByte(p, '?'); i >= 0 {
			p = p[:i]
		}
		if p == path {
			out = append(out, r)
		}
	}
	return out
}

// configDependents are the resources recomputed after a config change.
func configDependents() []Resource {
	out := []Resource{Config, MoonReport, DarkWindow, MoonPlanner, SunToday, Forecast, AstroWeather, AstroCurrent, Alerts}
	for _, mode := range errors.WindowModes {
		r, _ := BestWindow(mode)
		out = append(out, r)
	}
	return out
}
