package stubserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/myastroboard/astroboard/pkg/buildinfo"
	"github.com/myastroboard/astroboard/pkg/errors"
	"github.com/myastroboard/astroboard/pkg/resources"
)

const stamp = "2006-01-02 15:04"

var defaultLocation = resources.Location{
	Name:      "Observatoire de Haute-Provence",
	Latitude:  43.9317,
	Longitude: 5.7122,
	Timezone:  "Europe/Paris",
}

// warmup serves body once resource has been requested more than
// WarmupCalls times, and the pending envelope before that.
func (s *Server) warmup(resource, label string, body func(time.Time) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.serveWarmup(w, resource, label+" cache is not ready yet. Please try again shortly.", body)
	}
}

func (s *Server) serveWarmup(w http.ResponseWriter, resource, pendingMessage string, body func(time.Time) any) {
	if s.hit(resource) <= s.cfg.WarmupCalls {
		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":  "pending",
			"message": pendingMessage,
		})
		return
	}
	writeJSON(w, http.StatusOK, body(time.Now()))
}

func (s *Server) ready(resource string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[resource] > s.cfg.WarmupCalls
}

func (s *Server) loc() resources.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, resources.Version{Version: buildinfo.Get().Version})
}

func (s *Server) cacheStatus(w http.ResponseWriter, r *http.Request) {
	names := []string{"moon_report", "dark_window", "moon_planner", "sun_report"}
	for _, mode := range errors.WindowModes {
		names = append(names, "best_window_"+mode)
	}
	details := make(map[string]bool, len(names)+2)
	all := true
	for _, n := range names {
		details[n] = s.ready(n)
		all = all && details[n]
	}
	details["all_ready"] = all
	details["in_progress"] = !all
	writeJSON(w, http.StatusOK, resources.CacheStatus{Ready: all, Details: details})
}

func (s *Server) moonReport(now time.Time) any {
	night := tonight(now)
	return resources.MoonReportData{
		Location: s.loc(),
		Moon: resources.Moon{
			PhaseName:           "Waning Crescent",
			IlluminationPercent: 18.4,
			DistanceKm:          384120,
			AltitudeDeg:         -12.3,
			AzimuthDeg:          71.9,
			NextMoonrise:        night.Add(6 * time.Hour).Format(stamp),
			NextMoonset:         night.Add(17 * time.Hour).Format(stamp),
			NextFullMoon:        now.AddDate(0, 0, 19).Format(stamp),
			NextNewMoon:         now.AddDate(0, 0, 4).Format(stamp),
			NextDarkNightStart:  night.Format(stamp),
			NextDarkNightEnd:    night.Add(5*time.Hour + 40*time.Minute).Format(stamp),
		},
	}
}

func (s *Server) darkWindow(now time.Time) any {
	night := tonight(now)
	return resources.DarkWindowData{NextDarkNight: resources.Window{
		Start: night.Format(stamp),
		End:   night.Add(5*time.Hour + 40*time.Minute).Format(stamp),
	}}
}

func (s *Server) moonPlanner(now time.Time) any {
	out := resources.MoonPlannerData{Location: s.loc()}
	for i := range 7 {
		var n resources.Night
		n.Date = now.AddDate(0, 0, i).Format("2006-01-02")
		dark := 5.7 - 0.4*float64(i)
		n.DarkHours = map[string]float64{"astronomical_night": 7.9, "moonless": dark}
		n.Moon.MaxAltitude = 20 + 5*float64(i)
		n.Moon.IlluminationPercent = 18.4 - 2.5*float64(i)
		n.AstrophotoScore = dark / 7.9 * 100
		out.Nights = append(out.Nights, n)
	}
	return out
}

func (s *Server) sunToday(now time.Time) any {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return map[string]string{
		"sunrise":                     day.Add(7*time.Hour + 52*time.Minute).Format(stamp),
		"sunset":                      day.Add(18*time.Hour + 41*time.Minute).Format(stamp),
		"astronomical_twilight_end":   day.Add(20*time.Hour + 18*time.Minute).Format(stamp),
		"astronomical_twilight_start": day.Add(30*time.Hour + 15*time.Minute).Format(stamp),
	}
}

func (s *Server) bestWindow(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "strict"
	}
	if errors.ValidateWindowMode(mode) != nil {
		writeError(w, http.StatusBadRequest, "Invalid mode")
		return
	}
	msg := fmt.Sprintf("Best window cache for mode '%s' is not ready yet. Please try again shortly.", mode)
	s.serveWarmup(w, "best_window_"+mode, msg, func(now time.Time) any {
		var out resources.BestWindowData
		night := tonight(now)
		hours := map[string]float64{"strict": 3.5, "practical": 4.75, "illumination": 5.5}[mode]
		out.BestWindow.Start = night.Format(stamp)
		out.BestWindow.End = night.Add(time.Duration(hours * float64(time.Hour))).Format(stamp)
		out.BestWindow.DurationHours = hours
		out.BestWindow.MoonCondition = map[string]string{"strict": "below horizon", "practical": "low", "illumination": "under 20%"}[mode]
		out.BestWindow.Score = hours / 5.5 * 100
		return out
	})
}

// tonight is the start of astronomical darkness on the evening of now.
func tonight(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 22, 30, 0, 0, now.Location())
}

func (s *Server) forecast(w http.ResponseWriter, r *http.Request) {
	now := time.Now().Truncate(time.Hour)
	hourly := make([]map[string]any, 0, 12)
	for i := range 12 {
		hourly = append(hourly, map[string]any{
			"time":        now.Add(time.Duration(i) * time.Hour).Format(stamp),
			"cloud_cover": (i * 7) % 60,
			"humidity":    55 + i,
			"temperature": 9.5 - 0.4*float64(i),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"location": s.loc(), "hourly": hourly})
}

func (s *Server) astroAnalysis(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"seeing":       "good",
		"transparency": "average",
		"score":        72,
	})
}

func (s *Server) astroCurrent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"cloud_cover": 12,
		"humidity":    61,
		"wind_speed":  8.2,
		"dew_risk":    false,
		"conditions":  "Clear",
	})
}

func (s *Server) alerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"alerts": []any{}})
}

func (s *Server) catalogues(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"catalogues": []string{"Messier", "NGC", "IC", "Caldwell"},
	})
}

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"location": s.loc()})
}

// saveConfig stores a new location. As on the real server, astronomy
// caches are recomputed, so warm-up resources turn pending again.
func (s *Server) saveConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Location *resources.Location `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Location == nil {
		writeError(w, http.StatusBadRequest, "location is required")
		return
	}
	if req.Location.Latitude < -90 || req.Location.Latitude > 90 || req.Location.Longitude < -180 || req.Location.Longitude > 180 {
		writeError(w, http.StatusBadRequest, "Invalid coordinates")
		return
	}
	s.mu.Lock()
	s.location = *req.Location
	for k := range s.calls {
		if !strings.HasPrefix(k, "flaky:") {
			delete(s.calls, k)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Configuration saved"})
}
