package resources

import "slices"

// Location is the observing site configured on the server.
type Location struct {
	Name      string  `json:"name,omitempty" yaml:"name,omitempty"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Timezone  string  `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

// Moon is the moon section of the moon report.
type Moon struct {
	PhaseName           string  `json:"phase_name" yaml:"phase_name"`
	IlluminationPercent float64 `json:"illumination_percent" yaml:"illumination_percent"`
	DistanceKm          float64 `json:"distance_km" yaml:"distance_km"`
	AltitudeDeg         float64 `json:"altitude_deg" yaml:"altitude_deg"`
	AzimuthDeg          float64 `json:"azimuth_deg" yaml:"azimuth_deg"`
	NextMoonrise        string  `json:"next_moonrise" yaml:"next_moonrise"`
	NextMoonset         string  `json:"next_moonset" yaml:"next_moonset"`
	NextFullMoon        string  `json:"next_full_moon" yaml:"next_full_moon"`
	NextNewMoon         string  `json:"next_new_moon" yaml:"next_new_moon"`
	NextDarkNightStart  string  `json:"next_dark_night_start" yaml:"next_dark_night_start"`
	NextDarkNightEnd    string  `json:"next_dark_night_end" yaml:"next_dark_night_end"`
}

// MoonReportData is the body of /api/moon/report.
type MoonReportData struct {
	Location Location `json:"location" yaml:"location"`
	Moon     Moon     `json:"moon" yaml:"moon"`
}

// Window is a start/end pair in the server's local time ("2006-01-02 15:04").
type Window struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// DarkWindowData is the body of /api/moon/dark-window.
type DarkWindowData struct {
	NextDarkNight Window `json:"next_dark_night" yaml:"next_dark_night"`
}

// BestWindowData is the body of /api/tonight/best-window.
type BestWindowData struct {
	BestWindow struct {
		Window        `yaml:",inline"`
		DurationHours float64 `json:"duration_hours" yaml:"duration_hours"`
		MoonCondition string  `json:"moon_condition" yaml:"moon_condition"`
		Score         float64 `json:"score" yaml:"score"`
	} `json:"best_window" yaml:"best_window"`
}

// Night is one entry of the moon planner.
type Night struct {
	Date      string             `json:"date" yaml:"date"`
	DarkHours map[string]float64 `json:"dark_hours" yaml:"dark_hours"`
	Moon      struct {
		MaxAltitude         float64 `json:"max_altitude" yaml:"max_altitude"`
		IlluminationPercent float64 `json:"illumination_percent" yaml:"illumination_percent"`
	} `json:"moon" yaml:"moon"`
	AstrophotoScore float64 `json:"astrophoto_score" yaml:"astrophoto_score"`
}

// MoonPlannerData is the body of /api/moon/next-7-nights.
type MoonPlannerData struct {
	Location Location `json:"location" yaml:"location"`
	Nights   []Night  `json:"next_7_nights" yaml:"next_7_nights"`
}

// CacheStatus is the body of /api/cache.
type CacheStatus struct {
	Ready   bool            `json:"cache_status" yaml:"cache_status"`
	Details map[string]bool `json:"details" yaml:"details"`
}

// Pending lists the server caches that are not ready, sorted.
func (s CacheStatus) Pending() []string {
	var out []string
	for name, ok := range s.Details {
		if !ok && name != "all_ready" && name != "in_progress" {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// AuthStatus is the body of /api/auth/status.
type AuthStatus struct {
	Authenticated        bool   `json:"authenticated" yaml:"authenticated"`
	UserID               string `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Username             string `json:"username,omitempty" yaml:"username,omitempty"`
	Role                 string `json:"role,omitempty" yaml:"role,omitempty"`
	UsingDefaultPassword bool   `json:"using_default_password,omitempty" yaml:"using_default_password,omitempty"`
}

// Version is the body of /api/version.
type Version struct {
	Version string `json:"version" yaml:"version"`
}

// AstrodexItem is one observed object in the user's collection.
type AstrodexItem struct {
	ID            string `json:"id,omitempty" yaml:"id,omitempty"`
	Name          string `json:"name" yaml:"name"`
	Type          string `json:"type,omitempty" yaml:"type,omitempty"`
	Catalogue     string `json:"catalogue,omitempty" yaml:"catalogue,omitempty"`
	RA            string `json:"ra,omitempty" yaml:"ra,omitempty"`
	Dec           string `json:"dec,omitempty" yaml:"dec,omitempty"`
	Constellation string `json:"constellation,omitempty" yaml:"constellation,omitempty"`
	Notes         string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// AstrodexData is the body of /api/astrodex.
type AstrodexData struct {
	Items     []AstrodexItem `json:"items" yaml:"items"`
	Stats     map[string]any `json:"stats,omitempty" yaml:"stats,omitempty"`
	CreatedAt string         `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt string         `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// CatalogueList is the body of /api/catalogues.
type CatalogueList struct {
	Catalogues []string `json:"catalogues" yaml:"catalogues"`
}

// CatalogueTarget is one deep-sky object in a catalogue report.
type CatalogueTarget struct {
	ID            string  `json:"id" yaml:"id"`
	Name          string  `json:"name" yaml:"name"`
	Type          string  `json:"type,omitempty" yaml:"type,omitempty"`
	Constellation string  `json:"constellation,omitempty" yaml:"constellation,omitempty"`
	Foto          float64 `json:"foto" yaml:"foto"`
	Mag           float64 `json:"mag" yaml:"mag"`
	InAstrodex    bool    `json:"in_astrodex" yaml:"in_astrodex"`
}

// CatalogueBody is a solar-system body or comet visible tonight.
type CatalogueBody struct {
	TargetName string `json:"target name" yaml:"target_name"`
	InAstrodex bool   `json:"in_astrodex" yaml:"in_astrodex"`
}

// CatalogueReportData is the body of /api/uptonight/reports/{catalogue}.
type CatalogueReportData struct {
	PlotImage bool              `json:"plot_image" yaml:"plot_image"`
	Report    []CatalogueTarget `json:"report" yaml:"report"`
	Bodies    []CatalogueBody   `json:"bodies,omitempty" yaml:"bodies,omitempty"`
	Comets    []CatalogueBody   `json:"comets,omitempty" yaml:"comets,omitempty"`
}

// CatalogueLogData is the body of /api/uptonight/logs/{catalogue}.
type CatalogueLogData struct {
	Catalogue  string `json:"catalogue" yaml:"catalogue"`
	LogContent string `json:"log_content" yaml:"log_content"`
	FileSize   int64  `json:"file_size" yaml:"file_size"`
}
