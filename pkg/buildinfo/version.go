// Package buildinfo holds build-time version information for astroboard.
//
// Release builds stamp the variables with ldflags:
//
//	go build -ldflags "-X github.com/myastroboard/astroboard/pkg/buildinfo.Version=v0.4.0 \
//	    -X github.com/myastroboard/astroboard/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/myastroboard/astroboard/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/astroboard
//
// Unstamped builds fall back to the module version recorded by the Go
// toolchain, so `go install ...@v0.4.0` still reports a version.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the version report printed by `astroboard version`.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date" yaml:"date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// Get returns the build information, consulting the embedded module
// metadata for fields the ldflags left unset.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "none" && len(s.Value) >= 7 {
				info.Commit = s.Value[:7]
			}
		case "vcs.time":
			if info.Date == "unknown" {
				info.Date = s.Value
			}
		}
	}
	return info
}

// String returns the formatted build information.
func String() string {
	i := Get()
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s\ngo: %s %s", i.Version, i.Commit, i.Date, i.GoVersion, i.Platform)
}

// Template returns the version template string for cobra.
func Template() string {
	i := Get()
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", i.Version, i.Commit, i.Date)
}

// UserAgent identifies the CLI to the dashboard server.
func UserAgent() string {
	return "astroboard/" + Get().Version
}
