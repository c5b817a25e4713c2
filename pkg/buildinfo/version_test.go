package buildinfo

import (
	"strings"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	i := Get()
	if i.Version == "" || i.Commit == "" || i.Date == "" {
		t.Errorf("Get() = %+v, want no empty fields", i)
	}
	if !strings.HasPrefix(i.GoVersion, "go") {
		t.Errorf("GoVersion = %q", i.GoVersion)
	}
	if !strings.Contains(i.Platform, "/") {
		t.Errorf("Platform = %q", i.Platform)
	}
}

func TestStampedVersionWins(t *testing.T) {
	old := Version
	Version = "v9.9.9"
	t.Cleanup(func() { Version = old })

	if got := Get().Version; got != "v9.9.9" {
		t.Errorf("Version = %q", got)
	}
	if !strings.Contains(String(), "version: v9.9.9") {
		t.Errorf("String() = %q", String())
	}
	if !strings.Contains(Template(), "{{.Name}} version v9.9.9") {
		t.Errorf("Template() = %q", Template())
	}
	if UserAgent() != "astroboard/v9.9.9" {
		t.Errorf("UserAgent() = %q", UserAgent())
	}
}
