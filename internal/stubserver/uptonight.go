package stubserver

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/myastroboard/astroboard/pkg/resources"
)

// reportFixtures are the computed target lists per catalogue.
var reportFixtures = map[string][]resources.CatalogueTarget{
	"Messier": {
		{ID: "M31", Name: "Andromeda Galaxy", Type: "Galaxy", Constellation: "Andromeda", Foto: 0.85, Mag: 3.4},
		{ID: "M42", Name: "Orion Nebula", Type: "Nebula", Constellation: "Orion", Foto: 0.72, Mag: 4.0},
		{ID: "M45", Name: "Pleiades", Type: "Open Cluster", Constellation: "Taurus", Foto: 0.68, Mag: 1.6},
	},
	"NGC": {
		{ID: "NGC 7000", Name: "North America Nebula", Type: "Nebula", Constellation: "Cygnus", Foto: 0.64, Mag: 4.0},
	},
}

var bodyFixtures = []string{"Jupiter", "Saturn"}

// catalogueParam returns the decoded {catalogue} segment.
func catalogueParam(r *http.Request) string {
	raw := chi.URLParam(r, "catalogue")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

// inAstrodex reports whether the user's collection holds a target, matched
// case-insensitively on either its name or its catalogue id.
func inAstrodex(items []resources.AstrodexItem, names ...string) bool {
	return slices.ContainsFunc(items, func(it resources.AstrodexItem) bool {
		for _, n := range names {
			if n != "" && (strings.EqualFold(it.Name, n) || strings.EqualFold(it.ID, n)) {
				return true
			}
		}
		return false
	})
}

// catalogueReport serves a catalogue's targets annotated with the caller's
// Astrodex. Unknown catalogues have no report yet and answer an empty one.
func (s *Server) catalogueReport(w http.ResponseWriter, r *http.Request) {
	name := catalogueParam(r)
	s.hit("uptonight_report:" + name)

	s.mu.Lock()
	_, items := s.items(r)
	items = slices.Clone(items)
	s.mu.Unlock()

	fixtures, known := reportFixtures[name]
	out := resources.CatalogueReportData{
		PlotImage: known,
		Report:    make([]resources.CatalogueTarget, 0, len(fixtures)),
	}
	for _, t := range fixtures {
		t.InAstrodex = inAstrodex(items, t.Name, t.ID)
		out.Report = append(out.Report, t)
	}
	if known {
		for _, b := range bodyFixtures {
			out.Bodies = append(out.Bodies, resources.CatalogueBody{TargetName: b, InAstrodex: inAstrodex(items, b)})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func catalogueLogContent(name string) string {
	n := len(reportFixtures[name])
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("INFO uptonight: computing %s\nINFO uptonight: %d targets above horizon\nINFO uptonight: done\n", name, n)
}

func (s *Server) catalogueLog(w http.ResponseWriter, r *http.Request) {
	name := catalogueParam(r)
	if _, ok := reportFixtures[name]; !ok {
		writeError(w, http.StatusNotFound, "Log file not found")
		return
	}
	content := catalogueLogContent(name)
	writeJSON(w, http.StatusOK, resources.CatalogueLogData{
		Catalogue:  name,
		LogContent: content,
		FileSize:   int64(len(content)),
	})
}

func (s *Server) catalogueLogExists(w http.ResponseWriter, r *http.Request) {
	name := catalogueParam(r)
	_, ok := reportFixtures[name]
	writeJSON(w, http.StatusOK, map[string]any{"catalogue": name, "log_exists": ok})
}
