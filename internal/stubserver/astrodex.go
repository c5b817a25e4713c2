package stubserver

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/myastroboard/astroboard/pkg/resources"
)

func (s *Server) items(r *http.Request) (User, []resources.AstrodexItem) {
	u, _ := userFrom(r.Context())
	return u, s.astrodex[u.ID]
}

func (s *Server) listAstrodex(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	_, items := s.items(r)
	out := resources.AstrodexData{
		Items: slices.Clone(items),
		Stats: map[string]any{"total_items": len(items)},
	}
	s.mu.Unlock()
	if out.Items == nil {
		out.Items = []resources.AstrodexItem{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) addAstrodexItem(w http.ResponseWriter, r *http.Request) {
	var item resources.AstrodexItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil || strings.TrimSpace(item.Name) == "" {
		writeError(w, http.StatusBadRequest, "Item name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, items := s.items(r)
	if slices.ContainsFunc(items, func(it resources.AstrodexItem) bool { return strings.EqualFold(it.Name, item.Name) }) {
		writeError(w, http.StatusBadRequest, "Item already exists in Astrodex")
		return
	}
	item.ID = newID()
	s.astrodex[u.ID] = append(items, item)
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "item": item, "added_at": time.Now().Format(time.RFC3339)})
}

func (s *Server) findItem(items []resources.AstrodexItem, r *http.Request) int {
	id := chi.URLParam(r, "id")
	return slices.IndexFunc(items, func(it resources.AstrodexItem) bool { return it.ID == id })
}

func (s *Server) getAstrodexItem(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, items := s.items(r)
	i := s.findItem(items, r)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	writeJSON(w, http.StatusOK, items[i])
}

func (s *Server) updateAstrodexItem(w http.ResponseWriter, r *http.Request) {
	var patch resources.AstrodexItem
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, items := s.items(r)
	i := s.findItem(items, r)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	patch.ID = items[i].ID
	if patch.Name == "" {
		patch.Name = items[i].Name
	}
	items[i] = patch
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "item": patch})
}

func (s *Server) deleteAstrodexItem(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, items := s.items(r)
	i := s.findItem(items, r)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	s.astrodex[u.ID] = slices.Delete(items, i, i+1)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Item deleted"})
}
