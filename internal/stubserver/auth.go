package stubserver

import (
	"context"
	"encoding/json"
	"net/http"
)

func withUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func userFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey).(User)
	return u, ok
}

func (s *Server) currentUser(r *http.Request) (User, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return User{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.sessions[c.Value]
	return u, ok
}

func (s *Server) authenticate(username, password string) (User, bool) {
	for _, u := range s.cfg.Users {
		if u.Username == username && u.Password == password {
			return u, true
		}
	}
	return User{}, false
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password required")
		return
	}
	u, ok := s.authenticate(req.Username, req.Password)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token := newID()
	s.mu.Lock()
	s.sessions[token] = u
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.Info("user logged in", "user", u.Username)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":                 "success",
		"user_id":                u.ID,
		"username":               u.Username,
		"role":                   u.Role,
		"using_default_password": u.Password == u.Username,
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) authStatus(w http.ResponseWriter, r *http.Request) {
	u, ok := s.currentUser(r)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated":          true,
		"user_id":                u.ID,
		"username":               u.Username,
		"role":                   u.Role,
		"using_default_password": u.Password == u.Username,
	})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	out := make([]map[string]string, 0, len(s.cfg.Users))
	for _, u := range s.cfg.Users {
		out = append(out, map[string]string{"user_id": u.ID, "username": u.Username, "role": u.Role})
	}
	writeJSON(w, http.StatusOK, out)
}
