// Package stubserver is an in-process stand-in for the MyAstroBoard backend.
//
// It reproduces the parts of the server contract the client depends on:
// warm-up endpoints that answer HTTP 202 {"status":"pending"} until their
// background cache is "computed", cookie sessions issued by
// /api/auth/login, 401 for anonymous requests, 403 for non-admin access to
// admin routes, and an Astrodex collection that can be mutated.
package stubserver

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/myastroboard/astroboard/pkg/resources"
)

// SessionCookie is the name of the session cookie.
const SessionCookie = "session"

// User is an account known to the stub.
type User struct {
	ID       string
	Username string
	Password string
	Role     string
}

// Config configures a Server.
type Config struct {
	// WarmupCalls is how many requests each warm-up resource answers with
	// a pending payload before serving data.
	WarmupCalls int

	// FlakyCalls is how many requests each weather resource answers with
	// 503 before serving data.
	FlakyCalls int

	// Latency delays every response.
	Latency time.Duration

	// Users defaults to admin/admin and observer/observer.
	Users []User

	Logger *log.Logger
}

// DefaultUsers are the accounts of a fresh install.
func DefaultUsers() []User {
	return []User{
		{ID: "1", Username: "admin", Password: "admin", Role: "admin"},
		{ID: "2", Username: "observer", Password: "observer", Role: "user"},
	}
}

// Server is the stub backend. It is safe for concurrent use.
type Server struct {
	cfg    Config
	logger *log.Logger
	router chi.Router

	mu       sync.Mutex
	calls    map[string]int
	sessions map[string]User
	astrodex map[string][]resources.AstrodexItem
	location resources.Location
}

// New creates a Server.
func New(cfg Config) *Server {
	if len(cfg.Users) == 0 {
		cfg.Users = DefaultUsers()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		calls:    make(map[string]int),
		sessions: make(map[string]User),
		astrodex: make(map[string][]resources.AstrodexItem),
		location: defaultLocation,
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	if s.cfg.Latency > 0 {
		r.Use(s.delay)
	}

	r.Get("/api/health", s.health)
	r.Get("/api/version", s.version)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Get("/status", s.authStatus)
		r.With(s.requireLogin).Post("/logout", s.logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireLogin)

		r.Get("/api/cache", s.cacheStatus)
		r.Get("/api/moon/report", s.warmup("moon_report", "Moon report", s.moonReport))
		r.Get("/api/moon/dark-window", s.warmup("dark_window", "Dark window", s.darkWindow))
		r.Get("/api/moon/next-7-nights", s.warmup("moon_planner", "Moon Planner", s.moonPlanner))
		r.Get("/api/sun/today", s.warmup("sun_report", "Sun report", s.sunToday))
		r.Get("/api/tonight/best-window", s.bestWindow)

		r.Route("/api/weather", func(r chi.Router) {
			r.Use(s.flaky)
			r.Get("/forecast", s.forecast)
			r.Get("/astro-analysis", s.astroAnalysis)
			r.Get("/astro-current", s.astroCurrent)
			r.Get("/alerts", s.alerts)
		})

		r.Get("/api/catalogues", s.catalogues)
		r.Route("/api/uptonight", func(r chi.Router) {
			r.Get("/reports/{catalogue}", s.catalogueReport)
			r.Get("/logs/{catalogue}", s.catalogueLog)
			r.Get("/logs/{catalogue}/exists", s.catalogueLogExists)
		})
		r.Get("/api/config", s.getConfig)

		r.Route("/api/astrodex", func(r chi.Router) {
			r.Get("/", s.listAstrodex)
			r.Post("/items", s.addAstrodexItem)
			r.Get("/items/{id}", s.getAstrodexItem)
			r.Put("/items/{id}", s.updateAstrodexItem)
			r.Delete("/items/{id}", s.deleteAstrodexItem)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/api/users", s.listUsers)
			r.Post("/api/config", s.saveConfig)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

// Calls returns how many requests resource has received.
func (s *Server) Calls(resource string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[resource]
}

// Reset puts every warm-up resource back into the pending state.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.calls)
}

// hit records a call to resource and returns its 1-based count.
func (s *Server) hit(resource string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[resource]++
	return s.calls[resource]
}

// ListenAndServe serves on addr until ctx is cancelled. ready, when
// non-nil, receives the bound address once the listener is open.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if ready != nil {
		ready(ln.Addr())
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func newID() string {
	return uuid.NewString()
}
