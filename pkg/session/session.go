// Package session stores the dashboard login between CLI invocations.
//
// The MyAstroBoard server authenticates with a cookie issued by
// POST /api/auth/login. A [Session] keeps those cookies together with the
// user they belong to and an expiry, and a [Store] persists sessions.
//
// # Usage
//
//	store, err := session.NewCLIStore("", baseURL) // ~/.config/astroboard/sessions/
//	sess, err := store.GetSession(ctx)
//	if sess == nil {
//	    // not logged in
//	}
//	client, err := fetch.NewClient(baseURL, fetch.WithCookies(sess.HTTPCookies()...))
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExpired is returned when a session has exceeded its TTL.
	ErrExpired = errors.New("expired")

	// ErrInvalid is returned when storing a session without an ID.
	ErrInvalid = errors.New("invalid session")
)

// Cookie is the persisted form of an HTTP cookie.
type Cookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

// Session stores one login to one server.
type Session struct {
	ID        string    `json:"id"`
	Server    string    `json:"server"`
	Username  string    `json:"username"`
	Role      string    `json:"role,omitempty"`
	Cookies   []Cookie  `json:"cookies"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsAdmin reports whether the user has the admin role.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == "admin"
}

// HTTPCookies returns the cookies to attach to requests.
// Cookies past their own expiry are skipped.
func (s *Session) HTTPCookies() []*http.Cookie {
	if s == nil {
		return nil
	}
	now := time.Now()
	out := make([]*http.Cookie, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		if !c.Expires.IsZero() && now.After(c.Expires) {
			continue
		}
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value, Path: c.Path})
	}
	return out
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error
}

// DefaultTTL is the default session duration. The server's Flask session
// outlives it; re-logging daily keeps stale cookies from piling up.
const DefaultTTL = 24 * time.Hour

// GenerateID creates a cryptographically secure random session ID.
func GenerateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// New creates a session for username on server from the cookies the
// login response set.
func New(server, username, role string, cookies []*http.Cookie, ttl time.Duration) (*Session, error) {
	id, err := GenerateID()
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now()
	sess := &Session{
		ID:        id,
		Server:    server,
		Username:  username,
		Role:      role,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	for _, c := range cookies {
		sess.Cookies = append(sess.Cookies, Cookie{Name: c.Name, Value: c.Value, Path: c.Path, Expires: c.Expires})
	}
	return sess, nil
}
