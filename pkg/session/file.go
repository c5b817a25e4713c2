package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileStore keeps sessions as JSON files readable only by the current user.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates the session directory if needed. An empty dir
// selects [DefaultDir].
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// DefaultDir returns astroboard/sessions under the user config dir
// ($XDG_CONFIG_HOME or ~/.config).
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(base, "astroboard", "sessions"), nil
}

func (s *FileStore) file(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Get loads a session. Missing, expired and unreadable sessions yield nil, nil;
// the latter two are removed.
func (s *FileStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	sess, err := readSession(s.file(id))
	s.mu.RUnlock()

	switch {
	case err == nil:
		return sess, nil
	case os.IsNotExist(err):
		return nil, nil
	case err == ErrExpired, isCorrupt(err):
		_ = s.Delete(ctx, id)
		return nil, nil
	default:
		return nil, err
	}
}

type corruptError struct{ err error }

func (e corruptError) Error() string { return "parse session: " + e.err.Error() }
func (e corruptError) Unwrap() error { return e.err }

func isCorrupt(err error) bool {
	_, ok := err.(corruptError)
	return ok
}

func readSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, corruptError{err}
	}
	if sess.IsExpired() {
		return nil, ErrExpired
	}
	return &sess, nil
}

// Set writes the session atomically with mode 0600.
func (s *FileStore) Set(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return fmt.Errorf("store session: %w", ErrInvalid)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".session-*")
	if err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.file(sess.ID)); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.file(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// Cleanup removes expired and unreadable session files.
func (s *FileStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read session dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if _, err := readSession(path); err == ErrExpired || isCorrupt(err) {
			os.Remove(path)
		}
	}
	return nil
}

// Path returns the session directory.
func (s *FileStore) Path() string {
	return s.dir
}

var _ Store = (*FileStore)(nil)

// CLIStore keeps one session per server in a FileStore.
type CLIStore struct {
	store *FileStore
	id    string
}

// NewCLIStore opens the session of server. An empty dir selects DefaultDir.
func NewCLIStore(dir, server string) (*CLIStore, error) {
	store, err := NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return &CLIStore{store: store, id: ServerID(server)}, nil
}

// ServerID derives a file-safe session ID from a server URL.
func ServerID(server string) string {
	sum := sha256.Sum256([]byte(strings.TrimRight(strings.TrimSpace(server), "/")))
	return "server-" + hex.EncodeToString(sum[:8])
}

// GetSession returns the stored session, or nil when logged out.
func (c *CLIStore) GetSession(ctx context.Context) (*Session, error) {
	return c.store.Get(ctx, c.id)
}

// SaveSession stores sess under this server's ID.
func (c *CLIStore) SaveSession(ctx context.Context, sess *Session) error {
	sess.ID = c.id
	return c.store.Set(ctx, sess)
}

// DeleteSession removes the stored session.
func (c *CLIStore) DeleteSession(ctx context.Context) error {
	return c.store.Delete(ctx, c.id)
}

// Path returns the session file path.
func (c *CLIStore) Path() string {
	return c.store.file(c.id)
}

// Age reports how long ago the session was created, or zero when absent.
func Age(sess *Session) time.Duration {
	if sess == nil {
		return 0
	}
	return time.Since(sess.CreatedAt)
}
