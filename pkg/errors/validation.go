package errors

import (
	"net/url"
	"strings"
	"unicode"
)

// maxPathLength bounds API paths accepted by ValidateAPIPath.
const maxPathLength = 500

// ValidateAPIPath validates a relative API path before it is joined to the
// base URL. It rejects anything that could escape the /api/ namespace.
//
// Validation rules:
//   - Path cannot be empty
//   - Must start with /api/
//   - Maximum length of 500 characters
//   - No control characters
//   - No path traversal sequences (..) or double slashes
//   - No backslashes
func ValidateAPIPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	if !strings.HasPrefix(path, "/api/") {
		return New(ErrCodeInvalidPath, "path must start with /api/: %q", path)
	}

	// Only the path portion is checked for traversal; query strings may
	// legitimately carry arbitrary values.
	p := path
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	for _, pattern := range []string{"..", "//", "\\"} {
		if strings.Contains(p, pattern) {
			return New(ErrCodeInvalidPath, "path contains invalid characters: %q", pattern)
		}
	}
	return nil
}

// ValidateBaseURL validates the dashboard origin. It must be an absolute
// http(s) URL with a host.
func ValidateBaseURL(raw string) error {
	if raw == "" {
		return New(ErrCodeInvalidURL, "base URL cannot be empty")
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Wrap(ErrCodeInvalidURL, err, "invalid base URL %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidURL, "base URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidURL, "base URL missing host")
	}
	return nil
}

// WindowModes lists the observation-window modes the backend computes.
var WindowModes = []string{"strict", "practical", "illumination"}

// ValidateWindowMode validates a best-window mode.
func ValidateWindowMode(mode string) error {
	for _, m := range WindowModes {
		if mode == m {
			return nil
		}
	}
	return New(ErrCodeInvalidMode, "invalid mode %q (want one of %s)", mode, strings.Join(WindowModes, ", "))
}

const maxCatalogueLength = 64

// ValidateCatalogueName validates a target-catalogue name used as a path
// segment, such as "Messier".
func ValidateCatalogueName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "catalogue name cannot be empty")
	}
	if len(name) > maxCatalogueLength {
		return New(ErrCodeInvalidInput, "catalogue name too long (max %d characters)", maxCatalogueLength)
	}
	if name == "." || strings.Contains(name, "..") || strings.ContainsAny(name, "/\\?#") {
		return New(ErrCodeInvalidInput, "invalid catalogue name %q", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "catalogue name contains invalid characters")
		}
	}
	return nil
}
