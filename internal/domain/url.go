package domain

import (
	"strings"

	"github.com/weswalla/logjam/internal/errs"
)

// Url is a validated, non-empty HTTP(S) URL.
type Url struct {
	value string
}

// NewUrl validates s as an http:// or https:// URL and wraps it.
func NewUrl(s string) (Url, error) {
	if s == "" {
		return Url{}, errs.Invalidf("url must not be empty")
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return Url{}, errs.Invalidf("url must begin with http:// or https://: %q", s)
	}
	return Url{value: s}, nil
}

// String returns the URL's textual form.
func (u Url) String() string {
	return u.value
}

// Domain performs a best-effort extraction of the URL's host: the
// substring between "://" and the next "/".
func (u Url) Domain() string {
	rest := u.value
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	}
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		return rest[:idx]
	}
	return rest
}

// Equal reports whether two Urls hold the same value.
func (u Url) Equal(other Url) bool {
	return u.value == other.value
}
