package backend

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ValidName reports whether s is usable as an array name inside a
// store: non-empty, no path separators, no traversal.
func ValidName(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/\\?#")
}

// SubURL derives the URL of a named array under a root store URL.
// Path-style stores get the name appended to the path; the sqlite
// scheme keeps one database file and namespaces by query parameter.
func SubURL(rawURL, name string) (string, error) {
	if !ValidName(name) {
		return "", fmt.Errorf("invalid array name: %q", name)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse backend url: %w", err)
	}
	switch u.Scheme {
	case "sqlite":
		q := u.Query()
		q.Set("namespace", name)
		u.RawQuery = q.Encode()
	default:
		u.Path = path.Join(u.Path, name)
	}
	return u.String(), nil
}
