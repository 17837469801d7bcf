package utils

import (
	"regexp"
	"strings"
)

var repeatedSlashes = regexp.MustCompile(`/+`)

// SanitizeRoute normalizes an arbitrary route string into its canonical key:
// lowercase, no query/fragment suffix, no leading/trailing/duplicate slashes.
// An empty result means the input was not a usable route; callers must reject
// it before indexing counters with it.
//
// Sanitizing is idempotent: SanitizeRoute(SanitizeRoute(s)) == SanitizeRoute(s).
func SanitizeRoute(raw string) string {
	route := strings.ToLower(strings.TrimSpace(raw))

	// Drop everything from the first query or fragment marker onward.
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}

	route = repeatedSlashes.ReplaceAllString(route, "/")
	return strings.Trim(route, "/")
}
