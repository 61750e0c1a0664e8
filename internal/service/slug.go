package service

import (
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives the URL-safe identifier from a human-readable name:
// lowercase, runs of non-alphanumerics collapsed to single hyphens, leading
// and trailing hyphens trimmed. The transform is deterministic; renaming an
// entity regenerates its slug with this same function.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
