package articles

import (
	"regexp"
	"strings"
)

var (
	nonWordRunes = regexp.MustCompile(`[^\w ]+`)
	spaceRuns    = regexp.MustCompile(` +`)
)

// Slugify derives a URL-safe slug from a title: lowercased, non-word
// characters stripped, runs of spaces collapsed to single hyphens.
//
//	"Hello, World!" -> "hello-world"
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = nonWordRunes.ReplaceAllString(s, "")
	s = spaceRuns.ReplaceAllString(s, "-")
	return s
}
