package match

import (
	"regexp"
	"strings"
)

// Words that carry no identifying information in track titles or artist
// credits. A dash followed by one of these starts a suffix that is cut
// entirely ("Song - Remastered 2011"), and standalone occurrences are
// dropped word-by-word.
var noiseWords = []string{
	"remastered", "remaster", "remix", "live", "acoustic", "radio",
	"single", "album", "version", "edit", "mix", "deluxe", "bonus",
	"original", "mono", "stereo", "anniversary", "edition",
	"feat", "featuring", "ft", "with",
}

var (
	parenthesized = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	dashSuffix    = regexp.MustCompile(`\s*[-–—]\s*(` + strings.Join(noiseWords, "|") + `)\b.*$`)
	acronym       = regexp.MustCompile(`\b(?:[a-z]\.){2,6}`)
	nonWord       = regexp.MustCompile(`[^\w\s]`)
	noiseWord     = regexp.MustCompile(`\b(` + strings.Join(noiseWords, "|") + `)\b`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// Normalize reduces a title or artist name to its comparable core.
// The transformation is idempotent.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = parenthesized.ReplaceAllString(s, " ")
	s = dashSuffix.ReplaceAllString(s, "")
	s = acronym.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ReplaceAll(m, ".", "")
	})
	s = strings.ReplaceAll(s, ".", "")
	s = nonWord.ReplaceAllString(s, " ")
	s = noiseWord.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
