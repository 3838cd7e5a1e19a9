package spotify

import (
	"regexp"
	"strings"
)

var (
	bareIDPattern  = regexp.MustCompile(`^[A-Za-z0-9]{22}$`)
	webURLPattern  = regexp.MustCompile(`playlist/([A-Za-z0-9]{22})`)
	playlistPrefix = "spotify:playlist:"
)

// ParsePlaylistID extracts a playlist id from whatever the host pasted:
// a bare 22-character id, a web URL containing "playlist/<id>", or a
// "spotify:playlist:<id>" URI. Returns "" when nothing matches.
func ParsePlaylistID(ref string) string {
	ref = strings.TrimSpace(ref)

	if bareIDPattern.MatchString(ref) {
		return ref
	}

	if id, ok := strings.CutPrefix(ref, playlistPrefix); ok {
		if bareIDPattern.MatchString(id) {
			return id
		}
		return ""
	}

	if m := webURLPattern.FindStringSubmatch(ref); m != nil {
		return m[1]
	}

	return ""
}
