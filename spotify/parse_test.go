package spotify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePlaylistID(t *testing.T) {
	const id = "37i9dQZF1DXcBWIGoYBM5M"

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare id", id, id},
		{"web url", "https://open.spotify.com/playlist/" + id, id},
		{"web url with query", "https://open.spotify.com/playlist/" + id + "?si=abc123", id},
		{"uri", "spotify:playlist:" + id, id},
		{"whitespace around id", "  " + id + "  ", id},
		{"album uri", "spotify:album:" + id, ""},
		{"short id", "tooShort", ""},
		{"uri with bad id", "spotify:playlist:nope", ""},
		{"empty", "", ""},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ParsePlaylistID(c.in))
		})
	}
}
