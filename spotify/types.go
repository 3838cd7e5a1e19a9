package spotify

import (
	"time"

	spotifyV2 "github.com/zmb3/spotify/v2"
)

// Auth is the Spotify credential set a room's host links to the room.
type Auth struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	Expiry       time.Time `json:"expiry"`
	UserID       string    `json:"userId"`
}

type User struct {
	ID      string `json:"id"`
	Display string `json:"display"`
}

type PlaylistInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CoverURL    string `json:"coverUrl,omitempty"`
	TotalTracks int    `json:"totalTracks"`
}

type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Track struct {
	ID            string   `json:"id"`
	URI           string   `json:"uri"`
	Name          string   `json:"name"`
	Artists       []Artist `json:"artists"`
	AlbumName     string   `json:"albumName,omitempty"`
	AlbumCoverURL string   `json:"albumCoverUrl,omitempty"`
	DurationMs    int      `json:"durationMs"`
	PreviewURL    string   `json:"previewUrl,omitempty"`
}

// ArtistNames flattens the credited artists for the matcher.
func (t *Track) ArtistNames() []string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return names
}

func trackFromSpotify(ft *spotifyV2.FullTrack) *Track {
	artists := make([]Artist, 0, len(ft.Artists))
	for _, a := range ft.Artists {
		artists = append(artists, Artist{ID: string(a.ID), Name: a.Name})
	}
	track := &Track{
		ID:         string(ft.ID),
		URI:        string(ft.URI),
		Name:       ft.Name,
		Artists:    artists,
		AlbumName:  ft.Album.Name,
		DurationMs: int(ft.Duration),
		PreviewURL: ft.PreviewURL,
	}
	if len(ft.Album.Images) > 0 {
		track.AlbumCoverURL = ft.Album.Images[0].URL
	}
	return track
}
