package spotify

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/alessisheinman/Disk-Jockey/config"
	spotifyV2 "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

var Scopes = []string{
	spotifyauth.ScopeStreaming,
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserModifyPlaybackState,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
}

const (
	// Tokens are refreshed this long before they actually expire, so a
	// round never starts with a token about to lapse mid-fetch.
	earlyRefreshWindow = 5 * time.Minute

	requestTimeout = 10 * time.Second

	maxRandomAttempts = 10
)

// Gateway talks to the Spotify Web API on behalf of room hosts.
type Gateway struct {
	authenticator *spotifyauth.Authenticator
	clientOpts    []spotifyV2.ClientOption
}

func NewGateway() *Gateway {
	return &Gateway{
		authenticator: spotifyauth.New(
			spotifyauth.WithClientID(config.GetSpotifyClientID()),
			spotifyauth.WithClientSecret(config.GetSpotifyClientSecret()),
			spotifyauth.WithRedirectURL(config.GetSpotifyRedirect()),
			spotifyauth.WithScopes(Scopes...),
		),
	}
}

// AuthURL builds the Spotify authorization URL for the given opaque state.
func (g *Gateway) AuthURL(state string) string {
	return g.authenticator.AuthURL(state)
}

// Exchange trades an authorization code for tokens and resolves the
// authenticating user.
func (g *Gateway) Exchange(ctx context.Context, code string) (Auth, error) {
	token, err := g.authenticator.Exchange(ctx, code)
	if err != nil {
		return Auth{}, fmt.Errorf("exchange authorization code: %w", wrapErr(err))
	}

	auth := Auth{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}

	user, err := g.CurrentUser(ctx, auth)
	if err != nil {
		return Auth{}, err
	}
	auth.UserID = user.ID
	return auth, nil
}

// EnsureValidToken returns auth unchanged while its expiry is comfortably
// away, otherwise refreshes first.
func (g *Gateway) EnsureValidToken(ctx context.Context, auth Auth) (Auth, error) {
	if time.Until(auth.Expiry) > earlyRefreshWindow {
		return auth, nil
	}
	return g.Refresh(ctx, auth)
}

// Refresh obtains a fresh access token. Spotify may omit a new refresh
// token from the response; the prior one is retained in that case.
func (g *Gateway) Refresh(ctx context.Context, auth Auth) (Auth, error) {
	// An already-expired expiry forces the oauth2 token source to hit
	// the token endpoint instead of returning the cached token.
	stale := &oauth2.Token{
		AccessToken:  auth.AccessToken,
		RefreshToken: auth.RefreshToken,
		Expiry:       time.Now().Add(-time.Minute),
	}

	httpClient := g.authenticator.Client(ctx, stale)
	transport, ok := httpClient.Transport.(*oauth2.Transport)
	if !ok {
		return Auth{}, errors.New("get token source")
	}
	fresh, err := transport.Source.Token()
	if err != nil {
		return Auth{}, fmt.Errorf("refresh token request: %w", wrapErr(err))
	}

	refreshed := auth
	refreshed.AccessToken = fresh.AccessToken
	refreshed.Expiry = fresh.Expiry
	if fresh.RefreshToken != "" {
		refreshed.RefreshToken = fresh.RefreshToken
	}
	return refreshed, nil
}

// CurrentUser looks up the profile the tokens belong to.
func (g *Gateway) CurrentUser(ctx context.Context, auth Auth) (*User, error) {
	user, err := g.client(ctx, auth).CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not get user: %w", wrapErr(err))
	}
	return &User{ID: user.ID, Display: user.DisplayName}, nil
}

// GetPlaylist fetches playlist metadata, including the total track count
// the random-track fetch depends on.
func (g *Gateway) GetPlaylist(ctx context.Context, auth Auth, playlistID string) (*PlaylistInfo, error) {
	playlist, err := g.client(ctx, auth).GetPlaylist(ctx, spotifyV2.ID(playlistID))
	if err != nil {
		return nil, fmt.Errorf("could not get playlist: %w", wrapErr(err))
	}

	info := &PlaylistInfo{
		ID:          string(playlist.ID),
		Name:        playlist.Name,
		TotalTracks: int(playlist.Tracks.Total),
	}
	if len(playlist.Images) > 0 {
		info.CoverURL = playlist.Images[0].URL
	}
	return info, nil
}

// RandomTrack picks an unused track from the playlist by probing uniform
// random offsets with a 1-item window. Local files, missing tracks, and
// tracks in used are skipped. Returns nil after maxRandomAttempts misses
// or when the playlist is already exhausted.
func (g *Gateway) RandomTrack(ctx context.Context, auth Auth, playlistID string, totalTracks int, used map[string]bool) (*Track, error) {
	if totalTracks <= 0 || len(used) >= totalTracks {
		return nil, nil
	}

	client := g.client(ctx, auth)
	for attempt := 0; attempt < maxRandomAttempts; attempt++ {
		offset := rand.Intn(totalTracks)
		page, err := client.GetPlaylistItems(ctx, spotifyV2.ID(playlistID),
			spotifyV2.Offset(offset), spotifyV2.Limit(1))
		if err != nil {
			return nil, fmt.Errorf("could not get playlist window at %d: %w", offset, wrapErr(err))
		}
		if len(page.Items) == 0 {
			continue
		}

		item := page.Items[0]
		if item.IsLocal || item.Track.Track == nil {
			continue
		}
		track := trackFromSpotify(item.Track.Track)
		if used[track.ID] {
			continue
		}
		return track, nil
	}

	return nil, nil
}

func (g *Gateway) client(ctx context.Context, auth Auth) *spotifyV2.Client {
	token := &oauth2.Token{
		AccessToken:  auth.AccessToken,
		RefreshToken: auth.RefreshToken,
		Expiry:       auth.Expiry,
	}
	httpClient := g.authenticator.Client(ctx, token)
	httpClient.Timeout = requestTimeout
	return spotifyV2.New(httpClient, g.clientOpts...)
}
