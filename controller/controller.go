package controller

import (
	"context"

	"github.com/alessisheinman/Disk-Jockey/spotify"
)

// MusicGateway is the slice of the Spotify gateway the HTTP surface
// needs: starting OAuth, finishing it, and refreshing tokens.
type MusicGateway interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (spotify.Auth, error)
	Refresh(ctx context.Context, auth spotify.Auth) (spotify.Auth, error)
}

type Controller struct {
	Gateway MusicGateway
}

func NewController(gateway MusicGateway) *Controller {
	return &Controller{Gateway: gateway}
}
