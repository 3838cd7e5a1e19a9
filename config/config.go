package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	SpotifyClientID     string `env:"SPOTIFY_ID"`
	SpotifyClientSecret string `env:"SPOTIFY_SECRET"`
	SpotifyRedirectURL  string `env:"SPOTIFY_REDIRECT"`

	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:3000"`
	Port    int    `env:"PORT" envDefault:"8080"`
	Env     string `env:"ENV" envDefault:"LOCAL"`
}

var (
	config Config
)

func init() {
	if err := env.Parse(&config); err != nil {
		panic(fmt.Sprintf("can't parse environment: %s", err))
	}
}

func GetSpotifyClientID() string {
	return config.SpotifyClientID
}

func GetSpotifyClientSecret() string {
	return config.SpotifyClientSecret
}

func GetSpotifyRedirect() string {
	if config.SpotifyRedirectURL != "" {
		return config.SpotifyRedirectURL
	}
	return GetBaseURL() + "/api/music/callback"
}

func GetBaseURL() string {
	return strings.TrimSuffix(config.BaseURL, "/")
}

func GetPort() int {
	return config.Port
}

func IsLocal() bool {
	return strings.ToUpper(config.Env) == "LOCAL"
}
