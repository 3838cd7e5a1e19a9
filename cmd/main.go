package main

import (
	"context"
	"fmt"
	"log"

	"github.com/alessisheinman/Disk-Jockey/app"
	"github.com/alessisheinman/Disk-Jockey/config"
	"github.com/alessisheinman/Disk-Jockey/version"
	"gopkg.in/yaml.v3"
)

func main() {
	v := version.Get()
	bytes, err := yaml.Marshal(v)
	if err != nil {
		log.Panicf("marshal version data: %s", err)
	}
	log.Println("version:\n" + string(bytes))

	if config.GetSpotifyClientID() == "" || config.GetSpotifyClientSecret() == "" {
		log.Fatal("environment missing SPOTIFY_ID or SPOTIFY_SECRET")
	}

	a := app.App{}
	a.Initialize()

	addr := fmt.Sprintf("0.0.0.0:%d", config.GetPort())
	a.Run(context.Background(), addr)
}
