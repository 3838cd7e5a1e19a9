package app

import "github.com/gorilla/mux"

func (a *App) initRouter() {
	a.Router = mux.NewRouter()

	// health
	a.Router.HandleFunc("/health", a.Controller.Health).Methods("GET", "OPTIONS")
	a.Router.HandleFunc("/version", a.Controller.GetVersion).Methods("GET", "OPTIONS")

	// game protocol
	a.Router.HandleFunc("/ws", a.Hub.ServeWS).Methods("GET")

	// spotify oauth handshake
	a.Router.HandleFunc("/api/music/auth", a.Controller.BeginMusicAuth).Methods("GET", "OPTIONS")
	a.Router.HandleFunc("/api/music/callback", a.Controller.MusicAuthCallback).Methods("GET", "OPTIONS")
	a.Router.HandleFunc("/api/music/refresh", a.Controller.RefreshMusicToken).Methods("POST", "OPTIONS")
}
