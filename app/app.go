package app

import (
	"context"
	"log"
	"net/http"

	"github.com/alessisheinman/Disk-Jockey/controller"
	"github.com/alessisheinman/Disk-Jockey/engine"
	"github.com/alessisheinman/Disk-Jockey/room"
	"github.com/alessisheinman/Disk-Jockey/spotify"
	"github.com/alessisheinman/Disk-Jockey/ws"
	"github.com/gorilla/mux"
)

type App struct {
	Router     *mux.Router
	Controller *controller.Controller
	Registry   *room.Registry
	Engine     *engine.Engine
	Hub        *ws.Hub
	Dispatcher *ws.Dispatcher
}

func (a *App) Initialize() {
	gateway := spotify.NewGateway()

	a.Registry = room.NewRegistry()
	a.Hub = ws.NewHub()
	a.Engine = engine.New(a.Registry, gateway, a.Hub)
	a.Dispatcher = ws.NewDispatcher(a.Registry, a.Engine, gateway, a.Hub)
	a.Controller = controller.NewController(gateway)

	a.initRouter()
}

func (a *App) Run(ctx context.Context, addr string) {
	go a.Registry.RunSweeper(ctx)

	log.Printf("serving on %s...", addr)
	log.Fatalf("server error: %s", http.ListenAndServe(addr, withMiddleware(a.Router)))
}
