package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/alessisheinman/Disk-Jockey/constants"
	"github.com/alessisheinman/Disk-Jockey/engine"
	"github.com/alessisheinman/Disk-Jockey/room"
	"github.com/alessisheinman/Disk-Jockey/spotify"
	"golang.org/x/time/rate"
)

// loadPlaylist is allowed once per room per this interval.
const playlistCooldown = 5 * time.Second

const musicRequestTimeout = 15 * time.Second

// MusicGateway is the slice of the Spotify gateway the dispatcher needs
// for host-driven setup events.
type MusicGateway interface {
	CurrentUser(ctx context.Context, auth spotify.Auth) (*spotify.User, error)
	GetPlaylist(ctx context.Context, auth spotify.Auth, playlistID string) (*spotify.PlaylistInfo, error)
}

// Dispatcher routes inbound events to the registry and the engine and
// turns their outcomes into protocol events. It owns the authorization
// rules: host-only operations are rejected here.
type Dispatcher struct {
	registry *room.Registry
	engine   *engine.Engine
	gateway  MusicGateway
	hub      *Hub

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewDispatcher(registry *room.Registry, eng *engine.Engine, gateway MusicGateway, hub *Hub) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		engine:   eng,
		gateway:  gateway,
		hub:      hub,
		limiters: make(map[string]*rate.Limiter),
	}
	hub.SetDispatcher(d)
	return d
}

// Handle processes one inbound envelope. A panic in any handler is
// contained to that message; the room keeps its previous state.
func (d *Dispatcher) Handle(connectionID string, env Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("panic handling %s from %s: %v", env.Type, connectionID, rec)
			d.hub.SendError(connectionID, constants.ErrorInternal, "")
		}
	}()

	switch env.Type {
	case "createRoom":
		d.handleCreateRoom(connectionID, env)
	case "joinRoom":
		d.handleJoinRoom(connectionID, env)
	case "leaveRoom":
		d.handleLeaveRoom(connectionID)
	case "startGame":
		d.handleStartGame(connectionID, env)
	case "submitAnswer":
		d.handleSubmitAnswer(connectionID, env)
	case "restartGame":
		d.handleRestartGame(connectionID, env)
	case "setMusicAuth":
		d.handleSetMusicAuth(connectionID, env)
	case "loadPlaylist":
		d.handleLoadPlaylist(connectionID, env)
	case "playbackReady", "playbackEnded":
		// Informational only.
	default:
		d.hub.SendError(connectionID, "unknown event: "+env.Type, constants.CodeValidation)
	}
}

// HandleDisconnect runs when a socket drops. A disconnect is never an
// error to the departing peer; the player record stays for rejoin.
func (d *Dispatcher) HandleDisconnect(connectionID string) {
	res, err := d.registry.HandleDisconnect(connectionID)
	if err != nil {
		return
	}

	snap := res.Room.Snapshot()
	if res.HostPaused {
		d.engine.HandleHostPause(res.Room.Code, snap.GameState.PauseReason)
	}
	d.hub.Broadcast(res.Room.Code, "roomUpdated", engine.RoomUpdatedPayload{Room: snap})
}

func (d *Dispatcher) handleCreateRoom(connectionID string, env Envelope) {
	var req CreateRoomRequest
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		d.fail(connectionID, env, constants.ErrorBadRequest, constants.CodeValidation)
		return
	}

	r, player, err := d.registry.CreateRoom(req.Nickname, connectionID)
	if err != nil {
		d.failErr(connectionID, env, err)
		return
	}

	d.hub.Subscribe(connectionID, r.Code)
	d.ack(connectionID, env, AckPayload{Success: true, RoomCode: r.Code, PlayerID: player.ID})
	d.hub.SendToConnection(connectionID, "roomJoined", roomJoinedPayload{
		Room:     r.Snapshot(),
		PlayerID: player.ID,
	})
}

type roomJoinedPayload struct {
	Room     room.Serialized `json:"room"`
	PlayerID string          `json:"playerId"`
}

type playerEventPayload struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
}

func (d *Dispatcher) handleJoinRoom(connectionID string, env Envelope) {
	var req JoinRoomRequest
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		d.fail(connectionID, env, constants.ErrorBadRequest, constants.CodeValidation)
		return
	}

	res, err := d.registry.JoinRoom(req.RoomCode, req.Nickname, connectionID)
	if err != nil {
		d.failErr(connectionID, env, err)
		return
	}

	r := res.Room
	d.hub.Subscribe(connectionID, r.Code)
	d.ack(connectionID, env, AckPayload{Success: true, RoomCode: r.Code, PlayerID: res.Player.ID})
	d.hub.SendToConnection(connectionID, "roomJoined", roomJoinedPayload{
		Room:     r.Snapshot(),
		PlayerID: res.Player.ID,
	})

	snap := r.Snapshot()
	if res.IsRejoin {
		d.hub.Broadcast(r.Code, "playerReconnected", playerEventPayload{
			PlayerID: res.Player.ID,
			Nickname: res.Player.Nickname,
		})
	} else {
		for _, p := range snap.Players {
			if p.ID == res.Player.ID {
				d.hub.Broadcast(r.Code, "playerJoined", map[string]any{"player": p})
				break
			}
		}
	}
	d.hub.Broadcast(r.Code, "roomUpdated", engine.RoomUpdatedPayload{Room: snap})

	// A host reclaiming their slot un-pauses the game.
	if res.IsRejoin && res.Player.IsHost {
		d.engine.ResumeGame(r.Code)
	}
}

func (d *Dispatcher) handleLeaveRoom(connectionID string) {
	d.hub.Unsubscribe(connectionID)

	res, err := d.registry.RemovePlayer(connectionID)
	if err != nil {
		return
	}

	if res.RoomDeleted {
		d.engine.DropRoom(res.Room.Code)
		d.dropLimiter(res.Room.Code)
		return
	}

	d.hub.Broadcast(res.Room.Code, "playerLeft", playerEventPayload{
		PlayerID: res.Player.ID,
		Nickname: res.Player.Nickname,
	})
	d.hub.Broadcast(res.Room.Code, "roomUpdated", engine.RoomUpdatedPayload{Room: res.Room.Snapshot()})
}

func (d *Dispatcher) handleStartGame(connectionID string, env Envelope) {
	r, _, err := d.hostOnly(connectionID)
	if err != nil {
		d.failErr(connectionID, env, err)
		return
	}
	if err := d.engine.StartGame(r.Code); err != nil {
		d.failErr(connectionID, env, err)
		return
	}
	d.ack(connectionID, env, AckPayload{Success: true})
}

func (d *Dispatcher) handleSubmitAnswer(connectionID string, env Envelope) {
	var req SubmitAnswerRequest
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		d.fail(connectionID, env, constants.ErrorBadRequest, constants.CodeValidation)
		return
	}
	if err := d.engine.SubmitAnswer(connectionID, req.SongTitle, req.Artist); err != nil {
		d.failErr(connectionID, env, err)
		return
	}
	d.ack(connectionID, env, AckPayload{Success: true})
}

func (d *Dispatcher) handleRestartGame(connectionID string, env Envelope) {
	if err := d.engine.RestartGame(connectionID); err != nil {
		d.failErr(connectionID, env, err)
		return
	}
	d.ack(connectionID, env, AckPayload{Success: true})
}

func (d *Dispatcher) handleSetMusicAuth(connectionID string, env Envelope) {
	var req SetMusicAuthRequest
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		d.fail(connectionID, env, constants.ErrorBadRequest, constants.CodeValidation)
		return
	}

	r, _, err := d.hostOnly(connectionID)
	if err != nil {
		d.failErr(connectionID, env, err)
		return
	}

	auth := spotify.Auth{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		Expiry:       time.Now().Add(time.Duration(req.ExpiresIn) * time.Second),
	}

	ctx, cancel := context.WithTimeout(context.Background(), musicRequestTimeout)
	defer cancel()
	user, err := d.gateway.CurrentUser(ctx, auth)
	if err != nil {
		d.failErr(connectionID, env, err)
		return
	}
	auth.UserID = user.ID

	r.Lock()
	r.MusicAuth = &auth
	r.Unlock()

	d.ack(connectionID, env, AckPayload{Success: true})
	d.hub.SendToConnection(connectionID, "musicConnected", map[string]string{"userId": user.ID})
	d.hub.Broadcast(r.Code, "roomUpdated", engine.RoomUpdatedPayload{Room: r.Snapshot()})
}

func (d *Dispatcher) handleLoadPlaylist(connectionID string, env Envelope) {
	var req LoadPlaylistRequest
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		d.fail(connectionID, env, constants.ErrorBadRequest, constants.CodeValidation)
		return
	}

	r, _, err := d.hostOnly(connectionID)
	if err != nil {
		d.failErr(connectionID, env, err)
		return
	}

	if !d.limiter(r.Code).Allow() {
		d.fail(connectionID, env, "Please wait a few seconds before loading another playlist", constants.CodeRate)
		return
	}

	playlistID := spotify.ParsePlaylistID(req.PlaylistID)
	if playlistID == "" {
		d.fail(connectionID, env, constants.ErrorBadPlaylist, constants.CodeValidation)
		return
	}

	r.Lock()
	authPtr := r.MusicAuth
	r.Unlock()
	if authPtr == nil {
		d.failErr(connectionID, env, engine.ErrNoMusicAuth)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), musicRequestTimeout)
	defer cancel()
	info, err := d.gateway.GetPlaylist(ctx, *authPtr, playlistID)
	if err != nil {
		d.failErr(connectionID, env, err)
		return
	}

	r.Lock()
	r.Playlist = info
	r.Unlock()

	d.ack(connectionID, env, AckPayload{Success: true})
	d.hub.SendToConnection(connectionID, "playlistLoaded", map[string]any{
		"playlist":   info,
		"trackCount": info.TotalTracks,
	})
	d.hub.Broadcast(r.Code, "roomUpdated", engine.RoomUpdatedPayload{Room: r.Snapshot()})
}

func (d *Dispatcher) hostOnly(connectionID string) (*room.Room, *room.Player, error) {
	r, player, ok := d.registry.GetPlayerByConnection(connectionID)
	if !ok {
		return nil, nil, engine.ErrNotInRoom
	}
	if !player.IsHost {
		return nil, nil, engine.ErrNotHost
	}
	return r, player, nil
}

func (d *Dispatcher) limiter(roomCode string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.limiters[roomCode]
	if !ok {
		l = rate.NewLimiter(rate.Every(playlistCooldown), 1)
		d.limiters[roomCode] = l
	}
	return l
}

func (d *Dispatcher) dropLimiter(roomCode string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.limiters, roomCode)
}

func (d *Dispatcher) ack(connectionID string, env Envelope, payload AckPayload) {
	if env.AckID != "" {
		d.hub.SendAck(connectionID, env.AckID, payload)
	}
}

func (d *Dispatcher) fail(connectionID string, env Envelope, message, code string) {
	if env.AckID != "" {
		d.hub.SendAck(connectionID, env.AckID, AckPayload{Success: false, Error: message})
		return
	}
	d.hub.SendError(connectionID, message, code)
}

// failErr maps component errors onto the protocol error taxonomy.
func (d *Dispatcher) failErr(connectionID string, env Envelope, err error) {
	code := constants.CodeState

	var rateErr *spotify.RateLimitError
	var gatewayErr *spotify.GatewayError
	switch {
	case errors.Is(err, room.ErrRoomNotFound),
		errors.Is(err, room.ErrEmptyNickname),
		errors.Is(err, room.ErrUnknownConnection):
		code = constants.CodeValidation
	case errors.Is(err, engine.ErrNotHost):
		code = constants.CodeAuth
	case errors.As(err, &rateErr):
		code = constants.CodeRate
	case errors.As(err, &gatewayErr):
		code = constants.CodeGateway
	}

	d.fail(connectionID, env, err.Error(), code)
}
