package room

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room is full")
	ErrGameInProgress    = errors.New("game already in progress")
	ErrEmptyNickname     = errors.New("nickname must not be empty")
	ErrUnknownConnection = errors.New("connection not bound to a player")
)

const (
	sweepInterval = time.Hour
	staleRoomAge  = 24 * time.Hour
)

// Registry is the process-wide room table. It keeps three indices that
// every membership or connection mutation updates together: room code to
// room, player id to room code, connection id to player id.
type Registry struct {
	mu sync.RWMutex

	rooms       map[string]*Room
	playerRooms map[string]string
	connPlayers map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:       make(map[string]*Room),
		playerRooms: make(map[string]string),
		connPlayers: make(map[string]string),
	}
}

// CreateRoom makes a room with a fresh code and registers the creator as
// its host.
func (reg *Registry) CreateRoom(nickname, connectionID string) (*Room, *Player, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, nil, ErrEmptyNickname
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	code := generateCode()
	for {
		if _, taken := reg.rooms[code]; !taken {
			break
		}
		code = generateCode()
	}

	r := newRoom(code)
	player := &Player{
		ID:           uuid.New().String(),
		Nickname:     nickname,
		Pace:         10,
		IsHost:       true,
		IsConnected:  true,
		ConnectionID: connectionID,
	}

	r.Lock()
	r.addPlayer(player)
	r.HostID = player.ID
	r.Unlock()

	reg.rooms[code] = r
	reg.playerRooms[player.ID] = code
	reg.connPlayers[connectionID] = player.ID

	return r, player, nil
}

type JoinResult struct {
	Room     *Room
	Player   *Player
	IsRejoin bool
}

// JoinRoom admits a new player, or reclaims an existing slot when the
// nickname matches a player already in the room (case-insensitive).
func (reg *Registry) JoinRoom(code, nickname, connectionID string) (*JoinResult, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, ErrEmptyNickname
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[strings.ToUpper(code)]
	if !ok {
		return nil, ErrRoomNotFound
	}

	r.Lock()
	defer r.Unlock()

	if existing := r.playerByNickname(nickname); existing != nil {
		if existing.ConnectionID != "" {
			delete(reg.connPlayers, existing.ConnectionID)
		}
		existing.IsConnected = true
		existing.ConnectionID = connectionID
		reg.connPlayers[connectionID] = existing.ID
		return &JoinResult{Room: r, Player: existing, IsRejoin: true}, nil
	}

	if r.PlayerCount() >= r.Settings.MaxPlayers {
		return nil, ErrRoomFull
	}
	if r.Game.Status != StatusLobby {
		return nil, ErrGameInProgress
	}

	player := &Player{
		ID:           uuid.New().String(),
		Nickname:     nickname,
		Pace:         10,
		IsConnected:  true,
		ConnectionID: connectionID,
	}
	r.addPlayer(player)
	reg.playerRooms[player.ID] = r.Code
	reg.connPlayers[connectionID] = player.ID

	return &JoinResult{Room: r, Player: player}, nil
}

type DisconnectResult struct {
	Room       *Room
	Player     *Player
	HostPaused bool
}

// HandleDisconnect marks the bound player disconnected. The player record
// stays so the nickname can be reclaimed. When the host drops while a
// round is being played (status PLAYING), the game pauses.
func (reg *Registry) HandleDisconnect(connectionID string) (*DisconnectResult, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	playerID, ok := reg.connPlayers[connectionID]
	if !ok {
		return nil, ErrUnknownConnection
	}
	delete(reg.connPlayers, connectionID)

	r := reg.rooms[reg.playerRooms[playerID]]
	if r == nil {
		return nil, ErrRoomNotFound
	}

	r.Lock()
	defer r.Unlock()

	player := r.Player(playerID)
	player.IsConnected = false
	player.ConnectionID = ""

	res := &DisconnectResult{Room: r, Player: player}
	if player.IsHost && r.Game.Status == StatusPlaying && !r.Game.IsPaused {
		r.Game.IsPaused = true
		r.Game.PauseReason = "Host disconnected"
		res.HostPaused = true
	}
	return res, nil
}

type LeaveResult struct {
	Room        *Room
	Player      *Player
	RoomDeleted bool
	NewHost     *Player
}

// RemovePlayer handles an explicit leave: the player record is dropped,
// the room is deleted when it empties, and the host role passes to the
// earliest-joined remaining player otherwise.
func (reg *Registry) RemovePlayer(connectionID string) (*LeaveResult, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	playerID, ok := reg.connPlayers[connectionID]
	if !ok {
		return nil, ErrUnknownConnection
	}
	delete(reg.connPlayers, connectionID)

	code := reg.playerRooms[playerID]
	delete(reg.playerRooms, playerID)

	r := reg.rooms[code]
	if r == nil {
		return nil, ErrRoomNotFound
	}

	r.Lock()
	defer r.Unlock()

	player := r.Player(playerID)
	r.removePlayer(playerID)

	res := &LeaveResult{Room: r, Player: player}

	if r.PlayerCount() == 0 {
		delete(reg.rooms, code)
		res.RoomDeleted = true
		return res, nil
	}

	if player.IsHost {
		next := r.PlayersInOrder()[0]
		next.IsHost = true
		r.HostID = next.ID
		res.NewHost = next
	}
	return res, nil
}

func (reg *Registry) GetRoom(code string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[strings.ToUpper(code)]
	return r, ok
}

func (reg *Registry) GetRoomByConnection(connectionID string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	playerID, ok := reg.connPlayers[connectionID]
	if !ok {
		return nil, false
	}
	r, ok := reg.rooms[reg.playerRooms[playerID]]
	return r, ok
}

func (reg *Registry) GetPlayerByConnection(connectionID string) (*Room, *Player, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	playerID, ok := reg.connPlayers[connectionID]
	if !ok {
		return nil, nil, false
	}
	r, ok := reg.rooms[reg.playerRooms[playerID]]
	if !ok {
		return nil, nil, false
	}
	r.Lock()
	player := r.Player(playerID)
	r.Unlock()
	if player == nil {
		return nil, nil, false
	}
	return r, player, true
}

// Sweep deletes rooms that have no connected player and were created more
// than staleRoomAge ago, cleaning all three indices.
func (reg *Registry) Sweep() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	removed := 0
	for _, code := range maps.Keys(reg.rooms) {
		r := reg.rooms[code]

		r.Lock()
		stale := r.ConnectedCount() == 0 && time.Since(r.Created) > staleRoomAge
		players := r.PlayersInOrder()
		r.Unlock()

		if !stale {
			continue
		}

		for _, p := range players {
			delete(reg.playerRooms, p.ID)
			if p.ConnectionID != "" {
				delete(reg.connPlayers, p.ConnectionID)
			}
		}
		delete(reg.rooms, code)
		removed++
	}
	return removed
}

// RunSweeper runs Sweep on an interval until the context ends.
func (reg *Registry) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := reg.Sweep(); n > 0 {
				log.Printf("swept %d stale rooms", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
