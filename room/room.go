package room

import (
	"strings"
	"sync"
	"time"

	"github.com/alessisheinman/Disk-Jockey/match"
	"github.com/alessisheinman/Disk-Jockey/spotify"
)

type Status string

const (
	StatusLobby            Status = "LOBBY"
	StatusStarting         Status = "STARTING"
	StatusPlaying          Status = "PLAYING"
	StatusRoundReveal      Status = "ROUND_REVEAL"
	StatusEliminationCheck Status = "ELIMINATION_CHECK"
	StatusGameOver         Status = "GAME_OVER"
)

type Settings struct {
	MaxPlayers       int `json:"maxPlayers"`
	RoundDurationMs  int `json:"roundDurationMs"`
	RevealDurationMs int `json:"revealDurationMs"`
}

func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:       10,
		RoundDurationMs:  60_000,
		RevealDurationMs: 8_000,
	}
}

type Answer struct {
	SongTitle   string    `json:"songTitle"`
	Artist      string    `json:"artist"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type Player struct {
	ID           string
	Nickname     string
	Pace         int
	IsHost       bool
	IsEliminated bool
	IsConnected  bool
	HasSubmitted bool

	CurrentAnswer *Answer
	LastResult    *match.Score

	// Round the player was eliminated on; 0 while still in the game.
	EliminatedRound int

	// Currently bound connection; empty while disconnected.
	ConnectionID string
}

type GameState struct {
	Status       Status
	CurrentRound int
	CurrentTrack *spotify.Track

	// Wall-clock bounds of the running round, unix milliseconds.
	RoundStartTime int64
	RoundEndTime   int64

	IsPaused    bool
	PauseReason string
	WinnerID    string
}

// Room owns everything scoped to one game. All mutable state is guarded
// by the embedded mutex; the registry and the engine both lock it.
type Room struct {
	sync.Mutex

	Code      string
	HostID    string
	Game      GameState
	MusicAuth *spotify.Auth
	Playlist  *spotify.PlaylistInfo

	// Track ids already played this game.
	UsedTrackIDs map[string]bool

	Created  time.Time
	Settings Settings

	players map[string]*Player
	order   []string
}

func newRoom(code string) *Room {
	return &Room{
		Code:         code,
		Game:         GameState{Status: StatusLobby},
		UsedTrackIDs: make(map[string]bool),
		Created:      time.Now(),
		Settings:     DefaultSettings(),
		players:      make(map[string]*Player),
	}
}

// addPlayer appends to the insertion order that host succession follows.
func (r *Room) addPlayer(p *Player) {
	r.players[p.ID] = p
	r.order = append(r.order, p.ID)
}

func (r *Room) removePlayer(id string) {
	delete(r.players, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Room) Player(id string) *Player {
	return r.players[id]
}

// PlayersInOrder returns players in insertion order.
func (r *Room) PlayersInOrder() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id])
	}
	return out
}

func (r *Room) PlayerCount() int {
	return len(r.players)
}

func (r *Room) ConnectedCount() int {
	n := 0
	for _, p := range r.players {
		if p.IsConnected {
			n++
		}
	}
	return n
}

// playerByNickname supports rejoin-by-nickname; comparison is
// case-insensitive.
func (r *Room) playerByNickname(nickname string) *Player {
	for _, id := range r.order {
		p := r.players[id]
		if strings.EqualFold(p.Nickname, nickname) {
			return p
		}
	}
	return nil
}
