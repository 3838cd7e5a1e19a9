package room

import (
	"github.com/alessisheinman/Disk-Jockey/match"
	"github.com/alessisheinman/Disk-Jockey/spotify"
)

// Serialized is the outbound projection of a room. It never carries the
// Spotify tokens, the used-track set, or the current track (clients learn
// the track only at reveal).
type Serialized struct {
	Code         string                `json:"code"`
	HostID       string                `json:"hostId"`
	Players      []SerializedPlayer    `json:"players"`
	GameState    SerializedGameState   `json:"gameState"`
	HasMusicAuth bool                  `json:"hasMusicAuth"`
	Playlist     *spotify.PlaylistInfo `json:"playlist,omitempty"`
	TrackCount   int                   `json:"trackCount"`
	Settings     Settings              `json:"settings"`
}

type SerializedPlayer struct {
	ID           string       `json:"id"`
	Nickname     string       `json:"nickname"`
	Pace         int          `json:"pace"`
	IsHost       bool         `json:"isHost"`
	IsEliminated bool         `json:"isEliminated"`
	IsConnected  bool         `json:"isConnected"`
	HasSubmitted bool         `json:"hasSubmitted"`
	LastResult   *match.Score `json:"lastResult,omitempty"`
}

type SerializedGameState struct {
	Status         Status `json:"status"`
	CurrentRound   int    `json:"currentRound"`
	RoundStartTime int64  `json:"roundStartTime,omitempty"`
	RoundEndTime   int64  `json:"roundEndTime,omitempty"`
	IsPaused       bool   `json:"isPaused"`
	PauseReason    string `json:"pauseReason,omitempty"`
	WinnerID       string `json:"winnerId,omitempty"`
}

// Snapshot serializes the room under its lock.
func (r *Room) Snapshot() Serialized {
	r.Lock()
	defer r.Unlock()
	return r.SnapshotLocked()
}

// SnapshotLocked serializes a room whose lock the caller already holds.
func (r *Room) SnapshotLocked() Serialized {
	players := make([]SerializedPlayer, 0, len(r.order))
	for _, p := range r.PlayersInOrder() {
		players = append(players, serializePlayer(p))
	}

	s := Serialized{
		Code:         r.Code,
		HostID:       r.HostID,
		Players:      players,
		HasMusicAuth: r.MusicAuth != nil,
		Playlist:     r.Playlist,
		Settings:     r.Settings,
		GameState: SerializedGameState{
			Status:         r.Game.Status,
			CurrentRound:   r.Game.CurrentRound,
			RoundStartTime: r.Game.RoundStartTime,
			RoundEndTime:   r.Game.RoundEndTime,
			IsPaused:       r.Game.IsPaused,
			PauseReason:    r.Game.PauseReason,
			WinnerID:       r.Game.WinnerID,
		},
	}
	if r.Playlist != nil {
		s.TrackCount = r.Playlist.TotalTracks
	}
	return s
}

func serializePlayer(p *Player) SerializedPlayer {
	return SerializedPlayer{
		ID:           p.ID,
		Nickname:     p.Nickname,
		Pace:         p.Pace,
		IsHost:       p.IsHost,
		IsEliminated: p.IsEliminated,
		IsConnected:  p.IsConnected,
		HasSubmitted: p.HasSubmitted,
		LastResult:   p.LastResult,
	}
}
