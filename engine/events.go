package engine

import (
	"context"

	"github.com/alessisheinman/Disk-Jockey/match"
	"github.com/alessisheinman/Disk-Jockey/room"
	"github.com/alessisheinman/Disk-Jockey/spotify"
)

// Sender is the engine's view of the transport: room-wide fan-out and
// directed sends to a single connection. The hub implements it.
type Sender interface {
	Broadcast(roomCode string, event string, payload any)
	SendToConnection(connectionID string, event string, payload any)
}

// Gateway is the slice of the Spotify gateway the engine drives rounds
// with.
type Gateway interface {
	EnsureValidToken(ctx context.Context, auth spotify.Auth) (spotify.Auth, error)
	RandomTrack(ctx context.Context, auth spotify.Auth, playlistID string, totalTracks int, used map[string]bool) (*spotify.Track, error)
}

type GameStartingPayload struct {
	StartsIn int `json:"startsIn"`
}

type RoundStartedPayload struct {
	RoundNumber int    `json:"roundNumber"`
	DurationMs  int    `json:"durationMs"`
	TrackURI    string `json:"trackUri"`
}

type PlayerSubmittedPayload struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
}

type PlaybackCommandPayload struct {
	Command    string `json:"command"`
	TrackURI   string `json:"trackUri,omitempty"`
	PositionMs *int   `json:"positionMs,omitempty"`
}

type RoundResult struct {
	PlayerID      string       `json:"playerId"`
	Nickname      string       `json:"nickname"`
	Result        match.Result `json:"result"`
	SongCorrect   *bool        `json:"songCorrect,omitempty"`
	ArtistCorrect *bool        `json:"artistCorrect,omitempty"`
	Pace          int          `json:"pace"`
	Submitted     bool         `json:"submitted"`
	Answer        *room.Answer `json:"answer,omitempty"`
}

type RoundEndedPayload struct {
	Track       *spotify.Track `json:"track"`
	Results     []RoundResult  `json:"results"`
	NextRoundIn int            `json:"nextRoundIn"`
}

type PlayerStanding struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
	Pace     int    `json:"pace"`
}

type EliminationCheckPayload struct {
	Round      int              `json:"round"`
	Threshold  int              `json:"threshold"`
	LeaderPace int              `json:"leaderPace"`
	Eliminated []PlayerStanding `json:"eliminated"`
	Survivors  []PlayerStanding `json:"survivors"`
}

type GameOverPayload struct {
	WinnerID       string           `json:"winnerId"`
	WinnerNickname string           `json:"winnerNickname"`
	FinalStandings []PlayerStanding `json:"finalStandings"`
}

type GamePausedPayload struct {
	Reason string `json:"reason"`
}

type RoomUpdatedPayload struct {
	Room room.Serialized `json:"room"`
}
