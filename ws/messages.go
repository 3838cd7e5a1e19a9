package ws

import "encoding/json"

// Envelope is the wire format in both directions. Inbound payloads stay
// raw until the dispatcher knows the type; AckID, when present, asks for
// a matching "ack" reply.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	AckID   string          `json:"ackId,omitempty"`
}

type outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	AckID   string `json:"ackId,omitempty"`
}

type CreateRoomRequest struct {
	Nickname string `json:"nickname"`
}

type JoinRoomRequest struct {
	RoomCode string `json:"roomCode"`
	Nickname string `json:"nickname"`
}

type SubmitAnswerRequest struct {
	SongTitle string `json:"songTitle"`
	Artist    string `json:"artist"`
}

type SetMusicAuthRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

type LoadPlaylistRequest struct {
	PlaylistID string `json:"playlistId"`
}

type AckPayload struct {
	Success  bool   `json:"success"`
	RoomCode string `json:"roomCode,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
