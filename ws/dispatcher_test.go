package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alessisheinman/Disk-Jockey/engine"
	"github.com/alessisheinman/Disk-Jockey/room"
	"github.com/alessisheinman/Disk-Jockey/spotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	user     *spotify.User
	userErr  error
	playlist *spotify.PlaylistInfo
}

func (g *stubGateway) CurrentUser(context.Context, spotify.Auth) (*spotify.User, error) {
	if g.userErr != nil {
		return nil, g.userErr
	}
	if g.user != nil {
		return g.user, nil
	}
	return &spotify.User{ID: "spotify-user", Display: "DJ"}, nil
}

func (g *stubGateway) GetPlaylist(context.Context, spotify.Auth, string) (*spotify.PlaylistInfo, error) {
	if g.playlist != nil {
		return g.playlist, nil
	}
	return &spotify.PlaylistInfo{ID: "pl", Name: "Mix", TotalTracks: 42}, nil
}

func (g *stubGateway) EnsureValidToken(_ context.Context, auth spotify.Auth) (spotify.Auth, error) {
	return auth, nil
}

func (g *stubGateway) RandomTrack(context.Context, spotify.Auth, string, int, map[string]bool) (*spotify.Track, error) {
	return &spotify.Track{ID: "t1", URI: "spotify:track:t1", Name: "Song",
		Artists: []spotify.Artist{{Name: "Queen"}}}, nil
}

func newTestStack(t *testing.T) (*room.Registry, *Hub, *Dispatcher) {
	t.Helper()
	reg := room.NewRegistry()
	hub := NewHub()
	gw := &stubGateway{}
	eng := engine.New(reg, gw, hub)
	d := NewDispatcher(reg, eng, gw, hub)
	return reg, hub, d
}

// addConn registers a synthetic connection and returns its outbound
// queue.
func addConn(h *Hub, id string) chan []byte {
	c := &Client{id: id, hub: h, send: make(chan []byte, sendBufferSize)}
	h.mu.Lock()
	h.clients[id] = c
	h.mu.Unlock()
	return c.send
}

// recvEvent drains a connection's queue until an envelope of the given
// type arrives.
func recvEvent(t *testing.T, ch chan []byte, eventType string) Envelope {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case data := <-ch:
			var env Envelope
			require.NoError(t, json.Unmarshal(data, &env))
			if env.Type == eventType {
				return env
			}
		case <-deadline:
			t.Fatalf("no %q event arrived", eventType)
		}
	}
}

func send(d *Dispatcher, connID, eventType string, payload any, ackID string) {
	raw, _ := json.Marshal(payload)
	d.Handle(connID, Envelope{Type: eventType, Payload: raw, AckID: ackID})
}

func TestCreateRoomFlow(t *testing.T) {
	_, hub, d := newTestStack(t)
	ch := addConn(hub, "c1")

	send(d, "c1", "createRoom", CreateRoomRequest{Nickname: "Alice"}, "ack-1")

	ack := recvEvent(t, ch, "ack")
	var ackPayload AckPayload
	require.NoError(t, json.Unmarshal(ack.Payload, &ackPayload))
	assert.True(t, ackPayload.Success)
	assert.Len(t, ackPayload.RoomCode, 4)
	assert.NotEmpty(t, ackPayload.PlayerID)

	joined := recvEvent(t, ch, "roomJoined")
	var joinedPayload roomJoinedPayload
	require.NoError(t, json.Unmarshal(joined.Payload, &joinedPayload))
	assert.Equal(t, ackPayload.RoomCode, joinedPayload.Room.Code)
	require.Len(t, joinedPayload.Room.Players, 1)
	assert.True(t, joinedPayload.Room.Players[0].IsHost)
}

func TestJoinRoomFlow(t *testing.T) {
	_, hub, d := newTestStack(t)
	hostCh := addConn(hub, "host")
	send(d, "host", "createRoom", CreateRoomRequest{Nickname: "Alice"}, "a1")
	ack := recvEvent(t, hostCh, "ack")
	var ackPayload AckPayload
	require.NoError(t, json.Unmarshal(ack.Payload, &ackPayload))

	guestCh := addConn(hub, "guest")
	send(d, "guest", "joinRoom", JoinRoomRequest{RoomCode: ackPayload.RoomCode, Nickname: "Bob"}, "a2")

	recvEvent(t, guestCh, "roomJoined")
	recvEvent(t, hostCh, "playerJoined")
	updated := recvEvent(t, hostCh, "roomUpdated")
	var updatedPayload engine.RoomUpdatedPayload
	require.NoError(t, json.Unmarshal(updated.Payload, &updatedPayload))
	assert.Len(t, updatedPayload.Room.Players, 2)

	t.Run("bad code is a validation error", func(t *testing.T) {
		strayCh := addConn(hub, "stray")
		send(d, "stray", "joinRoom", JoinRoomRequest{RoomCode: "ZZZZ", Nickname: "Eve"}, "")
		errEvent := recvEvent(t, strayCh, "error")
		var errPayload ErrorPayload
		require.NoError(t, json.Unmarshal(errEvent.Payload, &errPayload))
		assert.Equal(t, "VALIDATION", errPayload.Code)
	})
}

func TestHostOnlyAuthorization(t *testing.T) {
	_, hub, d := newTestStack(t)
	hostCh := addConn(hub, "host")
	send(d, "host", "createRoom", CreateRoomRequest{Nickname: "Alice"}, "a1")
	ack := recvEvent(t, hostCh, "ack")
	var ackPayload AckPayload
	require.NoError(t, json.Unmarshal(ack.Payload, &ackPayload))

	guestCh := addConn(hub, "guest")
	send(d, "guest", "joinRoom", JoinRoomRequest{RoomCode: ackPayload.RoomCode, Nickname: "Bob"}, "")

	for _, op := range []string{"startGame", "setMusicAuth", "loadPlaylist"} {
		t.Run(op, func(t *testing.T) {
			send(d, "guest", op, map[string]any{}, "")
			errEvent := recvEvent(t, guestCh, "error")
			var errPayload ErrorPayload
			require.NoError(t, json.Unmarshal(errEvent.Payload, &errPayload))
			assert.Equal(t, "AUTHORIZATION", errPayload.Code)
		})
	}
}

func TestSetMusicAuthAndLoadPlaylist(t *testing.T) {
	reg, hub, d := newTestStack(t)
	hostCh := addConn(hub, "host")
	send(d, "host", "createRoom", CreateRoomRequest{Nickname: "Alice"}, "a1")
	ack := recvEvent(t, hostCh, "ack")
	var ackPayload AckPayload
	require.NoError(t, json.Unmarshal(ack.Payload, &ackPayload))

	send(d, "host", "setMusicAuth", SetMusicAuthRequest{
		AccessToken:  "tok",
		RefreshToken: "ref",
		ExpiresIn:    3600,
	}, "")

	connected := recvEvent(t, hostCh, "musicConnected")
	var connectedPayload map[string]string
	require.NoError(t, json.Unmarshal(connected.Payload, &connectedPayload))
	assert.Equal(t, "spotify-user", connectedPayload["userId"])

	r, ok := reg.GetRoom(ackPayload.RoomCode)
	require.True(t, ok)
	r.Lock()
	require.NotNil(t, r.MusicAuth)
	assert.Equal(t, "spotify-user", r.MusicAuth.UserID)
	r.Unlock()

	send(d, "host", "loadPlaylist", LoadPlaylistRequest{PlaylistID: "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M"}, "")

	loaded := recvEvent(t, hostCh, "playlistLoaded")
	var loadedPayload struct {
		Playlist   spotify.PlaylistInfo `json:"playlist"`
		TrackCount int                  `json:"trackCount"`
	}
	require.NoError(t, json.Unmarshal(loaded.Payload, &loadedPayload))
	assert.Equal(t, 42, loadedPayload.TrackCount)

	t.Run("cooldown applies per room", func(t *testing.T) {
		send(d, "host", "loadPlaylist", LoadPlaylistRequest{PlaylistID: "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M"}, "")
		errEvent := recvEvent(t, hostCh, "error")
		var errPayload ErrorPayload
		require.NoError(t, json.Unmarshal(errEvent.Payload, &errPayload))
		assert.Equal(t, "RATE_LIMITED", errPayload.Code)
	})
}

func TestLeaveRoom(t *testing.T) {
	_, hub, d := newTestStack(t)
	hostCh := addConn(hub, "host")
	send(d, "host", "createRoom", CreateRoomRequest{Nickname: "Alice"}, "a1")
	ack := recvEvent(t, hostCh, "ack")
	var ackPayload AckPayload
	require.NoError(t, json.Unmarshal(ack.Payload, &ackPayload))

	addConn(hub, "guest")
	send(d, "guest", "joinRoom", JoinRoomRequest{RoomCode: ackPayload.RoomCode, Nickname: "Bob"}, "")

	send(d, "guest", "leaveRoom", nil, "")

	left := recvEvent(t, hostCh, "playerLeft")
	var leftPayload playerEventPayload
	require.NoError(t, json.Unmarshal(left.Payload, &leftPayload))
	assert.Equal(t, "Bob", leftPayload.Nickname)

	updated := recvEvent(t, hostCh, "roomUpdated")
	var updatedPayload engine.RoomUpdatedPayload
	require.NoError(t, json.Unmarshal(updated.Payload, &updatedPayload))
	assert.Len(t, updatedPayload.Room.Players, 1)
}

func TestUnknownEvent(t *testing.T) {
	_, hub, d := newTestStack(t)
	ch := addConn(hub, "c1")

	d.Handle("c1", Envelope{Type: "teleport"})

	errEvent := recvEvent(t, ch, "error")
	var errPayload ErrorPayload
	require.NoError(t, json.Unmarshal(errEvent.Payload, &errPayload))
	assert.Equal(t, "VALIDATION", errPayload.Code)
}

func TestDisconnectKeepsPlayerRecord(t *testing.T) {
	reg, hub, d := newTestStack(t)
	hostCh := addConn(hub, "host")
	send(d, "host", "createRoom", CreateRoomRequest{Nickname: "Alice"}, "a1")
	ack := recvEvent(t, hostCh, "ack")
	var ackPayload AckPayload
	require.NoError(t, json.Unmarshal(ack.Payload, &ackPayload))

	addConn(hub, "guest")
	send(d, "guest", "joinRoom", JoinRoomRequest{RoomCode: ackPayload.RoomCode, Nickname: "Bob"}, "")

	d.HandleDisconnect("guest")

	r, ok := reg.GetRoom(ackPayload.RoomCode)
	require.True(t, ok)
	r.Lock()
	assert.Equal(t, 2, r.PlayerCount())
	bob := r.PlayersInOrder()[1]
	assert.False(t, bob.IsConnected)
	r.Unlock()
}
