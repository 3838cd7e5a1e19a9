package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastScoping(t *testing.T) {
	hub := NewHub()
	aCh := addConn(hub, "a")
	bCh := addConn(hub, "b")
	cCh := addConn(hub, "c")

	hub.Subscribe("a", "ROOM")
	hub.Subscribe("b", "ROOM")
	hub.Subscribe("c", "OTHER")

	hub.Broadcast("ROOM", "ping", map[string]int{"n": 1})

	for _, ch := range []chan []byte{aCh, bCh} {
		env := recvEvent(t, ch, "ping")
		assert.Equal(t, "ping", env.Type)
	}
	assert.Empty(t, cCh, "other room must not receive the event")
}

func TestBroadcastOrderPerConnection(t *testing.T) {
	hub := NewHub()
	ch := addConn(hub, "a")
	hub.Subscribe("a", "ROOM")

	for i := 0; i < 20; i++ {
		hub.Broadcast("ROOM", "seq", map[string]int{"n": i})
	}

	for i := 0; i < 20; i++ {
		env := recvEvent(t, ch, "seq")
		var payload map[string]int
		require.NoError(t, json.Unmarshal(env.Payload, &payload))
		assert.Equal(t, i, payload["n"], "events must arrive in emitted order")
	}
}

func TestResubscribeMovesRooms(t *testing.T) {
	hub := NewHub()
	ch := addConn(hub, "a")

	hub.Subscribe("a", "FRST")
	hub.Subscribe("a", "SCND")

	hub.Broadcast("FRST", "stale", nil)
	hub.Broadcast("SCND", "fresh", nil)

	env := recvEvent(t, ch, "fresh")
	assert.Equal(t, "fresh", env.Type)
}

func TestSendToUnknownConnectionIsNoop(t *testing.T) {
	hub := NewHub()
	hub.SendToConnection("ghost", "ping", nil)
	hub.SendError("ghost", "msg", "")
}
