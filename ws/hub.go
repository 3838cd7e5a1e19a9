package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub tracks every live connection and which room each one is subscribed
// to. It is the only component that touches sockets; the registry and the
// engine go through Broadcast and SendToConnection.
type Hub struct {
	mu sync.Mutex

	clients   map[string]*Client
	rooms     map[string]map[string]*Client
	connRooms map[string]string

	dispatcher *Dispatcher
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[string]*Client),
		rooms:     make(map[string]map[string]*Client),
		connRooms: make(map[string]string),
	}
}

// SetDispatcher breaks the hub/dispatcher construction cycle.
func (h *Hub) SetDispatcher(d *Dispatcher) {
	h.dispatcher = d
}

// ServeWS upgrades the request and runs the connection's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("upgrade error: %s", err)
		return
	}

	client := &Client{
		id:   uuid.New().String(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()

	go client.writePump()
	client.readPump()
}

// Subscribe adds a connection to a room's broadcast group.
func (h *Hub) Subscribe(connectionID, roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.unsubscribeLocked(connectionID)

	group, ok := h.rooms[roomCode]
	if !ok {
		group = make(map[string]*Client)
		h.rooms[roomCode] = group
	}
	if c, ok := h.clients[connectionID]; ok {
		group[connectionID] = c
		h.connRooms[connectionID] = roomCode
	}
}

// Unsubscribe removes a connection from its room group.
func (h *Hub) Unsubscribe(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsubscribeLocked(connectionID)
}

func (h *Hub) unsubscribeLocked(connectionID string) {
	code, ok := h.connRooms[connectionID]
	if !ok {
		return
	}
	delete(h.connRooms, connectionID)
	if group, ok := h.rooms[code]; ok {
		delete(group, connectionID)
		if len(group) == 0 {
			delete(h.rooms, code)
		}
	}
}

// Broadcast fans an event out to every connection subscribed to a room.
// Enqueueing under the hub lock keeps the emitted order identical for
// all subscribers.
func (h *Hub) Broadcast(roomCode string, event string, payload any) {
	data, err := marshalOutbound(event, payload, "")
	if err != nil {
		log.Printf("marshal %s: %s", event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.rooms[roomCode] {
		h.enqueueLocked(c, data)
	}
}

// SendToConnection delivers an event to a single connection.
func (h *Hub) SendToConnection(connectionID string, event string, payload any) {
	data, err := marshalOutbound(event, payload, "")
	if err != nil {
		log.Printf("marshal %s: %s", event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[connectionID]; ok {
		h.enqueueLocked(c, data)
	}
}

// SendAck answers a request that carried an ackId.
func (h *Hub) SendAck(connectionID, ackID string, payload AckPayload) {
	data, err := marshalOutbound("ack", payload, ackID)
	if err != nil {
		log.Printf("marshal ack: %s", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[connectionID]; ok {
		h.enqueueLocked(c, data)
	}
}

// SendError delivers a unicast error event.
func (h *Hub) SendError(connectionID, message, code string) {
	h.SendToConnection(connectionID, "error", ErrorPayload{Message: message, Code: code})
}

// enqueueLocked drops connections whose write buffer is full rather than
// blocking the whole room behind one slow reader.
func (h *Hub) enqueueLocked(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		log.Printf("connection %s send buffer full, dropping connection", c.id)
		delete(h.clients, c.id)
		h.unsubscribeLocked(c.id)
		close(c.send)
	}
}

// drop is called by a client's read pump when the socket dies.
func (h *Hub) drop(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		h.unsubscribeLocked(c.id)
		close(c.send)
	}
	h.mu.Unlock()

	if h.dispatcher != nil {
		h.dispatcher.HandleDisconnect(c.id)
	}
}

func (h *Hub) dispatch(connectionID string, env Envelope) {
	if h.dispatcher != nil {
		h.dispatcher.Handle(connectionID, env)
	}
}

func marshalOutbound(event string, payload any, ackID string) ([]byte, error) {
	return json.Marshal(outbound{Type: event, Payload: payload, AckID: ackID})
}
