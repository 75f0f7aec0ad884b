package realtime

import (
	"campus-events-backend/cmd/campus-events/model"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	"golang.org/x/net/websocket"
)

const (
	defaultSendBuffer = 16
	writeTimeout      = 10 * time.Second
)

// RoomFor is the room every connection of a user joins.
func RoomFor(userID string) string {
	return "user_" + userID
}

type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type clientMessage struct {
	Action string `json:"action"`
	UserID string `json:"user_id"`
}

type client struct {
	userID string
	send   chan []byte
}

// Hub fans notifications out to the websocket connections of a user. Each
// connection has a bounded send buffer; messages for a connection that
// cannot keep up are dropped.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]map[*client]struct{}
	logger     *log.Logger
	sendBuffer int
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		rooms:      map[string]map[*client]struct{}{},
		logger:     logger,
		sendBuffer: defaultSendBuffer,
	}
}

func (h *Hub) join(c *client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = map[*client]struct{}{}
		h.rooms[room] = members
	}
	members[c] = struct{}{}
}

func (h *Hub) leave(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Connections returns the number of live connections in the user's room.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[RoomFor(userID)])
}

func (h *Hub) broadcast(room string, msg []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.rooms[room] {
		select {
		case c.send <- msg:
			delivered++
		default:
			h.logger.Warnj(log.JSON{
				"message": "dropping realtime message for slow connection",
				"room":    room,
			})
		}
	}
	return delivered
}

// PushToUser sends a notification to every connection in the user's room
// and returns how many accepted it.
func (h *Hub) PushToUser(userID string, payload model.NotificationPush) int {
	msg, err := json.Marshal(envelope{Event: "notification", Data: payload})
	if err != nil {
		h.logger.Errorj(log.JSON{
			"message": "failed to encode realtime notification",
			"user_id": userID,
			"error":   err.Error(),
		})
		return 0
	}
	return h.broadcast(RoomFor(userID), msg)
}

// Handler upgrades a request to a websocket connection owned by userID.
func (h *Hub) Handler(userID string) http.Handler {
	return websocket.Server{
		Handler: func(conn *websocket.Conn) {
			h.Serve(conn, userID)
		},
	}
}

// Serve runs one connection until the peer goes away.
func (h *Hub) Serve(conn *websocket.Conn, userID string) {
	c := &client{
		userID: userID,
		send:   make(chan []byte, h.sendBuffer),
	}
	h.join(c, RoomFor(userID))

	done := make(chan struct{})
	go h.write(conn, c, done)

	h.logger.Infoj(log.JSON{
		"message": "realtime client connected",
		"user_id": userID,
	})

	h.read(conn, c)

	h.leave(c)
	close(c.send)
	<-done
	conn.Close()

	h.logger.Infoj(log.JSON{
		"message": "realtime client disconnected",
		"user_id": userID,
	})
}

func (h *Hub) read(conn *websocket.Conn, c *client) {
	for {
		var msg clientMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			return
		}

		switch msg.Action {
		case "join":
			if msg.UserID != c.userID {
				h.reply(c, "error", map[string]string{"message": "cannot join another user's room"})
				continue
			}
			room := RoomFor(msg.UserID)
			h.join(c, room)
			h.reply(c, "joined", map[string]string{"room": room})
		default:
			h.reply(c, "error", map[string]string{"message": "unknown action"})
		}
	}
}

func (h *Hub) reply(c *client, event string, data any) {
	msg, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (h *Hub) write(conn *websocket.Conn, c *client, done chan<- struct{}) {
	defer close(done)

	for msg := range c.send {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := websocket.Message.Send(conn, string(msg)); err != nil {
			// Unblock the reader; the remaining messages are drained.
			conn.Close()
			for range c.send {
			}
			return
		}
	}
}
