package realtime

import (
	"campus-events-backend/cmd/campus-events/model"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func newTestHub() *Hub {
	logger := log.New("test")
	logger.SetOutput(io.Discard)
	return NewHub(logger)
}

func startServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Handler(r.URL.Query().Get("user")).ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, hub *Hub, userID string) *websocket.Conn {
	t.Helper()
	before := hub.Connections(userID)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?user=" + userID
	conn, err := websocket.Dial(url, "", "http://localhost/")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return hub.Connections(userID) > before
	}, 2*time.Second, 10*time.Millisecond)
	return conn
}

type received struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func receive(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg received
	require.NoError(t, websocket.JSON.Receive(conn, &msg))
	return msg
}

func TestHub_PushToUser(t *testing.T) {
	hub := newTestHub()
	srv := startServer(t, hub)
	first := dial(t, srv, hub, "ada")
	second := dial(t, srv, hub, "ada")
	dial(t, srv, hub, "grace")

	created := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	delivered := hub.PushToUser("ada", model.NotificationPush{
		ID:        "n-1",
		Title:     "Registration Confirmed",
		Message:   "See you there",
		Type:      model.NotificationEventRegistration,
		CreatedAt: created,
	})

	assert.Equal(t, 2, delivered)
	for _, conn := range []*websocket.Conn{first, second} {
		msg := receive(t, conn)
		assert.Equal(t, "notification", msg.Event)
		var push map[string]any
		require.NoError(t, json.Unmarshal(msg.Data, &push))
		assert.Equal(t, "n-1", push["id"])
		assert.Equal(t, "event_registration", push["type"])
		assert.Equal(t, "2026-03-10T09:00:00Z", push["createdAt"])
	}

	assert.Equal(t, 0, hub.PushToUser("nobody", model.NotificationPush{ID: "n-2"}))
	assert.Equal(t, 1, hub.Connections("grace"))
}

func TestHub_JoinOwnRoomOnly(t *testing.T) {
	hub := newTestHub()
	srv := startServer(t, hub)
	conn := dial(t, srv, hub, "ada")

	require.NoError(t, websocket.JSON.Send(conn, clientMessage{Action: "join", UserID: "grace"}))
	msg := receive(t, conn)
	assert.Equal(t, "error", msg.Event)
	assert.Contains(t, string(msg.Data), "cannot join another user's room")
	assert.Equal(t, 0, hub.Connections("grace"))

	require.NoError(t, websocket.JSON.Send(conn, clientMessage{Action: "join", UserID: "ada"}))
	msg = receive(t, conn)
	assert.Equal(t, "joined", msg.Event)
	assert.JSONEq(t, `{"room":"user_ada"}`, string(msg.Data))
}

func TestHub_DisconnectLeavesRoom(t *testing.T) {
	hub := newTestHub()
	srv := startServer(t, hub)
	conn := dial(t, srv, hub, "ada")

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return hub.Connections("ada") == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_DropsWhenBufferFull(t *testing.T) {
	hub := newTestHub()
	c := &client{userID: "ada", send: make(chan []byte, 1)}
	hub.join(c, RoomFor("ada"))

	assert.Equal(t, 1, hub.PushToUser("ada", model.NotificationPush{ID: "n-1"}))
	assert.Equal(t, 0, hub.PushToUser("ada", model.NotificationPush{ID: "n-2"}))

	msg := <-c.send
	assert.Contains(t, string(msg), `"id":"n-1"`)

	hub.leave(c)
	assert.Equal(t, 0, hub.Connections("ada"))
}
