package socket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNoChat = errors.New("chat not allowed")

// tokens maps test tokens straight to user ids.
func testAuthenticator(token string) (string, error) {
	switch token {
	case "token-a":
		return userA, nil
	case "token-b":
		return userB, nil
	case "token-c":
		return userC, nil
	}
	return "", errors.New("invalid token")
}

// userC may not message anyone.
func testPolicy(_ context.Context, senderID, _ string) error {
	if senderID == userC {
		return errNoChat
	}
	return nil
}

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(NewRegistry())
	router := gin.New()
	router.GET("/ws", NewHandler(hub, testAuthenticator, testPolicy).HandleWebSocket)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, action string, payload interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(ClientMessage{Action: action, Payload: raw}))
}

// readUntil reads frames until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, event EventType) decodedFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var f decodedFrame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Type == event {
			return f
		}
	}
}

func joinAs(t *testing.T, conn *websocket.Conn, userID string) {
	t.Helper()
	send(t, conn, ActionJoin, map[string]string{"userId": userID})
	ack := readUntil(t, conn, EventAck)
	assert.Equal(t, ActionJoin, ack.Map(t)["action"])
}

func TestHandler_RejectsMissingToken(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_RejectsInvalidToken(t *testing.T) {
	_, srv := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=bogus"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_AcceptsBearerHeader(t *testing.T) {
	hub, srv := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{"Authorization": []string{"Bearer token-a"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	joinAs(t, conn, userA)
	assert.True(t, hub.IsOnline(userA))
}

func TestHandler_JoinAnnouncesPresence(t *testing.T) {
	hub, srv := newTestServer(t)
	a := dial(t, srv, "token-a")
	b := dial(t, srv, "token-b")

	joinAs(t, a, userA)
	joinAs(t, b, userB)

	frame := readUntil(t, a, EventOnlineUsers)
	online := frame.Strings(t)
	// a may still have its own join broadcast queued.
	if len(online) == 1 {
		online = readUntil(t, a, EventOnlineUsers).Strings(t)
	}
	assert.Equal(t, []string{userA, userB}, online)
	assert.Equal(t, []string{userA, userB}, hub.OnlineUsers())
}

func TestHandler_JoinAsAnotherUserFails(t *testing.T) {
	hub, srv := newTestServer(t)
	a := dial(t, srv, "token-a")

	send(t, a, ActionJoin, map[string]string{"userId": userB})

	frame := readUntil(t, a, EventError)
	assert.Equal(t, ActionJoin, frame.Map(t)["action"])
	assert.False(t, hub.IsOnline(userB))
}

func TestHandler_DisconnectRemovesPresence(t *testing.T) {
	hub, srv := newTestServer(t)
	a := dial(t, srv, "token-a")
	b := dial(t, srv, "token-b")
	joinAs(t, a, userA)
	joinAs(t, b, userB)

	require.NoError(t, a.Close())

	assert.Eventually(t, func() bool { return !hub.IsOnline(userA) }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, hub.IsOnline(userB))
}

func TestHandler_PrivateMessageRelay(t *testing.T) {
	_, srv := newTestServer(t)
	a := dial(t, srv, "token-a")
	b := dial(t, srv, "token-b")
	joinAs(t, a, userA)
	joinAs(t, b, userB)

	send(t, a, ActionPrivateMessage, map[string]string{"recipientId": userB, "content": "hello"})

	frame := readUntil(t, b, EventPrivateMessage)
	msg := frame.Map(t)
	assert.Equal(t, "hello", msg["content"])
	assert.Equal(t, userA, msg["senderId"])

	ack := readUntil(t, a, EventAck)
	assert.Equal(t, ActionPrivateMessage, ack.Map(t)["action"])
	assert.Equal(t, true, ack.Map(t)["delivered"])
}

func TestHandler_PrivateMessageDeniedByPolicy(t *testing.T) {
	_, srv := newTestServer(t)
	c := dial(t, srv, "token-c")
	joinAs(t, c, userC)

	send(t, c, ActionPrivateMessage, map[string]string{"recipientId": userA, "content": "hi"})

	frame := readUntil(t, c, EventError)
	assert.Equal(t, errNoChat.Error(), frame.Map(t)["error"])
}

func TestHandler_TypingAndSeen(t *testing.T) {
	_, srv := newTestServer(t)
	a := dial(t, srv, "token-a")
	b := dial(t, srv, "token-b")
	joinAs(t, a, userA)
	joinAs(t, b, userB)

	send(t, a, ActionTyping, map[string]interface{}{
		"senderName": "Alice", "recipientId": userB, "isTyping": true,
	})
	typing := readUntil(t, b, EventTyping).Map(t)
	assert.Equal(t, userA, typing["senderId"])
	assert.Equal(t, "Alice", typing["senderName"])
	assert.Equal(t, true, typing["isTyping"])

	send(t, b, ActionMessageSeen, map[string]string{"senderId": userA})
	seen := readUntil(t, a, EventMessageSeen).Map(t)
	assert.Equal(t, userB, seen["seenBy"])
}

func TestHandler_TypingAndSeenDeniedByPolicy(t *testing.T) {
	_, srv := newTestServer(t)
	a := dial(t, srv, "token-a")
	b := dial(t, srv, "token-b")
	c := dial(t, srv, "token-c")
	joinAs(t, a, userA)
	joinAs(t, b, userB)
	joinAs(t, c, userC)

	send(t, c, ActionTyping, map[string]interface{}{"recipientId": userA, "isTyping": true})
	frame := readUntil(t, c, EventError).Map(t)
	assert.Equal(t, ActionTyping, frame["action"])
	assert.Equal(t, errNoChat.Error(), frame["error"])

	send(t, c, ActionMessageSeen, map[string]string{"senderId": userA})
	frame = readUntil(t, c, EventError).Map(t)
	assert.Equal(t, ActionMessageSeen, frame["action"])

	send(t, b, ActionTyping, map[string]interface{}{"recipientId": userA, "isTyping": true})
	typing := readUntil(t, a, EventTyping).Map(t)
	assert.Equal(t, userB, typing["senderId"])

	send(t, b, ActionMessageSeen, map[string]string{"senderId": userA})
	seen := readUntil(t, a, EventMessageSeen).Map(t)
	assert.Equal(t, userB, seen["seenBy"])
}

func TestHandler_PingPong(t *testing.T) {
	_, srv := newTestServer(t)
	a := dial(t, srv, "token-a")

	send(t, a, ActionPing, nil)
	frame := readUntil(t, a, EventPong)
	assert.Contains(t, frame.Map(t), "time")
}

func TestHandler_UnknownAction(t *testing.T) {
	_, srv := newTestServer(t)
	a := dial(t, srv, "token-a")

	send(t, a, "dance", nil)
	frame := readUntil(t, a, EventError)
	assert.Equal(t, "unknown action", frame.Map(t)["error"])
}
