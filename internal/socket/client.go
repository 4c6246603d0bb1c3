package socket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size (16KB)
	maxMessageSize int64 = 16 * 1024

	sendBufferSize = 256

	policyTimeout = 5 * time.Second
)

// MessagePolicy decides whether senderID may relay a private message to
// recipientID. A nil policy allows everything.
type MessagePolicy func(ctx context.Context, senderID, recipientID string) error

// Client is one websocket connection owned by an authenticated user.
type Client struct {
	id     string
	userID string
	conn   *websocket.Conn
	hub    *Hub
	policy MessagePolicy
	send   chan []byte

	closed    bool
	mu        sync.RWMutex
	closeOnce sync.Once
}

func NewClient(hub *Hub, userID string, conn *websocket.Conn, policy MessagePolicy) *Client {
	return &Client{
		id:     uuid.New().String(),
		userID: userID,
		conn:   conn,
		hub:    hub,
		policy: policy,
		send:   make(chan []byte, sendBufferSize),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) UserID() string {
	return c.userID
}

// Send queues data without blocking. A full queue means the peer is not
// keeping up and the frame is refused.
func (c *Client) Send(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrClientClosed
	}
}

// Close stops the write pump, which sends a close frame and releases the
// socket. Safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
	})
	return nil
}

// ReadPump reads frames until the peer goes away, then disconnects from the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("component", "client").Str("user_id", c.userID).
					Msg("WebSocket unexpected close")
			}
			break
		}
		c.handleMessage(message)
	}
}

// WritePump drains the send queue to the socket and keeps the peer alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn().Err(err).Str("component", "client").Str("user_id", c.userID).
					Msg("WebSocket write error")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("", "malformed frame")
		return
	}

	log.Debug().Str("component", "client").Str("action", msg.Action).Str("user_id", c.userID).
		Msg("Received frame")

	switch msg.Action {
	case ActionJoin:
		c.handleJoin(msg)
	case ActionLeave:
		c.handleLeave(msg)
	case ActionTyping:
		c.handleTyping(msg)
	case ActionPrivateMessage:
		c.handlePrivateMessage(msg)
	case ActionMessageSeen:
		c.handleMessageSeen(msg)
	case ActionPing:
		c.sendFrame(EventPong, map[string]interface{}{"time": time.Now().Unix()})
	default:
		c.sendError(msg.Action, "unknown action")
	}
}

// presenceTarget resolves the user a join or leave frame names. Clients may
// only act for the user their token belongs to.
func (c *Client) presenceTarget(msg ClientMessage) (string, bool) {
	var p presencePayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.sendError(msg.Action, "malformed payload")
			return "", false
		}
	}
	if p.UserID == "" {
		p.UserID = c.userID
	}
	if p.UserID != c.userID {
		c.sendError(msg.Action, "cannot act for another user")
		return "", false
	}
	return p.UserID, true
}

func (c *Client) handleJoin(msg ClientMessage) {
	userID, ok := c.presenceTarget(msg)
	if !ok {
		return
	}
	if err := c.hub.Join(userID, c); err != nil {
		c.sendError(msg.Action, err.Error())
		return
	}
	c.sendFrame(EventAck, map[string]interface{}{"action": ActionJoin, "userId": userID})
}

func (c *Client) handleLeave(msg ClientMessage) {
	userID, ok := c.presenceTarget(msg)
	if !ok {
		return
	}
	if err := c.hub.Leave(userID, c); err != nil {
		c.sendError(msg.Action, err.Error())
		return
	}
	c.sendFrame(EventAck, map[string]interface{}{"action": ActionLeave, "userId": userID})
}

func (c *Client) handleTyping(msg ClientMessage) {
	var p typingPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil || p.RecipientID == "" {
		c.sendError(msg.Action, "recipientId is required")
		return
	}
	if !c.mayMessage(msg.Action, p.RecipientID) {
		return
	}
	p.SenderID = c.userID
	if _, err := c.hub.EmitToUser(p.RecipientID, EventTyping, p); err != nil {
		log.Warn().Err(err).Str("component", "client").Str("recipient_id", p.RecipientID).Msg("Typing relay failed")
	}
}

func (c *Client) handlePrivateMessage(msg ClientMessage) {
	var message map[string]interface{}
	if err := json.Unmarshal(msg.Payload, &message); err != nil {
		c.sendError(msg.Action, "malformed payload")
		return
	}
	recipientID, _ := message["recipientId"].(string)
	if recipientID == "" {
		c.sendError(msg.Action, "recipientId is required")
		return
	}

	if !c.mayMessage(msg.Action, recipientID) {
		return
	}

	message["senderId"] = c.userID
	delivered, err := c.hub.EmitToUser(recipientID, EventPrivateMessage, message)
	if err != nil {
		log.Warn().Err(err).Str("component", "client").Str("recipient_id", recipientID).Msg("Private message relay failed")
	}
	c.sendFrame(EventAck, map[string]interface{}{"action": ActionPrivateMessage, "delivered": delivered})
}

func (c *Client) handleMessageSeen(msg ClientMessage) {
	var p messageSeenPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil || p.SenderID == "" {
		c.sendError(msg.Action, "senderId is required")
		return
	}
	if !c.mayMessage(msg.Action, p.SenderID) {
		return
	}
	c.hub.EmitToUser(p.SenderID, EventMessageSeen, map[string]interface{}{
		"senderId": p.SenderID,
		"seenBy":   c.userID,
	})
}

// mayMessage runs the message policy for a frame aimed at peerID and reports
// the rejection to the client.
func (c *Client) mayMessage(action, peerID string) bool {
	if c.policy == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), policyTimeout)
	defer cancel()
	if err := c.policy(ctx, c.userID, peerID); err != nil {
		c.sendError(action, err.Error())
		return false
	}
	return true
}

func (c *Client) sendError(action, reason string) {
	c.sendFrame(EventError, map[string]interface{}{"action": action, "error": reason})
}

func (c *Client) sendFrame(event EventType, payload interface{}) {
	data, err := NewMessage(event, payload).ToJSON()
	if err != nil {
		log.Error().Err(err).Str("component", "client").Msg("Failed to encode frame")
		return
	}
	if err := c.Send(data); err != nil {
		log.Debug().Err(err).Str("component", "client").Str("user_id", c.userID).
			Str("event", string(event)).Msg("Frame not queued")
	}
}
