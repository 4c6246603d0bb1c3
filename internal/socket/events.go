package socket

import (
	"encoding/json"
	"time"
)

// EventType names an outbound frame.
type EventType string

const (
	EventOnlineUsers         EventType = "onlineUsers"
	EventNotification        EventType = "notification"
	EventChatRequest         EventType = "chatRequest"
	EventChatRequestResponse EventType = "chatRequestResponse"
	EventTyping              EventType = "typing"
	EventPrivateMessage      EventType = "privateMessage"
	EventMessageSeen         EventType = "messageSeen"
	EventAck                 EventType = "ack"
	EventError               EventType = "error"
	EventPong                EventType = "pong"
)

// Inbound actions.
const (
	ActionJoin           = "join"
	ActionLeave          = "leave"
	ActionTyping         = "typing"
	ActionPrivateMessage = "privateMessage"
	ActionMessageSeen    = "messageSeen"
	ActionPing           = "ping"
)

// Message is the outbound frame written to every client.
type Message struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewMessage stamps payload with the current time.
func NewMessage(eventType EventType, payload interface{}) Message {
	return Message{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ClientMessage is an inbound frame. Payload is decoded per action.
type ClientMessage struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type presencePayload struct {
	UserID string `json:"userId"`
}

type typingPayload struct {
	SenderID    string `json:"senderId"`
	SenderName  string `json:"senderName"`
	RecipientID string `json:"recipientId"`
	IsTyping    bool   `json:"isTyping"`
}

type messageSeenPayload struct {
	SenderID string `json:"senderId"`
}
