// Package ws manages observer websocket sessions: gate subscriptions and
// fan-out of zone occupancy and administrative updates.
package ws

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of websocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeZoneUpdate  MessageType = "zone-update"
	TypeAdminUpdate MessageType = "admin-update"

	// Client -> Server command types
	TypeSubscribe   MessageType = "subscribe"
	TypeUnsubscribe MessageType = "unsubscribe"
	TypePing        MessageType = "ping"

	// Server -> Client response types
	TypeSubscribeAck MessageType = "subscribe.ack"
	TypePong         MessageType = "pong"
	TypeError        MessageType = "error"
)

// Message is the outbound envelope pushed to observers.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// Command is the inbound envelope read from observers.
type Command struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// GatePayload carries the gate a subscribe/unsubscribe command targets.
type GatePayload struct {
	GateID string `json:"gateId"`
}

// SubscribeAckPayload confirms a gate subscription.
type SubscribeAckPayload struct {
	GateID string `json:"gateId"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	OriginalType string `json:"original_type,omitempty"`
}
