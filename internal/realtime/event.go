// Package realtime holds the websocket session machinery: the wire event
// envelope, the per-socket connection and the presence registry.
package realtime

import (
	"encoding/json"

	"github.com/gofrs/uuid/v5"
)

// Inbound event names (client -> server).
const (
	EventSendMessage   = "sendMessage"
	EventMarkDelivered = "markDelivered"
	EventReadMessages  = "readMessages"
	EventTyping        = "typing"
	EventStopTyping    = "stopTyping"
)

// Outbound event names (server -> client).
const (
	EventReceiveMessage   = "receiveMessage"
	EventMessageDelivered = "messageDelivered"
	EventMessagesRead     = "messagesRead"
	EventResetUnread      = "resetUnread"
	EventError            = "error"
)

// Event is the JSON envelope used in both directions on the socket.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEvent builds an outbound envelope; data may be nil.
func NewEvent(name string, data any) (Event, error) {
	if data == nil {
		return Event{Event: name}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{Event: name, Data: raw}, nil
}

// SendMessagePayload is the sendMessage request body.
type SendMessagePayload struct {
	Receiver uuid.UUID `json:"receiver"`
	Message  string    `json:"message"`
}

// ReadMessagesPayload names the counterpart whose messages were viewed.
type ReadMessagesPayload struct {
	FromUserID uuid.UUID `json:"fromUserId"`
}

// TypingTargetPayload names the user a typing indicator is addressed to.
type TypingTargetPayload struct {
	ReceiverID uuid.UUID `json:"receiverId"`
}

// MessageDeliveredPayload confirms a single message reached an online receiver.
type MessageDeliveredPayload struct {
	MessageID uuid.UUID `json:"messageId"`
}

// MessagesReadPayload tells a sender who viewed their messages.
type MessagesReadPayload struct {
	By uuid.UUID `json:"by"`
}

// ResetUnreadPayload tells the reader's other sessions to clear a badge.
type ResetUnreadPayload struct {
	From uuid.UUID `json:"from"`
}

// TypingPayload names the user a typing indicator originates from.
type TypingPayload struct {
	From uuid.UUID `json:"from"`
}

// ErrorPayload reports a per-event failure to the originating session only.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
