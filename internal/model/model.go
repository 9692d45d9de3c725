// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Role classifies marketplace accounts. Clients hire developers; a chat pair
// always connects users of opposite roles.
type Role string

const (
	RoleClient    Role = "client"
	RoleDeveloper Role = "developer"
	RoleAdmin     Role = "admin"
)

// Opposite returns the counterpart role for conversation listings.
// Admin has no counterpart and maps to itself.
func (r Role) Opposite() Role {
	switch r {
	case RoleClient:
		return RoleDeveloper
	case RoleDeveloper:
		return RoleClient
	default:
		return r
	}
}

// User is a directory entry. Accounts are owned by the account service; the
// chat core only reads id, display name and role.
type User struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Role Role      `json:"role"`
}

// Message is one direct message between two users. Delivered and Read start
// false and only ever transition to true.
type Message struct {
	ID         uuid.UUID
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Body       string
	Delivered  bool
	Read       bool
	CreatedAt  time.Time
}

// EnrichedMessage is a Message with sender/receiver resolved to directory
// entries: the shape pushed to connected sessions and returned by history.
type EnrichedMessage struct {
	ID        uuid.UUID `json:"id"`
	Sender    User      `json:"sender"`
	Receiver  User      `json:"receiver"`
	Body      string    `json:"message"`
	Delivered bool      `json:"delivered"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// DeliveredReceipt reports one message flipped to delivered by a catch-up
// sweep, so the original sender can be notified.
type DeliveredReceipt struct {
	MessageID uuid.UUID
	SenderID  uuid.UUID
}

// Counterpart is a chat partner candidate annotated with conversation state.
// LastMessage/LastMessageAt are nil when the pair never exchanged messages.
type Counterpart struct {
	User          User       `json:"user"`
	LastMessage   *string    `json:"lastMessage"`
	LastMessageAt *time.Time `json:"lastMessageTime"`
	UnreadCount   int64      `json:"unreadCount"`
}
