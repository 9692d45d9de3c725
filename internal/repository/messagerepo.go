// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/codecommunity/chat-server/internal/model"
)

// MessageRepository provides durable access to direct messages.
// Delivered/read transitions are monotonic: flags only ever flip to true.
type MessageRepository interface {
	// Create persists a new message and returns it with ID and CreatedAt set.
	Create(ctx context.Context, senderID, receiverID uuid.UUID, body string) (*model.Message, error)

	// MarkDelivered flips the delivered flag on a single message.
	MarkDelivered(ctx context.Context, id uuid.UUID) error

	// MarkAllDelivered flips delivered on every undelivered message addressed
	// to receiverID in one statement and returns a receipt per affected row.
	MarkAllDelivered(ctx context.Context, receiverID uuid.UUID) ([]model.DeliveredReceipt, error)

	// MarkRead flips read on every unread message from senderID to receiverID
	// in one statement and returns the number of affected rows.
	MarkRead(ctx context.Context, senderID, receiverID uuid.UUID) (int64, error)

	// Between returns all messages exchanged between the two users,
	// ordered by creation time ascending.
	Between(ctx context.Context, a, b uuid.UUID) ([]model.Message, error)

	// LastBetween returns the most recent message exchanged between the two
	// users, or errs.ErrNotFound when the pair has no conversation.
	LastBetween(ctx context.Context, a, b uuid.UUID) (*model.Message, error)

	// UnreadCount counts messages from senderID to receiverID with read=false.
	UnreadCount(ctx context.Context, senderID, receiverID uuid.UUID) (int64, error)
}
