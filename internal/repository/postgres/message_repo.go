package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/codecommunity/chat-server/internal/errs"
	"github.com/codecommunity/chat-server/internal/model"
)

// MessageRepo implements MessageRepository using PostgreSQL.
type MessageRepo struct{ db *DB }

// NewMessageRepo constructs a message repository.
func NewMessageRepo(db *DB) *MessageRepo { return &MessageRepo{db: db} }

// Create inserts a new message row with delivered=false, read=false.
func (r *MessageRepo) Create(ctx context.Context, senderID, receiverID uuid.UUID, body string) (*model.Message, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	const q = `
INSERT INTO messages (id, sender_id, receiver_id, body)
VALUES ($1, $2, $3, $4)
RETURNING created_at`
	m := model.Message{ID: id, SenderID: senderID, ReceiverID: receiverID, Body: body}
	if err := r.db.Pool.QueryRow(ctx, q, id, senderID, receiverID, body).Scan(&m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// MarkDelivered flips delivered on a single message.
func (r *MessageRepo) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	// No error on zero rows: already delivered or unknown id, the flag is
	// monotonic either way.
	const q = `UPDATE messages SET delivered=true WHERE id=$1 AND delivered=false`
	_, err := r.db.Pool.Exec(ctx, q, id)
	return err
}

// MarkAllDelivered flips delivered on every undelivered message addressed to
// receiverID. Filter and update run as one statement so two concurrent
// sweeps cannot both claim the same rows.
func (r *MessageRepo) MarkAllDelivered(ctx context.Context, receiverID uuid.UUID) ([]model.DeliveredReceipt, error) {
	const q = `
UPDATE messages SET delivered=true
WHERE receiver_id=$1 AND delivered=false
RETURNING id, sender_id`
	rows, err := r.db.Pool.Query(ctx, q, receiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DeliveredReceipt
	for rows.Next() {
		var rcpt model.DeliveredReceipt
		if err := rows.Scan(&rcpt.MessageID, &rcpt.SenderID); err != nil {
			return nil, err
		}
		out = append(out, rcpt)
	}
	return out, rows.Err()
}

// MarkRead flips read on every unread message from senderID to receiverID
// and reports how many rows changed.
func (r *MessageRepo) MarkRead(ctx context.Context, senderID, receiverID uuid.UUID) (int64, error) {
	const q = `
UPDATE messages SET read=true
WHERE sender_id=$1 AND receiver_id=$2 AND read=false`
	tag, err := r.db.Pool.Exec(ctx, q, senderID, receiverID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Between returns the full conversation between two users, oldest first.
func (r *MessageRepo) Between(ctx context.Context, a, b uuid.UUID) ([]model.Message, error) {
	const q = `
SELECT id, sender_id, receiver_id, body, delivered, read, created_at
FROM messages
WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
ORDER BY created_at ASC`
	rows, err := r.db.Pool.Query(ctx, q, a, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Body, &m.Delivered, &m.Read, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// LastBetween returns the newest message between two users.
func (r *MessageRepo) LastBetween(ctx context.Context, a, b uuid.UUID) (*model.Message, error) {
	const q = `
SELECT id, sender_id, receiver_id, body, delivered, read, created_at
FROM messages
WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
ORDER BY created_at DESC LIMIT 1`
	row := r.db.Pool.QueryRow(ctx, q, a, b)
	var m model.Message
	if err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Body, &m.Delivered, &m.Read, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// UnreadCount counts unread messages from senderID to receiverID.
func (r *MessageRepo) UnreadCount(ctx context.Context, senderID, receiverID uuid.UUID) (int64, error) {
	const q = `SELECT COUNT(*) FROM messages WHERE sender_id=$1 AND receiver_id=$2 AND read=false`
	var n int64
	if err := r.db.Pool.QueryRow(ctx, q, senderID, receiverID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
