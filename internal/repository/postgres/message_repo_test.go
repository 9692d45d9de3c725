package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/codecommunity/chat-server/internal/errs"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func TestMessageRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewMessageRepo(db)
	ctx := context.Background()

	sender := uuid.Must(uuid.NewV4())
	receiver := uuid.Must(uuid.NewV4())
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO messages \(id, sender_id, receiver_id, body\) VALUES \(\$1, \$2, \$3, \$4\) RETURNING created_at`).
		WithArgs(pgxmock.AnyArg(), sender, receiver, "hi").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

	m, err := r.Create(ctx, sender, receiver, "hi")
	require.NoError(t, err)
	require.Equal(t, sender, m.SenderID)
	require.Equal(t, receiver, m.ReceiverID)
	require.Equal(t, "hi", m.Body)
	require.False(t, m.Delivered)
	require.False(t, m.Read)
	require.Equal(t, now, m.CreatedAt)
	require.NotEqual(t, uuid.Nil, m.ID)
}

func TestMessageRepo_MarkDelivered_NoRowsIsNotAnError(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewMessageRepo(db)
	id := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`UPDATE messages SET delivered=true WHERE id=\$1 AND delivered=false`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.NoError(t, r.MarkDelivered(context.Background(), id))
}

func TestMessageRepo_MarkAllDelivered(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewMessageRepo(db)
	ctx := context.Background()

	receiver := uuid.Must(uuid.NewV4())
	m1 := uuid.Must(uuid.NewV4())
	m2 := uuid.Must(uuid.NewV4())
	s1 := uuid.Must(uuid.NewV4())
	s2 := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`UPDATE messages SET delivered=true WHERE receiver_id=\$1 AND delivered=false RETURNING id, sender_id`).
		WithArgs(receiver).
		WillReturnRows(pgxmock.NewRows([]string{"id", "sender_id"}).AddRow(m1, s1).AddRow(m2, s2))

	receipts, err := r.MarkAllDelivered(ctx, receiver)
	require.NoError(t, err)
	require.Len(t, receipts, 2)
	require.Equal(t, m1, receipts[0].MessageID)
	require.Equal(t, s1, receipts[0].SenderID)

	// Nothing pending: the same sweep returns no receipts.
	mock.ExpectQuery(`UPDATE messages SET delivered=true WHERE receiver_id=\$1 AND delivered=false RETURNING id, sender_id`).
		WithArgs(receiver).
		WillReturnRows(pgxmock.NewRows([]string{"id", "sender_id"}))
	receipts, err = r.MarkAllDelivered(ctx, receiver)
	require.NoError(t, err)
	require.Empty(t, receipts)
}

func TestMessageRepo_MarkRead(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewMessageRepo(db)
	ctx := context.Background()

	sender := uuid.Must(uuid.NewV4())
	receiver := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`UPDATE messages SET read=true WHERE sender_id=\$1 AND receiver_id=\$2 AND read=false`).
		WithArgs(sender, receiver).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))
	n, err := r.MarkRead(ctx, sender, receiver)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	mock.ExpectExec(`UPDATE messages SET read=true WHERE sender_id=\$1 AND receiver_id=\$2 AND read=false`).
		WithArgs(sender, receiver).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	n, err = r.MarkRead(ctx, sender, receiver)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestMessageRepo_Between_Order(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewMessageRepo(db)

	a := uuid.Must(uuid.NewV4())
	b := uuid.Must(uuid.NewV4())
	m1 := uuid.Must(uuid.NewV4())
	m2 := uuid.Must(uuid.NewV4())
	t1 := time.Now().Add(-time.Minute)
	t2 := time.Now()

	mock.ExpectQuery(`SELECT id, sender_id, receiver_id, body, delivered, read, created_at FROM messages WHERE \(sender_id=\$1 AND receiver_id=\$2\) OR \(sender_id=\$2 AND receiver_id=\$1\) ORDER BY created_at ASC`).
		WithArgs(a, b).
		WillReturnRows(pgxmock.NewRows([]string{"id", "sender_id", "receiver_id", "body", "delivered", "read", "created_at"}).
			AddRow(m1, a, b, "first", true, true, t1).
			AddRow(m2, b, a, "second", true, false, t2))

	msgs, err := r.Between(context.Background(), a, b)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "first", msgs[0].Body)
	require.Equal(t, "second", msgs[1].Body)
	require.True(t, msgs[0].CreatedAt.Before(msgs[1].CreatedAt))
}

func TestMessageRepo_LastBetween_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewMessageRepo(db)

	a := uuid.Must(uuid.NewV4())
	b := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`SELECT id, sender_id, receiver_id, body, delivered, read, created_at FROM messages WHERE \(sender_id=\$1 AND receiver_id=\$2\) OR \(sender_id=\$2 AND receiver_id=\$1\) ORDER BY created_at DESC LIMIT 1`).
		WithArgs(a, b).
		WillReturnError(pgx.ErrNoRows)

	_, err := r.LastBetween(context.Background(), a, b)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestMessageRepo_UnreadCount(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewMessageRepo(db)

	sender := uuid.Must(uuid.NewV4())
	receiver := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM messages WHERE sender_id=\$1 AND receiver_id=\$2 AND read=false`).
		WithArgs(sender, receiver).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(5)))

	n, err := r.UnreadCount(context.Background(), sender, receiver)
	require.NoError(t, err)
	require.EqualValues(t, 5, n)
}
