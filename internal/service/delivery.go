// Package service contains application services for message delivery and
// conversation queries.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/codecommunity/chat-server/internal/errs"
	"github.com/codecommunity/chat-server/internal/model"
	"github.com/codecommunity/chat-server/internal/realtime"
	"github.com/codecommunity/chat-server/internal/repository"
)

// Presence exposes the registry operations the delivery engine needs.
// Implemented by *realtime.Registry.
type Presence interface {
	SessionsFor(userID uuid.UUID) []realtime.Session
	IsOnline(userID uuid.UUID) bool
}

// DeliveryService is the message state machine: it persists sends, fans them
// out to live sessions and drives the delivered/read flag transitions.
type DeliveryService interface {
	// Send validates, persists and fans out one message, then flips its
	// delivered flag if the receiver is online.
	Send(ctx context.Context, senderID, receiverID uuid.UUID, body string) (*model.EnrichedMessage, error)
	// MarkDelivered sweeps every undelivered message addressed to receiverID
	// and notifies each original sender.
	MarkDelivered(ctx context.Context, receiverID uuid.UUID) error
	// MarkRead sweeps unread messages from fromID to readerID; on change it
	// notifies the sender and the reader's own other sessions.
	MarkRead(ctx context.Context, readerID, fromID uuid.UUID) error
	// Typing relays a typing indicator to the receiver's sessions, best-effort.
	Typing(fromID, toID uuid.UUID, stopped bool)
}

type DeliveryServiceImpl struct {
	messages repository.MessageRepository
	dir      repository.Directory
	presence Presence
	log      *zap.Logger
}

// NewDeliveryService constructs DeliveryService with required dependencies.
func NewDeliveryService(messages repository.MessageRepository, dir repository.Directory, presence Presence, log *zap.Logger) *DeliveryServiceImpl {
	return &DeliveryServiceImpl{messages: messages, dir: dir, presence: presence, log: log}
}

// Send persists the message before any fan-out. The pushed payload carries
// delivered=false even when the receiver is online; the sender learns about
// delivery through the separate messageDelivered event.
func (s *DeliveryServiceImpl) Send(ctx context.Context, senderID, receiverID uuid.UUID, body string) (*model.EnrichedMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, errs.ErrEmptyMessage
	}
	if senderID == uuid.Nil || receiverID == uuid.Nil {
		return nil, errors.New("validation: empty sender/receiver")
	}

	msg, err := s.messages.Create(ctx, senderID, receiverID, body)
	if err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	enriched, err := s.enrich(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("enrich message: %w", err)
	}

	targets := s.presence.SessionsFor(senderID)
	if receiverID != senderID {
		targets = append(targets, s.presence.SessionsFor(receiverID)...)
	}
	s.push(targets, realtime.EventReceiveMessage, enriched)

	if s.presence.IsOnline(receiverID) {
		if err := s.messages.MarkDelivered(ctx, msg.ID); err != nil {
			// Fan-out already happened; the flag flip is retried by the
			// receiver's next markDelivered sweep.
			s.log.Warn("mark delivered after send", zap.String("messageID", msg.ID.String()), zap.Error(err))
		} else {
			s.push(s.presence.SessionsFor(senderID), realtime.EventMessageDelivered,
				realtime.MessageDeliveredPayload{MessageID: msg.ID})
		}
	}
	return enriched, nil
}

// MarkDelivered runs the catch-up sweep for a user whose connection just
// opened, confirming delivery to each original sender. Idempotent.
func (s *DeliveryServiceImpl) MarkDelivered(ctx context.Context, receiverID uuid.UUID) error {
	if receiverID == uuid.Nil {
		return errors.New("validation: empty receiver")
	}
	receipts, err := s.messages.MarkAllDelivered(ctx, receiverID)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	for _, rcpt := range receipts {
		s.push(s.presence.SessionsFor(rcpt.SenderID), realtime.EventMessageDelivered,
			realtime.MessageDeliveredPayload{MessageID: rcpt.MessageID})
	}
	return nil
}

// MarkRead flips read flags for one conversation direction. Signals fire
// only when at least one row changed, so a repeated sweep stays silent.
func (s *DeliveryServiceImpl) MarkRead(ctx context.Context, readerID, fromID uuid.UUID) error {
	if readerID == uuid.Nil || fromID == uuid.Nil {
		return errors.New("validation: empty reader/sender")
	}
	n, err := s.messages.MarkRead(ctx, fromID, readerID)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if n == 0 {
		return nil
	}
	s.push(s.presence.SessionsFor(fromID), realtime.EventMessagesRead,
		realtime.MessagesReadPayload{By: readerID})
	s.push(s.presence.SessionsFor(readerID), realtime.EventResetUnread,
		realtime.ResetUnreadPayload{From: fromID})
	return nil
}

// Typing relays a typing or stop-typing indicator. No persistence, no
// delivery guarantee; dropped silently when the target is offline.
func (s *DeliveryServiceImpl) Typing(fromID, toID uuid.UUID, stopped bool) {
	name := realtime.EventTyping
	if stopped {
		name = realtime.EventStopTyping
	}
	s.push(s.presence.SessionsFor(toID), name, realtime.TypingPayload{From: fromID})
}

func (s *DeliveryServiceImpl) enrich(ctx context.Context, m *model.Message) (*model.EnrichedMessage, error) {
	users, err := s.dir.Lookup(ctx, []uuid.UUID{m.SenderID, m.ReceiverID})
	if err != nil {
		return nil, err
	}
	sender, ok := users[m.SenderID]
	if !ok {
		sender = model.User{ID: m.SenderID}
	}
	receiver, ok := users[m.ReceiverID]
	if !ok {
		receiver = model.User{ID: m.ReceiverID}
	}
	return &model.EnrichedMessage{
		ID:        m.ID,
		Sender:    sender,
		Receiver:  receiver,
		Body:      m.Body,
		Delivered: m.Delivered,
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	}, nil
}

func (s *DeliveryServiceImpl) push(sessions []realtime.Session, name string, data any) {
	if len(sessions) == 0 {
		return
	}
	evt, err := realtime.NewEvent(name, data)
	if err != nil {
		s.log.Error("encode event", zap.String("event", name), zap.Error(err))
		return
	}
	for _, sess := range sessions {
		if err := sess.Send(evt); err != nil {
			s.log.Debug("push to session",
				zap.String("event", name),
				zap.String("sessionID", sess.ID()),
				zap.Error(err),
			)
		}
	}
}
