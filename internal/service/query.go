package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/codecommunity/chat-server/internal/errs"
	"github.com/codecommunity/chat-server/internal/model"
	"github.com/codecommunity/chat-server/internal/repository"
)

// QueryService serves the conversation read side: counterpart listings and
// full history between two users.
type QueryService interface {
	// Counterparts lists every user of the opposite role, annotated with the
	// last message exchanged and the caller's unread count.
	Counterparts(ctx context.Context, currentID uuid.UUID) ([]model.Counterpart, error)
	// History returns the full conversation between two users, oldest first.
	History(ctx context.Context, currentID, otherID uuid.UUID) ([]model.EnrichedMessage, error)
}

type QueryServiceImpl struct {
	messages repository.MessageRepository
	dir      repository.Directory
}

// NewQueryService constructs QueryService.
func NewQueryService(messages repository.MessageRepository, dir repository.Directory) *QueryServiceImpl {
	return &QueryServiceImpl{messages: messages, dir: dir}
}

// Counterparts never fails the whole listing because one pair has no
// conversation yet; such entries carry nil last-message fields and zero
// unread count.
func (s *QueryServiceImpl) Counterparts(ctx context.Context, currentID uuid.UUID) ([]model.Counterpart, error) {
	if currentID == uuid.Nil {
		return nil, errors.New("validation: empty user")
	}
	current, err := s.dir.Get(ctx, currentID)
	if err != nil {
		return nil, fmt.Errorf("resolve caller: %w", err)
	}
	users, err := s.dir.ListByRole(ctx, current.Role.Opposite(), currentID)
	if err != nil {
		return nil, fmt.Errorf("list counterparts: %w", err)
	}

	out := make([]model.Counterpart, 0, len(users))
	for _, u := range users {
		cp := model.Counterpart{User: u}

		last, err := s.messages.LastBetween(ctx, currentID, u.ID)
		switch {
		case err == nil:
			cp.LastMessage = &last.Body
			cp.LastMessageAt = &last.CreatedAt
		case errors.Is(err, errs.ErrNotFound):
			// no conversation yet
		default:
			return nil, fmt.Errorf("last message for %s: %w", u.ID, err)
		}

		unread, err := s.messages.UnreadCount(ctx, u.ID, currentID)
		if err != nil {
			return nil, fmt.Errorf("unread count for %s: %w", u.ID, err)
		}
		cp.UnreadCount = unread

		out = append(out, cp)
	}
	return out, nil
}

// History enriches both endpoints once and maps every message through them.
func (s *QueryServiceImpl) History(ctx context.Context, currentID, otherID uuid.UUID) ([]model.EnrichedMessage, error) {
	if currentID == uuid.Nil || otherID == uuid.Nil {
		return nil, errors.New("validation: empty user")
	}
	msgs, err := s.messages.Between(ctx, currentID, otherID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	users, err := s.dir.Lookup(ctx, []uuid.UUID{currentID, otherID})
	if err != nil {
		return nil, fmt.Errorf("resolve users: %w", err)
	}
	resolve := func(id uuid.UUID) model.User {
		if u, ok := users[id]; ok {
			return u
		}
		return model.User{ID: id}
	}

	out := make([]model.EnrichedMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, model.EnrichedMessage{
			ID:        m.ID,
			Sender:    resolve(m.SenderID),
			Receiver:  resolve(m.ReceiverID),
			Body:      m.Body,
			Delivered: m.Delivered,
			Read:      m.Read,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}
