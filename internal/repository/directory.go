package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/codecommunity/chat-server/internal/model"
)

// Directory resolves user identities. Accounts are owned by the external
// account service; the chat core only reads id, name and role.
type Directory interface {
	// Get loads a single user by ID.
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)

	// Lookup resolves a batch of IDs. Unknown IDs are simply absent from the
	// result, not an error.
	Lookup(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.User, error)

	// ListByRole returns all users with the given role, excluding one ID
	// (pass uuid.Nil to exclude nobody).
	ListByRole(ctx context.Context, role model.Role, excluding uuid.UUID) ([]model.User, error)
}
