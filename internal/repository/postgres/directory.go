package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/codecommunity/chat-server/internal/errs"
	"github.com/codecommunity/chat-server/internal/model"
)

// DirectoryRepo implements Directory against the users table maintained by
// the account service. Read-only from the chat core's perspective.
type DirectoryRepo struct{ db *DB }

// NewDirectoryRepo constructs a directory repository.
func NewDirectoryRepo(db *DB) *DirectoryRepo { return &DirectoryRepo{db: db} }

// Get loads a user by ID.
func (r *DirectoryRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const q = `SELECT id, name, role FROM users WHERE id=$1`
	row := r.db.Pool.QueryRow(ctx, q, id)
	var u model.User
	if err := row.Scan(&u.ID, &u.Name, &u.Role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Lookup resolves a batch of IDs; unknown IDs are absent from the result.
func (r *DirectoryRepo) Lookup(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.User, error) {
	out := make(map[uuid.UUID]model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	const q = `SELECT id, name, role FROM users WHERE id = ANY($1)`
	rows, err := r.db.Pool.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Role); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

// ListByRole returns all users with the given role, excluding one ID.
func (r *DirectoryRepo) ListByRole(ctx context.Context, role model.Role, excluding uuid.UUID) ([]model.User, error) {
	const q = `SELECT id, name, role FROM users WHERE role=$1 AND id<>$2 ORDER BY name ASC`
	rows, err := r.db.Pool.Query(ctx, q, role, excluding)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Role); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
