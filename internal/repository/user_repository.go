package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// UserRepo reads users together with their display profile.  The
// reservation engine never writes users; registration lives elsewhere.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// GetUser fetches a user by id joined with user_infos.  A user without a
// profile row yields empty name fields.  Returns ErrNotFound when the id
// is unknown.
func (r *UserRepo) GetUser(ctx context.Context, id uint64) (model.User, error) {
	const q = `SELECT u.id, u.email, u.role, u.is_active,
	                  COALESCE(ui.name, ''), COALESCE(ui.lastname, ''), COALESCE(ui.address, ''),
	                  u.created_at
	           FROM users u
	           LEFT JOIN user_infos ui ON ui.user_id = u.id
	           WHERE u.id = ?
	           LIMIT 1`
	var u model.User
	var role string
	err := r.DB.QueryRowContext(ctx, q, id).Scan(
		&u.ID, &u.Email, &role, &u.IsActive,
		&u.Name, &u.Lastname, &u.Address,
		&u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	return u, nil
}
