package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUserNotFound is returned by lookups when no row matches.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines persistence operations for users. Username
// uniqueness is enforced by the store; Create surfaces a violation as an
// ordinary error.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, user *User) error
}

// PgUserRepository implements UserRepository using pgxpool.
type PgUserRepository struct {
	db *pgxpool.Pool
}

func NewPgUserRepository(db *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{db: db}
}

func (r *PgUserRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	const q = `SELECT id, username, password_hash, created_at FROM users WHERE username=$1`
	var u User
	if err := r.db.QueryRow(ctx, q, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PgUserRepository) Create(ctx context.Context, user *User) error {
	const q = `INSERT INTO users (id, username, password_hash, created_at) VALUES ($1,$2,$3,$4)`
	_, err := r.db.Exec(ctx, q, user.ID, user.Username, user.PasswordHash, user.CreatedAt)
	return err
}
