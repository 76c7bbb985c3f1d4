package account

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cashlens/cashlens/pkg/pg"
)

const userColumns = `id, email, name, password_hash, two_factor_enabled, created_at, updated_at`

const emailConstraint = "users_email_key"

// PGStorage stores users in Postgres.
type PGStorage struct {
	db pg.DBTX
}

// NewPGStorage creates a Postgres-backed Storage.
func NewPGStorage(db pg.DBTX) *PGStorage {
	return &PGStorage{db: db}
}

func (s *PGStorage) CreateUser(ctx context.Context, u *User) error {
	row := s.db.QueryRow(ctx, `
INSERT INTO users (id, email, name, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING created_at, updated_at`, u.ID, u.Email, u.Name, u.PasswordHash)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		if pg.IsDuplicateKeyError(err) && pg.ConstraintName(err) == emailConstraint {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PGStorage) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (s *PGStorage) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.TwoFactorEnabled, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &u, nil
}
