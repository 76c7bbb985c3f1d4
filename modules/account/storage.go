package account

import (
	"context"

	"github.com/google/uuid"
)

// Storage persists users. Lookups by email expect the normalized form.
type Storage interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
}
