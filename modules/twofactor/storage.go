package twofactor

import (
	"context"

	"github.com/google/uuid"
)

// Storage persists credentials.
//
// UpdateCredential loads the credential for userID, locks it for the duration
// of the call and passes it to fn. Changes made by fn are saved only when fn
// returns nil; on error nothing is written and the error is returned as is.
// Missing users yield ErrUserNotFound.
type Storage interface {
	GetCredential(ctx context.Context, userID uuid.UUID) (*Credential, error)
	UpdateCredential(ctx context.Context, userID uuid.UUID, fn func(*Credential) error) error
}
