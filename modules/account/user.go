package account

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. PasswordHash is nil for accounts that
// never set a password.
type User struct {
	ID               uuid.UUID
	Email            string
	Name             string
	PasswordHash     *string
	TwoFactorEnabled bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Profile is the public view of a user returned by /me.
type Profile struct {
	ID                   uuid.UUID `json:"id"`
	Email                string    `json:"email"`
	Name                 string    `json:"name"`
	HasPassword          bool      `json:"hasPassword"`
	TwoFactorEnabled     bool      `json:"twoFactorEnabled"`
	TwoFactorState       string    `json:"twoFactorState"`
	BackupCodesRemaining int       `json:"backupCodesRemaining"`
	CreatedAt            time.Time `json:"createdAt"`
}
