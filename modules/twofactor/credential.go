package twofactor

import (
	"github.com/google/uuid"
)

// State is the enrollment state derived from a Credential.
type State string

const (
	StateDisabled State = "disabled"
	StatePending  State = "pending"
	StateEnabled  State = "enabled"
)

// Credential is the two-factor part of a user record plus the fields needed
// to authorize changes and address notifications.
type Credential struct {
	UserID           uuid.UUID
	Email            string
	Name             string
	PasswordHash     *string  // nil for accounts without a password
	SecretCiphertext *string  // nil when never set up or disabled
	Enabled          bool     // only true after a verified code
	BackupCodeHashes []string // unused backup codes, in issue order
}

// State derives the enrollment state. A stored secret without enabled means
// setup began but was never verified.
func (c *Credential) State() State {
	switch {
	case c.Enabled:
		return StateEnabled
	case c.SecretCiphertext != nil:
		return StatePending
	default:
		return StateDisabled
	}
}

// HasPassword reports whether the account can re-authenticate with a password.
func (c *Credential) HasPassword() bool {
	return c.PasswordHash != nil && *c.PasswordHash != ""
}

func (c *Credential) clear() {
	c.SecretCiphertext = nil
	c.Enabled = false
	c.BackupCodeHashes = []string{}
}
