package twofactor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cashlens/cashlens/pkg/pg"
)

const selectCredential = `
SELECT id, email, name, password_hash, two_factor_secret, two_factor_enabled, two_factor_backup_codes
FROM users
WHERE id = $1`

const updateCredential = `
UPDATE users
SET two_factor_secret = $2,
    two_factor_enabled = $3,
    two_factor_backup_codes = $4,
    updated_at = now()
WHERE id = $1`

// DB is what PGStorage needs from a pool.
type DB interface {
	pg.DBTX
	pg.TxBeginner
}

// PGStorage stores credentials in the users table.
type PGStorage struct {
	db DB
}

// NewPGStorage creates a Postgres-backed Storage.
func NewPGStorage(db DB) *PGStorage {
	return &PGStorage{db: db}
}

func (s *PGStorage) GetCredential(ctx context.Context, userID uuid.UUID) (*Credential, error) {
	return scanCredential(s.db.QueryRow(ctx, selectCredential, userID))
}

// UpdateCredential serializes concurrent changes with SELECT ... FOR UPDATE.
func (s *PGStorage) UpdateCredential(ctx context.Context, userID uuid.UUID, fn func(*Credential) error) error {
	return pg.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		cred, err := scanCredential(tx.QueryRow(ctx, selectCredential+" FOR UPDATE", userID))
		if err != nil {
			return err
		}
		if err := fn(cred); err != nil {
			return err
		}
		hashes := cred.BackupCodeHashes
		if hashes == nil {
			hashes = []string{}
		}
		if _, err := tx.Exec(ctx, updateCredential, userID, cred.SecretCiphertext, cred.Enabled, hashes); err != nil {
			return fmt.Errorf("update two-factor credential: %w", err)
		}
		return nil
	})
}

func scanCredential(row pgx.Row) (*Credential, error) {
	var c Credential
	err := row.Scan(&c.UserID, &c.Email, &c.Name, &c.PasswordHash,
		&c.SecretCiphertext, &c.Enabled, &c.BackupCodeHashes)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load two-factor credential: %w", err)
	}
	return &c, nil
}
