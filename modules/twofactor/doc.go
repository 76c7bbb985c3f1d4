// Package twofactor implements TOTP two-factor authentication for user
// accounts: enrollment, login-time verification, backup codes and removal.
//
// The enrollment state is derived from the stored credential on every call:
//
//	disabled --begin_setup--> pending --verify_setup--> enabled --disable--> disabled
//
// Each change runs through a statemachine.Machine inside one
// Storage.UpdateCredential call, so the read-decide-write sequence for a
// user is serialized and a rejected attempt never writes anything.
//
// Secrets are stored encrypted by totp.Codec; backup codes are stored as
// SHA-256 hashes and shown in plaintext exactly once.
package twofactor
