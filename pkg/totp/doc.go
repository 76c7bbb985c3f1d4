// Package totp implements the building blocks of TOTP based two-factor authentication.
//
// It covers three areas:
//
//   - codec.go encrypts secrets at rest with AES-256-GCM under a key derived
//     with HKDF-SHA-256 from the configured TOTP_ENCRYPTION_KEY.
//   - otp.go generates Base32 secrets, builds otpauth:// URIs and verifies
//     6-digit, 30-second, SHA1 codes with a one-step skew (github.com/pquerna/otp).
//   - recovery.go issues, hashes and consumes single-use backup codes.
//
// # Usage
//
//	codec, err := totp.NewCodec(cfg.EncryptionKey)
//	if err != nil {
//	    return err
//	}
//
//	secret, _ := totp.GenerateSecretKey()
//	encrypted, _ := codec.Encrypt(secret)
//	uri, _ := totp.BuildURI(totp.URIParams{
//	    Secret:      secret,
//	    AccountName: "user@example.com",
//	    Issuer:      cfg.Issuer,
//	})
//
//	codes, _ := totp.GenerateBackupCodes(totp.BackupCodeCount)
//	stored := totp.HashBackupCodes(codes)
//
//	// later
//	remaining, ok := totp.VerifyAndConsume(input, stored)
//
// Configuration is read with github.com/caarlos0/env through pkg/config.
// A missing TOTP_ENCRYPTION_KEY is an error unless TOTP_ALLOW_INSECURE_FALLBACK
// is set, in which case Config.ResolveEncryptionKey returns FallbackEncryptionKey
// together with ErrInsecureFallbackKeyInUse.
package totp
