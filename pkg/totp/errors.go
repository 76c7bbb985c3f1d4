package totp

import "errors"

var (
	ErrFailedToEncryptSecret        = errors.New("failed to encrypt TOTP secret")
	ErrFailedToDecryptSecret        = errors.New("failed to decrypt TOTP secret")
	ErrInvalidCipherTooShort        = errors.New("cipher text too short")
	ErrFailedToDeriveKey            = errors.New("failed to derive encryption key")
	ErrInvalidEncryptionKeyLength   = errors.New("invalid encryption key length")
	ErrEncryptionKeyNotSet          = errors.New("TOTP encryption key not set")
	ErrFailedToGenerateSecretKey    = errors.New("failed to generate TOTP secret key")
	ErrFailedToGenerateTOTP         = errors.New("failed to generate TOTP")
	ErrMissingSecret                = errors.New("missing secret")
	ErrInvalidSecret                = errors.New("invalid secret")
	ErrMissingAccountName           = errors.New("missing account name")
	ErrMissingIssuer                = errors.New("missing issuer")
	ErrInvalidBackupCodeCount       = errors.New("invalid backup code count, must be greater than 0")
	ErrFailedToGenerateBackupCode   = errors.New("failed to generate backup code")
	ErrFailedToGenerateEncodedKey   = errors.New("failed to generate encoded encryption key")
	ErrInsecureFallbackKeyInUse     = errors.New("TOTP encryption key is the insecure fallback value")
)
