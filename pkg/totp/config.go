package totp

// FallbackEncryptionKey is the publicly known key used only when
// Config.AllowInsecureFallback is set and no key is configured.
const FallbackEncryptionKey = "fallback-key"

// Config holds two-factor settings loaded from the environment.
type Config struct {
	EncryptionKey         string `env:"TOTP_ENCRYPTION_KEY"`                             // Key protecting TOTP secrets at rest
	AllowInsecureFallback bool   `env:"TOTP_ALLOW_INSECURE_FALLBACK" envDefault:"false"` // Use FallbackEncryptionKey when no key is set
	Issuer                string `env:"TOTP_ISSUER" envDefault:"CashLens"`               // Issuer shown in authenticator apps
	QRCodeSize            int    `env:"TOTP_QR_SIZE" envDefault:"256"`                   // Enrollment QR image size in pixels
}

// ResolveEncryptionKey returns the key the codec should use.
// Without a configured key it fails unless the insecure fallback was explicitly
// allowed, in which case it returns FallbackEncryptionKey together with
// ErrInsecureFallbackKeyInUse so the caller can log a warning and continue.
func (c Config) ResolveEncryptionKey() (string, error) {
	if c.EncryptionKey != "" {
		return c.EncryptionKey, nil
	}
	if c.AllowInsecureFallback {
		return FallbackEncryptionKey, ErrInsecureFallbackKeyInUse
	}
	return "", ErrEncryptionKeyNotSet
}
