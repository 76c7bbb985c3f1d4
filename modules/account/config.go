package account

import "time"

// Config holds token settings loaded from the environment.
type Config struct {
	SigningKey        string        `env:"JWT_SIGNING_KEY,required"`                 // HS256 key, at least 32 bytes
	Issuer            string        `env:"JWT_ISSUER" envDefault:"cashlens"`         // iss claim of every token
	AccessTokenTTL    time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"24h"`        // Lifetime of access tokens
	ChallengeTokenTTL time.Duration `env:"TWO_FACTOR_CHALLENGE_TTL" envDefault:"5m"` // Lifetime of the 2FA challenge after the password step
	BcryptCost        int           `env:"BCRYPT_COST" envDefault:"12"`              // bcrypt work factor for new passwords
}
