package totp

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pquerna/otp"
	pqtotp "github.com/pquerna/otp/totp"
)

const (
	DefaultDigits    = 6      // Standard 6-digit TOTP codes
	DefaultPeriod    = 30     // 30-second validity window (RFC 6238 standard)
	DefaultAlgorithm = "SHA1" // HMAC-SHA1 algorithm (RFC 6238 standard)
	DefaultSkew      = 1      // Accept one step either side of the current one
)

var (
	// secretPattern matches Base32 secrets: uppercase A-Z, digits 2-7, optional padding.
	secretPattern = regexp.MustCompile("^[A-Z2-7]+=*$")
	codePattern   = regexp.MustCompile(`^\d{6}$`)

	validateOpts = pqtotp.ValidateOpts{
		Period:    DefaultPeriod,
		Skew:      DefaultSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
)

// URIParams contains the parameters for otpauth URI generation.
type URIParams struct {
	Secret      string // Base32-encoded TOTP secret key (required)
	AccountName string // User identifier like email (required)
	Issuer      string // Service name displayed in authenticator apps (required)
}

// Validate ensures all required parameters are present and valid.
func (p URIParams) Validate() error {
	if p.Secret == "" {
		return ErrMissingSecret
	}
	if !secretPattern.MatchString(p.Secret) {
		return ErrInvalidSecret
	}
	if p.AccountName == "" {
		return ErrMissingAccountName
	}
	if p.Issuer == "" {
		return ErrMissingIssuer
	}
	return nil
}

// GenerateSecretKey generates a new Base32-encoded secret key for TOTP.
func GenerateSecretKey() (string, error) {
	secret := make([]byte, 20) // 160-bit secret (RFC 4226 recommendation)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecretKey, err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret), nil
}

// BuildURI creates an otpauth:// URI for authenticator apps following the
// Key Uri Format: https://github.com/google/google-authenticator/wiki/Key-Uri-Format
func BuildURI(params URIParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	label := fmt.Sprintf("%s:%s",
		url.PathEscape(params.Issuer),
		url.PathEscape(params.AccountName),
	)

	query := url.Values{}
	query.Set("secret", params.Secret)
	query.Set("issuer", params.Issuer)
	query.Set("algorithm", DefaultAlgorithm)
	query.Set("digits", strconv.Itoa(DefaultDigits))
	query.Set("period", strconv.Itoa(DefaultPeriod))

	return fmt.Sprintf("otpauth://totp/%s?%s", label, query.Encode()), nil
}

// Verify reports whether code is valid for secret at the current time.
func Verify(secret, code string) bool {
	return VerifyAt(secret, code, time.Now())
}

// VerifyAt reports whether code is valid for secret at t, accepting the
// previous, current and next 30-second step. Malformed input is never valid.
func VerifyAt(secret, code string, t time.Time) bool {
	secret = normalizeSecret(secret)
	code = strings.TrimSpace(code)
	if !secretPattern.MatchString(secret) || !codePattern.MatchString(code) {
		return false
	}
	ok, err := pqtotp.ValidateCustom(code, secret, t, validateOpts)
	return err == nil && ok
}

// GenerateCode returns the code for the current step.
func GenerateCode(secret string) (string, error) {
	return GenerateCodeAt(secret, time.Now())
}

// GenerateCodeAt returns the code for the 30-second step containing t.
func GenerateCodeAt(secret string, t time.Time) (string, error) {
	secret = normalizeSecret(secret)
	if !secretPattern.MatchString(secret) {
		return "", ErrInvalidSecret
	}
	code, err := pqtotp.GenerateCodeCustom(secret, t, validateOpts)
	if err != nil {
		return "", errors.Join(ErrFailedToGenerateTOTP, err)
	}
	return code, nil
}

// ValidSecret reports whether secret is a usable Base32 TOTP secret.
// Case and surrounding whitespace are ignored as in VerifyAt.
func ValidSecret(secret string) bool {
	return secretPattern.MatchString(normalizeSecret(secret))
}

func normalizeSecret(secret string) string {
	return strings.ToUpper(strings.TrimSpace(secret))
}
