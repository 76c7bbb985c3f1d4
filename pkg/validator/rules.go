package validator

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Required fails for empty or whitespace-only strings.
func Required(field, value string) Rule {
	return newRule(field, "field is required", func() bool {
		return strings.TrimSpace(value) != ""
	})
}

// MaxLen limits the length in characters, not bytes.
func MaxLen(field, value string, max int) Rule {
	return newRule(field, fmt.Sprintf("must be at most %d characters long", max), func() bool {
		return utf8.RuneCountInString(value) <= max
	})
}

// LenBetween bounds the length in characters.
func LenBetween(field, value string, min, max int) Rule {
	return newRule(field, fmt.Sprintf("must be between %d and %d characters long", min, max), func() bool {
		n := utf8.RuneCountInString(value)
		return n >= min && n <= max
	})
}

// ValidEmail accepts a bare address with a dotted domain.
func ValidEmail(field, value string) Rule {
	return newRule(field, "must be a valid email address", func() bool {
		addr, err := mail.ParseAddress(value)
		if err != nil || addr.Address != strings.TrimSpace(value) {
			return false
		}
		local, domain, ok := strings.Cut(addr.Address, "@")
		if !ok || local == "" {
			return false
		}
		for part := range strings.SplitSeq(domain, ".") {
			if part == "" {
				return false
			}
		}
		return strings.Contains(domain, ".")
	})
}

// PasswordStrengthConfig sets the password policy checked by StrongPassword.
type PasswordStrengthConfig struct {
	MinLength      int
	MaxLength      int
	MinCharClasses int // Of lower case, upper case, digits and symbols
}

// DefaultPasswordStrength is 8 to 128 characters from at least two classes.
func DefaultPasswordStrength() PasswordStrengthConfig {
	return PasswordStrengthConfig{MinLength: 8, MaxLength: 128, MinCharClasses: 2}
}

// StrongPassword checks value against cfg, counting length in runes.
func StrongPassword(field, value string, cfg PasswordStrengthConfig) Rule {
	msg := fmt.Sprintf("must be %d to %d characters and mix at least %d of lower case, upper case, digits and symbols",
		cfg.MinLength, cfg.MaxLength, cfg.MinCharClasses)
	return newRule(field, msg, func() bool {
		n := utf8.RuneCountInString(value)
		if n < cfg.MinLength || n > cfg.MaxLength {
			return false
		}
		var lower, upper, digit, other bool
		for _, r := range value {
			switch {
			case unicode.IsLower(r):
				lower = true
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsDigit(r):
				digit = true
			default:
				other = true
			}
		}
		classes := 0
		for _, b := range []bool{lower, upper, digit, other} {
			if b {
				classes++
			}
		}
		return classes >= cfg.MinCharClasses
	})
}

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "12345678": {}, "123456789": {},
	"1234567890": {}, "qwerty123": {}, "qwertyuiop": {}, "iloveyou1": {}, "letmein1": {},
	"welcome1": {}, "admin123": {}, "abc12345": {}, "passw0rd": {}, "p@ssw0rd": {},
	"11111111": {}, "00000000": {}, "sunshine1": {}, "football1": {}, "monkey123": {},
}

// NotCommonPassword rejects passwords from a short list of the most leaked ones.
func NotCommonPassword(field, value string) Rule {
	return newRule(field, "password is too common, please choose a different one", func() bool {
		_, common := commonPasswords[strings.ToLower(value)]
		return !common
	})
}

// OneOf requires value to be one of allowed.
func OneOf[T comparable](field string, value T, allowed ...T) Rule {
	return newRule(field, fmt.Sprintf("must be one of: %v", allowed), func() bool {
		for _, a := range allowed {
			if value == a {
				return true
			}
		}
		return false
	})
}

// Positive requires value > 0.
func Positive[T Numeric](field string, value T) Rule {
	return newRule(field, "must be greater than zero", func() bool {
		return value > 0
	})
}

// Max requires value <= max.
func Max[T Numeric](field string, value, max T) Rule {
	return newRule(field, fmt.Sprintf("must be at most %v", max), func() bool {
		return value <= max
	})
}

// ValidUUID requires a parseable, non-nil UUID string.
func ValidUUID(field, value string) Rule {
	return newRule(field, "must be a valid UUID", func() bool {
		id, err := uuid.Parse(value)
		return err == nil && id != uuid.Nil
	})
}

// NotAfter requires t to be no later than limit.
func NotAfter(field string, t, limit time.Time) Rule {
	return newRule(field, "must not be in the future", func() bool {
		return !t.After(limit)
	})
}

// TimeOrder requires from <= to when both are set.
func TimeOrder(field string, from, to time.Time) Rule {
	return newRule(field, "must not be after the end of the range", func() bool {
		return from.IsZero() || to.IsZero() || !from.After(to)
	})
}
