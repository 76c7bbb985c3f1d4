package totp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
)

const (
	BackupCodeCount  = 10 // Codes issued per enrollment or regeneration
	BackupCodeLength = 10 // Characters per code

	// backupCodeAlphabet leaves out 0/O and 1/I so codes survive being read aloud.
	backupCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateBackupCodes creates count distinct single-use recovery codes made
// of BackupCodeLength upper-case characters.
func GenerateBackupCodes(count int) ([]string, error) {
	return generateBackupCodes(count, randomBackupCode)
}

func generateBackupCodes(count int, draw func() (string, error)) ([]string, error) {
	if count < 1 {
		return nil, ErrInvalidBackupCodeCount
	}

	codes := make([]string, 0, count)
	seen := make(map[string]struct{}, count)
	for len(codes) < count {
		code, err := draw()
		if err != nil {
			return nil, errors.Join(ErrFailedToGenerateBackupCode, err)
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, nil
}

func randomBackupCode() (string, error) {
	limit := big.NewInt(int64(len(backupCodeAlphabet)))
	var b strings.Builder
	b.Grow(BackupCodeLength)
	for range BackupCodeLength {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(backupCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeBackupCode strips whitespace and dashes and upper-cases the input,
// so "abcd-efgh-ij" and "ABCDEFGHIJ" are the same code.
func NormalizeBackupCode(code string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', ' ', '\t', '\n', '\r':
			return -1
		}
		if r >= 'a' && r <= 'z' {
			return r - 'a' + 'A'
		}
		return r
	}, code)
}

// HashBackupCode returns the hex SHA-256 digest of the normalized code.
func HashBackupCode(code string) string {
	hash := sha256.Sum256([]byte(NormalizeBackupCode(code)))
	return hex.EncodeToString(hash[:])
}

// HashBackupCodes hashes every code for storage.
func HashBackupCodes(codes []string) []string {
	hashed := make([]string, len(codes))
	for i, c := range codes {
		hashed[i] = HashBackupCode(c)
	}
	return hashed
}

// VerifyBackupCode performs a constant-time comparison of code against a stored hash.
func VerifyBackupCode(code, hashedCode string) bool {
	computed := HashBackupCode(code)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hashedCode)) == 1
}

// VerifyAndConsume checks code against the stored hashes. On a match it
// returns the remaining hashes with exactly that entry removed; otherwise it
// returns the input unchanged and false. The input slice is never modified.
func VerifyAndConsume(code string, hashes []string) ([]string, bool) {
	if NormalizeBackupCode(code) == "" {
		return hashes, false
	}

	computed := []byte(HashBackupCode(code))
	match := -1
	for i, h := range hashes {
		// Walk the whole list so timing does not reveal the position.
		if subtle.ConstantTimeCompare(computed, []byte(h)) == 1 && match < 0 {
			match = i
		}
	}
	if match < 0 {
		return hashes, false
	}

	remaining := make([]string, 0, len(hashes)-1)
	remaining = append(remaining, hashes[:match]...)
	remaining = append(remaining, hashes[match+1:]...)
	return remaining, true
}
