package totp

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	AESKeySize = 32 // Required key size for AES-256 (256 bits / 8 = 32 bytes)

	// keyInfo gives the derived key domain separation from other uses of the
	// same application secret.
	keyInfo = "cashlens-totp-secret-v1"
)

// Codec encrypts TOTP secrets at rest with AES-256-GCM.
// It is safe for concurrent use.
type Codec struct {
	key []byte
}

// NewCodec derives a 32-byte AES key from secretKey using HKDF-SHA-256.
func NewCodec(secretKey string) (*Codec, error) {
	key, err := DeriveKey(secretKey)
	if err != nil {
		return nil, err
	}
	return &Codec{key: key}, nil
}

// Encrypt returns base64(nonce || ciphertext || tag). Every call uses a fresh
// nonce, so equal inputs produce different outputs.
func (c *Codec) Encrypt(secret string) (string, error) {
	return EncryptSecret(secret, c.key)
}

// Decrypt reverses Encrypt. A corrupt ciphertext or a rotated key yields
// ErrFailedToDecryptSecret.
func (c *Codec) Decrypt(ciphertext string) (string, error) {
	return DecryptSecret(ciphertext, c.key)
}

// DeriveKey expands an arbitrary application secret into an AES-256 key.
func DeriveKey(secretKey string) ([]byte, error) {
	if secretKey == "" {
		return nil, ErrEncryptionKeyNotSet
	}
	key := make([]byte, AESKeySize)
	r := hkdf.New(sha256.New, []byte(secretKey), nil, []byte(keyInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, errors.Join(ErrFailedToDeriveKey, err)
	}
	return key, nil
}

// EncryptSecret encrypts the TOTP secret using AES-256-GCM.
// Returns the ciphertext as a base64-encoded string.
func EncryptSecret(plainText string, key []byte) (string, error) {
	aesGCM, err := newGCM(key)
	if err != nil {
		return "", errors.Join(ErrFailedToEncryptSecret, err)
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Join(ErrFailedToEncryptSecret, err)
	}

	cipherText := aesGCM.Seal(nonce, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(cipherText), nil
}

// DecryptSecret decrypts the encrypted TOTP secret.
// Expects the ciphertext as a base64-encoded string.
func DecryptSecret(cipherTextBase64 string, key []byte) (string, error) {
	aesGCM, err := newGCM(key)
	if err != nil {
		return "", errors.Join(ErrFailedToDecryptSecret, err)
	}

	cipherText, err := base64.StdEncoding.DecodeString(cipherTextBase64)
	if err != nil {
		return "", errors.Join(ErrFailedToDecryptSecret, err)
	}

	nonceSize := aesGCM.NonceSize()
	if len(cipherText) < nonceSize {
		return "", errors.Join(ErrFailedToDecryptSecret, ErrInvalidCipherTooShort)
	}
	nonce, cipherText := cipherText[:nonceSize], cipherText[nonceSize:]

	plainText, err := aesGCM.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return "", errors.Join(ErrFailedToDecryptSecret, err)
	}

	return string(plainText), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != AESKeySize {
		return nil, ErrInvalidEncryptionKeyLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// GenerateEncodedEncryptionKey returns a random 32-byte key encoded as base64,
// suitable for the TOTP_ENCRYPTION_KEY environment variable.
func GenerateEncodedEncryptionKey() (string, error) {
	key := make([]byte, AESKeySize)
	if _, err := rand.Read(key); err != nil {
		return "", errors.Join(ErrFailedToGenerateEncodedKey, err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
