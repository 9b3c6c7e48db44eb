package security

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// KeyAlphabet is the character set for plaintext API keys
const KeyAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// KeyLength is the exact length of a plaintext API key
const KeyLength = 40

// HashCost is the bcrypt cost used for stored key hashes
const HashCost = 12

// GenerateKey returns a new random API key drawn uniformly from KeyAlphabet
func GenerateKey() (string, error) {
	max := big.NewInt(int64(len(KeyAlphabet)))
	buf := make([]byte, KeyLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random key: %w", err)
		}
		buf[i] = KeyAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// HashKey hashes a plaintext key for storage
func HashKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), HashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash key: %w", err)
	}
	return string(hash), nil
}

// VerifyKey reports whether the plaintext key matches the stored hash.
// The comparison is constant-time; any error counts as a non-match.
func VerifyKey(hash, key string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

// ValidKeyFormat reports whether a candidate has the exact shape of an API
// key: KeyLength characters, all from KeyAlphabet. Checked before any hash
// work so garbage input never reaches bcrypt.
func ValidKeyFormat(key string) bool {
	if len(key) != KeyLength {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		default:
			return false
		}
	}
	return true
}
