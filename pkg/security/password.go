package security

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/marketloop/marketloop-backend/pkg/config"
	"golang.org/x/crypto/pbkdf2"
)

// ErrInvalidHash signals a malformed stored salt or hash string.
var ErrInvalidHash = fmt.Errorf("invalid password hash")

// KDFParams captures the PBKDF2 parameters applied to every password.
type KDFParams struct {
	Iterations int
	SaltLen    int
	KeyLen     int
}

// HashPassword derives a PBKDF2-SHA512 hash for the password under a fresh
// random salt. Salt and hash are returned hex-encoded for separate storage.
func HashPassword(password string, cfg config.PasswordConfig) (salt, hash string, err error) {
	if password == "" {
		return "", "", fmt.Errorf("password cannot be empty")
	}

	params := paramsFromConfig(cfg)
	rawSalt := make([]byte, params.SaltLen)
	if _, err := rand.Read(rawSalt); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}

	salt = hex.EncodeToString(rawSalt)
	hash = deriveHex(password, salt, params)
	return salt, hash, nil
}

// HashWithSalt re-derives a hash using an already stored salt. Password changes
// keep the user's existing salt, matching the legacy credential store.
func HashWithSalt(password, salt string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	if salt == "" {
		return "", ErrInvalidHash
	}
	return deriveHex(password, salt, paramsFromConfig(cfg)), nil
}

// VerifyPassword reports whether the password matches the stored salt+hash pair
// using a constant-time comparison.
func VerifyPassword(password, salt, storedHash string, cfg config.PasswordConfig) (bool, error) {
	if salt == "" || storedHash == "" {
		return false, ErrInvalidHash
	}
	stored, err := hex.DecodeString(storedHash)
	if err != nil {
		return false, ErrInvalidHash
	}

	computed := deriveRaw(password, salt, paramsFromConfig(cfg))
	return subtle.ConstantTimeCompare(stored, computed) == 1, nil
}

func deriveHex(password, salt string, params KDFParams) string {
	return hex.EncodeToString(deriveRaw(password, salt, params))
}

func deriveRaw(password, salt string, params KDFParams) []byte {
	return pbkdf2.Key([]byte(password), []byte(salt), params.Iterations, params.KeyLen, sha512.New)
}

func paramsFromConfig(cfg config.PasswordConfig) KDFParams {
	return KDFParams{
		Iterations: clampInt(cfg.PBKDF2Iterations, 1000, 1_000_000),
		SaltLen:    clampInt(cfg.PBKDF2SaltLen, 16, 64),
		KeyLen:     clampInt(cfg.PBKDF2KeyLen, 64, 128),
	}
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
