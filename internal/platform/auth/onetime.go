package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Lifetimes for the single-use tokens sent out by email.
const (
	VerifyTokenTTL = 24 * time.Hour
	ResetTokenTTL  = 10 * time.Minute
)

// NewOneTimeToken generates a random single-use token. The raw value is sent
// to the user; only the sha256 digest is stored.
func NewOneTimeToken() (raw, digest string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	raw = hex.EncodeToString(buf)
	return raw, HashToken(raw), nil
}

// HashToken returns the hex sha256 digest of a raw token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
