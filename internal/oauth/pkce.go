package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// verifierBytes is the amount of entropy behind a code verifier. 64 bytes
// encode to 86 characters, inside the 43..128 range RFC 7636 allows.
const verifierBytes = 64

// NewVerifier returns a fresh PKCE code verifier: random bytes encoded as
// URL-safe base64 without padding.
func NewVerifier() (string, error) {
	buf := make([]byte, verifierBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Challenge derives the S256 code challenge for verifier.
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
