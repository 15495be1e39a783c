// Package pkce generates the verifier/challenge/state material for the
// Authorization Code + PKCE flow (RFC 7636).
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"github.com/pkg/errors"
)

const (
	verifierLength = 32 // 32 bytes -> 43 base64url characters, the RFC 7636 minimum
	stateLength    = 32
)

// GenerateVerifier returns a cryptographically random PKCE code verifier,
// base64url encoded without padding.
func GenerateVerifier() (string, error) {
	bytes := make([]byte, verifierLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", errors.Wrap(err, "[GenerateVerifier] rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// DeriveChallenge returns the S256 code challenge for a verifier.
func DeriveChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// GenerateState returns a random state parameter. It is a CSRF correlation
// token for one flow instance, not a secret.
func GenerateState() (string, error) {
	bytes := make([]byte, stateLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", errors.Wrap(err, "[GenerateState] rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
