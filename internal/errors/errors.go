package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy for the portal. Provider-facing failures are opaque kinds:
// raw provider error bodies are logged, never surfaced to the end user.
var (
	// Provider errors
	ErrDiscovery     = errors.New("oidc discovery failed")
	ErrTokenExchange = errors.New("token exchange failed")
	ErrRefresh       = errors.New("token refresh failed")
	ErrUserInfo      = errors.New("userinfo request failed")

	// Callback validation errors (client-visible, 400-class)
	ErrMissingCode     = errors.New("no authorization code provided")
	ErrStateMismatch   = errors.New("invalid state parameter")
	ErrMissingVerifier = errors.New("no code verifier in session")

	// Session errors (401-class)
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrTokenExpired     = errors.New("token expired or invalid")
	ErrSessionExpired   = errors.New("session expired")

	// Store errors
	ErrSessionNotFound = errors.New("session not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
