package pkce_test

import (
	"regexp"
	"testing"

	"github.com/jrsteele09/go-portal-server/pkce"
	"github.com/stretchr/testify/require"
)

var urlSafe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func TestGenerateVerifier(t *testing.T) {
	verifier, err := pkce.GenerateVerifier()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(verifier), 43)
	require.Regexp(t, urlSafe, verifier)
}

func TestDeriveChallenge(t *testing.T) {
	// Test vector from RFC 7636 appendix B
	challenge := pkce.DeriveChallenge("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk")
	require.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", challenge)
}

func TestGenerateState(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		state, err := pkce.GenerateState()
		require.NoError(t, err)
		require.Regexp(t, urlSafe, state)

		_, dup := seen[state]
		require.False(t, dup, "state values must be unguessable and unique")
		seen[state] = struct{}{}
	}
}
