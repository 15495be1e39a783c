package provider

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-portal-server/internal/metrics"
	"github.com/jrsteele09/go-portal-server/internal/utils"
)

// TokenResult is the outcome of a code exchange or a refresh. Tokens are
// opaque bearer credentials; ExpiresAt is epoch seconds computed from the
// provider's expires_in at the moment of the response.
type TokenResult struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	ExpiresAt    int64
	TokenType    string
	Scope        string
	Groups       []string
}

// UserInfo carries the standard OIDC userinfo claims the portal consumes.
type UserInfo struct {
	Sub               string `json:"sub"`
	Email             string `json:"email,omitempty"`
	Name              string `json:"name,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	GivenName         string `json:"given_name,omitempty"`
	FamilyName        string `json:"family_name,omitempty"`
}

// newTokenResult converts an oauth2 token into a TokenResult, pulling the
// raw ID token and the groups claim out of the response.
func newTokenResult(token *oauth2.Token, groups []string) *TokenResult {
	rawIDToken, _ := token.Extra("id_token").(string)

	var expiresAt int64
	if !token.Expiry.IsZero() {
		expiresAt = token.Expiry.Unix()
	}

	scope, _ := token.Extra("scope").(string)

	return &TokenResult{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		IDToken:      rawIDToken,
		ExpiresAt:    expiresAt,
		TokenType:    token.TokenType,
		Scope:        scope,
		Groups:       groups,
	}
}

// ExpiresIn returns the remaining validity relative to now.
func (tr *TokenResult) ExpiresIn(now time.Time) time.Duration {
	return time.Unix(tr.ExpiresAt, 0).Sub(now)
}

// groupsFromClaims extracts the groups claim from decoded ID token claims.
// An absent or malformed claim degrades to zero groups: public applications
// stay visible, and the gap is flagged through observability instead of
// failing the login.
func groupsFromClaims(claims map[string]any) []string {
	rawGroups, ok := claims["groups"].([]any)
	if !ok {
		log.Warn().Msg("No groups claim found in ID token")
		metrics.MissingGroupClaims.Inc()
		return []string{}
	}
	return utils.ToStringSlice(rawGroups)
}

// unverifiedIDTokenClaims decodes ID token claims without signature
// verification. Used on the refresh path where the token arrived over the
// authenticated back channel.
func unverifiedIDTokenClaims(rawIDToken string) map[string]any {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawIDToken, claims); err != nil {
		log.Warn().Err(err).Msg("Failed to decode ID token claims")
		return map[string]any{}
	}
	return claims
}
