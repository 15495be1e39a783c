package config

import (
	"strings"
	"time"
)

type OIDCConfig interface {
	GetIssuer() string
	GetClientID() string
	GetClientSecret() string
	GetRedirectURI() string
	GetScopes() []string
	GetProviderTimeout() time.Duration
	GetRefreshThreshold() time.Duration
}

type OIDC struct{}

var _ OIDCConfig = OIDC{}

func (OIDC) GetIssuer() string {
	return GetEnv("OIDC_ISSUER", "")
}

func (OIDC) GetClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "")
}

func (OIDC) GetClientSecret() string {
	return GetEnv("OIDC_CLIENT_SECRET", "")
}

func (OIDC) GetRedirectURI() string {
	return GetEnv("OIDC_REDIRECT_URI", "http://localhost:8080/api/auth/callback")
}

func (OIDC) GetScopes() []string {
	return strings.Fields(GetEnv("OIDC_SCOPES", "openid profile email"))
}

// GetProviderTimeout bounds every network call to the provider. A slow
// provider fails with a provider-error kind rather than hanging the caller.
func (OIDC) GetProviderTimeout() time.Duration {
	return 10 * time.Second
}

// GetRefreshThreshold is the refresh-ahead window: tokens expiring within
// this window are renewed before the request proceeds.
func (OIDC) GetRefreshThreshold() time.Duration {
	return 5 * time.Minute
}
