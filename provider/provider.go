// Package provider wraps OIDC discovery and the provider round trips the
// portal needs: authorization URL construction, code exchange, userinfo,
// refresh, end-session and best-effort revocation.
package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	apperrors "github.com/jrsteele09/go-portal-server/internal/errors"
)

const defaultTimeout = 10 * time.Second

// Settings is the immutable configuration of the relying party. Discovery
// runs once inside New, so a constructed Provider is always usable; there is
// no uninitialized-access failure mode.
type Settings struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	Timeout      time.Duration
}

// extraEndpoints holds the discovery-document endpoints go-oidc does not
// surface through oauth2.Endpoint.
type extraEndpoints struct {
	EndSessionEndpoint string `json:"end_session_endpoint"`
	RevocationEndpoint string `json:"revocation_endpoint"`
}

// Provider is the adapter in front of one OIDC provider.
type Provider struct {
	settings     Settings
	oidcProvider *oidc.Provider
	oauthConfig  *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	endpoints    extraEndpoints
	httpClient   *http.Client
}

// New discovers the issuer's endpoints and returns a ready Provider.
// Discovery failure is fatal to startup; callers must not retry around it.
func New(ctx context.Context, settings Settings) (*Provider, error) {
	if settings.Issuer == "" {
		return nil, errors.New("[provider.New] issuer is required")
	}
	if settings.ClientID == "" {
		return nil, errors.New("[provider.New] client ID is required")
	}
	if settings.RedirectURI == "" {
		return nil, errors.New("[provider.New] redirect URI is required")
	}
	if settings.Timeout == 0 {
		settings.Timeout = defaultTimeout
	}
	if len(settings.Scopes) == 0 {
		settings.Scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	httpClient := &http.Client{Timeout: settings.Timeout}

	log.Info().Str("issuer", settings.Issuer).Msg("Discovering OIDC issuer")

	oidcProvider, err := oidc.NewProvider(oidc.ClientContext(ctx, httpClient), settings.Issuer)
	if err != nil {
		return nil, errors.Wrap(err, apperrors.ErrDiscovery.Error())
	}

	var endpoints extraEndpoints
	if err := oidcProvider.Claims(&endpoints); err != nil {
		return nil, errors.Wrap(err, apperrors.ErrDiscovery.Error())
	}

	p := &Provider{
		settings:     settings,
		oidcProvider: oidcProvider,
		oauthConfig: &oauth2.Config{
			ClientID:     settings.ClientID,
			ClientSecret: settings.ClientSecret,
			RedirectURL:  settings.RedirectURI,
			Endpoint:     oidcProvider.Endpoint(),
			Scopes:       settings.Scopes,
		},
		verifier:   oidcProvider.Verifier(&oidc.Config{ClientID: settings.ClientID}),
		endpoints:  endpoints,
		httpClient: httpClient,
	}

	log.Info().
		Str("issuer", settings.Issuer).
		Str("authorization_endpoint", p.oauthConfig.Endpoint.AuthURL).
		Str("token_endpoint", p.oauthConfig.Endpoint.TokenURL).
		Bool("end_session", endpoints.EndSessionEndpoint != "").
		Msg("OIDC issuer discovered")

	return p, nil
}

// requestContext binds the provider's bounded-timeout HTTP client into ctx
// for both go-oidc and x/oauth2 calls.
func (p *Provider) requestContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// AuthorizationURL builds the authorization redirect for one flow instance.
// No network call is made.
func (p *Provider) AuthorizationURL(codeChallenge, state string) string {
	return p.oauthConfig.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// ExchangeCode swaps the authorization code for tokens. The state comparison
// runs before any network call: a mismatched state is the CSRF failure and
// an exchange would be wasted.
func (p *Provider) ExchangeCode(ctx context.Context, code, codeVerifier, expectedState, receivedState string) (*TokenResult, error) {
	if receivedState != expectedState {
		return nil, apperrors.ErrStateMismatch
	}

	ctx = p.requestContext(ctx)

	token, err := p.oauthConfig.Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		log.Err(err).Str("issuer", p.settings.Issuer).Msg("Token exchange failed")
		return nil, errors.Wrap(err, apperrors.ErrTokenExchange.Error())
	}

	return newTokenResult(token, p.exchangeGroups(ctx, token)), nil
}

// exchangeGroups verifies the ID token from a code exchange and pulls the
// groups claim out of its payload. A response without an ID token, or one
// that fails verification, degrades to zero groups.
func (p *Provider) exchangeGroups(ctx context.Context, token *oauth2.Token) []string {
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		log.Warn().Msg("No ID token in token response")
		return groupsFromClaims(map[string]any{})
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		log.Err(err).Str("issuer", p.settings.Issuer).Msg("ID token verification failed")
		return groupsFromClaims(map[string]any{})
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		log.Err(err).Msg("Failed to extract ID token claims")
		return groupsFromClaims(map[string]any{})
	}
	return groupsFromClaims(claims)
}

// FetchUserInfo calls the userinfo endpoint with the freshly issued access
// token.
func (p *Provider) FetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	ctx = p.requestContext(ctx)

	info, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	if err != nil {
		log.Err(err).Str("issuer", p.settings.Issuer).Msg("Userinfo request failed")
		return nil, errors.Wrap(err, apperrors.ErrUserInfo.Error())
	}

	var userInfo UserInfo
	if err := info.Claims(&userInfo); err != nil {
		return nil, errors.Wrap(err, apperrors.ErrUserInfo.Error())
	}
	return &userInfo, nil
}

// Refresh trades a refresh token for a new token set. The returned result
// carries the provider's new refresh token when one was rotated, otherwise
// the one passed in.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*TokenResult, error) {
	ctx = p.requestContext(ctx)

	token, err := p.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		log.Err(err).Str("issuer", p.settings.Issuer).Msg("Token refresh failed")
		return nil, errors.Wrap(err, apperrors.ErrRefresh.Error())
	}

	groups := []string{}
	if rawIDToken, ok := token.Extra("id_token").(string); ok && rawIDToken != "" {
		groups = groupsFromClaims(unverifiedIDTokenClaims(rawIDToken))
	}

	return newTokenResult(token, groups), nil
}

// EndSessionURL builds the provider's logout URL. A provider without an
// end-session endpoint degrades gracefully: the post-logout redirect URI is
// returned unchanged and only the local session ends.
func (p *Provider) EndSessionURL(idToken, postLogoutRedirectURI string) string {
	if p.endpoints.EndSessionEndpoint == "" {
		log.Warn().Str("issuer", p.settings.Issuer).Msg("No end_session_endpoint in OIDC metadata")
		return postLogoutRedirectURI
	}

	logoutURL, err := url.Parse(p.endpoints.EndSessionEndpoint)
	if err != nil {
		log.Err(err).Str("endpoint", p.endpoints.EndSessionEndpoint).Msg("Invalid end_session_endpoint")
		return postLogoutRedirectURI
	}

	query := logoutURL.Query()
	if idToken != "" {
		query.Set("id_token_hint", idToken)
	}
	query.Set("post_logout_redirect_uri", postLogoutRedirectURI)
	logoutURL.RawQuery = query.Encode()

	return logoutURL.String()
}

// SupportsRevocation reports whether the provider advertises a revocation
// endpoint.
func (p *Provider) SupportsRevocation() bool {
	return p.endpoints.RevocationEndpoint != ""
}

// RevokeToken posts an RFC 7009 revocation for the token. Callers treat
// failure as best-effort; the token is left to expire naturally.
func (p *Provider) RevokeToken(ctx context.Context, token string) error {
	if p.endpoints.RevocationEndpoint == "" {
		return errors.New("[RevokeToken] provider has no revocation endpoint")
	}

	form := url.Values{}
	form.Set("token", token)
	form.Set("client_id", p.settings.ClientID)
	if p.settings.ClientSecret != "" {
		form.Set("client_secret", p.settings.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoints.RevocationEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "[RevokeToken] http.NewRequestWithContext")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "[RevokeToken] revocation request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("[RevokeToken] revocation endpoint returned %d", resp.StatusCode)
	}
	return nil
}
