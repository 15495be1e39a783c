// Package auth drives the relying-party side of the OIDC Authorization Code
// + PKCE flow and guards sessions built from it. The state machine over a
// session is:
//
//	Unauthenticated -> PendingCallback -> Authenticated
//	Authenticated   -> RefreshInFlight -> Authenticated | LoggedOut
//	PendingCallback -> Unauthenticated (validation failure)
package auth

import (
	"context"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jrsteele09/go-portal-server/internal/errors"
	"github.com/jrsteele09/go-portal-server/internal/metrics"
	"github.com/jrsteele09/go-portal-server/pkce"
	"github.com/jrsteele09/go-portal-server/provider"
	"github.com/jrsteele09/go-portal-server/sessions"
)

// ProviderAPI is the slice of the provider adapter the orchestrator uses.
type ProviderAPI interface {
	AuthorizationURL(codeChallenge, state string) string
	ExchangeCode(ctx context.Context, code, codeVerifier, expectedState, receivedState string) (*provider.TokenResult, error)
	FetchUserInfo(ctx context.Context, accessToken string) (*provider.UserInfo, error)
	Refresh(ctx context.Context, refreshToken string) (*provider.TokenResult, error)
	EndSessionURL(idToken, postLogoutRedirectURI string) string
	SupportsRevocation() bool
	RevokeToken(ctx context.Context, token string) error
}

// Service is the authentication orchestrator. It never touches session
// storage itself: login initiation and callback completion return values
// describing the intended session mutation, applied by the caller.
type Service struct {
	provider ProviderAPI
	nowTime  func() time.Time // nowTime function (injectable for testing)
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// NewService initializes the orchestrator with a discovered provider.
func NewService(providerAPI ProviderAPI, options ...ServiceOption) (*Service, error) {
	if providerAPI == nil {
		return nil, errors.New("[NewService] provider is required")
	}

	service := &Service{
		provider: providerAPI,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(service)
	}
	return service, nil
}

// LoginRedirect is the outcome of login initiation. The caller must persist
// CodeVerifier and State into the session's pending flow, durably, before
// issuing the redirect.
type LoginRedirect struct {
	URL          string
	CodeVerifier string
	State        string
}

// InitiateLogin generates a fresh verifier/state pair and the authorization
// URL for one flow instance.
func (s *Service) InitiateLogin() (*LoginRedirect, error) {
	verifier, err := pkce.GenerateVerifier()
	if err != nil {
		return nil, errors.Wrap(err, "[InitiateLogin] generate verifier")
	}
	state, err := pkce.GenerateState()
	if err != nil {
		return nil, errors.Wrap(err, "[InitiateLogin] generate state")
	}

	authURL := s.provider.AuthorizationURL(pkce.DeriveChallenge(verifier), state)

	log.Info().Msg("Generated authorization URL")

	return &LoginRedirect{
		URL:          authURL,
		CodeVerifier: verifier,
		State:        state,
	}, nil
}

// CallbackParams are the wire-level query parameters consumed at the
// callback. Iss and SessionState are accepted but not required.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
	Iss              string
	SessionState     string
}

// CallbackParamsFromQuery extracts the callback parameters verbatim from a
// query string.
func CallbackParamsFromQuery(query url.Values) CallbackParams {
	return CallbackParams{
		Code:             query.Get("code"),
		State:            query.Get("state"),
		Error:            query.Get("error"),
		ErrorDescription: query.Get("error_description"),
		Iss:              query.Get("iss"),
		SessionState:     query.Get("session_state"),
	}
}

// SessionUpdate describes the session mutation a successful callback
// intends. The caller applies it atomically to its session store.
type SessionUpdate struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	IDToken      string
	TokenExpiry  int64
	UserGroups   []string
	UserInfo     provider.UserInfo
}

// ApplyTo writes the update into a session and clears the consumed pending
// flow.
func (u *SessionUpdate) ApplyTo(session *sessions.Session) {
	session.UserID = u.UserID
	session.AccessToken = u.AccessToken
	session.RefreshToken = u.RefreshToken
	session.IDToken = u.IDToken
	session.TokenExpiry = u.TokenExpiry
	session.UserGroups = u.UserGroups
	session.UserInfo = u.UserInfo
	session.ClearPendingFlow()
}

// CompleteCallback validates the provider's redirect and exchanges the code
// for tokens. Validation short-circuits in order: provider error, missing
// code, state mismatch, missing verifier. The stored verifier/state pair is
// one-shot: callers clear it after any callback attempt, whether the
// attempt failed validation, failed the exchange, or succeeded.
func (s *Service) CompleteCallback(ctx context.Context, params CallbackParams, storedVerifier, storedState string) (*SessionUpdate, error) {
	if params.Error != "" {
		log.Error().
			Str("error", params.Error).
			Str("error_description", params.ErrorDescription).
			Msg("Provider returned error in callback")
		metrics.Logins.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, &ProviderDeniedError{Code: params.Error, Description: params.ErrorDescription}
	}

	if params.Code == "" {
		log.Warn().Msg("No authorization code in callback")
		metrics.Logins.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, apperrors.ErrMissingCode
	}

	// The CSRF defense: the state must match the value captured at login
	// initiation, not any later value.
	if params.State == "" || params.State != storedState {
		log.Warn().Msg("State mismatch in callback")
		metrics.Logins.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, apperrors.ErrStateMismatch
	}

	if storedVerifier == "" {
		log.Warn().Msg("No code verifier in session")
		metrics.Logins.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, apperrors.ErrMissingVerifier
	}

	tokens, err := s.provider.ExchangeCode(ctx, params.Code, storedVerifier, storedState, params.State)
	if err != nil {
		metrics.Logins.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, errors.Wrap(err, "[CompleteCallback] code exchange")
	}

	userInfo, err := s.provider.FetchUserInfo(ctx, tokens.AccessToken)
	if err != nil {
		metrics.Logins.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, errors.Wrap(err, "[CompleteCallback] fetch user info")
	}

	log.Info().
		Str("user_id", userInfo.Sub).
		Int("groups", len(tokens.Groups)).
		Msg("User authenticated successfully")
	metrics.Logins.WithLabelValues(metrics.OutcomeSuccess).Inc()

	return &SessionUpdate{
		UserID:       userInfo.Sub,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		IDToken:      tokens.IDToken,
		TokenExpiry:  tokens.ExpiresAt,
		UserGroups:   tokens.Groups,
		UserInfo:     *userInfo,
	}, nil
}

// RefreshAccess trades a refresh token for a new token set. It does not
// mutate session state; that is the session guard's responsibility.
func (s *Service) RefreshAccess(ctx context.Context, refreshToken string) (*provider.TokenResult, error) {
	tokens, err := s.provider.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, errors.Wrap(err, "[RefreshAccess] provider refresh")
	}
	return tokens, nil
}

// BuildLogoutURL returns the provider's end-session URL, or the post-logout
// redirect unchanged when the provider has none. The local session is
// destroyed by the caller regardless.
func (s *Service) BuildLogoutURL(idToken, postLogoutRedirectURI string) string {
	return s.provider.EndSessionURL(idToken, postLogoutRedirectURI)
}

// Revoke revokes an access token, best effort. Providers without a
// revocation endpoint leave tokens to expire naturally; either way logout
// succeeds locally.
func (s *Service) Revoke(ctx context.Context, accessToken string) {
	if !s.provider.SupportsRevocation() {
		log.Warn().Msg("Provider has no revocation endpoint - token will expire naturally")
		metrics.RevocationFailures.Inc()
		return
	}

	if err := s.provider.RevokeToken(ctx, accessToken); err != nil {
		log.Err(err).Msg("Failed to revoke token")
		metrics.RevocationFailures.Inc()
	}
}
