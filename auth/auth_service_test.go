package auth_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-portal-server/auth"
	"github.com/jrsteele09/go-portal-server/auth/authfakes"
	apperrors "github.com/jrsteele09/go-portal-server/internal/errors"
	"github.com/jrsteele09/go-portal-server/sessions"
)

func newTestService(t *testing.T) (*auth.Service, *authfakes.FakeProvider) {
	t.Helper()

	fake := authfakes.NewFakeProvider()
	service, err := auth.NewService(fake)
	require.NoError(t, err)
	return service, fake
}

func TestNewServiceRequiresProvider(t *testing.T) {
	_, err := auth.NewService(nil)
	require.Error(t, err)
}

func TestInitiateLogin(t *testing.T) {
	service, _ := newTestService(t)

	redirect, err := service.InitiateLogin()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(redirect.CodeVerifier), 43)
	require.NotEmpty(t, redirect.State)
	require.Contains(t, redirect.URL, "state="+redirect.State)

	// Each flow instance gets its own correlation pair.
	second, err := service.InitiateLogin()
	require.NoError(t, err)
	require.NotEqual(t, redirect.State, second.State)
	require.NotEqual(t, redirect.CodeVerifier, second.CodeVerifier)
}

func TestCompleteCallbackSuccess(t *testing.T) {
	service, fake := newTestService(t)

	update, err := service.CompleteCallback(context.Background(),
		auth.CallbackParams{Code: "abc", State: "S1"}, "verifier", "S1")
	require.NoError(t, err)
	require.Equal(t, 1, fake.ExchangeCalls)
	require.Equal(t, 1, fake.UserInfoCalls)

	require.Equal(t, "user-1", update.UserID)
	require.Equal(t, "access-token", update.AccessToken)
	require.Equal(t, "refresh-token", update.RefreshToken)
	require.Equal(t, []string{"ops"}, update.UserGroups)
	require.Equal(t, "jane@example.com", update.UserInfo.Email)

	session := &sessions.Session{PendingVerifier: "verifier", PendingState: "S1"}
	update.ApplyTo(session)
	require.True(t, session.Authenticated())
	require.False(t, session.HasPendingFlow())
	require.Equal(t, "user-1", session.UserID)
}

func TestCompleteCallbackValidationOrder(t *testing.T) {
	t.Run("provider error wins", func(t *testing.T) {
		service, fake := newTestService(t)

		_, err := service.CompleteCallback(context.Background(), auth.CallbackParams{
			Error:            "access_denied",
			ErrorDescription: "user cancelled",
			Code:             "abc",
			State:            "S1",
		}, "verifier", "S1")

		var denied *auth.ProviderDeniedError
		require.ErrorAs(t, err, &denied)
		require.Equal(t, "access_denied", denied.Code)
		require.Zero(t, fake.ExchangeCalls)
	})

	t.Run("missing code", func(t *testing.T) {
		service, fake := newTestService(t)

		_, err := service.CompleteCallback(context.Background(),
			auth.CallbackParams{State: "S1"}, "verifier", "S1")
		require.ErrorIs(t, err, apperrors.ErrMissingCode)
		require.Zero(t, fake.ExchangeCalls)
	})

	t.Run("state mismatch never reaches exchange", func(t *testing.T) {
		service, fake := newTestService(t)

		_, err := service.CompleteCallback(context.Background(),
			auth.CallbackParams{Code: "abc", State: "S1"}, "V", "S2")
		require.ErrorIs(t, err, apperrors.ErrStateMismatch)
		require.Zero(t, fake.ExchangeCalls)
	})

	t.Run("missing state", func(t *testing.T) {
		service, fake := newTestService(t)

		_, err := service.CompleteCallback(context.Background(),
			auth.CallbackParams{Code: "abc"}, "verifier", "S1")
		require.ErrorIs(t, err, apperrors.ErrStateMismatch)
		require.Zero(t, fake.ExchangeCalls)
	})

	t.Run("missing verifier", func(t *testing.T) {
		service, fake := newTestService(t)

		_, err := service.CompleteCallback(context.Background(),
			auth.CallbackParams{Code: "abc", State: "S1"}, "", "S1")
		require.ErrorIs(t, err, apperrors.ErrMissingVerifier)
		require.Zero(t, fake.ExchangeCalls)
	})
}

func TestCompleteCallbackExchangeFailure(t *testing.T) {
	service, fake := newTestService(t)
	fake.ExchangeErr = apperrors.ErrTokenExchange

	_, err := service.CompleteCallback(context.Background(),
		auth.CallbackParams{Code: "abc", State: "S1"}, "verifier", "S1")
	require.ErrorIs(t, err, apperrors.ErrTokenExchange)
	require.Equal(t, 1, fake.ExchangeCalls)
	require.Zero(t, fake.UserInfoCalls)
}

func TestCompleteCallbackUserInfoFailure(t *testing.T) {
	service, fake := newTestService(t)
	fake.UserInfoErr = apperrors.ErrUserInfo

	_, err := service.CompleteCallback(context.Background(),
		auth.CallbackParams{Code: "abc", State: "S1"}, "verifier", "S1")
	require.ErrorIs(t, err, apperrors.ErrUserInfo)
}

func TestCallbackParamsFromQuery(t *testing.T) {
	query, err := url.ParseQuery("code=abc&state=S1&error=denied&error_description=nope&iss=https%3A%2F%2Fidp&session_state=ss")
	require.NoError(t, err)

	params := auth.CallbackParamsFromQuery(query)
	require.Equal(t, "abc", params.Code)
	require.Equal(t, "S1", params.State)
	require.Equal(t, "denied", params.Error)
	require.Equal(t, "nope", params.ErrorDescription)
	require.Equal(t, "https://idp", params.Iss)
	require.Equal(t, "ss", params.SessionState)
}

func TestRefreshAccess(t *testing.T) {
	service, fake := newTestService(t)

	tokens, err := service.RefreshAccess(context.Background(), "refresh-token")
	require.NoError(t, err)
	require.Equal(t, "refreshed-access-token", tokens.AccessToken)
	require.Equal(t, 1, fake.RefreshCalls)
}

func TestBuildLogoutURL(t *testing.T) {
	service, fake := newTestService(t)

	// No end-session endpoint: the redirect URI comes back unchanged.
	require.Equal(t, "http://localhost:5173/", service.BuildLogoutURL("id-token", "http://localhost:5173/"))

	fake.EndSessionEndpoint = "https://idp.example.com/logout"
	require.Contains(t, service.BuildLogoutURL("id-token", "http://localhost:5173/"), "https://idp.example.com/logout")
}

func TestRevokeBestEffort(t *testing.T) {
	t.Run("unsupported is a logged no-op", func(t *testing.T) {
		service, fake := newTestService(t)
		service.Revoke(context.Background(), "access-token")
		require.Zero(t, fake.RevokeCalls)
	})

	t.Run("failure is swallowed", func(t *testing.T) {
		service, fake := newTestService(t)
		fake.Revocable = true
		fake.RevokeErr = apperrors.ErrTokenExchange
		service.Revoke(context.Background(), "access-token")
		require.Equal(t, 1, fake.RevokeCalls)
	})
}
