package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-portal-server/auth"
	"github.com/jrsteele09/go-portal-server/auth/authfakes"
	apperrors "github.com/jrsteele09/go-portal-server/internal/errors"
	"github.com/jrsteele09/go-portal-server/sessions"
)

type guardFixture struct {
	guard    *auth.Guard
	provider *authfakes.FakeProvider
	repo     *sessions.InMemoryRepo
	now      time.Time
}

func setupGuardFixture(t *testing.T) *guardFixture {
	t.Helper()

	fake := authfakes.NewFakeProvider()
	service, err := auth.NewService(fake)
	require.NoError(t, err)

	fixture := &guardFixture{
		provider: fake,
		repo:     sessions.NewInMemoryRepo(time.Hour),
		now:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	fixture.guard, err = auth.NewGuard(service, fixture.repo,
		auth.WithGuardNowTime(func() time.Time { return fixture.now }),
	)
	require.NoError(t, err)
	return fixture
}

func (f *guardFixture) storedSession(t *testing.T, session *sessions.Session) *sessions.Session {
	t.Helper()
	require.NoError(t, f.repo.Upsert(context.Background(), session.ID, session))
	return session
}

func TestRequireAuthenticatedDeniesAnonymous(t *testing.T) {
	f := setupGuardFixture(t)

	require.ErrorIs(t, f.guard.RequireAuthenticated(context.Background(), nil), apperrors.ErrNotAuthenticated)
	require.ErrorIs(t, f.guard.RequireAuthenticated(context.Background(), &sessions.Session{ID: "sid"}), apperrors.ErrNotAuthenticated)
}

func TestRequireAuthenticatedDeniesExpiredWithoutRefreshToken(t *testing.T) {
	f := setupGuardFixture(t)

	for _, offset := range []time.Duration{0, time.Second, time.Hour, 24 * time.Hour} {
		session := &sessions.Session{
			ID:          "sid",
			AccessToken: "access",
			TokenExpiry: f.now.Add(-offset).Unix(),
		}
		err := f.guard.RequireAuthenticated(context.Background(), session)
		require.ErrorIs(t, err, apperrors.ErrTokenExpired)
	}
	require.Zero(t, f.provider.RefreshCalls)
}

func TestRequireAuthenticatedAllowsFreshToken(t *testing.T) {
	f := setupGuardFixture(t)

	session := f.storedSession(t, &sessions.Session{
		ID:           "sid",
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenExpiry:  f.now.Add(time.Hour).Unix(),
	})

	require.NoError(t, f.guard.RequireAuthenticated(context.Background(), session))
	require.Zero(t, f.provider.RefreshCalls, "a token outside the threshold must not trigger a refresh")
}

func TestRequireAuthenticatedRefreshesAhead(t *testing.T) {
	f := setupGuardFixture(t)

	// 10 seconds of validity left at evaluation time: the threshold, not
	// raw expiry, gates the refresh.
	before := f.now.Add(10 * time.Second).Unix()
	session := f.storedSession(t, &sessions.Session{
		ID:           "sid",
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenExpiry:  before,
	})
	f.provider.RefreshResult.ExpiresAt = f.now.Add(time.Hour).Unix()
	f.provider.RefreshResult.RefreshToken = "rotated-refresh"

	require.NoError(t, f.guard.RequireAuthenticated(context.Background(), session))
	require.Equal(t, 1, f.provider.RefreshCalls)
	require.Equal(t, "refreshed-access-token", session.AccessToken)
	require.Equal(t, "rotated-refresh", session.RefreshToken)
	require.Greater(t, session.TokenExpiry, before)

	// The mutation is persisted, not just in-memory.
	stored, err := f.repo.Get(context.Background(), "sid")
	require.NoError(t, err)
	require.Equal(t, "refreshed-access-token", stored.AccessToken)
}

func TestRequireAuthenticatedKeepsRefreshTokenWhenNotRotated(t *testing.T) {
	f := setupGuardFixture(t)

	session := f.storedSession(t, &sessions.Session{
		ID:           "sid",
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenExpiry:  f.now.Add(time.Minute).Unix(),
	})
	f.provider.RefreshResult.RefreshToken = ""
	f.provider.RefreshResult.ExpiresAt = f.now.Add(time.Hour).Unix()

	require.NoError(t, f.guard.RequireAuthenticated(context.Background(), session))
	require.Equal(t, "refresh", session.RefreshToken)
}

func TestRequireAuthenticatedRefreshesExpiredWithRefreshToken(t *testing.T) {
	f := setupGuardFixture(t)

	session := f.storedSession(t, &sessions.Session{
		ID:           "sid",
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenExpiry:  f.now.Add(-time.Minute).Unix(),
	})
	f.provider.RefreshResult.ExpiresAt = f.now.Add(time.Hour).Unix()

	require.NoError(t, f.guard.RequireAuthenticated(context.Background(), session))
	require.Equal(t, 1, f.provider.RefreshCalls)
}

func TestRequireAuthenticatedFailsClosedOnRefreshFailure(t *testing.T) {
	f := setupGuardFixture(t)
	f.provider.RefreshErr = apperrors.ErrRefresh

	session := f.storedSession(t, &sessions.Session{
		ID:           "sid",
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenExpiry:  f.now.Add(10 * time.Second).Unix(),
	})

	err := f.guard.RequireAuthenticated(context.Background(), session)
	require.ErrorIs(t, err, apperrors.ErrSessionExpired)

	_, err = f.repo.Get(context.Background(), "sid")
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	require.False(t, session.Authenticated())
}

func TestOptionalAuthenticated(t *testing.T) {
	t.Run("anonymous passes through", func(t *testing.T) {
		f := setupGuardFixture(t)
		require.False(t, f.guard.OptionalAuthenticated(context.Background(), &sessions.Session{ID: "sid"}))
	})

	t.Run("valid token", func(t *testing.T) {
		f := setupGuardFixture(t)
		session := f.storedSession(t, &sessions.Session{
			ID:          "sid",
			AccessToken: "access",
			TokenExpiry: f.now.Add(time.Hour).Unix(),
		})
		require.True(t, f.guard.OptionalAuthenticated(context.Background(), session))
	})

	t.Run("stale token destroys the session without refreshing", func(t *testing.T) {
		f := setupGuardFixture(t)
		session := f.storedSession(t, &sessions.Session{
			ID:           "sid",
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenExpiry:  f.now.Add(-time.Minute).Unix(),
		})

		require.False(t, f.guard.OptionalAuthenticated(context.Background(), session))
		require.Zero(t, f.provider.RefreshCalls)

		_, err := f.repo.Get(context.Background(), "sid")
		require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	})
}
