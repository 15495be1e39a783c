package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/jrsteele09/go-portal-server/internal/errors"
	"github.com/jrsteele09/go-portal-server/sessions"
)

func TestInMemoryRepoRoundTrip(t *testing.T) {
	repo := sessions.NewInMemoryRepo(time.Hour)
	ctx := context.Background()

	session := &sessions.Session{
		ID:          "sid-1",
		UserID:      "user-1",
		AccessToken: "token",
		TokenExpiry: time.Now().Add(time.Hour).Unix(),
		UserGroups:  []string{"ops"},
		CreatedAt:   time.Now(),
	}
	require.NoError(t, repo.Upsert(ctx, session.ID, session))

	got, err := repo.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.Equal(t, "user-1", got.UserID)
	require.True(t, got.Authenticated())

	// Stores hand out copies; mutating the result must not leak back.
	got.UserGroups[0] = "mutated"
	again, err := repo.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.Equal(t, []string{"ops"}, again.UserGroups)
}

func TestInMemoryRepoIdleTimeout(t *testing.T) {
	now := time.Now()
	repo := sessions.NewInMemoryRepo(time.Minute, sessions.WithNowTime(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "sid-1", &sessions.Session{ID: "sid-1"}))

	now = now.Add(59 * time.Second)
	_, err := repo.Get(ctx, "sid-1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = repo.Get(ctx, "sid-1")
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestInMemoryRepoDelete(t *testing.T) {
	repo := sessions.NewInMemoryRepo(time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "sid-1", &sessions.Session{ID: "sid-1"}))
	require.NoError(t, repo.Delete(ctx, "sid-1"))

	_, err := repo.Get(ctx, "sid-1")
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestInMemoryRepoValidation(t *testing.T) {
	repo := sessions.NewInMemoryRepo(time.Hour)
	ctx := context.Background()

	_, err := repo.Get(ctx, "")
	require.Error(t, err)
	require.Error(t, repo.Upsert(ctx, "", &sessions.Session{}))
	require.Error(t, repo.Upsert(ctx, "sid", nil))
}

func TestSessionPendingFlow(t *testing.T) {
	session := &sessions.Session{PendingVerifier: "v", PendingState: "s"}
	require.True(t, session.HasPendingFlow())
	require.False(t, session.Authenticated())

	session.ClearPendingFlow()
	require.False(t, session.HasPendingFlow())
	require.Empty(t, session.PendingVerifier)
	require.Empty(t, session.PendingState)
}
