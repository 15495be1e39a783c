package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jrsteele09/go-portal-server/internal/errors"
	"github.com/jrsteele09/go-portal-server/internal/metrics"
	"github.com/jrsteele09/go-portal-server/provider"
	"github.com/jrsteele09/go-portal-server/sessions"
)

const defaultRefreshThreshold = 5 * time.Minute

// TokenRefresher is the slice of the orchestrator the guard depends on.
type TokenRefresher interface {
	RefreshAccess(ctx context.Context, refreshToken string) (*provider.TokenResult, error)
}

// Guard is the per-request gate over a session. It validates freshness,
// refreshes ahead of expiry, and fails closed: a refresh failure destroys
// the session. All time comparisons use one wall-clock source.
type Guard struct {
	refresher TokenRefresher
	sessions  sessions.Repo
	threshold time.Duration
	nowTime   func() time.Time
}

// GuardOption defines a function type to modify the Guard instance.
type GuardOption func(*Guard)

// WithRefreshThreshold overrides the refresh-ahead window (default 300s).
func WithRefreshThreshold(threshold time.Duration) GuardOption {
	return func(g *Guard) {
		g.threshold = threshold
	}
}

// WithGuardNowTime sets the guard clock (primarily for testing).
func WithGuardNowTime(nowFunc func() time.Time) GuardOption {
	return func(g *Guard) {
		g.nowTime = nowFunc
	}
}

// NewGuard creates a session guard backed by the given refresher and store.
func NewGuard(refresher TokenRefresher, sessionRepo sessions.Repo, options ...GuardOption) (*Guard, error) {
	if refresher == nil {
		return nil, errors.New("[NewGuard] refresher is required")
	}
	if sessionRepo == nil {
		return nil, errors.New("[NewGuard] session repo is required")
	}

	guard := &Guard{
		refresher: refresher,
		sessions:  sessionRepo,
		threshold: defaultRefreshThreshold,
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(guard)
	}
	return guard, nil
}

// RequireAuthenticated allows or denies a request. nil means allow. The
// session is mutated in place (and persisted) when a refresh-ahead
// succeeds; it is destroyed when a refresh fails.
func (g *Guard) RequireAuthenticated(ctx context.Context, session *sessions.Session) error {
	if session == nil || !session.Authenticated() {
		return apperrors.ErrNotAuthenticated
	}

	now := g.nowTime().Unix()
	remaining := session.TokenExpiry - now

	if remaining <= 0 && session.RefreshToken == "" {
		return apperrors.ErrTokenExpired
	}

	// The threshold, not raw expiry, gates the refresh: a token one second
	// from expiring is renewed rather than risked mid-request.
	if remaining >= int64(g.threshold.Seconds()) || session.RefreshToken == "" {
		return nil
	}

	log.Info().Str("user_id", session.UserID).Msg("Token expiring soon, attempting refresh")

	tokens, err := g.refresher.RefreshAccess(ctx, session.RefreshToken)
	if err != nil {
		log.Err(err).Str("user_id", session.UserID).Msg("Failed to refresh token")
		metrics.TokenRefreshes.WithLabelValues(metrics.OutcomeFailure).Inc()
		g.destroy(ctx, session, "refresh_failure")
		return apperrors.ErrSessionExpired
	}

	session.AccessToken = tokens.AccessToken
	session.TokenExpiry = tokens.ExpiresAt
	if tokens.RefreshToken != "" {
		session.RefreshToken = tokens.RefreshToken
	}
	if tokens.IDToken != "" {
		session.IDToken = tokens.IDToken
	}
	if len(tokens.Groups) > 0 {
		session.UserGroups = tokens.Groups
	}

	if err := g.sessions.Upsert(ctx, session.ID, session); err != nil {
		// The request still proceeds with the fresh in-memory tokens; the
		// next request re-refreshes if the write was lost.
		log.Err(err).Str("session_id", session.ID).Msg("Failed to persist refreshed session")
	}

	metrics.TokenRefreshes.WithLabelValues(metrics.OutcomeSuccess).Inc()
	log.Info().Str("user_id", session.UserID).Msg("Token refreshed successfully")
	return nil
}

// OptionalAuthenticated reports whether the session is usable without ever
// refreshing or blocking. A stale token proactively destroys the session so
// the request proceeds cleanly as anonymous.
func (g *Guard) OptionalAuthenticated(ctx context.Context, session *sessions.Session) bool {
	if session == nil || !session.Authenticated() {
		return false
	}

	if g.nowTime().Unix() >= session.TokenExpiry {
		g.destroy(ctx, session, "stale_token")
		return false
	}
	return true
}

func (g *Guard) destroy(ctx context.Context, session *sessions.Session, cause string) {
	if err := g.sessions.Delete(ctx, session.ID); err != nil {
		log.Err(err).Str("session_id", session.ID).Msg("Failed to destroy session")
	}
	metrics.SessionsDestroyed.WithLabelValues(cause).Inc()

	session.AccessToken = ""
	session.RefreshToken = ""
	session.IDToken = ""
	session.TokenExpiry = 0
	session.UserID = ""
	session.UserGroups = nil
}
