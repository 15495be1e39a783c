package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jrsteele09/go-portal-server/internal/errors"
	"github.com/jrsteele09/go-portal-server/internal/metrics"
	"github.com/jrsteele09/go-portal-server/sessions"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeySession stores the request's session
const ContextKeySession ContextKey = "session"

// SessionMiddleware resolves the session cookie into a session, minting a
// fresh anonymous session when the cookie is absent or no longer resolves.
// The session is attached to the request context; handlers that mutate it
// persist it themselves.
func (s *Server) SessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := s.loadSession(r)
		if session == nil {
			session = &sessions.Session{
				ID:        uuid.New().String(),
				CreatedAt: time.Now(),
			}
			s.setSessionCookie(w, session.ID)
		}

		ctx := context.WithValue(r.Context(), ContextKeySession, session)
		next(w, r.WithContext(ctx))
	}
}

func (s *Server) loadSession(r *http.Request) *sessions.Session {
	cookie, err := r.Cookie(s.config.GetSessionCookieName())
	if err != nil || cookie.Value == "" {
		return nil
	}

	session, err := s.sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrSessionNotFound) {
			log.Err(err).Msg("Failed to load session")
		}
		return nil
	}
	return session
}

// sessionFromContext returns the session the middleware attached. Handlers
// behind SessionMiddleware always find one.
func sessionFromContext(r *http.Request) *sessions.Session {
	session, _ := r.Context().Value(ContextKeySession).(*sessions.Session)
	return session
}

func (s *Server) saveSession(ctx context.Context, session *sessions.Session) error {
	return s.sessions.Upsert(ctx, session.ID, session)
}

func (s *Server) destroySession(ctx context.Context, w http.ResponseWriter, session *sessions.Session, cause string) {
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		log.Err(err).Msg("Failed to delete session")
	}
	metrics.SessionsDestroyed.WithLabelValues(cause).Inc()
	s.clearSessionCookie(w)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.GetSessionCookieName(),
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(s.config.GetSessionIdleTimeout() / time.Second),
		HttpOnly: true,
		Secure:   s.config.GetSessionCookieSecure(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.GetSessionCookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.GetSessionCookieSecure(),
		SameSite: http.SameSiteLaxMode,
	})
}
