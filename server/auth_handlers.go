package server

import (
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-portal-server/auth"
	apperrors "github.com/jrsteele09/go-portal-server/internal/errors"
)

// LoginHandler starts an authorization-code flow. The verifier/state pair is
// persisted into the session before the redirect is issued; a redirect whose
// state was never stored could not be validated at the callback.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r)

		redirect, err := s.auth.InitiateLogin()
		if err != nil {
			log.Err(err).Msg("Failed to initiate login")
			writeJSONError(w, "server_error", "Failed to initiate login", http.StatusInternalServerError)
			return
		}

		session.PendingVerifier = redirect.CodeVerifier
		session.PendingState = redirect.State
		if err := s.saveSession(r.Context(), session); err != nil {
			log.Err(err).Msg("Failed to persist pending login")
			writeJSONError(w, "server_error", "Failed to persist login state", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, redirect.URL, http.StatusSeeOther)
	}
}

// CallbackHandler completes the flow. Success lands the browser on the
// frontend root; any failure lands on the frontend login page with an error
// code in the query string.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r)
		params := auth.CallbackParamsFromQuery(r.URL.Query())

		update, err := s.auth.CompleteCallback(r.Context(), params, session.PendingVerifier, session.PendingState)
		if err != nil {
			// The verifier/state pair is one-shot: any callback attempt
			// consumes it, whether validation or the exchange failed. A
			// retry must start a fresh login.
			if session.HasPendingFlow() {
				session.ClearPendingFlow()
				if saveErr := s.saveSession(r.Context(), session); saveErr != nil {
					log.Err(saveErr).Msg("Failed to clear pending login")
				}
			}
			s.redirectLoginError(w, r, callbackErrorCode(err))
			return
		}

		update.ApplyTo(session)
		if err := s.saveSession(r.Context(), session); err != nil {
			log.Err(err).Msg("Failed to persist authenticated session")
			s.redirectLoginError(w, r, "session_store_failed")
			return
		}

		http.Redirect(w, r, s.config.GetFrontendURL()+"/", http.StatusSeeOther)
	}
}

// LogoutHandler revokes best effort, destroys the session and hands the
// frontend the provider's end-session URL to navigate to.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r)

		if session.AccessToken != "" {
			s.auth.Revoke(r.Context(), session.AccessToken)
		}
		logoutURL := s.auth.BuildLogoutURL(session.IDToken, s.config.GetFrontendURL())

		s.destroySession(r.Context(), w, session, "logout")

		writeJSON(w, http.StatusOK, map[string]string{"logoutUrl": logoutURL})
	}
}

// StatusHandler reports whether the session is authenticated without ever
// triggering a token refresh.
func (s *Server) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r)

		if !s.guard.OptionalAuthenticated(r.Context(), session) {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"user":          session.UserInfo,
		})
	}
}

func (s *Server) redirectLoginError(w http.ResponseWriter, r *http.Request, code string) {
	target := s.config.GetFrontendURL() + "/login?error=" + url.QueryEscape(code)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func callbackErrorCode(err error) string {
	var denied *auth.ProviderDeniedError
	switch {
	case apperrors.As(err, &denied):
		if denied.Code != "" {
			return denied.Code
		}
		return "access_denied"
	case apperrors.Is(err, apperrors.ErrMissingCode):
		return "missing_code"
	case apperrors.Is(err, apperrors.ErrStateMismatch):
		return "state_mismatch"
	case apperrors.Is(err, apperrors.ErrMissingVerifier):
		return "missing_verifier"
	case apperrors.Is(err, apperrors.ErrTokenExchange):
		return "exchange_failed"
	case apperrors.Is(err, apperrors.ErrUserInfo):
		return "userinfo_failed"
	default:
		return "login_failed"
	}
}
