package server

import (
	"encoding/json"
	"net/http"
	"time"

	apperrors "github.com/jrsteele09/go-portal-server/internal/errors"
)

// HealthHandler reports liveness
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "ok",
			"app":       s.config.GetAppName(),
			"env":       s.env,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// PreflightHandler backs the OPTIONS route; CorsMiddleware answers the
// preflight before this runs, so this only catches non-CORS OPTIONS.
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// writeJSONError writes an error response in the OAuth2 error shape
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}

// writeAuthError maps guard failures onto 401 responses.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.Is(err, apperrors.ErrNotAuthenticated):
		writeJSONError(w, "not_authenticated", "Authentication required", http.StatusUnauthorized)
	case apperrors.Is(err, apperrors.ErrTokenExpired):
		writeJSONError(w, "token_expired", "Access token expired", http.StatusUnauthorized)
	case apperrors.Is(err, apperrors.ErrSessionExpired):
		writeJSONError(w, "session_expired", "Session expired", http.StatusUnauthorized)
	case apperrors.Is(err, apperrors.ErrSessionNotFound):
		writeJSONError(w, "session_expired", "Session no longer exists", http.StatusUnauthorized)
	default:
		writeJSONError(w, "server_error", "Internal server error", http.StatusInternalServerError)
	}
}
