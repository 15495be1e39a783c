package server

import (
	"net/http"
)

// ProfileHandler returns the identity claims captured at login.
func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r)
		if err := s.guard.RequireAuthenticated(r.Context(), session); err != nil {
			writeAuthError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, session.UserInfo)
	}
}

// GroupsHandler returns the caller's group memberships.
func (s *Server) GroupsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r)
		if err := s.guard.RequireAuthenticated(r.Context(), session); err != nil {
			writeAuthError(w, err)
			return
		}

		groups := session.UserGroups
		if groups == nil {
			groups = []string{}
		}
		writeJSON(w, http.StatusOK, map[string][]string{"groups": groups})
	}
}
