// Package sessions holds the server-side session contract and its stores.
// A session is keyed by an opaque cookie-carried identifier; concurrent
// writers follow last-write-wins semantics (two near-expiry requests may
// both refresh; the second write wins, both token sets are valid).
package sessions

import (
	"time"

	"github.com/jrsteele09/go-portal-server/provider"
)

// Session is the server-side authentication state for one browser.
type Session struct {
	ID string `json:"id"`

	// Identity, populated at callback completion
	UserID     string            `json:"userId,omitempty"`
	UserGroups []string          `json:"userGroups,omitempty"`
	UserInfo   provider.UserInfo `json:"userInfo,omitempty"`

	// Bearer credentials
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	IDToken      string `json:"idToken,omitempty"`
	TokenExpiry  int64  `json:"tokenExpiry,omitempty"`

	// Pending flow correlation, present only between login initiation and
	// callback completion. Consumed one-shot by the callback.
	PendingVerifier string `json:"pendingVerifier,omitempty"`
	PendingState    string `json:"pendingState,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Authenticated reports whether the session carries a usable token set.
func (s *Session) Authenticated() bool {
	return s.AccessToken != "" && s.TokenExpiry != 0
}

// HasPendingFlow reports whether a login flow is awaiting its callback.
func (s *Session) HasPendingFlow() bool {
	return s.PendingVerifier != "" || s.PendingState != ""
}

// ClearPendingFlow drops the one-shot verifier/state pair.
func (s *Session) ClearPendingFlow() {
	s.PendingVerifier = ""
	s.PendingState = ""
}

// Clone returns a deep copy so stores never hand out shared mutable state.
func (s *Session) Clone() *Session {
	clone := *s
	if s.UserGroups != nil {
		clone.UserGroups = append([]string(nil), s.UserGroups...)
	}
	return &clone
}
