// Package metrics exposes the portal's Prometheus counters. Degraded-but-
// available paths (missing group claims, swallowed revocation failures) are
// flagged here rather than failing the request.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Logins counts completed authorization-code callbacks.
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Completed OIDC callbacks by outcome.",
	}, []string{"outcome"})

	// TokenRefreshes counts refresh-ahead attempts made by the session guard.
	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "auth",
		Name:      "token_refreshes_total",
		Help:      "Access token refresh attempts by outcome.",
	}, []string{"outcome"})

	// MissingGroupClaims counts token responses whose ID token carried no
	// groups claim. The user still gets the public catalog.
	MissingGroupClaims = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "auth",
		Name:      "missing_group_claims_total",
		Help:      "Token responses with no groups claim in the ID token.",
	})

	// RevocationFailures counts best-effort revocations that did not reach
	// the provider.
	RevocationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "auth",
		Name:      "revocation_failures_total",
		Help:      "Token revocation attempts that failed or were unsupported.",
	})

	// SessionsDestroyed counts removed sessions, labelled by cause
	// (logout, refresh_failure, stale_token).
	SessionsDestroyed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "sessions",
		Name:      "destroyed_total",
		Help:      "Sessions destroyed by cause.",
	}, []string{"cause"})
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
