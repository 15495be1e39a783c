package config

import "time"

type SessionConfig interface {
	GetSessionCookieName() string
	GetSessionIdleTimeout() time.Duration
	GetSessionCookieSecure() bool
	GetRedisURL() string
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetSessionCookieName() string {
	return GetEnv("SESSION_COOKIE_NAME", "portal_sid")
}

func (Session) GetSessionIdleTimeout() time.Duration {
	d, err := time.ParseDuration(GetEnv("SESSION_IDLE_TIMEOUT", "24h"))
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

func (Session) GetSessionCookieSecure() bool {
	return GetBoolEnv("SESSION_SECURE", false)
}

// GetRedisURL selects the session store: set, sessions live in Redis with
// the idle timeout as TTL; empty, sessions live in process memory.
func (Session) GetRedisURL() string {
	return GetEnv("REDIS_URL", "")
}
