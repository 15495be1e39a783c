package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	apperrors "github.com/jrsteele09/go-portal-server/internal/errors"
)

// InMemoryRepo is a thread-safe in-memory implementation of Repo. Sessions
// idle past the timeout are evicted lazily on read.
type InMemoryRepo struct {
	mu          sync.RWMutex
	sessions    map[string]*storedSession
	idleTimeout time.Duration
	nowTime     func() time.Time
}

type storedSession struct {
	session   *Session
	touchedAt time.Time
}

// InMemoryRepoOption modifies an InMemoryRepo.
type InMemoryRepoOption func(*InMemoryRepo)

// WithNowTime sets the repo clock (primarily for testing).
func WithNowTime(nowFunc func() time.Time) InMemoryRepoOption {
	return func(r *InMemoryRepo) {
		r.nowTime = nowFunc
	}
}

// NewInMemoryRepo creates an in-memory session repository with the given
// idle timeout.
func NewInMemoryRepo(idleTimeout time.Duration, options ...InMemoryRepoOption) *InMemoryRepo {
	repo := &InMemoryRepo{
		sessions:    make(map[string]*storedSession),
		idleTimeout: idleTimeout,
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(repo)
	}
	return repo
}

// Get retrieves a session by its cookie identifier.
func (r *InMemoryRepo) Get(_ context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, errors.New("session id cannot be empty")
	}

	r.mu.RLock()
	stored, exists := r.sessions[id]
	r.mu.RUnlock()

	if !exists {
		return nil, apperrors.ErrSessionNotFound
	}

	if r.idleTimeout > 0 && r.nowTime().Sub(stored.touchedAt) > r.idleTimeout {
		r.mu.Lock()
		delete(r.sessions, id)
		r.mu.Unlock()
		return nil, apperrors.ErrSessionNotFound
	}

	return stored.session.Clone(), nil
}

// Upsert stores or updates a session, resetting its idle clock.
func (r *InMemoryRepo) Upsert(_ context.Context, id string, session *Session) error {
	if id == "" {
		return errors.New("session id cannot be empty")
	}
	if session == nil {
		return errors.New("session cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[id] = &storedSession{
		session:   session.Clone(),
		touchedAt: r.nowTime(),
	}
	return nil
}

// Delete removes a session.
func (r *InMemoryRepo) Delete(_ context.Context, id string) error {
	if id == "" {
		return errors.New("session id cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}
