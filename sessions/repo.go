package sessions

import "context"

// Repo is the session store. Implementations enforce the configured idle
// timeout; a timed-out session reads as not found.
type Repo interface {
	Get(ctx context.Context, id string) (*Session, error)
	Upsert(ctx context.Context, id string, session *Session) error
	Delete(ctx context.Context, id string) error
}
