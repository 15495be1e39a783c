package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jrsteele09/go-portal-server/internal/errors"
)

const redisKeyPrefix = "portal:session:"

// RedisRepo stores sessions in Redis as JSON with the idle timeout as key
// TTL, so idle expiry is enforced by the store itself.
type RedisRepo struct {
	client      redis.UniversalClient
	idleTimeout time.Duration
}

// NewRedisRepo connects to Redis using a redis:// URL and verifies the
// connection before returning.
func NewRedisRepo(ctx context.Context, redisURL string, idleTimeout time.Duration) (*RedisRepo, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "[NewRedisRepo] redis.ParseURL")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "[NewRedisRepo] failed to connect to redis")
	}

	log.Info().Str("addr", opts.Addr).Msg("Redis session store connected")

	return &RedisRepo{client: client, idleTimeout: idleTimeout}, nil
}

// NewRedisRepoWithClient wraps a pre-configured client. Used by tests with
// miniredis.
func NewRedisRepoWithClient(client redis.UniversalClient, idleTimeout time.Duration) *RedisRepo {
	return &RedisRepo{client: client, idleTimeout: idleTimeout}
}

// Get retrieves a session by its cookie identifier.
func (r *RedisRepo) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, errors.New("session id cannot be empty")
	}

	payload, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[RedisRepo.Get] redis GET")
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, errors.Wrap(err, "[RedisRepo.Get] unmarshal session")
	}
	return &session, nil
}

// Upsert stores or updates a session, resetting its TTL.
func (r *RedisRepo) Upsert(ctx context.Context, id string, session *Session) error {
	if id == "" {
		return errors.New("session id cannot be empty")
	}
	if session == nil {
		return errors.New("session cannot be nil")
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "[RedisRepo.Upsert] marshal session")
	}

	if err := r.client.Set(ctx, redisKeyPrefix+id, payload, r.idleTimeout).Err(); err != nil {
		return errors.Wrap(err, "[RedisRepo.Upsert] redis SET")
	}
	return nil
}

// Delete removes a session.
func (r *RedisRepo) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("session id cannot be empty")
	}

	if err := r.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return errors.Wrap(err, "[RedisRepo.Delete] redis DEL")
	}
	return nil
}

// Close releases the underlying Redis connection.
func (r *RedisRepo) Close() error {
	return r.client.Close()
}
