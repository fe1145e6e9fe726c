package redis

import (
	"context"
	"errors"
	"time"

	"github.com/ErlanBelekov/charon/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

const keyPrefix = "charon:session:"

// SessionStore maps session ids to user ids with a TTL.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, oops.Code("REDIS_CONFIG_INVALID").Wrapf(err, "parse redis url")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, oops.Code("REDIS_UNAVAILABLE").Wrapf(err, "ping redis")
	}
	return client, nil
}

func (s *SessionStore) Put(ctx context.Context, sid, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, keyPrefix+sid, userID, ttl).Err(); err != nil {
		return oops.Code("SESSION_STORE_FAILED").With("operation", "put").Wrap(err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, sid string) (string, error) {
	userID, err := s.client.Get(ctx, keyPrefix+sid).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", session.ErrNotFound
		}
		return "", oops.Code("SESSION_STORE_FAILED").With("operation", "get").Wrap(err)
	}
	return userID, nil
}

// Delete is idempotent; removing a missing session is not an error.
func (s *SessionStore) Delete(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, keyPrefix+sid).Err(); err != nil {
		return oops.Code("SESSION_STORE_FAILED").With("operation", "delete").Wrap(err)
	}
	return nil
}

// Ping reports whether redis is reachable.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
