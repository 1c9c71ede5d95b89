package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists session identities in Redis, keyed by session id with
// the key TTL pinned to the identity expiry.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	nowFunc func() time.Time
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:  client,
		prefix:  "session:",
		nowFunc: time.Now,
	}
}

func (r *RedisStore) key(sessionID string) string {
	return r.prefix + sessionID
}

// Put writes the identity and expiry together as one JSON value.
func (r *RedisStore) Put(ctx context.Context, id Identity) error {
	if id.SessionID == "" {
		return fmt.Errorf("session: missing session_id")
	}
	ttl := id.ExpiresAt.Sub(r.nowFunc())
	if ttl <= 0 {
		return fmt.Errorf("session: expires_at must be in the future")
	}

	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}
	return r.client.Set(ctx, r.key(id.SessionID), data, ttl).Err()
}

// Get fetches an identity. Returns (nil, nil) when the key is absent, which
// also covers identities Redis already expired.
func (r *RedisStore) Get(ctx context.Context, sessionID string) (*Identity, error) {
	val, err := r.client.Get(ctx, r.key(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var id Identity
	if err := json.Unmarshal([]byte(val), &id); err != nil {
		return nil, fmt.Errorf("session: failed to unmarshal: %w", err)
	}
	return &id, nil
}

// Delete removes an identity.
func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, r.key(sessionID)).Err()
}
