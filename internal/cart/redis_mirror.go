package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisMirror persists cart snapshots in Redis. Snapshots share the session
// lifetime, so keys carry a matching TTL.
type RedisMirror struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisMirror creates a Redis-backed mirror with the given snapshot TTL.
func NewRedisMirror(client *redis.Client, ttl time.Duration) *RedisMirror {
	return &RedisMirror{
		client: client,
		prefix: "cart:",
		ttl:    ttl,
	}
}

func (r *RedisMirror) key(sessionID string) string {
	return r.prefix + sessionID
}

func (r *RedisMirror) Put(ctx context.Context, sessionID string, c Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("cart: failed to marshal: %w", err)
	}
	return r.client.Set(ctx, r.key(sessionID), data, r.ttl).Err()
}

func (r *RedisMirror) Get(ctx context.Context, sessionID string) (*Cart, error) {
	val, err := r.client.Get(ctx, r.key(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var c Cart
	if err := json.Unmarshal([]byte(val), &c); err != nil {
		return nil, fmt.Errorf("cart: failed to unmarshal: %w", err)
	}
	return &c, nil
}
