package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTTL is the fixed lifetime of a session identity.
const DefaultTTL = 48 * time.Hour

// Identity is an opaque per-client token with an absolute expiry, used to
// correlate cart and tracking calls without authentication.
type Identity struct {
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the identity is past its expiry at the given time.
func (id Identity) Expired(now time.Time) bool {
	return !now.Before(id.ExpiresAt)
}

// Store persists identities. Implementations must write the id and expiry
// together in a single operation.
type Store interface {
	Get(ctx context.Context, sessionID string) (*Identity, error)
	Put(ctx context.Context, id Identity) error
	Delete(ctx context.Context, sessionID string) error
}

// Manager owns the session identity lifecycle: a non-expired identity is
// always reused, an expired or unknown one is replaced in place.
type Manager struct {
	store   Store
	ttl     time.Duration
	nowFunc func() time.Time
	logger  *zap.Logger
}

// NewManager returns a Manager over the given store. ttl <= 0 falls back to
// DefaultTTL.
func NewManager(store Store, ttl time.Duration, log *zap.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store:   store,
		ttl:     ttl,
		nowFunc: time.Now,
		logger:  log,
	}
}

// Ensure resolves candidateID to a non-empty, non-expired identity. A known,
// unexpired candidate is returned unchanged; anything else is replaced by a
// freshly generated identity persisted with its expiry in one write.
//
// Ensure never fails the request: when the store is unavailable it logs the
// error and hands out a process-lifetime identity instead.
func (m *Manager) Ensure(ctx context.Context, candidateID string) Identity {
	now := m.nowFunc()

	if candidateID != "" {
		rec, err := m.store.Get(ctx, candidateID)
		if err != nil {
			m.logger.Error("session store read failed, issuing unpersisted identity",
				zap.Error(err))
			return m.generate(now)
		}
		if rec != nil && !rec.Expired(now) {
			return *rec
		}
	}

	id := m.generate(now)
	if err := m.store.Put(ctx, id); err != nil {
		m.logger.Error("session store write failed, identity is process-local",
			zap.Error(err))
	}
	return id
}

func (m *Manager) generate(now time.Time) Identity {
	return Identity{
		SessionID: uuid.NewString(),
		ExpiresAt: now.Add(m.ttl),
	}
}
