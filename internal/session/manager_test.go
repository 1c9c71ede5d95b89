package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testManager(t *testing.T, store Store) *Manager {
	t.Helper()
	return NewManager(store, DefaultTTL, zap.NewNop())
}

func TestEnsure_NewIdentityPersisted(t *testing.T) {
	store := NewMemoryStore()
	m := testManager(t, store)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.nowFunc = func() time.Time { return now }

	id := m.Ensure(context.Background(), "")
	require.NotEmpty(t, id.SessionID)
	assert.Equal(t, now.Add(48*time.Hour), id.ExpiresAt)

	// id and expiry must land in the store together
	stored, err := store.Get(context.Background(), id.SessionID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, id, *stored)
}

func TestEnsure_ReusesWithinWindow(t *testing.T) {
	store := NewMemoryStore()
	m := testManager(t, store)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.nowFunc = func() time.Time { return now }

	first := m.Ensure(context.Background(), "")

	// repeated calls anywhere inside the 48h window return the same id
	for _, offset := range []time.Duration{0, time.Hour, 47*time.Hour + 59*time.Minute} {
		m.nowFunc = func() time.Time { return now.Add(offset) }
		got := m.Ensure(context.Background(), first.SessionID)
		assert.Equal(t, first.SessionID, got.SessionID)
	}
}

func TestEnsure_RotatesAfterExpiry(t *testing.T) {
	store := NewMemoryStore()
	m := testManager(t, store)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.nowFunc = func() time.Time { return now }

	first := m.Ensure(context.Background(), "")

	// exactly at the expiry instant the identity is already stale
	m.nowFunc = func() time.Time { return first.ExpiresAt }
	second := m.Ensure(context.Background(), first.SessionID)
	require.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, first.ExpiresAt.Add(48*time.Hour), second.ExpiresAt)

	// the replacement is persisted in place of the old identity
	stored, err := store.Get(context.Background(), second.SessionID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestEnsure_UnknownCandidateReplaced(t *testing.T) {
	m := testManager(t, NewMemoryStore())

	got := m.Ensure(context.Background(), "not-a-known-session")
	assert.NotEmpty(t, got.SessionID)
	assert.NotEqual(t, "not-a-known-session", got.SessionID)
}

type failingStore struct{ err error }

func (f *failingStore) Get(context.Context, string) (*Identity, error) { return nil, f.err }
func (f *failingStore) Put(context.Context, Identity) error            { return f.err }
func (f *failingStore) Delete(context.Context, string) error           { return f.err }

func TestEnsure_StoreUnavailableStillYieldsIdentity(t *testing.T) {
	m := testManager(t, &failingStore{err: errors.New("store down")})

	id := m.Ensure(context.Background(), "whatever")
	assert.NotEmpty(t, id.SessionID)
	assert.False(t, id.Expired(time.Now()))
}
