package cart

import "context"

// Mirror is the per-session persisted cart snapshot, the server-side
// counterpart of the browser's cart copy. It is written only by the Manager.
type Mirror interface {
	Put(ctx context.Context, sessionID string, c Cart) error
	Get(ctx context.Context, sessionID string) (*Cart, error)
}
