package cart

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/shopfront/storefront-gateway/internal/catalog"
)

// ErrNotConfirmed is returned when the remote cart endpoint answers without
// the success signal; the local cart is left untouched in that case.
var ErrNotConfirmed = errors.New("cart update not confirmed by upstream")

// Line is a cart line item: a product/quantity pairing with cached display
// fields. There is at most one Line per product id.
type Line struct {
	ProductID  int64   `json:"product_id"`
	Title      string  `json:"title"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
	Thumbnail  string  `json:"thumbnail,omitempty"`
	CategoryID int64   `json:"category_id,omitempty"`
}

// Cart is a session's cart snapshot with the derived total quantity.
type Cart struct {
	Items []Line `json:"items"`
	Count int    `json:"count"`
}

func countOf(items []Line) int {
	total := 0
	for _, it := range items {
		total += it.Quantity
	}
	return total
}

func (c Cart) clone() Cart {
	out := Cart{Items: make([]Line, len(c.Items)), Count: c.Count}
	copy(out.Items, c.Items)
	return out
}

// Manager is the single authoritative cart component: it owns both the
// remote cart calls and the local mirror, so no second write path into cart
// state exists. The local view is updated only after remote confirmation.
type Manager struct {
	client *catalog.Client
	mirror Mirror
	logger *zap.Logger

	mu    sync.Mutex
	carts map[string]Cart // per-session in-memory snapshot
}

// NewManager returns a Manager over the gateway client and mirror store.
func NewManager(client *catalog.Client, mirror Mirror, log *zap.Logger) *Manager {
	return &Manager{
		client: client,
		mirror: mirror,
		logger: log,
		carts:  map[string]Cart{},
	}
}

// Snapshot returns the current local view for a session without touching the
// remote cart. A session unseen by this process is warmed from the mirror.
func (m *Manager) Snapshot(ctx context.Context, sessionID string) Cart {
	m.mu.Lock()
	c, ok := m.carts[sessionID]
	m.mu.Unlock()
	if ok {
		return c.clone()
	}

	if mirrored, err := m.mirror.Get(ctx, sessionID); err != nil {
		m.logger.Warn("cart mirror read failed", zap.Error(err))
	} else if mirrored != nil {
		m.mu.Lock()
		m.carts[sessionID] = *mirrored
		m.mu.Unlock()
		return mirrored.clone()
	}
	return Cart{Items: []Line{}}
}

// Load fetches the remote cart for the session and replaces the local view.
// On failure the prior local view is returned alongside the error.
func (m *Manager) Load(ctx context.Context, sessionID string) (Cart, error) {
	var resp struct {
		Items []Line `json:"items"`
	}
	err := m.client.Do(ctx, sessionID, catalog.Request{Endpoint: "/cart"}, &resp)
	if err != nil {
		return m.Snapshot(ctx, sessionID), err
	}

	if resp.Items == nil {
		resp.Items = []Line{}
	}
	c := Cart{Items: resp.Items, Count: countOf(resp.Items)}

	m.mu.Lock()
	m.carts[sessionID] = c
	m.mu.Unlock()

	return c.clone(), nil
}

// Add sends the addition to the remote cart and, only after the upstream
// reports success, merges it locally: an existing line's quantity is
// incremented in place, otherwise the product record is fetched and appended
// as a new line. The updated snapshot is written to the mirror.
func (m *Manager) Add(ctx context.Context, sessionID string, productID int64, quantity int) (Cart, error) {
	if quantity <= 0 {
		quantity = 1
	}

	var resp struct {
		Status string `json:"status"`
	}
	err := m.client.Do(ctx, sessionID, catalog.Request{
		Method:   http.MethodPost,
		Endpoint: "/cart",
		Body: map[string]any{
			"product_id": productID,
			"quantity":   quantity,
		},
	}, &resp)
	if err != nil {
		return m.Snapshot(ctx, sessionID), err
	}
	if resp.Status != "success" {
		return m.Snapshot(ctx, sessionID), ErrNotConfirmed
	}

	// Warm the local view from the mirror first so a session resumed in a
	// fresh process merges into its previously mirrored lines instead of
	// overwriting them.
	m.Snapshot(ctx, sessionID)

	// Fetch the product record up front when this session has no line for it
	// yet. The fetch happens outside the lock; the merge below re-checks.
	var product *catalog.Product
	if !m.hasLine(sessionID, productID) {
		product, err = m.client.Product(ctx, sessionID, productID)
		if err != nil {
			return m.Snapshot(ctx, sessionID), err
		}
	}

	m.mu.Lock()
	c := m.carts[sessionID].clone()
	merged := false
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	// Lines are never removed, so a missed hasLine always yields a fetched
	// product here; a concurrent append for the same product lands in the
	// increment branch above instead.
	if !merged && product != nil {
		c.Items = append(c.Items, Line{
			ProductID:  product.ID,
			Title:      product.Title,
			Price:      product.Price,
			Quantity:   quantity,
			Thumbnail:  product.Thumbnail,
			CategoryID: product.CategoryID,
		})
	}
	c.Count = countOf(c.Items)
	m.carts[sessionID] = c
	m.mu.Unlock()

	if err := m.mirror.Put(ctx, sessionID, c); err != nil {
		// Mirror lag is tolerated; the remote cart stays authoritative.
		m.logger.Warn("cart mirror write failed", zap.Error(err))
	}

	return c.clone(), nil
}

func (m *Manager) hasLine(sessionID string, productID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.carts[sessionID].Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}
