package track

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	fail   int // number of deliveries to fail before succeeding
	calls  int
}

func (s *recordingSink) Deliver(ctx context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.fail {
		return errors.New("network down")
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) delivered() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func TestTrack_BuildsEventRecord(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, zap.NewNop(), WithRetry(1, 0))
	tr := NewTracker(d)
	now := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	tr.nowFunc = func() time.Time { return now }

	tr.Track(context.Background(), "sess-1", EventViewProduct, map[string]any{"product_id": 7})
	tr.Close()

	evs := sink.delivered()
	require.Len(t, evs, 1)
	assert.Equal(t, "sess-1", evs[0].SessionID)
	assert.Equal(t, EventViewProduct, evs[0].EventType)
	assert.Equal(t, "2024-06-01T09:30:00Z", evs[0].Timestamp)
	assert.Equal(t, 7, evs[0].Payload["product_id"])
}

func TestTrack_FailingDeliveryNeverSurfaces(t *testing.T) {
	sink := &recordingSink{fail: 1 << 30} // always fails
	d := NewDispatcher(sink, zap.NewNop(), WithRetry(2, 0))
	tr := NewTracker(d)

	// must not panic, block, or report anything to the caller
	tr.Track(context.Background(), "sess-1", EventViewProduct, map[string]any{"product_id": 7})
	tr.Close()

	assert.Empty(t, sink.delivered())
}

func TestDispatcher_RetriesBeforeGivingUp(t *testing.T) {
	sink := &recordingSink{fail: 2}
	d := NewDispatcher(sink, zap.NewNop(), WithRetry(3, 0))

	ok := d.Enqueue(NewEvent("s", EventAddToCart, nil, time.Now()))
	require.True(t, ok)
	d.Close()

	require.Len(t, sink.delivered(), 1)
	assert.Equal(t, 3, sink.calls)
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	block := make(chan struct{})
	sink := sinkFunc(func(ctx context.Context, ev Event) error {
		<-block
		return nil
	})
	d := NewDispatcher(sink, zap.NewNop(), WithQueueSize(1), WithRetry(1, 0))

	// first event occupies the worker, second fills the queue
	d.Enqueue(NewEvent("s", EventViewProduct, nil, time.Now()))
	d.Enqueue(NewEvent("s", EventViewProduct, nil, time.Now()))

	dropped := false
	for i := 0; i < 100; i++ {
		if !d.Enqueue(NewEvent("s", EventViewProduct, nil, time.Now())) {
			dropped = true
			break
		}
	}
	assert.True(t, dropped, "a full queue must drop instead of blocking")

	close(block)
	d.Close()
}

func TestDispatcher_EnqueueAfterCloseDropsSafely(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, zap.NewNop(), WithRetry(1, 0))
	d.Close()

	// a straggler during teardown is dropped, never panics
	ok := d.Enqueue(NewEvent("s", EventViewProduct, nil, time.Now()))
	assert.False(t, ok)
	assert.Empty(t, sink.delivered())
}

type sinkFunc func(ctx context.Context, ev Event) error

func (f sinkFunc) Deliver(ctx context.Context, ev Event) error { return f(ctx, ev) }

func TestEvent_WireShape(t *testing.T) {
	ev := NewEvent("sess-1", EventAddToCart, map[string]any{
		"product_id": 42,
		"quantity":   2,
		"price":      9.99,
	}, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(raw, &flat))
	assert.Equal(t, "sess-1", flat["session_id"])
	assert.Equal(t, "add_to_cart", flat["event_type"])
	assert.Equal(t, "2024-06-01T00:00:00Z", flat["timestamp"])
	assert.EqualValues(t, 42, flat["product_id"])
	assert.EqualValues(t, 9.99, flat["price"])

	var back Event
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, ev.SessionID, back.SessionID)
	assert.Equal(t, ev.EventType, back.EventType)
	assert.EqualValues(t, 2, back.Payload["quantity"])
}
