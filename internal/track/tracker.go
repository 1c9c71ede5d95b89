package track

import (
	"context"
	"time"
)

// Tracker is the fire-and-forget emission point for behavioral events.
// Track never returns an error: delivery failures are logged and counted,
// never surfaced to the caller.
type Tracker struct {
	dispatcher *Dispatcher
	nowFunc    func() time.Time
}

// NewTracker returns a Tracker emitting through the dispatcher.
func NewTracker(d *Dispatcher) *Tracker {
	return &Tracker{
		dispatcher: d,
		nowFunc:    time.Now,
	}
}

// Track builds the event record (session id, type, timestamp, payload) and
// enqueues it for delivery. The ctx parameter is accepted for call-site
// symmetry; delivery outlives the request.
func (t *Tracker) Track(ctx context.Context, sessionID, eventType string, payload map[string]any) {
	ev := NewEvent(sessionID, eventType, payload, t.nowFunc())
	t.dispatcher.Enqueue(ev)
}

// Close drains pending events.
func (t *Tracker) Close() {
	t.dispatcher.Close()
}
