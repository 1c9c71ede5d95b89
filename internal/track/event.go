package track

import (
	"encoding/json"
	"time"
)

// Behavioral event types emitted by the storefront.
const (
	EventViewProduct   = "view_product"
	EventAddToCart     = "add_to_cart"
	EventClickCategory = "click_category"
)

// Event is one behavioral tracking record. On the wire it is a flat JSON
// object: session_id, event_type and timestamp at the top level with the
// payload fields spread beside them, payload winning on key collision.
type Event struct {
	SessionID string
	EventType string
	Timestamp string // ISO-8601
	Payload   map[string]any
}

// NewEvent stamps an event with the current time in RFC3339.
func NewEvent(sessionID, eventType string, payload map[string]any, now time.Time) Event {
	return Event{
		SessionID: sessionID,
		EventType: eventType,
		Timestamp: now.UTC().Format(time.RFC3339),
		Payload:   payload,
	}
}

func (e Event) flatten() map[string]any {
	out := map[string]any{
		"session_id": e.SessionID,
		"event_type": e.EventType,
		"timestamp":  e.Timestamp,
	}
	for k, v := range e.Payload {
		out[k] = v
	}
	return out
}

// MarshalJSON flattens the payload into the top-level object.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.flatten())
}

// UnmarshalJSON splits the flat wire shape back into core fields and payload.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["session_id"].(string); ok {
		e.SessionID = v
	}
	if v, ok := raw["event_type"].(string); ok {
		e.EventType = v
	}
	if v, ok := raw["timestamp"].(string); ok {
		e.Timestamp = v
	}
	delete(raw, "session_id")
	delete(raw, "event_type")
	delete(raw, "timestamp")
	if len(raw) > 0 {
		e.Payload = raw
	}
	return nil
}
