package track

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopfront/storefront-gateway/internal/awsx"
	"github.com/shopfront/storefront-gateway/internal/catalog"
)

// Sink delivers one event. Implementations must be safe for concurrent use.
type Sink interface {
	Deliver(ctx context.Context, ev Event) error
}

// HTTPSink posts events straight to the upstream /track endpoint through the
// gateway client.
type HTTPSink struct {
	Client *catalog.Client
}

func (s *HTTPSink) Deliver(ctx context.Context, ev Event) error {
	return s.Client.Do(ctx, ev.SessionID, catalog.Request{
		Method:   http.MethodPost,
		Endpoint: "/track",
		Body:     ev.flatten(),
	}, nil)
}

// QueueSink buffers events on SQS for the delivery relay worker.
type QueueSink struct {
	Publisher *awsx.Publisher
}

func (s *QueueSink) Deliver(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return s.Publisher.SendEventMessage(ctx, string(body), map[string]string{
		"session_id": ev.SessionID,
		"event_type": ev.EventType,
	})
}
