package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/shopfront/storefront-gateway/internal/awsx"
	"github.com/shopfront/storefront-gateway/internal/track"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = time.Second
)

// Relay drains queued tracking events and delivers them to the upstream
// /track endpoint. Delivery is retried a bounded number of times per
// invocation; a batch that still fails is returned to SQS for redelivery
// and eventually the DLQ.
type Relay struct {
	sink        track.Sink
	metrics     *awsx.Metrics
	maxAttempts int
	retryDelay  time.Duration
	logger      *zap.Logger
}

// NewRelay returns a Relay delivering through sink.
func NewRelay(sink track.Sink, metrics *awsx.Metrics, log *zap.Logger) *Relay {
	return &Relay{
		sink:        sink,
		metrics:     metrics,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		logger:      log,
	}
}

// Handle receives an SQS batch event and processes each message.
func (r *Relay) Handle(ctx context.Context, ev events.SQSEvent) error {
	r.logger.Info("received tracking batch", zap.Int("messages", len(ev.Records)))
	for _, rec := range ev.Records {
		if err := r.processMessage(ctx, rec); err != nil {
			// Return error: Lambda redelivers the batch, repeated failures
			// land in the DLQ.
			r.logger.Error("relay error", zap.Error(err))
			return err
		}
	}
	return nil
}

func (r *Relay) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var ev track.Event
	if err := json.Unmarshal([]byte(rec.Body), &ev); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if ev.SessionID == "" || ev.EventType == "" {
		return fmt.Errorf("event missing session_id or event_type: %s", rec.Body)
	}

	var err error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err = r.sink.Deliver(ctx, ev); err == nil {
			_ = r.metrics.Count(ctx, "TrackingEventsRelayed", 1,
				map[string]string{"EventType": ev.EventType})
			return nil
		}
		r.logger.Warn("delivery attempt failed",
			zap.Int("attempt", attempt),
			zap.String("event_type", ev.EventType),
			zap.Error(err))
		if attempt < r.maxAttempts {
			time.Sleep(r.retryDelay)
		}
	}

	_ = r.metrics.Count(ctx, "TrackingEventsRelayFailed", 1,
		map[string]string{"EventType": ev.EventType})
	return fmt.Errorf("deliver event after %d attempts: %w", r.maxAttempts, err)
}
