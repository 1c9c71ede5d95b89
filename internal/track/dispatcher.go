package track

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shopfront/storefront-gateway/internal/awsx"
)

const (
	defaultQueueSize  = 256
	defaultMaxRetries = 3
	defaultRetryDelay = 500 * time.Millisecond
)

// Dispatcher decouples event emission from delivery: a bounded in-memory
// queue drained by a single background goroutine, with bounded retry per
// event. When the queue is full events are dropped and counted; delivery is
// best effort end to end.
type Dispatcher struct {
	sink       Sink
	queue      chan Event
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
	metrics    *awsx.Metrics

	closeOnce sync.Once
	done      chan struct{}

	mu     sync.RWMutex
	closed bool
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithQueueSize bounds the in-memory queue.
func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan Event, n)
		}
	}
}

// WithRetry sets the per-event delivery attempts and the delay between them.
func WithRetry(attempts int, delay time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if attempts > 0 {
			d.maxRetries = attempts
		}
		if delay >= 0 {
			d.retryDelay = delay
		}
	}
}

// WithMetrics publishes delivered/dropped counters.
func WithMetrics(m *awsx.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher starts the flush goroutine and returns the dispatcher.
func NewDispatcher(sink Sink, log *zap.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sink:       sink,
		queue:      make(chan Event, defaultQueueSize),
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		logger:     log,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	go d.run()
	return d
}

// Enqueue hands an event to the flush loop without blocking. Returns false
// when the event was dropped, either because the queue is full or the
// dispatcher has already shut down.
func (d *Dispatcher) Enqueue(ev Event) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("tracking dispatcher closed, event dropped",
			zap.String("event_type", ev.EventType))
		return false
	}

	select {
	case d.queue <- ev:
		return true
	default:
		d.logger.Warn("tracking queue full, event dropped",
			zap.String("event_type", ev.EventType))
		_ = d.metrics.Count(context.Background(), "TrackingEventsDropped", 1,
			map[string]string{"EventType": ev.EventType})
		return false
	}
}

// Close stops accepting events and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.queue {
		d.deliver(ev)
	}
}

func (d *Dispatcher) deliver(ev Event) {
	ctx := context.Background()
	var err error
	for attempt := 1; attempt <= d.maxRetries; attempt++ {
		if err = d.sink.Deliver(ctx, ev); err == nil {
			_ = d.metrics.Count(ctx, "TrackingEventsDelivered", 1,
				map[string]string{"EventType": ev.EventType})
			return
		}
		if attempt < d.maxRetries {
			time.Sleep(d.retryDelay)
		}
	}

	// Out of attempts: the event is lost. Tracking never surfaces this to
	// its caller.
	d.logger.Warn("tracking delivery failed, event lost",
		zap.String("event_type", ev.EventType),
		zap.Error(err))
	_ = d.metrics.Count(ctx, "TrackingEventsDropped", 1,
		map[string]string{"EventType": ev.EventType})
}
