package audit

import (
	"context"
	"errors"
	"sync"
)

// ErrSinkClosed is returned when recording to a closed sink
var ErrSinkClosed = errors.New("audit sink is closed")

// PublishCallback is called for each event published to a topic
type PublishCallback func(topic string, event AuditEvent)

// LocalSink is an in-process Sink for library mode and tests. It routes
// events to topics and invokes callbacks for each (topic, event) pair.
type LocalSink struct {
	router    *Router
	callbacks []PublishCallback
	mu        sync.RWMutex
	closed    bool
}

var _ Sink = (*LocalSink)(nil)

// NewLocalSink creates a local sink. A nil config uses DefaultSinkConfig.
func NewLocalSink(config *SinkConfig) *LocalSink {
	if config == nil {
		config = DefaultSinkConfig()
	}
	return &LocalSink{
		router: NewRouter(config.Topics),
	}
}

// OnPublish registers a callback. Callbacks run in registration order.
func (s *LocalSink) OnPublish(cb PublishCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, cb)
}

// Record publishes events to their routed topics
func (s *LocalSink) Record(ctx context.Context, events ...AuditEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrSinkClosed
	}

	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, topic := range s.router.Route(event) {
			for _, cb := range s.callbacks {
				cb(topic, event)
			}
		}
	}
	return nil
}

// Close marks the sink closed. It is idempotent.
func (s *LocalSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
