package consumer

import (
	"context"
	"errors"
	"log"
	"sync"

	"logbook/internal/models"
)

// MockConsumer serves events from an in-process channel. It is selected by
// the mock://local broker address and used by tests.
type MockConsumer struct {
	logger   *log.Logger
	messages chan *models.LogEvent

	mu    sync.Mutex
	acked map[string]bool
}

// NewMockConsumer creates a MockConsumer preloaded with events.
func NewMockConsumer(logger *log.Logger, events ...*models.LogEvent) *MockConsumer {
	mc := &MockConsumer{
		logger:   logger,
		messages: make(chan *models.LogEvent, len(events)+64),
		acked:    make(map[string]bool),
	}
	for _, ev := range events {
		mc.messages <- ev
	}
	logger.Printf("[MockConsumer] Loaded %d events", len(events))
	return mc
}

// Push queues one more event. It must not be called after Close.
func (m *MockConsumer) Push(ev *models.LogEvent) {
	m.messages <- ev
}

// Consume reads the next queued event.
func (m *MockConsumer) Consume(ctx context.Context) (*models.LogEvent, func(success bool), error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case ev, ok := <-m.messages:
		if !ok {
			return nil, nil, errors.New("message channel closed")
		}

		ackCallback := func(success bool) {
			if success {
				m.mu.Lock()
				m.acked[ev.EventID] = true
				m.mu.Unlock()
				return
			}
			m.logger.Printf("[MockConsumer] NACK for event_id=%s, re-queueing", ev.EventID)
			select {
			case m.messages <- ev:
			default:
				m.logger.Printf("[MockConsumer] Warning: Failed to re-queue event (channel full?): event_id=%s", ev.EventID)
			}
		}
		return ev, ackCallback, nil
	}
}

// Acked reports whether the event was positively acknowledged.
func (m *MockConsumer) Acked(eventID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acked[eventID]
}

// Close closes the message channel.
func (m *MockConsumer) Close() error {
	close(m.messages)
	return nil
}

var _ Consumer = (*MockConsumer)(nil)
