package producer

import (
	"context"

	"logbook/internal/models"
)

// Producer defines the interface for the lifecycle event publisher
type Producer interface {
	// Publish sends a single event
	Publish(ctx context.Context, ev *models.LogEvent) error

	// PublishBatch sends events in one write
	PublishBatch(ctx context.Context, evs []*models.LogEvent) error

	// Close flushes pending writes and closes the producer
	Close() error
}

// NopProducer discards every event. It is used when events are disabled.
type NopProducer struct{}

func (NopProducer) Publish(context.Context, *models.LogEvent) error        { return nil }
func (NopProducer) PublishBatch(context.Context, []*models.LogEvent) error { return nil }
func (NopProducer) Close() error                                           { return nil }

var _ Producer = NopProducer{}
