package consumer

import (
	"context"

	"logbook/internal/models"
)

// Consumer defines the interface for lifecycle event consumers.
type Consumer interface {
	// Consume blocks until an event is received or the context is cancelled.
	// It returns the event, an acknowledgement callback, and any error that occurred.
	// The ack callback: ack(true) once the event is journaled (offset is committed);
	// ack(false) for temporary failure (event will be redelivered).
	Consume(ctx context.Context) (ev *models.LogEvent, ack func(success bool), err error)

	// Close gracefully shuts down the consumer connection.
	Close() error
}
