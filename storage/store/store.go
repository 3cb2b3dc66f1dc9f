package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"logbook/config"
	"logbook/internal/models"
)

// ErrNotFound is returned when no entry matches the given identifier.
var ErrNotFound = errors.New("log entry not found")

// Store persists log entries. Every method is a single atomic operation on
// one entry, or a single read.
type Store interface {
	// InsertEntry assigns a new ID to entry and writes it.
	InsertEntry(ctx context.Context, entry *models.LogEntry) (*models.LogEntry, error)

	// ListEntries returns every entry whose archived flag equals archived,
	// newest timestamp first. Entries sharing a timestamp are returned in
	// reverse insertion order.
	ListEntries(ctx context.Context, archived bool) ([]models.LogEntry, error)

	// DeleteEntry removes the entry and returns it as it was.
	DeleteEntry(ctx context.Context, id string) (*models.LogEntry, error)

	// ArchiveEntry sets archived=true and returns the updated entry.
	ArchiveEntry(ctx context.Context, id string) (*models.LogEntry, error)

	// Ping checks that the backing database is reachable.
	Ping(ctx context.Context) error

	Close()
}

// Journal is the append-only record of lifecycle events.
type Journal interface {
	// AppendEvents writes the events, skipping any whose EventID is already
	// recorded, and reports how many were new.
	AppendEvents(ctx context.Context, events []*models.LogEvent) (int, error)

	Close()
}

// Backend is a Store that also carries the event journal.
type Backend interface {
	Store
	Journal
}

// Open returns the backend selected by cfg.DSN. A PostgreSQL backend connects
// lazily; call Ping to find out whether the database is reachable.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *log.Logger) (Backend, error) {
	if cfg.IsMemory() {
		logger.Println("Using in-memory store, entries will not survive a restart")
		return NewMemoryStore(), nil
	}
	s, err := NewPostgresStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres store: %w", err)
	}
	return s, nil
}
