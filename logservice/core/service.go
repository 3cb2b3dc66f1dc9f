package core

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"logbook/config"
	"logbook/internal/messaging/producer"
	"logbook/internal/models"
	"logbook/storage/store"
)

// Service implements the log record operations on top of a Store
type Service struct {
	store          store.Store
	logger         *log.Logger
	batchProcessor *BatchProcessor
	now            func() time.Time
}

// NewService creates a new Service. Lifecycle events go to p through a batch
// processor; pass producer.NopProducer{} to disable them.
func NewService(s store.Store, p producer.Producer, l *log.Logger, cfg config.BatchProcessorConfig) *Service {
	return &Service{
		store:          s,
		logger:         l,
		batchProcessor: NewBatchProcessor(cfg.BatchSize, cfg.BatchTimeout, cfg.FlushChannelBuffer, p, l),
		now:            time.Now,
	}
}

// Create validates and defaults the input, then writes a new entry.
// It returns a *models.ValidationError when text is missing and nothing is written.
func (s *Service) Create(ctx context.Context, in models.LogInput) (*models.LogEntry, error) {
	entry, err := models.NewLogEntry(in, s.now())
	if err != nil {
		return nil, err
	}

	saved, err := s.store.InsertEntry(ctx, entry)
	if err != nil {
		return nil, &StoreError{Op: "insert", Err: err}
	}

	s.emit(models.EventCreated, saved)
	return saved, nil
}

// ListActive returns all entries that are not archived, newest first
func (s *Service) ListActive(ctx context.Context) ([]models.LogEntry, error) {
	return s.list(ctx, false)
}

// ListArchived returns all archived entries, newest first
func (s *Service) ListArchived(ctx context.Context) ([]models.LogEntry, error) {
	return s.list(ctx, true)
}

func (s *Service) list(ctx context.Context, archived bool) ([]models.LogEntry, error) {
	entries, err := s.store.ListEntries(ctx, archived)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	if entries == nil {
		entries = []models.LogEntry{}
	}
	return entries, nil
}

// Delete removes the entry and returns it
func (s *Service) Delete(ctx context.Context, id string) (*models.LogEntry, error) {
	deleted, err := s.store.DeleteEntry(ctx, id)
	if err != nil {
		return nil, s.byIDError("delete", err)
	}

	s.emit(models.EventDeleted, deleted)
	return deleted, nil
}

// Archive marks the entry archived. Archiving an archived entry succeeds.
func (s *Service) Archive(ctx context.Context, id string) (*models.LogEntry, error) {
	archived, err := s.store.ArchiveEntry(ctx, id)
	if err != nil {
		return nil, s.byIDError("archive", err)
	}

	s.emit(models.EventArchived, archived)
	return archived, nil
}

func (s *Service) byIDError(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return &StoreError{Op: op, Err: err}
}

func (s *Service) emit(t models.EventType, e *models.LogEntry) {
	s.batchProcessor.Submit(&models.LogEvent{
		EventID:    uuid.NewString(),
		Type:       t,
		EntryID:    e.ID,
		Text:       e.Text,
		Timestamp:  e.Timestamp.Format(time.RFC3339Nano),
		Archived:   e.Archived,
		OccurredAt: s.now().UTC().Format(time.RFC3339Nano),
	})
}

// Close flushes pending events
func (s *Service) Close() {
	s.batchProcessor.Close()
}

// Ping reports whether the store is reachable
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return &StoreError{Op: "ping", Err: err}
	}
	return nil
}
