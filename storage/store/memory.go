package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"logbook/internal/models"
)

type memoryRecord struct {
	seq   uint64
	entry models.LogEntry
}

// MemoryStore keeps entries and journal events in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	seq     uint64
	entries map[string]*memoryRecord

	events    []*models.LogEvent
	eventSeen map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:   make(map[string]*memoryRecord),
		eventSeen: make(map[string]struct{}),
	}
}

func (m *MemoryStore) InsertEntry(_ context.Context, entry *models.LogEntry) (*models.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	rec := &memoryRecord{seq: m.seq, entry: *entry}
	rec.entry.ID = uuid.NewString()
	m.entries[rec.entry.ID] = rec

	out := rec.entry
	return &out, nil
}

func (m *MemoryStore) ListEntries(_ context.Context, archived bool) ([]models.LogEntry, error) {
	m.mu.RLock()
	matched := make([]*memoryRecord, 0, len(m.entries))
	for _, rec := range m.entries {
		if rec.entry.Archived == archived {
			matched = append(matched, rec)
		}
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.entry.Timestamp.Equal(b.entry.Timestamp) {
			return a.entry.Timestamp.After(b.entry.Timestamp)
		}
		return a.seq > b.seq
	})

	result := make([]models.LogEntry, len(matched))
	for i, rec := range matched {
		result[i] = rec.entry
	}
	return result, nil
}

func (m *MemoryStore) DeleteEntry(_ context.Context, id string) (*models.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.entries, id)

	out := rec.entry
	return &out, nil
}

func (m *MemoryStore) ArchiveEntry(_ context.Context, id string) (*models.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	rec.entry.Archived = true

	out := rec.entry
	return &out, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) AppendEvents(_ context.Context, events []*models.LogEvent) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for _, ev := range events {
		if _, dup := m.eventSeen[ev.EventID]; dup {
			continue
		}
		m.eventSeen[ev.EventID] = struct{}{}
		cp := *ev
		m.events = append(m.events, &cp)
		added++
	}
	return added, nil
}

// Events returns a copy of the journal in append order.
func (m *MemoryStore) Events() []models.LogEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.LogEvent, len(m.events))
	for i, ev := range m.events {
		out[i] = *ev
	}
	return out
}

func (m *MemoryStore) Close() {}

var _ Backend = (*MemoryStore)(nil)
