package store

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"logbook/config"
	"logbook/internal/models"
)

// Runs against a real database only when LOGBOOK_TEST_DSN is set.
func newTestPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("LOGBOOK_TEST_DSN")
	if dsn == "" {
		t.Skip("LOGBOOK_TEST_DSN not set")
	}

	cfg := config.DatabaseConfig{DSN: dsn, MaxConnections: 4, MaxIdleTime: "1m", MaxLifetime: "5m", ConnectTimeout: "5s"}
	ctx := context.Background()
	s, err := NewPostgresStore(ctx, cfg, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	t.Cleanup(s.Close)

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if _, err := s.pool.Exec(ctx, `TRUNCATE log_entries, log_entry_events`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return s
}

func TestPostgresStore_Lifecycle(t *testing.T) {
	s := newTestPostgres(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	first := insert(t, s, "first", base)
	second := insert(t, s, "second", base.Add(time.Second))

	active, err := s.ListEntries(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 2 || active[0].ID != second.ID || active[1].ID != first.ID {
		t.Fatalf("active = %+v", active)
	}

	for i := 0; i < 2; i++ {
		e, err := s.ArchiveEntry(ctx, first.ID)
		if err != nil || !e.Archived {
			t.Fatalf("archive #%d: %+v, %v", i+1, e, err)
		}
	}
	archived, _ := s.ListEntries(ctx, true)
	if len(archived) != 1 || archived[0].ID != first.ID {
		t.Fatalf("archived = %+v", archived)
	}

	if _, err := s.DeleteEntry(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.DeleteEntry(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := s.ArchiveEntry(ctx, "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("malformed id: %v", err)
	}
}

func TestPostgresStore_AppendEvents(t *testing.T) {
	s := newTestPostgres(t)
	ctx := context.Background()

	ev := &models.LogEvent{
		EventID:    uuid.NewString(),
		Type:       models.EventCreated,
		EntryID:    uuid.NewString(),
		Text:       "fed baby",
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	added, err := s.AppendEvents(ctx, []*models.LogEvent{ev, ev})
	if err != nil {
		t.Fatal(err)
	}
	if added != 1 {
		t.Errorf("added = %d, want 1", added)
	}
}
