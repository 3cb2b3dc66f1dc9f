package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"logbook/config"
	"logbook/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS log_entries (
    seq       BIGSERIAL PRIMARY KEY,
    id        UUID NOT NULL UNIQUE,
    text      TEXT NOT NULL CHECK (text <> ''),
    timestamp TIMESTAMPTZ NOT NULL,
    archived  BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS log_entries_archived_ts
    ON log_entries (archived, timestamp DESC, seq DESC);
CREATE TABLE IF NOT EXISTS log_entry_events (
    event_id    UUID PRIMARY KEY,
    event_type  TEXT NOT NULL,
    entry_id    UUID NOT NULL,
    payload     JSONB NOT NULL,
    occurred_at TIMESTAMPTZ NOT NULL
);`

const entryColumns = `id::text, text, timestamp, archived`

// PostgresStore implements Store and Journal on a pgx connection pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *log.Logger

	schemaMu    sync.Mutex
	schemaReady bool
}

// NewPostgresStore builds a lazily connecting pool from cfg. It only fails on
// an unusable configuration; reachability is checked by Ping.
func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig, logger *log.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database DSN: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.MaxConnections)
	poolCfg.MinConns = int32(cfg.MinConnections)
	poolCfg.LazyConnect = true

	if d, err := time.ParseDuration(cfg.MaxIdleTime); err == nil {
		poolCfg.MaxConnIdleTime = d
	} else {
		logger.Printf("Warning: Invalid max_idle_time '%s', keeping pool default", cfg.MaxIdleTime)
	}
	if d, err := time.ParseDuration(cfg.MaxLifetime); err == nil {
		poolCfg.MaxConnLifetime = d
	} else {
		logger.Printf("Warning: Invalid max_lifetime '%s', keeping pool default", cfg.MaxLifetime)
	}
	if d, err := time.ParseDuration(cfg.ConnectTimeout); err == nil {
		poolCfg.ConnConfig.ConnectTimeout = d
	}

	pool, err := pgxpool.ConnectConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	logger.Printf("PostgreSQL pool created (max_conns=%d, min_conns=%d)", poolCfg.MaxConns, poolCfg.MinConns)
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Ping acquires a connection and makes sure the schema exists.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return err
	}
	return s.ensureSchema(ctx)
}

// ensureSchema creates the tables on first successful use. A failed attempt
// is retried by the next call.
func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()

	if s.schemaReady {
		return nil
	}
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	s.schemaReady = true
	s.logger.Println("Database schema ready")
	return nil
}

func (s *PostgresStore) InsertEntry(ctx context.Context, entry *models.LogEntry) (*models.LogEntry, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO log_entries (id, text, timestamp, archived) VALUES ($1, $2, $3, $4)
		 RETURNING `+entryColumns,
		uuid.NewString(), entry.Text, entry.Timestamp, entry.Archived)

	out, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("insert log entry: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListEntries(ctx context.Context, archived bool) ([]models.LogEntry, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM log_entries
		 WHERE archived = $1
		 ORDER BY timestamp DESC, seq DESC`, archived)
	if err != nil {
		return nil, fmt.Errorf("query log entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.LogEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) DeleteEntry(ctx context.Context, id string) (*models.LogEntry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx,
		`DELETE FROM log_entries WHERE id = $1 RETURNING `+entryColumns, id)
	out, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete log entry %s: %w", id, err)
	}
	return out, nil
}

func (s *PostgresStore) ArchiveEntry(ctx context.Context, id string) (*models.LogEntry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE log_entries SET archived = TRUE WHERE id = $1 RETURNING `+entryColumns, id)
	out, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("archive log entry %s: %w", id, err)
	}
	return out, nil
}

// AppendEvents writes the batch in one round trip; redelivered events are
// ignored by the primary key.
func (s *PostgresStore) AppendEvents(ctx context.Context, events []*models.LogEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		return 0, err
	}

	batch := &pgx.Batch{}
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return 0, fmt.Errorf("failed to serialize event %s: %w", ev.EventID, err)
		}
		occurredAt, err := time.Parse(time.RFC3339Nano, ev.OccurredAt)
		if err != nil {
			occurredAt = time.Now().UTC()
		}
		batch.Queue(
			`INSERT INTO log_entry_events (event_id, event_type, entry_id, payload, occurred_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (event_id) DO NOTHING`,
			ev.EventID, string(ev.Type), ev.EntryID, payload, occurredAt)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin journal transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	added := 0
	for range events {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return 0, fmt.Errorf("append journal event: %w", err)
		}
		added += int(tag.RowsAffected())
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("close journal batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit journal batch: %w", err)
	}
	return added, nil
}

func (s *PostgresStore) Close() {
	s.logger.Println("Closing PostgreSQL pool...")
	s.pool.Close()
}

func scanEntry(row pgx.Row) (*models.LogEntry, error) {
	var e models.LogEntry
	if err := row.Scan(&e.ID, &e.Text, &e.Timestamp, &e.Archived); err != nil {
		return nil, err
	}
	e.Timestamp = e.Timestamp.UTC()
	return &e, nil
}

var _ Backend = (*PostgresStore)(nil)
