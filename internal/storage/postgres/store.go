package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is one dataset entry mirrored to Postgres: the record's natural key
// plus its JSON payload exactly as stored in the dataset file.
type Record struct {
	Key     string
	Payload []byte
}

// Store mirrors dataset records into Postgres for collaborators that prefer
// SQL over syncing the JSON artifacts.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the mirror tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS bridge_events (
			source      text NOT NULL,
			dataset     text NOT NULL,
			natural_key text NOT NULL,
			payload     jsonb NOT NULL,
			updated_at  timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (source, dataset, natural_key)
		)
	`)
	if err != nil {
		return fmt.Errorf("create bridge_events: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ingest_cursors (
			source     text PRIMARY KEY,
			last_block bigint NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("create ingest_cursors: %w", err)
	}
	return nil
}

// UpsertRecords inserts or updates dataset records. Incoming payloads win on
// conflict, matching the merge semantics of the JSON datasets.
func (s *Store) UpsertRecords(ctx context.Context, source, dataset string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
			INSERT INTO bridge_events (source, dataset, natural_key, payload, updated_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (source, dataset, natural_key)
			DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
		`, source, dataset, rec.Key, rec.Payload)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadCursor returns the mirrored cursor for a source.
func (s *Store) LoadCursor(ctx context.Context, source string) (int64, bool, error) {
	if source == "" {
		return 0, false, fmt.Errorf("cursor source required")
	}
	var lastBlock int64
	row := s.pool.QueryRow(ctx, `SELECT last_block FROM ingest_cursors WHERE source=$1`, source)
	if err := row.Scan(&lastBlock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return lastBlock, true, nil
}

// SaveCursor upserts the mirrored cursor for a source.
func (s *Store) SaveCursor(ctx context.Context, source string, lastBlock int64) error {
	if source == "" {
		return fmt.Errorf("cursor source required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ingest_cursors (source, last_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (source) DO UPDATE
		SET last_block = EXCLUDED.last_block, updated_at = now()
	`, source, lastBlock)
	return err
}
