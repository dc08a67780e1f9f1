// Package sqlite stores folio index documents in an SQLite table, one row per
// document, using the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sagarc03/folio"

	_ "modernc.org/sqlite" // SQLite driver
)

// Store implements folio.DocumentStore on a database/sql handle.
type Store struct {
	db        *sql.DB
	tableName string
	now       func() time.Time
}

// NewStore creates a Store. The table must already be migrated.
func NewStore(db *sql.DB, tables folio.Tables) (*Store, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new sqlite store: %w", err)
	}
	return &Store{db: db, tableName: quoteIdentifier(tables.Documents), now: time.Now}, nil
}

func (s *Store) Get(ctx context.Context, name string, _ folio.GetOptions) ([]byte, error) {
	query := fmt.Sprintf(`SELECT body FROM %s WHERE name = ?`, s.tableName) //nolint:gosec // G201: table name is validated

	var body []byte
	if err := s.db.QueryRowContext(ctx, query, name).Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get %s: %w", name, folio.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	return body, nil
}

func (s *Store) Put(ctx context.Context, name string, body []byte, opts folio.PutOptions) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (name, body, content_type, cache_control, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE
		SET body = excluded.body,
			content_type = excluded.content_type,
			cache_control = excluded.cache_control,
			updated_at = excluded.updated_at`, s.tableName)

	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	now := s.now().UTC().Format(time.RFC3339Nano)

	if _, err := s.db.ExecContext(ctx, query, name, body, contentType, opts.CacheControl, now); err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	return nil
}

// Connect opens the database, migrates and validates the schema, and returns
// the Store with a function that closes the handle.
func Connect(ctx context.Context, dsn string, tables folio.Tables) (*Store, func(), error) {
	if err := tables.Validate(); err != nil {
		return nil, nil, fmt.Errorf("connect sqlite: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single connection keeps ":memory:" databases shared between queries.
	db.SetMaxOpenConns(1)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err = Migrate(ctx, db, tables); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	if err = ValidateSchema(ctx, db, tables); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("validate sqlite schema: %w", err)
	}

	store, err := NewStore(db, tables)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, func() { _ = db.Close() }, nil
}
