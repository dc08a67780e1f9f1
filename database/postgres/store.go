// Package postgres stores folio index documents in a PostgreSQL table, one
// row per document.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/folio"
)

// Store implements folio.DocumentStore on a pgx pool.
type Store struct {
	pool      *pgxpool.Pool
	tableName string
}

// NewStore creates a Store. The table must already be migrated.
func NewStore(pool *pgxpool.Pool, tables folio.Tables) (*Store, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new postgres store: %w", err)
	}
	return &Store{pool: pool, tableName: pgx.Identifier{tables.Documents}.Sanitize()}, nil
}

// Get returns the stored body. Rows are read straight from the table, so
// Fresh needs no handling.
func (s *Store) Get(ctx context.Context, name string, _ folio.GetOptions) ([]byte, error) {
	query := fmt.Sprintf(`SELECT body FROM %s WHERE name = $1`, s.tableName) //nolint:gosec // G201: table name is sanitized

	var body []byte
	if err := s.pool.QueryRow(ctx, query, name).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get %s: %w", name, folio.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	return body, nil
}

// Put inserts or replaces the document.
func (s *Store) Put(ctx context.Context, name string, body []byte, opts folio.PutOptions) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is sanitized
		`INSERT INTO %s (name, body, content_type, cache_control, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (name) DO UPDATE
		SET body = EXCLUDED.body,
			content_type = EXCLUDED.content_type,
			cache_control = EXCLUDED.cache_control,
			updated_at = EXCLUDED.updated_at`, s.tableName)

	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/json"
	}

	if _, err := s.pool.Exec(ctx, query, name, body, contentType, opts.CacheControl); err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	return nil
}

// Connect opens a pool, migrates and validates the schema, and returns the
// Store with a function that closes the pool.
func Connect(ctx context.Context, dsn string, tables folio.Tables) (*Store, func(), error) {
	if err := tables.Validate(); err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err = Migrate(ctx, pool, tables); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	if err = ValidateSchema(ctx, pool, tables); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("validate postgres schema: %w", err)
	}

	store, err := NewStore(pool, tables)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}
