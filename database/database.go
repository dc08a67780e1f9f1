package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/folio"
	"github.com/sagarc03/folio/database/badger"
	"github.com/sagarc03/folio/database/postgres"
	"github.com/sagarc03/folio/database/sqlite"
)

const DefaultTable = "folio_documents"

// Config holds the configuration for connecting to a document backend.
type Config struct {
	// Type specifies the backend: "sqlite", "postgres" or "badger"
	Type string `mapstructure:"type"`
	// DSN is the connection string, or the data directory for badger
	DSN string `mapstructure:"dsn"`
	// Table is the documents table name (sqlite and postgres only)
	Table string `mapstructure:"table"`
}

// IsDatabase reports whether typ names a backend handled by Connect.
func IsDatabase(typ string) bool {
	switch typ {
	case "sqlite", "postgres", "badger":
		return true
	}
	return false
}

// Connect opens the configured backend, runs migrations, validates the
// schema, and returns a ready DocumentStore. The returned cleanup function
// closes the connection.
func Connect(ctx context.Context, cfg Config) (folio.DocumentStore, func(), error) {
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	tables := folio.Tables{Documents: table}

	switch cfg.Type {
	case "sqlite":
		store, cleanup, err := sqlite.Connect(ctx, cfg.DSN, tables)
		if err != nil {
			return nil, nil, err
		}
		return store, cleanup, nil
	case "postgres":
		store, cleanup, err := postgres.Connect(ctx, cfg.DSN, tables)
		if err != nil {
			return nil, nil, err
		}
		return store, cleanup, nil
	case "badger":
		store, err := badger.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}
