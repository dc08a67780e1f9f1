// Package database connects folio to an embedded or managed document backend.
//
// Each backend stores the index documents whole, keyed by object name, with
// the same last-writer-wins semantics as the object store.
//
// # Supported Backends
//
//   - PostgreSQL: pgx connection pool, one row per document
//   - SQLite: modernc.org/sqlite, suitable for single-node deployments
//   - Badger: embedded key-value store, no schema
//
// # Usage
//
//	docs, cleanup, err := database.Connect(ctx, database.Config{
//	    Type: "sqlite",
//	    DSN:  "folio.db",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
//
// For sqlite and postgres, Connect migrates and validates the documents
// table before returning.
package database
