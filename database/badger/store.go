// Package badger stores folio index documents in an embedded Badger
// key-value database. Keys are document names and values are the raw JSON
// bodies.
package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/sagarc03/folio"
)

const keyPrefix = "doc:"

// Store implements folio.DocumentStore on a Badger database.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a database at path. An empty path opens an
// in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLoggingLevel(badger.WARNING).WithCompression(options.None)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

func documentKey(name string) []byte {
	return []byte(keyPrefix + name)
}

func (s *Store) Get(ctx context.Context, name string, _ folio.GetOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var body []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(documentKey(name))
		if err != nil {
			return err
		}
		body, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("get %s: %w", name, folio.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	return body, nil
}

// Put replaces the document. Content type and cache headers are not stored.
func (s *Store) Put(ctx context.Context, name string, body []byte, _ folio.PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value := make([]byte, len(body))
	copy(value, body)

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(documentKey(name), value)
	}); err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	return nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
