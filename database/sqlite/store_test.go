package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/folio"
	"github.com/sagarc03/folio/database/sqlite"
)

var testTables = folio.Tables{Documents: "folio_documents"}

func setupStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, closeFn, err := sqlite.Connect(context.Background(), ":memory:", testTables)
	require.NoError(t, err)
	t.Cleanup(closeFn)
	return store
}

func TestStore_PutGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, folio.GalleryDocument, folio.GetOptions{})
	assert.ErrorIs(t, err, folio.ErrNotFound)

	require.NoError(t, store.Put(ctx, folio.GalleryDocument, []byte(`[{"id":"1"}]`), folio.PutOptions{ContentType: "application/json"}))
	require.NoError(t, store.Put(ctx, folio.GalleryDocument, []byte(`[{"id":"2"}]`), folio.PutOptions{}))

	got, err := store.Get(ctx, folio.GalleryDocument, folio.GetOptions{Fresh: true})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"2"}]`, string(got))
}

func TestStore_PersistsAcrossConnections(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "folio.db")
	ctx := context.Background()

	store, closeFn, err := sqlite.Connect(ctx, dsn, testTables)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, folio.AnalyticsDocument, []byte(`{"totalViews":3}`), folio.PutOptions{}))
	closeFn()

	store, closeFn, err = sqlite.Connect(ctx, dsn, testTables)
	require.NoError(t, err)
	defer closeFn()

	got, err := store.Get(ctx, folio.AnalyticsDocument, folio.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, `{"totalViews":3}`, string(got))
}

func TestMigrate(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer func() { _ = db.Close() }()
	ctx := context.Background()

	require.NoError(t, sqlite.Migrate(ctx, db, testTables))
	require.NoError(t, sqlite.Migrate(ctx, db, testTables), "migrate is idempotent")
	require.NoError(t, sqlite.ValidateSchema(ctx, db, testTables))

	require.NoError(t, sqlite.DropTables(ctx, db, testTables))
	require.NoError(t, sqlite.DropTables(ctx, db, testTables), "drop is idempotent")
	assert.ErrorContains(t, sqlite.ValidateSchema(ctx, db, testTables), "does not exist")
}

func TestValidateSchema(t *testing.T) {
	tests := []struct {
		name    string
		ddl     string
		wantErr string
	}{
		{
			name:    "missing columns",
			ddl:     `CREATE TABLE folio_documents (name TEXT NOT NULL PRIMARY KEY)`,
			wantErr: "missing columns",
		},
		{
			name: "nullable body",
			ddl: `CREATE TABLE folio_documents (
				name TEXT NOT NULL PRIMARY KEY,
				body BLOB,
				content_type TEXT NOT NULL,
				cache_control TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			wantErr: "body: expected nullable=false",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := sql.Open("sqlite", ":memory:")
			require.NoError(t, err)
			db.SetMaxOpenConns(1)
			defer func() { _ = db.Close() }()

			_, err = db.ExecContext(context.Background(), tt.ddl)
			require.NoError(t, err)

			err = sqlite.ValidateSchema(context.Background(), db, testTables)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConnect_InvalidTable(t *testing.T) {
	_, _, err := sqlite.Connect(context.Background(), ":memory:", folio.Tables{Documents: "drop table;"})
	assert.Error(t, err)
}
