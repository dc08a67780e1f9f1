package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/folio"
	"github.com/sagarc03/folio/database/postgres"
)

func setupStore(t *testing.T) (*postgres.Store, folio.Tables) {
	t.Helper()
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	tables := folio.Tables{Documents: "documents_" + getRandomString(t)}
	store, closeFn, err := postgres.Connect(ctx, getDSN(pool), tables)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = postgres.DropTables(ctx, pool, tables)
		closeFn()
	})
	return store, tables
}

func TestStore_PutGet(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, folio.BlogsDocument, folio.GetOptions{})
	assert.ErrorIs(t, err, folio.ErrNotFound)

	require.NoError(t, store.Put(ctx, folio.BlogsDocument, []byte(`[{"slug":"a"}]`), folio.PutOptions{ContentType: "application/json"}))
	require.NoError(t, store.Put(ctx, folio.BlogsDocument, []byte(`[{"slug":"b"}]`), folio.PutOptions{ContentType: "application/json"}))

	got, err := store.Get(ctx, folio.BlogsDocument, folio.GetOptions{Fresh: true})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"slug":"b"}]`, string(got))
}

func TestStore_DocumentsAreIndependent(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, folio.BlogsDocument, []byte(`[1]`), folio.PutOptions{}))
	require.NoError(t, store.Put(ctx, folio.GalleryDocument, []byte(`[2]`), folio.PutOptions{}))

	blogs, err := store.Get(ctx, folio.BlogsDocument, folio.GetOptions{})
	require.NoError(t, err)
	gallery, err := store.Get(ctx, folio.GalleryDocument, folio.GetOptions{})
	require.NoError(t, err)

	assert.Equal(t, `[1]`, string(blogs))
	assert.Equal(t, `[2]`, string(gallery))
}

func TestMigrate_Idempotent(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()
	tables := folio.Tables{Documents: "migrate_" + getRandomString(t)}
	defer func() { _ = postgres.DropTables(ctx, pool, tables) }()

	require.NoError(t, postgres.Migrate(ctx, pool, tables))
	require.NoError(t, postgres.Migrate(ctx, pool, tables))
	assert.NoError(t, postgres.ValidateSchema(ctx, pool, tables))
}

func TestValidateSchema(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	t.Run("table does not exist", func(t *testing.T) {
		err := postgres.ValidateSchema(ctx, pool, folio.Tables{Documents: "missing_" + getRandomString(t)})
		assert.ErrorContains(t, err, "does not exist")
	})

	t.Run("missing columns", func(t *testing.T) {
		tableName := "incomplete_" + getRandomString(t)
		_, err := pool.Exec(ctx, `CREATE TABLE `+tableName+` (name TEXT PRIMARY KEY)`)
		require.NoError(t, err)
		defer func() { _ = postgres.DropTables(ctx, pool, folio.Tables{Documents: tableName}) }()

		err = postgres.ValidateSchema(ctx, pool, folio.Tables{Documents: tableName})
		assert.ErrorContains(t, err, "missing columns")
	})

	t.Run("wrong column type", func(t *testing.T) {
		tableName := "wrongtype_" + getRandomString(t)
		_, err := pool.Exec(ctx, `
			CREATE TABLE `+tableName+` (
				name TEXT PRIMARY KEY,
				body TEXT NOT NULL,
				content_type TEXT NOT NULL,
				cache_control TEXT NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)
		`)
		require.NoError(t, err)
		defer func() { _ = postgres.DropTables(ctx, pool, folio.Tables{Documents: tableName}) }()

		err = postgres.ValidateSchema(ctx, pool, folio.Tables{Documents: tableName})
		assert.ErrorContains(t, err, "body")
	})
}

func TestConnect_InvalidTable(t *testing.T) {
	_, _, err := postgres.Connect(context.Background(), "postgres://unused", folio.Tables{Documents: "Bad-Name"})
	assert.Error(t, err)
}
