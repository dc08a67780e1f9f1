package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/folio"
)

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, pool *pgxpool.Pool) error
	Down      func(ctx context.Context, pool *pgxpool.Pool) error
}

func getTableMigrations(tables folio.Tables) []TableMigration {
	return []TableMigration{
		{
			TableName: tables.Documents,
			Up:        createDocumentsTable(tables.Documents),
			Down:      dropTable(tables.Documents),
		},
	}
}

// Migrate creates every table folio needs. It is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables folio.Tables) error {
	for _, migration := range getTableMigrations(tables) {
		if err := migration.Up(ctx, pool); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}
	return nil
}

// DropTables drops every table in reverse migration order.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables folio.Tables) error {
	migrations := getTableMigrations(tables)
	for i := len(migrations) - 1; i >= 0; i-- {
		if err := migrations[i].Down(ctx, pool); err != nil {
			return fmt.Errorf("migrate down %s: %w", migrations[i].TableName, err)
		}
	}
	return nil
}

func createDocumentsTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		quotedTable := pgx.Identifier{tableName}.Sanitize()

		sql := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				name TEXT PRIMARY KEY,
				body BYTEA NOT NULL,
				content_type TEXT NOT NULL,
				cache_control TEXT NOT NULL DEFAULT '',
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`, quotedTable)

		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create documents table: %w", err)
		}
		return nil
	}
}

func dropTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		sql := fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{tableName}.Sanitize())
		_, err := pool.Exec(ctx, sql)
		return err
	}
}
