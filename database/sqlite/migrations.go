package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/folio"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, db *sql.DB) error
	Down      func(ctx context.Context, db *sql.DB) error
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
func Migrate(ctx context.Context, db *sql.DB, tables folio.Tables) error {
	for _, migration := range getTableMigrations(tables) {
		if err := migration.Up(ctx, db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}
	return nil
}

// DropTables drops every table in reverse migration order.
func DropTables(ctx context.Context, db *sql.DB, tables folio.Tables) error {
	migrations := getTableMigrations(tables)
	for i := len(migrations) - 1; i >= 0; i-- {
		if err := migrations[i].Down(ctx, db); err != nil {
			return fmt.Errorf("migrate down %s: %w", migrations[i].TableName, err)
		}
	}
	return nil
}

func createDocumentsTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				name TEXT NOT NULL PRIMARY KEY,
				body BLOB NOT NULL,
				content_type TEXT NOT NULL,
				cache_control TEXT NOT NULL DEFAULT '',
				updated_at TEXT NOT NULL
			)
		`, quoteIdentifier(tableName))

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
		return nil
	}
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(tableName))
		_, err := db.ExecContext(ctx, dropSQL)
		return err
	}
}
