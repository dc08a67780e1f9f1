package postgres

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/folio"
)

type column struct {
	dataType string
	nullable bool
}

// documentColumns is the layout Migrate creates.
var documentColumns = map[string]column{
	"name":          {dataType: "text"},
	"body":          {dataType: "bytea"},
	"content_type":  {dataType: "text"},
	"cache_control": {dataType: "text"},
	"updated_at":    {dataType: "timestamp with time zone"},
}

// ValidateSchema checks that the documents table exists in the current schema
// with the columns Migrate creates.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables folio.Tables) error {
	table := tables.Documents
	if !folio.IsValidTableName(table) {
		return fmt.Errorf("validate schema: invalid table name: %s", table)
	}

	actual, err := describeTable(ctx, pool, table)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", table, err)
	}
	if len(actual) == 0 {
		return fmt.Errorf("validate schema: table %s does not exist", table)
	}

	var missing, problems []string
	for _, name := range slices.Sorted(maps.Keys(documentColumns)) {
		want := documentColumns[name]
		got, ok := actual[name]
		switch {
		case !ok:
			missing = append(missing, name)
		case got.dataType != want.dataType:
			problems = append(problems, fmt.Sprintf("%s: expected %s, got %s", name, want.dataType, got.dataType))
		case got.nullable != want.nullable:
			problems = append(problems, fmt.Sprintf("%s: expected nullable=%v", name, want.nullable))
		}
	}
	if len(missing) > 0 {
		problems = append([]string{"missing columns: " + strings.Join(missing, ", ")}, problems...)
	}
	if len(problems) > 0 {
		return fmt.Errorf("validate schema %s: %s", table, strings.Join(problems, "; "))
	}
	return nil
}

// describeTable returns the columns of table, or none when it does not exist.
func describeTable(ctx context.Context, pool *pgxpool.Pool, table string) (map[string]column, error) {
	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
	`, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	columns := make(map[string]column)
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns[name] = column{dataType: strings.ToLower(dataType), nullable: nullable == "YES"}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	return columns, nil
}
