package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/sagarc03/folio"
)

type column struct {
	dataType string
	nullable bool
}

// documentColumns is the layout Migrate creates.
var documentColumns = map[string]column{
	"name":          {dataType: "text"},
	"body":          {dataType: "blob"},
	"content_type":  {dataType: "text"},
	"cache_control": {dataType: "text"},
	"updated_at":    {dataType: "text"},
}

// ValidateSchema checks that the documents table exists with the columns
// Migrate creates.
func ValidateSchema(ctx context.Context, db *sql.DB, tables folio.Tables) error {
	table := tables.Documents
	if !folio.IsValidTableName(table) {
		return fmt.Errorf("validate schema: invalid table name: %s", table)
	}

	actual, err := describeTable(ctx, db, table)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", table, err)
	}
	if len(actual) == 0 {
		return fmt.Errorf("validate schema: table %s does not exist", table)
	}

	if problems := compareColumns(actual); len(problems) > 0 {
		return fmt.Errorf("validate schema %s: %s", table, strings.Join(problems, "; "))
	}
	return nil
}

// describeTable returns the columns of table, or none when it does not exist.
func describeTable(ctx context.Context, db *sql.DB, table string) (map[string]column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make(map[string]column)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, dataType   string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns[name] = column{dataType: strings.ToLower(dataType), nullable: notNull == 0 && pk == 0}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	return columns, nil
}

func compareColumns(actual map[string]column) []string {
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
	return problems
}
