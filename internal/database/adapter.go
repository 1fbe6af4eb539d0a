package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"

	"github.com/Lumos-Labs-HQ/sprout/internal/schema"
	"github.com/Masterminds/squirrel"
)

// Adapter is the database boundary the generation and load pipeline works
// against: read-only catalog introspection plus row inserts and
// integrity-aware truncation.
type Adapter interface {
	Connect(ctx context.Context, url string) error
	Close() error
	Ping(ctx context.Context) error

	// IntrospectSchema reads base tables, columns and foreign keys from the
	// working schema. It runs fresh on every call; nothing is cached.
	IntrospectSchema(ctx context.Context) (*schema.Database, error)

	// InsertRow inserts a single row. Callers own error containment.
	InsertRow(ctx context.Context, table string, row map[string]interface{}) error

	// TruncateTable empties a table, cascading to dependents where the
	// dialect supports it.
	TruncateTable(ctx context.Context, table string) error

	// SuspendConstraints relaxes foreign-key enforcement for the session.
	// RestoreConstraints must always be called afterward, error path included.
	SuspendConstraints(ctx context.Context) error
	RestoreConstraints(ctx context.Context) error

	// EnsureLogTable creates the import run-log table when absent.
	EnsureLogTable(ctx context.Context, table string) error

	Provider() string
}

// validIdentifier validates SQL identifiers (table/column names) to prevent
// SQL injection through configuration or catalog data.
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func isValidIdentifier(name string) bool {
	return validIdentifier.MatchString(name)
}

func NewAdapter(provider string) Adapter {
	switch provider {
	case "postgresql", "postgres":
		return NewPostgresAdapter()
	case "mysql":
		return NewMySQLAdapter()
	case "sqlite", "sqlite3":
		return NewSQLiteAdapter()
	default:
		return NewPostgresAdapter()
	}
}

func openAndPing(ctx context.Context, driver, url string) (*sql.DB, error) {
	db, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// ensureLogTable creates the run-log table read by external reporting. The
// column types are the portable subset all three dialects accept.
func ensureLogTable(ctx context.Context, db *sql.DB, table string) error {
	if !isValidIdentifier(table) {
		return fmt.Errorf("invalid table name: %s", table)
	}
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		table_name VARCHAR(255) NOT NULL,
		rows_inserted INTEGER NOT NULL,
		rows_failed INTEGER NOT NULL,
		imported_at TIMESTAMP NOT NULL
	)`, table)
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create log table %s: %w", table, err)
	}
	return nil
}

// insertRow builds and executes a single-row INSERT through squirrel so each
// dialect gets its own placeholder format. Columns are sorted for a stable
// statement shape.
func insertRow(ctx context.Context, db *sql.DB, qb squirrel.StatementBuilderType, table string, row map[string]interface{}) error {
	if !isValidIdentifier(table) {
		return fmt.Errorf("invalid table name: %s", table)
	}

	columns := make([]string, 0, len(row))
	for col := range row {
		if !isValidIdentifier(col) {
			return fmt.Errorf("invalid column name: %s", col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	values := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		values = append(values, row[col])
	}

	query, args, err := qb.Insert(table).Columns(columns...).Values(values...).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert for %s: %w", table, err)
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}
