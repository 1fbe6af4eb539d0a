package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Lumos-Labs-HQ/sprout/internal/schema"
	"github.com/Masterminds/squirrel"

	_ "github.com/go-sql-driver/mysql"
)

type MySQLAdapter struct {
	db *sql.DB
	qb squirrel.StatementBuilderType
}

func NewMySQLAdapter() *MySQLAdapter {
	return &MySQLAdapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

func (m *MySQLAdapter) Provider() string { return "mysql" }

func (m *MySQLAdapter) Connect(ctx context.Context, url string) error {
	db, err := openAndPing(ctx, "mysql", url)
	if err != nil {
		return err
	}
	// FOREIGN_KEY_CHECKS is per-session; pin a single connection.
	db.SetMaxOpenConns(1)
	m.db = db
	return nil
}

func (m *MySQLAdapter) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *MySQLAdapter) IntrospectSchema(ctx context.Context) (*schema.Database, error) {
	db := schema.NewDatabase()

	tableRows, err := m.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer tableRows.Close()

	for tableRows.Next() {
		var name string
		if err := tableRows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		db.AddTable(&schema.Table{Name: name})
	}
	if err := tableRows.Err(); err != nil {
		return nil, err
	}
	if len(db.Names) == 0 {
		return db, nil
	}

	colRows, err := m.db.QueryContext(ctx, `
		SELECT table_name, column_name, data_type, is_nullable = 'YES',
		       column_default, character_maximum_length
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		ORDER BY table_name, ordinal_position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer colRows.Close()

	for colRows.Next() {
		var tableName string
		var col schema.Column
		var columnDefault sql.NullString
		var maxLength sql.NullInt64

		if err := colRows.Scan(&tableName, &col.Name, &col.DataType, &col.Nullable, &columnDefault, &maxLength); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		if columnDefault.Valid {
			col.Default = columnDefault.String
		}
		if maxLength.Valid {
			col.MaxLength = maxLength.Int64
		}
		if t, ok := db.Tables[tableName]; ok {
			t.Columns = append(t.Columns, col)
		}
	}
	if err := colRows.Err(); err != nil {
		return nil, err
	}

	fkRows, err := m.db.QueryContext(ctx, `
		SELECT constraint_name, table_name, column_name,
		       referenced_table_name, referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = DATABASE()
		  AND referenced_table_name IS NOT NULL
		ORDER BY table_name, constraint_name, ordinal_position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer fkRows.Close()

	for fkRows.Next() {
		var tableName string
		var fk schema.ForeignKey
		if err := fkRows.Scan(&fk.ConstraintName, &tableName, &fk.Column, &fk.TargetTable, &fk.TargetColumn); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		if t, ok := db.Tables[tableName]; ok {
			t.ForeignKeys = append(t.ForeignKeys, fk)
		}
	}
	return db, fkRows.Err()
}

func (m *MySQLAdapter) InsertRow(ctx context.Context, table string, row map[string]interface{}) error {
	return insertRow(ctx, m.db, m.qb, table, row)
}

func (m *MySQLAdapter) TruncateTable(ctx context.Context, table string) error {
	if !isValidIdentifier(table) {
		return fmt.Errorf("invalid table name: %s", table)
	}
	_, err := m.db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s", table))
	return err
}

func (m *MySQLAdapter) EnsureLogTable(ctx context.Context, table string) error {
	return ensureLogTable(ctx, m.db, table)
}

func (m *MySQLAdapter) SuspendConstraints(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 0")
	return err
}

func (m *MySQLAdapter) RestoreConstraints(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 1")
	return err
}
