package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Lumos-Labs-HQ/sprout/internal/schema"
	"github.com/Masterminds/squirrel"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteAdapter struct {
	db *sql.DB
	qb squirrel.StatementBuilderType
}

func NewSQLiteAdapter() *SQLiteAdapter {
	return &SQLiteAdapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

func (s *SQLiteAdapter) Provider() string { return "sqlite" }

func (s *SQLiteAdapter) Connect(ctx context.Context, url string) error {
	db, err := openAndPing(ctx, "sqlite3", url)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)
	s.db = db
	return nil
}

func (s *SQLiteAdapter) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteAdapter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteAdapter) IntrospectSchema(ctx context.Context) (*schema.Database, error) {
	db := schema.NewDatabase()

	tableRows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
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

	for _, name := range db.Names {
		table := db.Tables[name]

		colRows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info('%s')", name))
		if err != nil {
			return nil, fmt.Errorf("failed to query columns for %s: %w", name, err)
		}
		for colRows.Next() {
			var cid, notNull, pk int
			var colName, colType string
			var dflt sql.NullString
			if err := colRows.Scan(&cid, &colName, &colType, &notNull, &dflt, &pk); err != nil {
				colRows.Close()
				return nil, fmt.Errorf("failed to scan column for %s: %w", name, err)
			}
			col := schema.Column{
				Name:     colName,
				DataType: colType,
				Nullable: notNull == 0,
			}
			if dflt.Valid {
				col.Default = dflt.String
			}
			table.Columns = append(table.Columns, col)
		}
		colRows.Close()

		fkRows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list('%s')", name))
		if err != nil {
			return nil, fmt.Errorf("failed to query foreign keys for %s: %w", name, err)
		}
		for fkRows.Next() {
			var id, seq int
			var refTable, from string
			var to sql.NullString
			var onUpdate, onDelete, match string
			if err := fkRows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
				fkRows.Close()
				return nil, fmt.Errorf("failed to scan foreign key for %s: %w", name, err)
			}
			fk := schema.ForeignKey{
				ConstraintName: fmt.Sprintf("%s_fk_%d", name, id),
				Column:         from,
				TargetTable:    refTable,
			}
			if to.Valid {
				fk.TargetColumn = to.String
			}
			table.ForeignKeys = append(table.ForeignKeys, fk)
		}
		fkRows.Close()
	}

	return db, nil
}

func (s *SQLiteAdapter) InsertRow(ctx context.Context, table string, row map[string]interface{}) error {
	return insertRow(ctx, s.db, s.qb, table, row)
}

func (s *SQLiteAdapter) TruncateTable(ctx context.Context, table string) error {
	if !isValidIdentifier(table) {
		return fmt.Errorf("invalid table name: %s", table)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
		return err
	}
	// Reset the autoincrement counter; ignore failure when the table has none.
	s.db.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = ?", table)
	return nil
}

func (s *SQLiteAdapter) EnsureLogTable(ctx context.Context, table string) error {
	return ensureLogTable(ctx, s.db, table)
}

func (s *SQLiteAdapter) SuspendConstraints(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys = OFF")
	return err
}

func (s *SQLiteAdapter) RestoreConstraints(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys = ON")
	return err
}
