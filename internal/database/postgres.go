package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Lumos-Labs-HQ/sprout/internal/schema"
	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresAdapter struct {
	db *sql.DB
	qb squirrel.StatementBuilderType
}

func NewPostgresAdapter() *PostgresAdapter {
	return &PostgresAdapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (p *PostgresAdapter) Provider() string { return "postgresql" }

func (p *PostgresAdapter) Connect(ctx context.Context, url string) error {
	db, err := openAndPing(ctx, "pgx", url)
	if err != nil {
		return err
	}
	// Constraint suspension is session state, so every statement of a run
	// must ride the same connection.
	db.SetMaxOpenConns(1)
	p.db = db
	return nil
}

func (p *PostgresAdapter) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *PostgresAdapter) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresAdapter) IntrospectSchema(ctx context.Context) (*schema.Database, error) {
	names, err := p.tableNames(ctx)
	if err != nil {
		return nil, err
	}

	db := schema.NewDatabase()
	if len(names) == 0 {
		return db, nil
	}
	for _, name := range names {
		db.AddTable(&schema.Table{Name: name})
	}

	// Columns and constraints come from two simple queries merged in Go,
	// rather than one wide join over information_schema.
	columnsQuery := `
		SELECT c.table_name, c.column_name, c.udt_name, c.is_nullable,
		       c.column_default, c.character_maximum_length
		FROM information_schema.columns c
		WHERE c.table_name = ANY($1)
		  AND c.table_schema = current_schema()
		ORDER BY c.table_name, c.ordinal_position
	`
	rows, err := p.db.QueryContext(ctx, columnsQuery, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName string
		var col schema.Column
		var isNullable string
		var columnDefault sql.NullString
		var maxLength sql.NullInt64

		if err := rows.Scan(&tableName, &col.Name, &col.DataType, &isNullable, &columnDefault, &maxLength); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		col.Nullable = isNullable == "YES"
		if columnDefault.Valid {
			col.Default = columnDefault.String
		}
		if maxLength.Valid {
			col.MaxLength = maxLength.Int64
		}
		db.Tables[tableName].Columns = append(db.Tables[tableName].Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	fkQuery := `
		SELECT con.conname,
		       src_table.relname,
		       src_attr.attname,
		       tgt_table.relname,
		       tgt_attr.attname
		FROM pg_constraint con
		JOIN pg_class src_table ON con.conrelid = src_table.oid
		JOIN pg_namespace ns ON src_table.relnamespace = ns.oid
		CROSS JOIN LATERAL UNNEST(con.conkey, con.confkey) WITH ORDINALITY AS cols(src_col, tgt_col, ord)
		JOIN pg_attribute src_attr ON src_attr.attrelid = src_table.oid AND src_attr.attnum = cols.src_col
		JOIN pg_class tgt_table ON con.confrelid = tgt_table.oid
		JOIN pg_attribute tgt_attr ON tgt_attr.attrelid = tgt_table.oid AND tgt_attr.attnum = cols.tgt_col
		WHERE src_table.relname = ANY($1)
		  AND ns.nspname = current_schema()
		  AND con.contype = 'f'
		ORDER BY con.conname
	`
	fkRows, err := p.db.QueryContext(ctx, fkQuery, pq.Array(names))
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
		db.Tables[tableName].ForeignKeys = append(db.Tables[tableName].ForeignKeys, fk)
	}
	if err := fkRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read foreign keys: %w", err)
	}

	return db, nil
}

func (p *PostgresAdapter) tableNames(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (p *PostgresAdapter) InsertRow(ctx context.Context, table string, row map[string]interface{}) error {
	return insertRow(ctx, p.db, p.qb, table, row)
}

func (p *PostgresAdapter) TruncateTable(ctx context.Context, table string) error {
	if !isValidIdentifier(table) {
		return fmt.Errorf("invalid table name: %s", table)
	}
	_, err := p.db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table))
	return err
}

func (p *PostgresAdapter) EnsureLogTable(ctx context.Context, table string) error {
	return ensureLogTable(ctx, p.db, table)
}

func (p *PostgresAdapter) SuspendConstraints(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, "SET session_replication_role = replica")
	return err
}

func (p *PostgresAdapter) RestoreConstraints(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, "SET session_replication_role = origin")
	return err
}
