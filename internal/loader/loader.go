package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lumos-Labs-HQ/sprout/internal/config"
	"github.com/Lumos-Labs-HQ/sprout/internal/database"
	"github.com/Lumos-Labs-HQ/sprout/internal/snapshot"
	"github.com/fatih/color"
)

// Loader moves snapshots into the database and wipes them back out. Import
// is best-effort: rows are inserted independently and a failure never stops
// the remaining rows or tables. Reset is all-or-nothing per run but always
// restores constraint enforcement, error path included.
type Loader struct {
	adapter  database.Adapter
	store    snapshot.Store
	spec     *config.SeedSpec
	logTable string
}

// TableResult reports one table's import outcome.
type TableResult struct {
	Table    string
	Inserted int
	Failed   int
	Skipped  bool
	Err      error
}

type Summary struct {
	Results []TableResult
}

func (s *Summary) TotalInserted() int {
	n := 0
	for _, r := range s.Results {
		n += r.Inserted
	}
	return n
}

func New(adapter database.Adapter, store snapshot.Store, spec *config.SeedSpec, logTable string) *Loader {
	return &Loader{
		adapter:  adapter,
		store:    store,
		spec:     spec,
		logTable: logTable,
	}
}

// importable reports whether the table takes part in import and reset. A
// table with no seed config entry is left alone entirely.
func (l *Loader) importable(table string) bool {
	tableSpec, ok := l.spec.Tables[table]
	return ok && tableSpec.Importable()
}

// Import reads each importable table's snapshot in insertion order and
// inserts its rows one at a time. Per-row failures are logged and counted.
// After the tables, one log row per imported table is appended to the
// run-log table for external reporting.
func (l *Loader) Import(ctx context.Context, order []string) *Summary {
	summary := &Summary{}

	for _, table := range order {
		result := TableResult{Table: table}

		if !l.importable(table) {
			result.Skipped = true
			summary.Results = append(summary.Results, result)
			continue
		}

		rows, err := l.store.Read(table)
		if err != nil {
			if errors.Is(err, snapshot.ErrNotFound) {
				color.Yellow("  ⚠️  No snapshot for %s, skipping", table)
				result.Skipped = true
			} else {
				color.Yellow("  ⚠️  Failed to read snapshot for %s: %v", table, err)
				result.Err = err
			}
			summary.Results = append(summary.Results, result)
			continue
		}

		color.Cyan("  📥 Importing %s (%d rows)...", table, len(rows))
		for _, row := range rows {
			if err := l.adapter.InsertRow(ctx, table, row); err != nil {
				color.Yellow("  ⚠️  Failed to insert row into %s: %v", table, err)
				result.Failed++
				continue
			}
			result.Inserted++
		}
		color.Green("  ✅ %s: %d inserted, %d failed", table, result.Inserted, result.Failed)

		summary.Results = append(summary.Results, result)
	}

	if err := l.writeRunLog(ctx, summary); err != nil {
		color.Yellow("  ⚠️  Failed to write run log: %v", err)
	}

	return summary
}

func (l *Loader) writeRunLog(ctx context.Context, summary *Summary) error {
	if l.logTable == "" {
		return nil
	}
	if err := l.adapter.EnsureLogTable(ctx, l.logTable); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, r := range summary.Results {
		if r.Skipped || r.Err != nil {
			continue
		}
		row := map[string]interface{}{
			"table_name":    r.Table,
			"rows_inserted": r.Inserted,
			"rows_failed":   r.Failed,
			"imported_at":   now,
		}
		if err := l.adapter.InsertRow(ctx, l.logTable, row); err != nil {
			return err
		}
	}
	return nil
}

// Reset truncates every importable table in reverse insertion order, plus
// the run-log table. Constraint enforcement is suspended for the session
// and unconditionally restored before returning, so a mid-reset failure
// never leaves the database permanently constraint-relaxed.
func (l *Loader) Reset(ctx context.Context, order []string) (err error) {
	if err := l.adapter.SuspendConstraints(ctx); err != nil {
		return fmt.Errorf("failed to suspend constraints: %w", err)
	}
	defer func() {
		if restoreErr := l.adapter.RestoreConstraints(ctx); restoreErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to restore constraints: %w", restoreErr))
		}
	}()

	for i := len(order) - 1; i >= 0; i-- {
		table := order[i]
		if !l.importable(table) {
			continue
		}
		color.Cyan("  🗑️  Truncating %s...", table)
		if err := l.adapter.TruncateTable(ctx, table); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}

	if l.logTable != "" {
		if err := l.adapter.EnsureLogTable(ctx, l.logTable); err != nil {
			return err
		}
		if err := l.adapter.TruncateTable(ctx, l.logTable); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", l.logTable, err)
		}
	}

	return nil
}
