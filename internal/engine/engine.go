package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/Lumos-Labs-HQ/sprout/internal/config"
	"github.com/Lumos-Labs-HQ/sprout/internal/generator"
	"github.com/Lumos-Labs-HQ/sprout/internal/provider"
	"github.com/Lumos-Labs-HQ/sprout/internal/schema"
	"github.com/Lumos-Labs-HQ/sprout/internal/snapshot"
	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"
)

// defaultMaxInFlight bounds concurrent row generation per table.
const defaultMaxInFlight = 16

// Engine walks the insertion order and materializes a snapshot per active
// table. A failure is contained to its table: the snapshot is not written
// (a stale one from an earlier run may remain) and generation moves on.
type Engine struct {
	spec        *config.SeedSpec
	db          *schema.Database
	store       snapshot.Store
	deps        generator.Deps
	maxInFlight int
}

// TableResult reports the outcome of one table's generation.
type TableResult struct {
	Table        string
	Generated    int
	Deduplicated int
	Skipped      bool
	Err          error
}

// Summary aggregates per-table results in processing order.
type Summary struct {
	Results []TableResult
}

func (s *Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

func New(spec *config.SeedSpec, db *schema.Database, store snapshot.Store, prov provider.Provider, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		spec:  spec,
		db:    db,
		store: store,
		deps: generator.Deps{
			// Generators share one source, and in concurrent mode they draw
			// from it across goroutines.
			Rand:     rand.New(&lockedSource{src: rng}),
			Store:    store,
			Provider: prov,
		},
		maxInFlight: defaultMaxInFlight,
	}
}

// lockedSource serializes draws from the underlying source. math/rand
// sources are not safe for concurrent use.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source64
}

func (s *lockedSource) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Int63()
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

func (s *lockedSource) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}

// SetMaxInFlight overrides the concurrent-mode task bound.
func (e *Engine) SetMaxInFlight(n int) {
	if n > 0 {
		e.maxInFlight = n
	}
}

// Run generates rows table by table following order. Tables without an
// active seed config are skipped. Returns a per-table summary; table-scoped
// failures are recorded, logged, and do not stop the run.
func (e *Engine) Run(ctx context.Context, order []string) *Summary {
	summary := &Summary{}

	for _, table := range order {
		tableSpec, ok := e.spec.Tables[table]
		if !ok || !tableSpec.Active() {
			summary.Results = append(summary.Results, TableResult{Table: table, Skipped: true})
			continue
		}

		result := e.generateTable(ctx, table, tableSpec)
		if result.Err != nil {
			color.Yellow("  ⚠️  Failed to generate %s: %v", table, result.Err)
		} else {
			color.Green("  ✅ %s: %d rows generated (%d duplicates dropped)", table, result.Generated, result.Deduplicated)
		}
		summary.Results = append(summary.Results, result)
	}

	return summary
}

func (e *Engine) generateTable(ctx context.Context, table string, tableSpec *config.TableSpec) TableResult {
	result := TableResult{Table: table}

	tableSchema := e.db.Tables[table]
	if tableSchema == nil {
		result.Err = fmt.Errorf("table %s not present in database schema", table)
		return result
	}

	gens, err := e.buildGenerators(tableSpec, tableSchema)
	if err != nil {
		result.Err = err
		return result
	}

	tasks, err := e.planTasks(tableSpec.RowGeneration)
	if err != nil {
		result.Err = err
		return result
	}

	color.Cyan("  📝 Generating %s (%d rows)...", table, len(tasks))

	var rows []map[string]interface{}
	if tableSpec.Concurrent {
		rows, err = e.generateConcurrent(ctx, tableSchema, gens, tasks)
	} else {
		rows, err = e.generateSequential(ctx, tableSchema, gens, tasks)
	}
	if err != nil {
		result.Err = err
		return result
	}

	if len(tableSpec.PrimaryKeys) > 0 {
		var dropped int
		rows, dropped = dedupRows(rows, tableSpec.PrimaryKeys)
		result.Deduplicated = dropped
	}

	if err := e.store.Write(table, rows); err != nil {
		result.Err = err
		return result
	}

	result.Generated = len(rows)
	return result
}

// rowTask is one row to generate: the pre-filled foreign key value and the
// parent row, both nil outside fan-out mode.
type rowTask struct {
	fkColumn string
	fkValue  interface{}
	parent   map[string]interface{}
}

func (e *Engine) planTasks(rg *config.RowGeneration) ([]rowTask, error) {
	switch rg.Kind {
	case "static":
		tasks := make([]rowTask, rg.Count)
		return tasks, nil

	case "foreign_table":
		parentRows, err := e.store.Read(rg.ParentTable)
		if err != nil {
			return nil, fmt.Errorf("failed to load parent snapshot %s: %w", rg.ParentTable, err)
		}

		// Group by the parent key, preserving first-seen order and the first
		// row per key.
		var keys []string
		firstRow := make(map[string]map[string]interface{})
		keyValue := make(map[string]interface{})
		for _, row := range parentRows {
			value, ok := row[rg.ParentKeyColumn]
			if !ok {
				return nil, fmt.Errorf("parent snapshot %s has no column %s", rg.ParentTable, rg.ParentKeyColumn)
			}
			key := fmt.Sprint(value)
			if _, seen := firstRow[key]; !seen {
				keys = append(keys, key)
				firstRow[key] = row
				keyValue[key] = value
			}
		}

		var tasks []rowTask
		for _, key := range keys {
			count := rg.CountPerEntry.Min
			if rg.CountPerEntry.Max > rg.CountPerEntry.Min {
				count += e.deps.Rand.Intn(rg.CountPerEntry.Max - rg.CountPerEntry.Min + 1)
			}
			for i := 0; i < count; i++ {
				tasks = append(tasks, rowTask{
					fkColumn: rg.ChildFkColumn,
					fkValue:  keyValue[key],
					parent:   firstRow[key],
				})
			}
		}
		return tasks, nil

	default:
		return nil, fmt.Errorf("unknown row generation kind %q", rg.Kind)
	}
}

type boundGenerator struct {
	column string
	gen    generator.Generator
}

func (e *Engine) buildGenerators(tableSpec *config.TableSpec, tableSchema *schema.Table) ([]boundGenerator, error) {
	gens := make([]boundGenerator, 0, len(tableSpec.Columns))
	for _, col := range tableSpec.Columns {
		g, err := generator.Build(col.Generator, tableSchema, col.Name, e.deps)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}
		gens = append(gens, boundGenerator{column: col.Name, gen: g})
	}
	return gens, nil
}

// generateSequential builds rows one at a time so that row N's generators
// observe exactly rows 1..N-1 in the snapshot-so-far.
func (e *Engine) generateSequential(ctx context.Context, tableSchema *schema.Table, gens []boundGenerator, tasks []rowTask) ([]map[string]interface{}, error) {
	rows := make([]map[string]interface{}, 0, len(tasks))
	for _, task := range tasks {
		row, err := generateRow(ctx, tableSchema, gens, task, rows)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// generateConcurrent issues every row task at once, bounded by maxInFlight,
// and joins before returning. There is no per-row isolation: one failing
// task fails the batch. Rows land at their task index, so counts stay
// deterministic even though completion order is not. The snapshot-so-far
// view is empty in this mode; stateful generators that need causal ordering
// must use sequential mode.
func (e *Engine) generateConcurrent(ctx context.Context, tableSchema *schema.Table, gens []boundGenerator, tasks []rowTask) ([]map[string]interface{}, error) {
	rows := make([]map[string]interface{}, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxInFlight)

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			row, err := generateRow(gctx, tableSchema, gens, task, nil)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// generateRow applies the column generators in declared order. Each
// generator sees the columns already assigned on this row through the
// generation context.
func generateRow(ctx context.Context, tableSchema *schema.Table, gens []boundGenerator, task rowTask, snapshotSoFar []map[string]interface{}) (map[string]interface{}, error) {
	row := make(map[string]interface{}, len(gens)+1)
	if task.fkColumn != "" {
		row[task.fkColumn] = task.fkValue
	}

	gc := &generator.Context{
		CurrentRow: row,
		ForeignRow: task.parent,
		Table:      tableSchema,
		Snapshot:   snapshotSoFar,
	}

	for _, bg := range gens {
		value, err := bg.gen.Generate(ctx, gc)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", bg.column, err)
		}
		row[bg.column] = value
	}
	return row, nil
}

// dedupRows keeps the first row per combination of primary-key column
// values, in generation order, and reports how many were dropped.
func dedupRows(rows []map[string]interface{}, primaryKeys []string) ([]map[string]interface{}, int) {
	seen := make(map[string]bool, len(rows))
	kept := make([]map[string]interface{}, 0, len(rows))

	for _, row := range rows {
		key := ""
		for _, pk := range primaryKeys {
			key += fmt.Sprint(row[pk]) + "\x1f"
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, row)
	}
	return kept, len(rows) - len(kept)
}
