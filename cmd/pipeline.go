package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lumos-Labs-HQ/sprout/internal/config"
	"github.com/Lumos-Labs-HQ/sprout/internal/database"
	"github.com/Lumos-Labs-HQ/sprout/internal/engine"
	"github.com/Lumos-Labs-HQ/sprout/internal/graph"
	"github.com/Lumos-Labs-HQ/sprout/internal/loader"
	"github.com/Lumos-Labs-HQ/sprout/internal/schema"
	"github.com/fatih/color"
)

// pipeline bundles everything a command needs once config is loaded and the
// database is reachable.
type pipeline struct {
	cfg     *config.Config
	spec    *config.SeedSpec
	adapter database.Adapter
	db      *schema.Database
	order   []string
}

// setupPipeline loads config and the seed spec, connects, introspects the
// schema, and computes the insertion order. A dependency cycle is fatal
// here: an incomplete order would silently drop tables.
func setupPipeline(ctx context.Context) (*pipeline, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	spec, err := config.LoadSeedSpec(cfg.SeedSpec)
	if err != nil {
		return nil, err
	}

	dbURL, err := cfg.GetDatabaseURL()
	if err != nil {
		return nil, err
	}

	adapter := database.NewAdapter(cfg.Database.Provider)
	if err := adapter.Connect(ctx, dbURL); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db, err := adapter.IntrospectSchema(ctx)
	if err != nil {
		adapter.Close()
		return nil, fmt.Errorf("failed to introspect schema: %w", err)
	}

	g := graph.Build(db)
	if cycle := g.DetectCycle(); cycle != nil {
		adapter.Close()
		return nil, fmt.Errorf("dependency cycle detected: %s", strings.Join(cycle, " → "))
	}

	order := g.InsertionOrder()
	color.Green("📊 Found %d tables", len(db.Names))
	color.Cyan("📋 Insertion order: %s", strings.Join(order, " → "))

	return &pipeline{
		cfg:     cfg,
		spec:    spec,
		adapter: adapter,
		db:      db,
		order:   order,
	}, nil
}

func (p *pipeline) Close() {
	p.adapter.Close()
}

func printGenerationSummary(summary *engine.Summary) {
	fmt.Println()
	color.Cyan("📈 Generation summary:")
	for _, r := range summary.Results {
		switch {
		case r.Skipped:
			color.White("  %s: skipped", r.Table)
		case r.Err != nil:
			color.Red("  %s: failed (%v)", r.Table, r.Err)
		default:
			color.Green("  %s: %d rows (%d duplicates dropped)", r.Table, r.Generated, r.Deduplicated)
		}
	}
}

func printImportSummary(summary *loader.Summary) {
	fmt.Println()
	color.Cyan("📈 Import summary:")
	for _, r := range summary.Results {
		switch {
		case r.Skipped:
			color.White("  %s: skipped", r.Table)
		case r.Err != nil:
			color.Red("  %s: failed (%v)", r.Table, r.Err)
		default:
			color.Green("  %s: %d inserted, %d failed", r.Table, r.Inserted, r.Failed)
		}
	}
}
