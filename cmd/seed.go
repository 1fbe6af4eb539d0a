package cmd

import (
	"context"

	"github.com/Lumos-Labs-HQ/sprout/internal/cdc"
	"github.com/Lumos-Labs-HQ/sprout/internal/engine"
	"github.com/Lumos-Labs-HQ/sprout/internal/loader"
	"github.com/Lumos-Labs-HQ/sprout/internal/provider"
	"github.com/Lumos-Labs-HQ/sprout/internal/snapshot"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate snapshots and import them",
	Long:  `Run generate followed by import against the same insertion order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		p, err := setupPipeline(ctx)
		if err != nil {
			return err
		}
		defer p.Close()

		color.Cyan("🌱 Starting database seeding...")
		store := snapshot.NewFileStore(p.cfg.SnapshotDir)

		eng := engine.New(p.spec, p.db, store, provider.NewTemplate(), nil)
		genSummary := eng.Run(ctx, p.order)
		printGenerationSummary(genSummary)

		l := loader.New(p.adapter, store, p.spec, p.cfg.LogTable)
		color.Yellow("🗑️  Resetting tables...")
		if err := l.Reset(ctx, p.order); err != nil {
			return err
		}

		// Downstream change-capture consumers track the same table set the
		// import is about to write.
		var listener cdc.Listener = cdc.LogListener{}
		if err := listener.Subscribe(ctx, p.order); err != nil {
			color.Yellow("⚠️  CDC subscription failed: %v", err)
		}

		color.Cyan("📥 Importing snapshots...")
		importSummary := l.Import(ctx, p.order)
		printImportSummary(importSummary)

		color.Green("\n✅ Database seeding completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
