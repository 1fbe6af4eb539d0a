package cmd

import (
	"context"

	"github.com/Lumos-Labs-HQ/sprout/internal/engine"
	"github.com/Lumos-Labs-HQ/sprout/internal/provider"
	"github.com/Lumos-Labs-HQ/sprout/internal/snapshot"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate synthetic data snapshots",
	Long: `Introspect the database schema, derive the table insertion order from
non-nullable foreign keys, and generate one snapshot file per configured
table. Snapshots are consumed by later generation steps and by import.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		p, err := setupPipeline(ctx)
		if err != nil {
			return err
		}
		defer p.Close()

		color.Cyan("🌱 Generating data...")
		store := snapshot.NewFileStore(p.cfg.SnapshotDir)
		eng := engine.New(p.spec, p.db, store, provider.NewTemplate(), nil)

		summary := eng.Run(ctx, p.order)
		printGenerationSummary(summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
}
