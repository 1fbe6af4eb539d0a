package cmd

import (
	"context"

	"github.com/Lumos-Labs-HQ/sprout/internal/loader"
	"github.com/Lumos-Labs-HQ/sprout/internal/snapshot"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Reset tables and load snapshots into the database",
	Long: `Truncate the configured tables in reverse dependency order, then insert
every snapshot's rows in dependency order. Row inserts are best-effort: a
failing row is logged and the run continues.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		p, err := setupPipeline(ctx)
		if err != nil {
			return err
		}
		defer p.Close()

		store := snapshot.NewFileStore(p.cfg.SnapshotDir)
		l := loader.New(p.adapter, store, p.spec, p.cfg.LogTable)

		color.Yellow("🗑️  Resetting tables...")
		if err := l.Reset(ctx, p.order); err != nil {
			return err
		}

		color.Cyan("📥 Importing snapshots...")
		summary := l.Import(ctx, p.order)
		printImportSummary(summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
