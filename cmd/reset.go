package cmd

import (
	"context"

	"github.com/Lumos-Labs-HQ/sprout/internal/loader"
	"github.com/Lumos-Labs-HQ/sprout/internal/snapshot"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Truncate the configured tables",
	Long: `Truncate every importable table in reverse dependency order, plus the
run-log table. Foreign-key enforcement is suspended for the session and
always restored afterward, even when a truncation fails.

⚠️  WARNING: This permanently deletes the data in the configured tables!`,
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

		color.Green("✅ Tables reset")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
