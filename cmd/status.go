package cmd

import (
	"context"

	"github.com/Lumos-Labs-HQ/sprout/internal/snapshot"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show schema, insertion order and snapshot state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		p, err := setupPipeline(ctx)
		if err != nil {
			return err
		}
		defer p.Close()

		store := snapshot.NewFileStore(p.cfg.SnapshotDir)
		for _, table := range p.order {
			marker := "—"
			if store.Exists(table) {
				marker = "snapshot present"
			}
			tableSpec, configured := p.spec.Tables[table]
			state := "unconfigured"
			switch {
			case configured && tableSpec.Active():
				state = "active"
			case configured:
				state = "passive"
			}
			color.White("  %-30s %-12s %s", table, state, marker)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
