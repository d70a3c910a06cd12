package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/starfield-lab/astrobench/internal/store"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs [sweep-id]",
	Short: "List stored sweeps, or show one sweep's cells",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if len(args) == 1 {
			return showSweep(cmd, st, args[0])
		}

		sweeps, err := st.ListSweeps(ctx, store.SweepFilter{Limit: runsLimit})
		if err != nil {
			return err
		}
		if len(sweeps) == 0 {
			fmt.Println("No sweeps recorded.")
			return nil
		}

		fmt.Printf("%-38s %-10s %7s %8s  %s\n", "ID", "STATUS", "SCENES", "CONFIGS", "CREATED")
		for _, s := range sweeps {
			fmt.Printf("%-38s %-10s %7d %8d  %s\n",
				s.ID, s.Status, len(s.Scenes), len(s.Configs),
				s.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func showSweep(cmd *cobra.Command, st store.Store, sweepID string) error {
	ctx := cmd.Context()

	rec, err := st.GetSweep(ctx, sweepID)
	if err != nil {
		return err
	}
	cells, err := st.ListCells(ctx, sweepID)
	if err != nil {
		return err
	}

	fmt.Printf("Sweep %s (%s)\n\n", rec.ID, rec.Status)
	fmt.Printf("%-28s %-20s %-11s %8s %7s %7s\n", "SCENE", "CONFIG", "FAILURE", "MATCHES", "MISSES", "FALSE")
	for _, c := range cells {
		failure := string(c.Failure)
		if failure == "" {
			failure = "-"
		}
		if c.Stats == nil {
			fmt.Printf("%-28s %-20s %-11s %8s %7s %7s\n", c.Key.Scene, c.Key.Config, failure, "-", "-", "-")
			continue
		}
		fmt.Printf("%-28s %-20s %-11s %8d %7d %7d\n",
			c.Key.Scene, c.Key.Config, failure,
			c.Stats.Matches, c.Stats.Misses, c.Stats.FalsePositives)
	}
	return nil
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "max sweeps to list")
	rootCmd.AddCommand(runsCmd)
}
