package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/starfield-lab/astrobench/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "astrobench",
	Short: "Astrometric detection accuracy benchmark",
	Long:  "Generates synthetic star fields with known catalogs, runs external detection pipelines over them, and sweeps parameter grids to compare positional and flux recovery accuracy.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
