package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/starfield-lab/astrobench/internal/detect"
	"github.com/starfield-lab/astrobench/internal/report"
	"github.com/starfield-lab/astrobench/internal/scene"
	"github.com/starfield-lab/astrobench/internal/store"
	"github.com/starfield-lab/astrobench/internal/sweep"
	"github.com/starfield-lab/astrobench/internal/sweepfile"
	"github.com/starfield-lab/astrobench/pkg/photometry"
	"github.com/starfield-lab/astrobench/pkg/render"
)

var (
	sweepFilePath  string
	sweepWorkers   int
	sweepMatchDist float64
	sweepNoCache   bool
	sweepJSON      bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a benchmark sweep from a sweep file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		f, err := sweepfile.Load(sweepFilePath)
		if err != nil {
			return err
		}

		maxDist := cfg.Sweep.MaxMatchDistance
		if f.MaxMatchDistance > 0 {
			maxDist = f.MaxMatchDistance
		}
		if sweepMatchDist > 0 {
			maxDist = sweepMatchDist
		}
		if maxDist <= 0 {
			return eris.New("max match distance is required: set sweep.max_match_distance, the sweep file, or --max-match-distance")
		}

		workers := cfg.Sweep.Workers
		if sweepWorkers > 0 {
			workers = sweepWorkers
		}

		st, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		renderer := render.NewClient(cfg.Render.BaseURL, render.WithRateLimit(cfg.Render.RPS))
		fitter := photometry.NewClient(cfg.Photometry.BaseURL, photometry.WithRateLimit(cfg.Photometry.RPS))

		var provider scene.Provider = scene.NewProvider(scene.NewRegistry(), renderer)
		if !sweepNoCache {
			ttl := time.Duration(cfg.Sweep.SceneCacheHours) * time.Hour
			provider = scene.NewCachingProvider(provider, st, ttl)
		}

		orch, err := sweep.New(provider, detect.NewPhotometry(fitter), sweep.Config{
			MaxMatchDistance: maxDist,
			Workers:          workers,
			Recorder:         st,
		})
		if err != nil {
			return err
		}

		result, err := orch.Run(ctx, f.Scenes, f.Configs)
		if err != nil {
			return err
		}

		if sweepJSON {
			out, err := report.Export(result)
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		fmt.Print(report.Summary(result))
		return nil
	},
}

func init() {
	sweepCmd.Flags().StringVar(&sweepFilePath, "file", "sweep.yaml", "sweep definition file")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "parallel cell workers (overrides config)")
	sweepCmd.Flags().Float64Var(&sweepMatchDist, "max-match-distance", 0, "match tolerance in pixels (overrides config and sweep file)")
	sweepCmd.Flags().BoolVar(&sweepNoCache, "no-cache", false, "regenerate scenes even when cached")
	sweepCmd.Flags().BoolVar(&sweepJSON, "json", false, "print the full result document as JSON")
	rootCmd.AddCommand(sweepCmd)
}
