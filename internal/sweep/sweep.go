// Package sweep drives the full grid of scene × pipeline-configuration
// combinations, collecting per-cell error statistics into a single
// comparable result.
package sweep

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/starfield-lab/astrobench/internal/detect"
	"github.com/starfield-lab/astrobench/internal/match"
	"github.com/starfield-lab/astrobench/internal/metrics"
	"github.com/starfield-lab/astrobench/internal/model"
	"github.com/starfield-lab/astrobench/internal/scene"
)

// Recorder persists sweep progress. It is optional: a nil recorder keeps the
// sweep in memory only.
type Recorder interface {
	CreateSweep(ctx context.Context, scenes, configs []string) (string, error)
	SaveCell(ctx context.Context, sweepID string, cell model.CellResult) error
	CompleteSweep(ctx context.Context, sweepID string) error
}

// Config holds the orchestrator settings. MaxMatchDistance is required; it
// encodes the positional tolerance for "the same star" and is never
// defaulted silently.
type Config struct {
	MaxMatchDistance float64
	Workers          int
	Recorder         Recorder
}

// Orchestrator evaluates every cell of a sweep grid through the scene
// provider, detection adapter, matcher and metrics aggregator. Cells are
// mutually independent; a failure in one is recorded and never aborts the
// rest.
type Orchestrator struct {
	provider scene.Provider
	detector detect.Detector
	cfg      Config
}

// New creates an orchestrator.
func New(provider scene.Provider, detector detect.Detector, cfg Config) (*Orchestrator, error) {
	if cfg.MaxMatchDistance <= 0 {
		return nil, eris.Errorf("sweep: max match distance must be positive, got %v", cfg.MaxMatchDistance)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Orchestrator{provider: provider, detector: detector, cfg: cfg}, nil
}

// cell is one grid slot awaiting evaluation.
type cell struct {
	spec   model.SceneSpec
	config model.PipelineConfig
}

// Run evaluates the cross-product of scenes × configs. The returned
// SweepResult covers every requested cell: valid statistics, or a tagged
// failure for generation errors, detection errors and cancellation.
// Completed cells survive cancellation; in-flight and queued cells are
// recorded as cancelled, never dropped.
func (o *Orchestrator) Run(ctx context.Context, scenes []model.SceneSpec, configs []model.PipelineConfig) (*model.SweepResult, error) {
	seen := make(map[model.CellKey]bool, len(scenes)*len(configs))
	cells := make([]cell, 0, len(scenes)*len(configs))
	for _, spec := range scenes {
		for _, cfg := range configs {
			key := model.CellKey{Scene: spec.Name, Config: cfg.Name}
			if seen[key] {
				return nil, eris.Errorf("sweep: duplicate cell %s/%s", key.Scene, key.Config)
			}
			seen[key] = true
			cells = append(cells, cell{spec: spec, config: cfg})
		}
	}

	result := &model.SweepResult{
		Scenes:    sceneNames(scenes),
		Configs:   configNames(configs),
		Cells:     make(map[model.CellKey]model.CellResult, len(cells)),
		StartedAt: time.Now().UTC(),
	}

	if o.cfg.Recorder != nil {
		id, err := o.cfg.Recorder.CreateSweep(ctx, result.Scenes, result.Configs)
		if err != nil {
			return nil, eris.Wrap(err, "sweep: create sweep record")
		}
		result.ID = id
	} else {
		result.ID = uuid.New().String()
	}

	log := zap.L().With(zap.String("sweep_id", result.ID))
	log.Info("sweep: starting",
		zap.Int("scenes", len(scenes)),
		zap.Int("configs", len(configs)),
		zap.Int("cells", len(cells)),
		zap.Int("workers", o.cfg.Workers),
	)

	// Workers write into disjoint slots of this slice; the map is assembled
	// only after every worker has finished.
	outcomes := make([]model.CellResult, len(cells))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)

	for i, c := range cells {
		g.Go(func() error {
			key := model.CellKey{Scene: c.spec.Name, Config: c.config.Name}

			// Don't start work the caller has already abandoned.
			if gctx.Err() != nil {
				outcomes[i] = model.CellResult{
					Key:     key,
					Failure: model.FailureCancelled,
					Error:   gctx.Err().Error(),
				}
			} else {
				outcomes[i] = o.evaluate(gctx, key, c)
			}

			if o.cfg.Recorder != nil {
				// Persist even after cancellation: cancelled cells are
				// recorded, not dropped.
				if err := o.cfg.Recorder.SaveCell(context.WithoutCancel(ctx), result.ID, outcomes[i]); err != nil {
					log.Warn("sweep: failed to persist cell",
						zap.String("scene", key.Scene),
						zap.String("config", key.Config),
						zap.Error(err),
					)
				}
			}
			return nil
		})
	}

	// Cell failures are captured per-slot; Wait only gates completion.
	_ = g.Wait()

	var failed int
	for _, outcome := range outcomes {
		result.Cells[outcome.Key] = outcome
		if outcome.Failed() {
			failed++
		}
	}
	result.FinishedAt = time.Now().UTC()

	if o.cfg.Recorder != nil {
		if err := o.cfg.Recorder.CompleteSweep(context.WithoutCancel(ctx), result.ID); err != nil {
			log.Warn("sweep: failed to mark sweep complete", zap.Error(err))
		}
	}

	log.Info("sweep: complete",
		zap.Int("cells", len(cells)),
		zap.Int("failed", failed),
		zap.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt)),
	)

	return result, nil
}

// evaluate runs one cell through provider, detector, matcher and aggregator.
func (o *Orchestrator) evaluate(ctx context.Context, key model.CellKey, c cell) model.CellResult {
	log := zap.L().With(zap.String("scene", key.Scene), zap.String("config", key.Config))
	start := time.Now()

	done := func(res model.CellResult) model.CellResult {
		res.Key = key
		res.Duration = time.Since(start)
		return res
	}

	img, truth, err := o.provider.Generate(ctx, c.spec)
	if err != nil {
		kind := model.ClassifyFailure(err)
		if kind != model.FailureCancelled {
			kind = model.FailureGeneration
		}
		log.Error("sweep: scene generation failed", zap.Error(err))
		return done(model.CellResult{Failure: kind, Error: err.Error()})
	}

	cands, err := o.detector.Detect(ctx, img, c.config)
	if err != nil {
		kind := model.ClassifyFailure(err)
		if kind != model.FailureCancelled {
			kind = model.FailureDetection
		}
		log.Warn("sweep: detection failed, degrading cell", zap.Error(err))
		// A crashed pipeline degrades the cell to "all truth missed, zero
		// candidates" so its counts stay comparable across the sweep.
		res := model.CellResult{Failure: kind, Error: err.Error()}
		if kind == model.FailureDetection {
			if degraded, aggErr := degradedStats(truth, o.cfg.MaxMatchDistance); aggErr == nil {
				res.Stats = degraded
			}
		}
		return done(res)
	}

	mr, err := match.Match(truth, cands, o.cfg.MaxMatchDistance)
	if err != nil {
		log.Error("sweep: matcher contract violation", zap.Error(err))
		return done(model.CellResult{Failure: model.FailureInternal, Error: err.Error()})
	}

	es, err := metrics.Aggregate(truth, cands, mr)
	if err != nil {
		log.Error("sweep: aggregation contract violation", zap.Error(err))
		return done(model.CellResult{Failure: model.FailureInternal, Error: err.Error()})
	}

	log.Info("sweep: cell complete",
		zap.Int("matches", es.Matches),
		zap.Int("misses", es.Misses),
		zap.Int("false_positives", es.FalsePositives),
		zap.Duration("elapsed", time.Since(start)),
	)
	return done(model.CellResult{Stats: &es})
}

// degradedStats builds the all-missed statistics for a detection failure.
func degradedStats(truth model.SourceTable, maxDist float64) (*model.ErrorStatistics, error) {
	mr, err := match.Match(truth, nil, maxDist)
	if err != nil {
		return nil, err
	}
	es, err := metrics.Aggregate(truth, nil, mr)
	if err != nil {
		return nil, err
	}
	return &es, nil
}

func sceneNames(scenes []model.SceneSpec) []string {
	names := make([]string, 0, len(scenes))
	for _, s := range scenes {
		names = append(names, s.Name)
	}
	return names
}

func configNames(configs []model.PipelineConfig) []string {
	names := make([]string, 0, len(configs))
	for _, c := range configs {
		names = append(names, c.Name)
	}
	return names
}
