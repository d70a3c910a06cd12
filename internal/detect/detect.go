// Package detect defines the boundary to the external detection and
// centroiding pipeline under test. The engine never implements detection
// itself; it evaluates detectors supplied through this interface.
package detect

import (
	"context"

	"github.com/starfield-lab/astrobench/internal/model"
)

// Detector invokes a detection/centroiding pipeline over an image with one
// parameter configuration and returns the candidate source table. For
// benchmarking the call is treated as a pure function of its inputs, though
// iterative fitters may introduce small run-to-run variance; the engine
// never compares detector outputs bit-for-bit.
type Detector interface {
	Detect(ctx context.Context, img model.Image, cfg model.PipelineConfig) (model.SourceTable, error)
}

// Func adapts a plain function to the Detector interface.
type Func func(ctx context.Context, img model.Image, cfg model.PipelineConfig) (model.SourceTable, error)

// Detect implements Detector.
func (f Func) Detect(ctx context.Context, img model.Image, cfg model.PipelineConfig) (model.SourceTable, error) {
	return f(ctx, img, cfg)
}
