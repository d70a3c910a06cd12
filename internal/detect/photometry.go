package detect

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/starfield-lab/astrobench/internal/model"
	"github.com/starfield-lab/astrobench/pkg/photometry"
)

// PhotometryDetector adapts the external photometry service to the Detector
// interface, tagging failures as detection errors so the orchestrator
// degrades the cell instead of aborting the sweep.
type PhotometryDetector struct {
	client photometry.Client
}

// NewPhotometry creates a detector over a photometry client.
func NewPhotometry(client photometry.Client) *PhotometryDetector {
	return &PhotometryDetector{client: client}
}

// Detect implements Detector.
func (d *PhotometryDetector) Detect(ctx context.Context, img model.Image, cfg model.PipelineConfig) (model.SourceTable, error) {
	resp, err := d.client.Detect(ctx, photometry.DetectRequest{
		ImageID: img.ID,
		Pixels:  img.Data,
		Params:  cfg.Params,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, eris.Wrapf(model.ErrDetection, "config %q on image %q: %v", cfg.Name, img.ID, err)
	}
	return resp.Table(), nil
}
