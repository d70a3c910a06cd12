package scene

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/starfield-lab/astrobench/internal/model"
	"github.com/starfield-lab/astrobench/pkg/render"
)

// Provider produces a synthetic image and its ground-truth source table for
// a scene. Generate must be deterministic for a given spec: same seed, same
// image, same ground truth in the same order.
type Provider interface {
	Generate(ctx context.Context, spec model.SceneSpec) (model.Image, model.SourceTable, error)
}

// SynthProvider generates the ground-truth catalog locally and delegates
// pixel rendering to the external synthesis service. All failures are
// wrapped as generation errors so the orchestrator can classify the cell.
type SynthProvider struct {
	registry *Registry
	renderer render.Client
}

// NewProvider creates a provider over a recipe registry and a renderer.
func NewProvider(registry *Registry, renderer render.Client) *SynthProvider {
	return &SynthProvider{registry: registry, renderer: renderer}
}

// Generate implements Provider.
func (p *SynthProvider) Generate(ctx context.Context, spec model.SceneSpec) (model.Image, model.SourceTable, error) {
	catalog, err := p.registry.Catalog(spec)
	if err != nil {
		return model.Image{}, nil, eris.Wrapf(model.ErrGeneration, "scene %q: %v", spec.Name, err)
	}

	resp, err := p.renderer.Render(ctx, render.RenderRequest{
		Scene:      spec.Name,
		Seed:       spec.EffectiveSeed(),
		ImageSize:  spec.ImageSize,
		NoiseSigma: spec.NoiseSigma,
		PSFFWHM:    spec.PSFFWHM,
		Catalog:    catalog,
	})
	if err != nil {
		if ctx.Err() != nil {
			return model.Image{}, nil, ctx.Err()
		}
		return model.Image{}, nil, eris.Wrapf(model.ErrGeneration, "scene %q: render: %v", spec.Name, err)
	}

	return model.Image{ID: resp.ImageID, Data: resp.Pixels}, catalog, nil
}
