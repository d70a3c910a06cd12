package scene

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/starfield-lab/astrobench/internal/model"
)

// Cache stores rendered scenes keyed by (name, seed). A miss is reported as
// a nil image with no error.
type Cache interface {
	GetCachedScene(ctx context.Context, name string, seed uint64) (*model.Image, model.SourceTable, error)
	PutCachedScene(ctx context.Context, name string, seed uint64, img model.Image, truth model.SourceTable, ttl time.Duration) error
}

// CachingProvider reads a scene from the cache when present and generates
// (then caches) it otherwise. Because generation is deterministic, a cached
// scene is interchangeable with a freshly generated one, so every pipeline
// configuration in a sweep sees the same image.
type CachingProvider struct {
	inner Provider
	cache Cache
	ttl   time.Duration
}

// NewCachingProvider wraps a provider with a scene cache.
func NewCachingProvider(inner Provider, cache Cache, ttl time.Duration) *CachingProvider {
	return &CachingProvider{inner: inner, cache: cache, ttl: ttl}
}

// Generate implements Provider.
func (p *CachingProvider) Generate(ctx context.Context, spec model.SceneSpec) (model.Image, model.SourceTable, error) {
	seed := spec.EffectiveSeed()

	img, truth, err := p.cache.GetCachedScene(ctx, spec.Name, seed)
	if err != nil {
		zap.L().Warn("scene: cache read failed, regenerating",
			zap.String("scene", spec.Name), zap.Error(err))
	} else if img != nil {
		return *img, truth, nil
	}

	generated, truth, err := p.inner.Generate(ctx, spec)
	if err != nil {
		return model.Image{}, nil, err
	}

	if putErr := p.cache.PutCachedScene(ctx, spec.Name, seed, generated, truth, p.ttl); putErr != nil {
		zap.L().Warn("scene: cache write failed",
			zap.String("scene", spec.Name), zap.Error(putErr))
	}

	return generated, truth, nil
}
