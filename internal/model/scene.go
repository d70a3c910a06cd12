package model

import "hash/fnv"

// Recipe identifies a registered scene generator variant.
type Recipe string

const (
	RecipeGrid         Recipe = "grid"
	RecipeGaussCluster Recipe = "gauss_cluster"
)

// SceneSpec names a synthetic scenario and fixes its generation parameters.
// A spec is constructed once per sweep and read-only afterward.
type SceneSpec struct {
	Name   string `json:"name" yaml:"name"`
	Recipe Recipe `json:"recipe" yaml:"recipe"`

	// Seed drives all random draws for the scene. Zero means "derive from
	// the scene name", so repeated runs of a named scenario reproduce the
	// same catalog without every sweep file picking numbers.
	Seed uint64 `json:"seed,omitempty" yaml:"seed"`

	ImageSize  int     `json:"image_size" yaml:"image_size"`
	GridStars  int     `json:"grid_stars,omitempty" yaml:"grid_stars"`
	Perturb    float64 `json:"perturb,omitempty" yaml:"perturb"`
	NumStars   int     `json:"num_stars,omitempty" yaml:"num_stars"`
	ClusterStd float64 `json:"cluster_std,omitempty" yaml:"cluster_std"`

	NoiseSigma float64 `json:"noise_sigma" yaml:"noise_sigma"`
	PSFFWHM    float64 `json:"psf_fwhm" yaml:"psf_fwhm"`

	MagMin    float64 `json:"mag_min" yaml:"mag_min"`
	MagMax    float64 `json:"mag_max" yaml:"mag_max"`
	Zeropoint float64 `json:"zeropoint,omitempty" yaml:"zeropoint"`
}

// EffectiveSeed returns the seed actually used for generation: the explicit
// seed when set, otherwise the FNV-1a hash of the scene name.
func (s SceneSpec) EffectiveSeed() uint64 {
	if s.Seed != 0 {
		return s.Seed
	}
	h := fnv.New64a()
	h.Write([]byte(s.Name))
	return h.Sum64()
}

// PipelineConfig names one point in the parameter sweep: an immutable mapping
// of detection-pipeline parameter names to values. New pipeline parameters
// are added as map entries, never as engine-level fields.
type PipelineConfig struct {
	Name   string             `json:"name" yaml:"name"`
	Params map[string]float64 `json:"params" yaml:"params"`
}
