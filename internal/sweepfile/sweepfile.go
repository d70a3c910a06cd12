// Package sweepfile loads sweep definitions: the scenes and pipeline
// configurations whose cross-product a sweep evaluates.
package sweepfile

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/starfield-lab/astrobench/internal/model"
)

// File is one declared sweep grid.
type File struct {
	// MaxMatchDistance overrides the configured tolerance when positive.
	MaxMatchDistance float64                `yaml:"max_match_distance"`
	Scenes           []model.SceneSpec      `yaml:"scenes"`
	Configs          []model.PipelineConfig `yaml:"configs"`
}

// Load reads and validates a sweep file.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "sweepfile: read %s", path)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, eris.Wrapf(err, "sweepfile: parse %s", path)
	}
	if err := f.Validate(); err != nil {
		return nil, eris.Wrapf(err, "sweepfile: %s", path)
	}
	return &f, nil
}

// Validate checks the grid is well formed: at least one scene and one
// config, no duplicate names, every scene naming a recipe.
func (f *File) Validate() error {
	if len(f.Scenes) == 0 {
		return eris.New("no scenes declared")
	}
	if len(f.Configs) == 0 {
		return eris.New("no pipeline configs declared")
	}

	sceneNames := make(map[string]bool, len(f.Scenes))
	for _, s := range f.Scenes {
		if s.Name == "" {
			return eris.New("scene with empty name")
		}
		if sceneNames[s.Name] {
			return eris.Errorf("duplicate scene %q", s.Name)
		}
		sceneNames[s.Name] = true
		if s.Recipe == "" {
			return eris.Errorf("scene %q: missing recipe", s.Name)
		}
		if s.ImageSize <= 0 {
			return eris.Errorf("scene %q: image_size must be positive", s.Name)
		}
	}

	configNames := make(map[string]bool, len(f.Configs))
	for _, c := range f.Configs {
		if c.Name == "" {
			return eris.New("config with empty name")
		}
		if configNames[c.Name] {
			return eris.Errorf("duplicate config %q", c.Name)
		}
		configNames[c.Name] = true
	}

	return nil
}
