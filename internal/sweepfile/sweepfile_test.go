package sweepfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starfield-lab/astrobench/internal/model"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sweep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validSweep = `
max_match_distance: 1.5
scenes:
  - name: grid_16_perturb2
    recipe: grid
    image_size: 1024
    grid_stars: 16
    perturb: 2
    noise_sigma: 10
    psf_fwhm: 2.5
    mag_min: 18
    mag_max: 24
    zeropoint: 25
  - name: gauss_cluster_N1000
    recipe: gauss_cluster
    image_size: 1024
    num_stars: 1000
    cluster_std: 64
    noise_sigma: 10
    psf_fwhm: 2.5
    mag_min: 18
    mag_max: 24
    zeropoint: 25
configs:
  - name: default
    params:
      threshold_factor: 3
      fwhm_guess: 2.5
  - name: smoothed
    params:
      threshold_factor: 3
      fwhm_guess: 2.5
      smoothing_sigma: 0.3
`

func TestLoad_Valid(t *testing.T) {
	f, err := Load(writeFile(t, validSweep))
	require.NoError(t, err)

	assert.InDelta(t, 1.5, f.MaxMatchDistance, 1e-12)
	require.Len(t, f.Scenes, 2)
	assert.Equal(t, model.RecipeGrid, f.Scenes[0].Recipe)
	assert.Equal(t, 16, f.Scenes[0].GridStars)
	assert.Equal(t, 1000, f.Scenes[1].NumStars)
	require.Len(t, f.Configs, 2)
	assert.InDelta(t, 0.3, f.Configs[1].Params["smoothing_sigma"], 1e-12)
}

func TestLoad_RejectsMissingScenes(t *testing.T) {
	_, err := Load(writeFile(t, "configs:\n  - name: default\n"))
	assert.Error(t, err)
}

func TestLoad_RejectsDuplicateSceneNames(t *testing.T) {
	_, err := Load(writeFile(t, `
scenes:
  - {name: a, recipe: grid, image_size: 64, grid_stars: 4}
  - {name: a, recipe: grid, image_size: 64, grid_stars: 4}
configs:
  - name: default
`))
	assert.Error(t, err)
}

func TestLoad_RejectsSceneWithoutRecipe(t *testing.T) {
	_, err := Load(writeFile(t, `
scenes:
  - {name: a, image_size: 64}
configs:
  - name: default
`))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
