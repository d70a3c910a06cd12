package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starfield-lab/astrobench/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "astrobench.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSweepLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateSweep(ctx, []string{"grid_16", "gauss_cluster_N1000"}, []string{"default", "smoothed"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec, err := s.GetSweep(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, SweepStatusRunning, rec.Status)
	assert.Equal(t, []string{"grid_16", "gauss_cluster_N1000"}, rec.Scenes)
	assert.Equal(t, []string{"default", "smoothed"}, rec.Configs)
	assert.Nil(t, rec.CompletedAt)

	require.NoError(t, s.CompleteSweep(ctx, id))

	rec, err = s.GetSweep(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, SweepStatusComplete, rec.Status)
	require.NotNil(t, rec.CompletedAt)
}

func TestCompleteSweep_UnknownID(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.CompleteSweep(context.Background(), "nope"))
}

func TestSaveAndListCells(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateSweep(ctx, []string{"grid_16"}, []string{"default", "smoothed"})
	require.NoError(t, err)

	ok := model.CellResult{
		Key: model.CellKey{Scene: "grid_16", Config: "default"},
		Stats: &model.ErrorStatistics{
			Matches: 250, Misses: 6, FalsePositives: 3,
			Position: &model.ResidualSummary{Mean: 0.12, Median: 0.1, StdDev: 0.05, P5: 0.02, P95: 0.3},
		},
		Duration: 1500 * time.Millisecond,
	}
	failed := model.CellResult{
		Key:     model.CellKey{Scene: "grid_16", Config: "smoothed"},
		Failure: model.FailureDetection,
		Error:   "fitter did not converge",
		Stats:   &model.ErrorStatistics{Misses: 256},
	}

	require.NoError(t, s.SaveCell(ctx, id, ok))
	require.NoError(t, s.SaveCell(ctx, id, failed))

	cells, err := s.ListCells(ctx, id)
	require.NoError(t, err)
	require.Len(t, cells, 2)

	assert.Equal(t, "default", cells[0].Key.Config)
	assert.False(t, cells[0].Failed())
	require.NotNil(t, cells[0].Stats)
	assert.Equal(t, 250, cells[0].Stats.Matches)
	assert.InDelta(t, 0.12, cells[0].Stats.Position.Mean, 1e-12)
	assert.Equal(t, 1500*time.Millisecond, cells[0].Duration)

	assert.Equal(t, model.FailureDetection, cells[1].Failure)
	assert.Equal(t, "fitter did not converge", cells[1].Error)
}

func TestSaveCell_UpsertsOnRerun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateSweep(ctx, []string{"grid_16"}, []string{"default"})
	require.NoError(t, err)

	key := model.CellKey{Scene: "grid_16", Config: "default"}
	require.NoError(t, s.SaveCell(ctx, id, model.CellResult{Key: key, Failure: model.FailureGeneration, Error: "transient"}))
	require.NoError(t, s.SaveCell(ctx, id, model.CellResult{Key: key, Stats: &model.ErrorStatistics{Matches: 10}}))

	cells, err := s.ListCells(ctx, id)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.False(t, cells[0].Failed())
	require.NotNil(t, cells[0].Stats)
	assert.Equal(t, 10, cells[0].Stats.Matches)
}

func TestListSweeps_FilterAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateSweep(ctx, []string{"a"}, []string{"x"})
	require.NoError(t, err)
	_, err = s.CreateSweep(ctx, []string{"b"}, []string{"y"})
	require.NoError(t, err)
	require.NoError(t, s.CompleteSweep(ctx, first))

	all, err := s.ListSweeps(ctx, SweepFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	complete, err := s.ListSweeps(ctx, SweepFilter{Status: SweepStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, first, complete[0].ID)
}

func TestSceneCache_RoundTripAndExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	truth := model.SourceTable{{X: 1.5, Y: 2.5, Flux: 100}, {X: 9, Y: 9, Flux: 50}}
	img := model.Image{ID: "img-1", Data: []byte{0xDE, 0xAD}}

	// Miss before insert.
	got, _, err := s.GetCachedScene(ctx, "grid_16", 42)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.PutCachedScene(ctx, "grid_16", 42, img, truth, time.Hour))

	got, gotTruth, err := s.GetCachedScene(ctx, "grid_16", 42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, img, *got)
	assert.Equal(t, truth, gotTruth)

	// A different seed is a different cache entry.
	got, _, err = s.GetCachedScene(ctx, "grid_16", 43)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Expired entries read as misses and can be purged.
	require.NoError(t, s.PutCachedScene(ctx, "stale", 1, img, truth, -time.Minute))
	got, _, err = s.GetCachedScene(ctx, "stale", 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := s.DeleteExpiredScenes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
