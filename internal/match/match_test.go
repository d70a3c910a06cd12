package match

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starfield-lab/astrobench/internal/model"
)

func table(points ...[3]float64) model.SourceTable {
	t := make(model.SourceTable, 0, len(points))
	for _, p := range points {
		t = append(t, model.Source{X: p[0], Y: p[1], Flux: p[2]})
	}
	return t
}

func TestMatch_NearbyCandidatePairedDistantTruthMissed(t *testing.T) {
	truth := table([3]float64{0, 0, 100}, [3]float64{10, 10, 100})
	cands := table([3]float64{0.1, 0.1, 98})

	mr, err := Match(truth, cands, 1.0)
	require.NoError(t, err)

	require.Len(t, mr.Pairs, 1)
	assert.Equal(t, 0, mr.Pairs[0].Truth)
	assert.Equal(t, 0, mr.Pairs[0].Candidate)
	assert.InDelta(t, 0.141, mr.Pairs[0].Separation, 0.001)
	assert.Equal(t, []int{1}, mr.Missed)
	assert.Empty(t, mr.False)
}

func TestMatch_BeyondCutoffIsMissPlusFalsePositive(t *testing.T) {
	truth := table([3]float64{0, 0, 100})
	cands := table([3]float64{5, 5, 100})

	mr, err := Match(truth, cands, 1.0)
	require.NoError(t, err)

	assert.Empty(t, mr.Pairs)
	assert.Equal(t, []int{0}, mr.Missed)
	assert.Equal(t, []int{0}, mr.False)
}

func TestMatch_EmptyTruth(t *testing.T) {
	cands := table([3]float64{1, 1, 10}, [3]float64{2, 2, 20}, [3]float64{3, 3, 30})

	mr, err := Match(nil, cands, 1.0)
	require.NoError(t, err)

	assert.Empty(t, mr.Pairs)
	assert.Empty(t, mr.Missed)
	assert.Equal(t, []int{0, 1, 2}, mr.False)
}

func TestMatch_EmptyCandidates(t *testing.T) {
	truth := table([3]float64{1, 1, 10}, [3]float64{2, 2, 20})

	mr, err := Match(truth, nil, 1.0)
	require.NoError(t, err)

	assert.Empty(t, mr.Pairs)
	assert.Equal(t, []int{0, 1}, mr.Missed)
	assert.Empty(t, mr.False)
}

func TestMatch_GreedyResolvesCrowding(t *testing.T) {
	// Two truth stars close together, one candidate between them but nearer
	// the first. The candidate must pair with the nearer truth star only.
	truth := table([3]float64{0, 0, 100}, [3]float64{1, 0, 100})
	cands := table([3]float64{0.3, 0, 95})

	mr, err := Match(truth, cands, 2.0)
	require.NoError(t, err)

	require.Len(t, mr.Pairs, 1)
	assert.Equal(t, 0, mr.Pairs[0].Truth)
	assert.Equal(t, []int{1}, mr.Missed)
	assert.Empty(t, mr.False)
}

func TestMatch_TieBreakLowestTruthThenCandidate(t *testing.T) {
	// Both candidates sit at identical distance from both truth stars.
	// The tie-break commits (truth 0, cand 0) first, leaving (1, 1).
	truth := table([3]float64{0, 0, 1}, [3]float64{2, 0, 1})
	cands := table([3]float64{1, 0, 1}, [3]float64{1, 0, 1})

	mr, err := Match(truth, cands, 1.5)
	require.NoError(t, err)

	require.Len(t, mr.Pairs, 2)
	assert.Equal(t, model.MatchedPair{Truth: 0, Candidate: 0, Separation: 1}, mr.Pairs[0])
	assert.Equal(t, model.MatchedPair{Truth: 1, Candidate: 1, Separation: 1}, mr.Pairs[1])
}

func TestMatch_Deterministic(t *testing.T) {
	truth := table(
		[3]float64{1.5, 2.5, 10}, [3]float64{4.1, 4.1, 20},
		[3]float64{9.9, 0.2, 30}, [3]float64{5.0, 5.0, 40},
	)
	cands := table(
		[3]float64{1.6, 2.4, 11}, [3]float64{4.0, 4.2, 19},
		[3]float64{5.1, 5.1, 41}, [3]float64{7.7, 7.7, 5},
	)

	first, err := Match(truth, cands, 0.5)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Match(truth, cands, 0.5)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMatch_PartitionsCoverBothIndexSets(t *testing.T) {
	truth := table(
		[3]float64{0, 0, 1}, [3]float64{3, 3, 2}, [3]float64{6, 6, 3},
		[3]float64{9, 9, 4}, [3]float64{12, 12, 5},
	)
	cands := table(
		[3]float64{0.2, 0.1, 1}, [3]float64{3.4, 2.9, 2},
		[3]float64{20, 20, 9}, [3]float64{6.1, 5.8, 3},
	)

	mr, err := Match(truth, cands, 1.0)
	require.NoError(t, err)

	truthSeen := map[int]int{}
	candSeen := map[int]int{}
	for _, p := range mr.Pairs {
		truthSeen[p.Truth]++
		candSeen[p.Candidate]++
	}
	for _, i := range mr.Missed {
		truthSeen[i]++
	}
	for _, j := range mr.False {
		candSeen[j]++
	}

	assert.Len(t, truthSeen, len(truth))
	assert.Len(t, candSeen, len(cands))
	for i, count := range truthSeen {
		assert.Equal(t, 1, count, "truth index %d covered more than once", i)
	}
	for j, count := range candSeen {
		assert.Equal(t, 1, count, "candidate index %d covered more than once", j)
	}
}

func TestMatch_RequiresPositiveCutoff(t *testing.T) {
	truth := table([3]float64{0, 0, 1})

	_, err := Match(truth, truth, 0)
	assert.Error(t, err)

	_, err = Match(truth, truth, -1)
	assert.Error(t, err)

	_, err = Match(truth, truth, math.NaN())
	assert.Error(t, err)
}
