// Package match pairs candidate detections to ground-truth sources by
// spatial proximity, resolving duplicate and unmatched entries
// deterministically.
package match

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/starfield-lab/astrobench/internal/model"
)

// pair is one truth/candidate distance considered for assignment.
type pair struct {
	truth, cand int
	dist        float64
}

// Match builds a bipartite assignment between truth and cands by greedy
// global-nearest-first selection: the smallest remaining pairwise distance is
// committed while it stays within maxDist, removing both endpoints from
// further consideration. Ties on distance are broken by lower truth index,
// then lower candidate index, so the result is deterministic for identical
// inputs. Remaining truth indices are misses, remaining candidate indices
// are false positives.
//
// maxDist encodes the positional tolerance for "the same star" and is
// required; a non-positive value is a caller bug, not a runtime condition.
func Match(truth, cands model.SourceTable, maxDist float64) (model.MatchResult, error) {
	if maxDist <= 0 || math.IsNaN(maxDist) {
		return model.MatchResult{}, eris.Errorf("match: max match distance must be positive, got %v", maxDist)
	}

	n, m := len(truth), len(cands)
	if n == 0 || m == 0 {
		return trivial(n, m), nil
	}

	pairs := make([]pair, 0, n*m)
	for i, t := range truth {
		for j, c := range cands {
			dx, dy := c.X-t.X, c.Y-t.Y
			pairs = append(pairs, pair{truth: i, cand: j, dist: math.Hypot(dx, dy)})
		}
	}

	sort.Slice(pairs, func(a, b int) bool {
		pa, pb := pairs[a], pairs[b]
		if pa.dist != pb.dist {
			return pa.dist < pb.dist
		}
		if pa.truth != pb.truth {
			return pa.truth < pb.truth
		}
		return pa.cand < pb.cand
	})

	truthUsed := make([]bool, n)
	candUsed := make([]bool, m)

	var result model.MatchResult
	for _, p := range pairs {
		if p.dist > maxDist {
			break
		}
		if truthUsed[p.truth] || candUsed[p.cand] {
			continue
		}
		truthUsed[p.truth] = true
		candUsed[p.cand] = true
		result.Pairs = append(result.Pairs, model.MatchedPair{
			Truth:      p.truth,
			Candidate:  p.cand,
			Separation: p.dist,
		})
	}

	for i := range truth {
		if !truthUsed[i] {
			result.Missed = append(result.Missed, i)
		}
	}
	for j := range cands {
		if !candUsed[j] {
			result.False = append(result.False, j)
		}
	}

	return result, nil
}

// trivial covers the empty-table edge cases without distance computation.
func trivial(n, m int) model.MatchResult {
	var result model.MatchResult
	for i := 0; i < n; i++ {
		result.Missed = append(result.Missed, i)
	}
	for j := 0; j < m; j++ {
		result.False = append(result.False, j)
	}
	return result
}
