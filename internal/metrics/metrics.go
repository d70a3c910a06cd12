// Package metrics reduces matched and unmatched source sets into scalar and
// distributional error statistics.
package metrics

import (
	"github.com/montanaflynn/stats"
	"github.com/rotisserie/eris"

	"github.com/starfield-lab/astrobench/internal/model"
)

// Aggregate reduces a MatchResult over its source tables to ErrorStatistics.
// Positional residuals are the pair separations; flux residuals are signed,
// candidate minus truth. With zero matches the residual summaries stay nil:
// an explicit undefined marker rather than a misleading zero.
//
// An out-of-range index in the MatchResult is a contract violation by the
// caller and surfaces as an error, not a panic.
func Aggregate(truth, cands model.SourceTable, mr model.MatchResult) (model.ErrorStatistics, error) {
	es := model.ErrorStatistics{
		Matches:        len(mr.Pairs),
		Misses:         len(mr.Missed),
		FalsePositives: len(mr.False),
	}

	if len(mr.Pairs) == 0 {
		return es, nil
	}

	posResiduals := make([]float64, 0, len(mr.Pairs))
	fluxResiduals := make([]float64, 0, len(mr.Pairs))
	for _, p := range mr.Pairs {
		if p.Truth < 0 || p.Truth >= len(truth) || p.Candidate < 0 || p.Candidate >= len(cands) {
			return model.ErrorStatistics{}, eris.Errorf(
				"metrics: pair (%d, %d) out of range for tables of size %d and %d",
				p.Truth, p.Candidate, len(truth), len(cands))
		}
		posResiduals = append(posResiduals, p.Separation)
		fluxResiduals = append(fluxResiduals, cands[p.Candidate].Flux-truth[p.Truth].Flux)
	}

	pos, err := summarize(posResiduals)
	if err != nil {
		return model.ErrorStatistics{}, eris.Wrap(err, "metrics: position residuals")
	}
	flux, err := summarize(fluxResiduals)
	if err != nil {
		return model.ErrorStatistics{}, eris.Wrap(err, "metrics: flux residuals")
	}

	es.Position = pos
	es.Flux = flux
	return es, nil
}

// summarize computes the distributional summary of one residual sequence.
func summarize(data []float64) (*model.ResidualSummary, error) {
	mean, err := stats.Mean(data)
	if err != nil {
		return nil, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return nil, err
	}
	stdDev, err := stats.StandardDeviation(data)
	if err != nil {
		return nil, err
	}
	// Nearest-rank percentiles: defined for any non-empty sample, and on a
	// two-element sample P5/P95 land on the extremes rather than collapsing
	// to the midpoint.
	p5, err := stats.PercentileNearestRank(data, 5)
	if err != nil {
		return nil, err
	}
	p95, err := stats.PercentileNearestRank(data, 95)
	if err != nil {
		return nil, err
	}

	return &model.ResidualSummary{
		Mean:   mean,
		Median: median,
		StdDev: stdDev,
		P5:     p5,
		P95:    p95,
	}, nil
}
