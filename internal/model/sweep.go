package model

import "time"

// CellKey identifies one (scene, pipeline config) cell of a sweep grid.
type CellKey struct {
	Scene  string `json:"scene"`
	Config string `json:"config"`
}

// MatchedPair pairs a ground-truth index with a candidate index at a given
// separation in pixels.
type MatchedPair struct {
	Truth      int     `json:"truth"`
	Candidate  int     `json:"candidate"`
	Separation float64 `json:"separation"`
}

// MatchResult partitions the indices of one ground-truth table and one
// candidate table. The three sets are disjoint and together cover both index
// ranges: every truth index is matched or missed, every candidate index is
// matched or false.
type MatchResult struct {
	Pairs  []MatchedPair `json:"pairs"`
	Missed []int         `json:"missed"`
	False  []int         `json:"false"`
}

// ResidualSummary reduces a residual sequence to its distributional summary.
type ResidualSummary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	P5     float64 `json:"p5"`
	P95    float64 `json:"p95"`
}

// ErrorStatistics is the per-cell accuracy summary retained after a cell's
// intermediate tables are discarded. Position and Flux are nil when no pair
// matched; an absent summary is the explicit "undefined" marker, never a
// zero or NaN.
type ErrorStatistics struct {
	Matches        int `json:"matches"`
	Misses         int `json:"misses"`
	FalsePositives int `json:"false_positives"`

	Position *ResidualSummary `json:"position,omitempty"`
	Flux     *ResidualSummary `json:"flux,omitempty"`
}

// FailureKind tags why a sweep cell produced no valid statistics.
type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureGeneration FailureKind = "generation"
	FailureDetection  FailureKind = "detection"
	FailureCancelled  FailureKind = "cancelled"

	// FailureInternal marks a contract violation inside the engine itself,
	// e.g. a malformed table handed over by an adapter. It indicates a bug,
	// not a runtime condition, and is logged loudly.
	FailureInternal FailureKind = "internal"
)

// CellResult is the outcome of one sweep cell: either valid statistics or a
// tagged failure. A detection failure degrades the cell to "all truth
// missed, zero candidates", so Stats may be present alongside Failure.
type CellResult struct {
	Key      CellKey          `json:"key"`
	Stats    *ErrorStatistics `json:"stats,omitempty"`
	Failure  FailureKind      `json:"failure,omitempty"`
	Error    string           `json:"error,omitempty"`
	Duration time.Duration    `json:"duration_ns,omitempty"`
}

// Failed reports whether the cell carries a failure tag.
func (c CellResult) Failed() bool { return c.Failure != FailureNone }

// SweepResult maps every requested cell to its outcome. No requested cell is
// ever missing: failures are recorded, not dropped.
type SweepResult struct {
	ID         string                 `json:"id"`
	Scenes     []string               `json:"scenes"`
	Configs    []string               `json:"configs"`
	Cells      map[CellKey]CellResult `json:"-"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
}

// Cell returns the result for a key, reporting whether it was requested.
func (s *SweepResult) Cell(key CellKey) (CellResult, bool) {
	c, ok := s.Cells[key]
	return c, ok
}

// FailedCells returns the keys of all failed cells in no particular order.
func (s *SweepResult) FailedCells() []CellKey {
	var keys []CellKey
	for k, c := range s.Cells {
		if c.Failed() {
			keys = append(keys, k)
		}
	}
	return keys
}
