package model

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
)

// Sentinel errors for the two external boundaries. Adapters wrap their
// underlying failures with these so the orchestrator can classify a failed
// cell without knowing the collaborator's error surface.
var (
	// ErrGeneration marks a scene the synthesis service could not produce.
	ErrGeneration = eris.New("scene generation failed")

	// ErrDetection marks a pipeline crash or non-convergence.
	ErrDetection = eris.New("detection pipeline failed")
)

// ClassifyFailure maps an error from a cell evaluation to its failure kind.
// Context cancellation wins over boundary sentinels: an abandoned in-flight
// cell is recorded as cancelled even if the external call surfaced the
// cancellation as its own error.
func ClassifyFailure(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FailureCancelled
	case errors.Is(err, ErrGeneration):
		return FailureGeneration
	case errors.Is(err, ErrDetection):
		return FailureDetection
	default:
		return FailureInternal
	}
}
