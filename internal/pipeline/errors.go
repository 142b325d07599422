package pipeline

import (
	"errors"

	"jobflow-engine/internal/domain"
)

var (
	// ErrDiscovery is the only error that escapes Run; it aborts the run.
	ErrDiscovery = errors.New("discovery failed")
	// ErrSnapshot means the tracked-job snapshot could not be read. Also fatal.
	ErrSnapshot = errors.New("tracking store snapshot failed")

	ErrScoring   = errors.New("scoring failed")
	ErrSynthesis = errors.New("synthesis failed")
	ErrCommit    = errors.New("commit failed")

	ErrInvalidScore = domain.ErrInvalidScore

	ErrRunInProgress = errors.New("a pipeline run is already in progress")
)
