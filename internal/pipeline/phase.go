package pipeline

import "fmt"

type Phase string

const (
	PhaseIdle                Phase = "idle"
	PhaseDiscovering         Phase = "discovering"
	PhaseDeduplicating       Phase = "deduplicating"
	PhaseScoringAndFiltering Phase = "scoring_and_filtering"
	PhaseSynthesizing        Phase = "synthesizing"
	PhaseDone                Phase = "done"
	PhaseAborted             Phase = "aborted"
)

// Forward-only. Aborted is reachable from Discovering alone; the two extra
// edges into Done cover runs with nothing left to score or draft.
var allowedTransitions = map[Phase]map[Phase]struct{}{
	PhaseIdle: {
		PhaseDiscovering: {},
	},
	PhaseDiscovering: {
		PhaseDeduplicating: {},
		PhaseAborted:       {},
	},
	PhaseDeduplicating: {
		PhaseScoringAndFiltering: {},
		PhaseDone:                {},
	},
	PhaseScoringAndFiltering: {
		PhaseSynthesizing: {},
		PhaseDone:         {},
	},
	PhaseSynthesizing: {
		PhaseDone: {},
	},
	PhaseDone:    {},
	PhaseAborted: {},
}

func ValidatePhase(p Phase) error {
	if _, ok := allowedTransitions[p]; !ok {
		return fmt.Errorf("invalid pipeline phase: %q", p)
	}
	return nil
}

func ValidateTransition(from, to Phase) error {
	if err := ValidatePhase(from); err != nil {
		return err
	}
	if err := ValidatePhase(to); err != nil {
		return err
	}
	if _, ok := allowedTransitions[from][to]; !ok {
		return fmt.Errorf("invalid pipeline transition: %s -> %s", from, to)
	}
	return nil
}

func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseAborted
}

// Step maps a phase onto the UI's four-step indicator: search, relevance,
// synthesis, complete. Idle and Aborted show no active step.
func (p Phase) Step() int {
	switch p {
	case PhaseDiscovering, PhaseDeduplicating:
		return 0
	case PhaseScoringAndFiltering:
		return 1
	case PhaseSynthesizing:
		return 2
	case PhaseDone:
		return 3
	default:
		return -1
	}
}
