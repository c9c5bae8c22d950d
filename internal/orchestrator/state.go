package orchestrator

// State names one phase of a planning run.
type State string

const (
	StateIdle               State = "idle"
	StateFetchingContext    State = "fetching_context"
	StateFetchingCandidates State = "fetching_candidates"
	StatePlanning           State = "planning"
	StateCompleted          State = "completed"
	StateFailed             State = "failed"
)

// legalTransitions lists the permitted next states for each state.
var legalTransitions = map[State][]State{
	StateIdle:               {StateFetchingContext},
	StateFetchingContext:    {StateFetchingCandidates, StateFailed},
	StateFetchingCandidates: {StatePlanning, StateFailed},
	StatePlanning:           {StateCompleted, StateFailed},
	StateCompleted:          {},
	StateFailed:             {},
}

// canTransition reports whether from -> to is a legal move.
func canTransition(from, to State) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}
