package reconcile

import (
	models "idealite/internal/domain/models/workspace"
	"idealite/internal/workspace/mutation"
)

// State is the lifecycle of one user-initiated mutation.
type State int

const (
	StateIdle State = iota
	StateApplying
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateApplying:
		return "applying"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// Transition is reported to a TransitionHook each time a mutation changes
// state.
type Transition struct {
	Op     mutation.Op
	Target models.NodeRef
	State  State
	Err    error
}

type TransitionHook func(Transition)
