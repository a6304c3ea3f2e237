package learner

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/katalvlaran/sparsegrid/anova"
)

// LearnerEvents enumerates the notifications published by a Learner.
type LearnerEvents int

const (
	// LearningStarted is published once when Learn begins.
	LearningStarted LearnerEvents = iota
	// LearningStepStarted opens every iteration.
	LearningStepStarted
	// RefinementComplete follows a refinement; Event.Added is set.
	RefinementComplete
	// FitComplete follows a successful fit; Event.Error is set.
	FitComplete
	// DecompositionComplete follows an ANOVA decomposition.
	DecompositionComplete
	// LearningStepComplete closes every iteration.
	LearningStepComplete
	// LearningComplete is published when the stop policy is satisfied.
	LearningComplete
	// LearningFailed is published when Learn returns an error.
	LearningFailed
)

// String returns the event name.
func (e LearnerEvents) String() string {
	switch e {
	case LearningStarted:
		return "LearningStarted"
	case LearningStepStarted:
		return "LearningStepStarted"
	case RefinementComplete:
		return "RefinementComplete"
	case FitComplete:
		return "FitComplete"
	case DecompositionComplete:
		return "DecompositionComplete"
	case LearningStepComplete:
		return "LearningStepComplete"
	case LearningComplete:
		return "LearningComplete"
	case LearningFailed:
		return "LearningFailed"
	default:
		return fmt.Sprintf("LearnerEvents(%d)", int(e))
	}
}

// Event is delivered to subscribers synchronously, on the goroutine running Learn.
type Event struct {
	Kind          LearnerEvents
	RunID         uuid.UUID
	Iteration     int
	GridSize      int
	Added         int
	Error         float64
	Reason        StopReason
	Err           error
	Decomposition *anova.Decomposition
}

// Listener receives events. It must not call Learn on the same Learner.
type Listener func(Event)
