package learner

import "time"

// StopReason tells why Learn returned. The zero value means "keep going".
type StopReason string

// Stop reasons.
const (
	StopNone          StopReason = ""
	StopMaxIterations StopReason = "max_iterations"
	StopMaxGridSize   StopReason = "max_grid_size"
	StopAccuracy      StopReason = "accuracy"
	StopStagnation    StopReason = "stagnation"
	// StopSaturated means refinement could not add a point.
	StopSaturated StopReason = "saturated"
)

// StepStats records one learning step.
type StepStats struct {
	Iteration int           `msgpack:"iteration"`
	GridSize  int           `msgpack:"grid_size"`
	Added     int           `msgpack:"added"` // points added by the refinement preceding the fit
	Error     float64       `msgpack:"error"`
	Duration  time.Duration `msgpack:"duration"`
}

// Done inspects the history of a run and returns the first satisfied
// criterion in the order accuracy, grid size, iterations, stagnation, or
// StopNone.
//
// Stagnation holds when the last Patience steps (at least one) each improved
// the error by less than MinImprovement.
func (d StopPolicyDescriptor) Done(history []StepStats) StopReason {
	if len(history) == 0 {
		return StopNone
	}
	last := history[len(history)-1]
	if d.Accuracy > 0 && last.Error <= d.Accuracy {
		return StopAccuracy
	}
	if d.MaxGridSize > 0 && last.GridSize >= d.MaxGridSize {
		return StopMaxGridSize
	}
	maxIter := d.MaxIterations
	if maxIter == 0 {
		maxIter = DefaultStopIters
	}
	if len(history) >= maxIter {
		return StopMaxIterations
	}
	if d.MinImprovement > 0 {
		patience := max(d.Patience, 1)
		if len(history) <= patience {
			return StopNone
		}
		for k := len(history) - patience; k < len(history); k++ {
			if history[k-1].Error-history[k].Error >= d.MinImprovement {
				return StopNone
			}
		}
		return StopStagnation
	}

	return StopNone
}
