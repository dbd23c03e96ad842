package scenario

import (
	"errors"
	"fmt"
)

// Errors returned while reading or running scenarios.
var (
	// ErrInvalidScenario indicates a scenario file that cannot be used.
	ErrInvalidScenario = errors.New("invalid scenario")

	// ErrUnknownOp indicates a step with an unsupported op.
	ErrUnknownOp = errors.New("unknown step op")

	// ErrMissingField indicates a step without a field its op requires.
	ErrMissingField = errors.New("missing step field")

	// ErrNoNode indicates a node reference not followed by a node.
	ErrNoNode = errors.New("no node at position")

	// ErrNothingToUndo indicates an undo step before any batch.
	ErrNothingToUndo = errors.New("nothing to undo")
)

// StepError reports the step that failed.
type StepError struct {
	Index int
	Op    string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index+1, e.Op, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
