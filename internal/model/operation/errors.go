package operation

import (
	"errors"
	"fmt"
)

// Validation errors returned by Execute.
var (
	// ErrPositionInvalid indicates a position that does not resolve in the tree.
	ErrPositionInvalid = errors.New("position invalid")

	// ErrNodesMissing indicates a move of more offsets than its parent holds.
	ErrNodesMissing = errors.New("nodes do not exist")

	// ErrMoveIntoItself indicates a move target inside the moved range.
	ErrMoveIntoItself = errors.New("range moved into itself")

	// ErrRangeNotFlat indicates an attribute range spanning several parents.
	ErrRangeNotFlat = errors.New("range not flat")

	// ErrWrongOldValue indicates an attribute whose current value differs from the expected old value.
	ErrWrongOldValue = errors.New("wrong old attribute value")

	// ErrAttributeExists indicates adding an attribute which is already set.
	ErrAttributeExists = errors.New("attribute already exists")

	// ErrNotElement indicates an operation addressing something other than an element.
	ErrNotElement = errors.New("not an element")

	// ErrWrongName indicates a rename whose old name does not match.
	ErrWrongName = errors.New("element has a different name")

	// ErrSplitInRoot indicates a split of a root or of a detached element.
	ErrSplitInRoot = errors.New("cannot split a root")

	// ErrHowManyInvalid indicates an offset count not matching the element content.
	ErrHowManyInvalid = errors.New("offset count invalid")

	// ErrMergeSourceInvalid indicates a merge whose source element has no parent.
	ErrMergeSourceInvalid = errors.New("merge source invalid")

	// ErrMergeTargetInvalid indicates a merge target not at the end of its element.
	ErrMergeTargetInvalid = errors.New("merge target invalid")

	// ErrGraveyardPositionInvalid indicates a graveyard position with no element after it.
	ErrGraveyardPositionInvalid = errors.New("graveyard position invalid")

	// ErrRootNotFound indicates a root operation on an unknown root.
	ErrRootNotFound = errors.New("root not found")
)

// OperationError wraps a validation failure with the operation type.
type OperationError struct {
	Op  Type
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s operation: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func fail(op Type, err error, format string, args ...any) error {
	e := &OperationError{Op: op, Err: fmt.Errorf("%w: "+format, append([]any{err}, args...)...)}
	tracer().Errorf("%v", e)
	return e
}
