package model

import "errors"

// Errors raised by the document, the writer and live references. Writer
// errors are programming errors and are raised as panics; Model.Change
// recovers them and returns them to its caller.
var (
	// ErrWriterOutsideChangeBlock indicates a writer used after its change block ended.
	ErrWriterOutsideChangeBlock = errors.New("writer used outside of its change block")

	// ErrNotInDocument indicates a live reference into a tree not owned by the document.
	ErrNotInDocument = errors.New("position is not in a document root")

	// ErrRootExists indicates a root name that is already taken.
	ErrRootExists = errors.New("root already exists")

	// ErrRootNotFound indicates an unknown or detached root.
	ErrRootNotFound = errors.New("root does not exist")

	// ErrMarkerExists indicates adding a marker under a name already in use.
	ErrMarkerExists = errors.New("marker already exists")

	// ErrMarkerNotFound indicates an unknown marker name.
	ErrMarkerNotFound = errors.New("marker does not exist")

	// ErrMarkerName indicates a marker name containing a comma.
	ErrMarkerName = errors.New("marker name cannot contain ','")

	// ErrMarkerOptions indicates marker options missing a required value.
	ErrMarkerOptions = errors.New("missing marker options")

	// ErrRangeNotFlat indicates a move or wrap of a range spanning several parents.
	ErrRangeNotFlat = errors.New("range is not flat")

	// ErrDifferentDocument indicates a move between a document and a detached tree.
	ErrDifferentDocument = errors.New("cannot move between document and detached tree")

	// ErrForbiddenMove indicates inserting a node that already belongs to another document tree.
	ErrForbiddenMove = errors.New("node belongs to another tree")

	// ErrMergeNoElement indicates a merge position without elements on both sides.
	ErrMergeNoElement = errors.New("merge needs an element on both sides")

	// ErrSplitNoParent indicates splitting a root or a detached element.
	ErrSplitNoParent = errors.New("split element has no parent")

	// ErrSplitLimit indicates a split limit that is not an ancestor of the position.
	ErrSplitLimit = errors.New("split limit element is not an ancestor")

	// ErrWrapElement indicates a wrapping element that is attached or not empty.
	ErrWrapElement = errors.New("wrapping element must be empty and detached")

	// ErrUnwrapNoParent indicates unwrapping an element without parent.
	ErrUnwrapNoParent = errors.New("unwrapped element has no parent")

	// ErrNotElement indicates renaming something that is not an element.
	ErrNotElement = errors.New("node is not an element")

	// ErrUndoNotLast indicates undoing a batch that is not the last applied one.
	ErrUndoNotLast = errors.New("only the last applied batch can be undone")

	// ErrAlreadyUndone indicates undoing a batch twice.
	ErrAlreadyUndone = errors.New("batch already undone")
)
