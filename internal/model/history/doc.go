// Package history keeps the versioned log of operations applied to a
// document.
//
// Every document operation is appended with the base version it was
// created against, and that base version must equal the current history
// version. The version then advances by one.
//
// # Gaps
//
// Versions may be reserved for operations that never reach the log, for
// example operations dropped during collaboration. Moving the version
// forward by more than one records a gap, and GetOperations skips it:
//
//	h := history.New()
//	h.AddOperation(op0) // version 1
//	h.SetVersion(5)     // gap (1, 5)
//	h.AddOperation(op5) // base version 5
//
// # Undo pairs
//
// SetOperationAsUndone links an undoing operation to the operation it
// undid, so undo features can tell whether an operation was already
// reverted and by what.
package history

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'treemodel.history'.
func tracer() tracing.Trace {
	return tracing.Select("treemodel.history")
}
