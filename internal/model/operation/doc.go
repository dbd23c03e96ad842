// Package operation defines the low-level edits applied to a document tree.
//
// Every change to a document is expressed as an Operation: insert, move
// (remove and reinsert are moves from and to the graveyard), split, merge,
// attribute, rename, marker, root attribute, root state and no-op. An
// operation knows how to execute itself, how to build its reverse and how
// positions and ranges are transformed by it.
//
// Operations carry the document version they were created against. Those
// created for detached trees carry NoVersion and are not document
// operations: they bypass history and differencing.
//
// # Validation
//
// Execute validates the operation against the current tree before changing
// anything. A failed validation means the caller built an operation for a
// different tree state; the returned *OperationError is not meant to be
// recovered from.
package operation

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'treemodel.operation'.
func tracer() tracing.Trace {
	return tracing.Select("treemodel.operation")
}
