// Package differ turns the operations applied during a change block into
// a minimal, ordered set of changes.
//
// The Differ is fed every document operation before it executes. It keeps,
// per touched element, a snapshot of the element's children taken at first
// touch and a list of insert, remove and attribute changes in the
// element's offset space. Overlapping changes are folded together as they
// arrive, so inserting and then removing the same content leaves nothing.
//
// GetChanges compares the snapshots with the current children and emits
// DiffItems sorted in document order. Adjacent text changes are glued into
// single items. The result is cached until the next buffered operation.
//
// Besides tree changes the differ tracks marker changes (BufferMarkerChange)
// and root changes: attach, detach and root attributes.
package differ

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'treemodel.differ'.
func tracer() tracing.Trace {
	return tracing.Select("treemodel.differ")
}
