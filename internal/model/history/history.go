package history

import (
	"fmt"
	"sync"

	"github.com/dshills/treemodel/internal/model/operation"
)

// gap is a reserved version interval with no operations in it.
type gap struct {
	from, to int
}

// History is the operation log of a document.
type History struct {
	mu sync.Mutex

	operations []operation.Operation
	byVersion  map[int]int // base version -> index in operations
	version    int
	gaps       []gap

	// undoing operation -> undone operation
	undoPairs map[operation.Operation]operation.Operation
	undone    map[operation.Operation]struct{}
}

// New creates an empty history at version 0.
func New() *History {
	return &History{
		byVersion: make(map[int]int),
		undoPairs: make(map[operation.Operation]operation.Operation),
		undone:    make(map[operation.Operation]struct{}),
	}
}

// Version returns the base version the next operation must have.
func (h *History) Version() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.version
}

// SetVersion moves the version forward. A jump by more than one records a
// gap once the log holds operations. It panics if v is below the current
// version.
func (h *History) SetVersion(v int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if v < h.version {
		err := fmt.Errorf("%w: %d < %d", ErrVersionDecrease, v, h.version)
		tracer().Errorf("%v", err)
		panic(err)
	}
	if len(h.operations) > 0 && v > h.version+1 {
		h.gaps = append(h.gaps, gap{from: h.version, to: v})
		tracer().Debugf("history gap (%d, %d)", h.version, v)
	}
	h.version = v
}

// AddOperation appends op and advances the version. It panics with a
// *VersionMismatchError if op's base version is not the current version.
func (h *History) AddOperation(op operation.Operation) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if op.BaseVersion() != h.version {
		err := &VersionMismatchError{Op: op.Type(), Version: op.BaseVersion(), Expected: h.version}
		tracer().Errorf("%v", err)
		panic(err)
	}
	h.operations = append(h.operations, op)
	h.byVersion[op.BaseVersion()] = len(h.operations) - 1
	h.version++
}

// Len returns the number of logged operations.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.operations)
}

// LastOperation returns the most recent operation, or nil.
func (h *History) LastOperation() operation.Operation {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.operations) == 0 {
		return nil
	}
	return h.operations[len(h.operations)-1]
}

// GetOperation returns the operation with the given base version, or nil.
func (h *History) GetOperation(baseVersion int) operation.Operation {
	h.mu.Lock()
	defer h.mu.Unlock()
	i, ok := h.byVersion[baseVersion]
	if !ok {
		return nil
	}
	return h.operations[i]
}

// GetOperations returns the operations with base versions in [from, to),
// in the order they were applied. Bounds falling inside a gap are moved to
// the gap's edge. Use AllOperations for the whole log.
func (h *History) GetOperations(from, to int) []operation.Operation {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.operations) == 0 {
		return nil
	}
	first := h.operations[0].BaseVersion()
	last := h.operations[len(h.operations)-1].BaseVersion()

	inclusiveTo := to - 1
	for _, g := range h.gaps {
		if from > g.from && from < g.to {
			from = g.to
		}
		if inclusiveTo > g.from && inclusiveTo < g.to {
			inclusiveTo = g.from - 1
		}
	}
	if inclusiveTo < first || from > last {
		return nil
	}
	fromIndex, ok := h.byVersion[from]
	if !ok {
		fromIndex = 0
	}
	toIndex, ok := h.byVersion[inclusiveTo]
	if !ok {
		toIndex = len(h.operations) - 1
	}
	if toIndex < fromIndex {
		return nil
	}
	return append([]operation.Operation(nil), h.operations[fromIndex:toIndex+1]...)
}

// AllOperations returns every logged operation.
func (h *History) AllOperations() []operation.Operation {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]operation.Operation(nil), h.operations...)
}

// SetOperationAsUndone records that undoing reverted undone.
func (h *History) SetOperationAsUndone(undone, undoing operation.Operation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undoPairs[undoing] = undone
	h.undone[undone] = struct{}{}
}

// IsUndoingOperation reports whether op reverted another operation.
func (h *History) IsUndoingOperation(op operation.Operation) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.undoPairs[op]
	return ok
}

// IsUndoneOperation reports whether op was reverted.
func (h *History) IsUndoneOperation(op operation.Operation) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.undone[op]
	return ok
}

// GetUndoneOperation returns the operation reverted by undoing, or nil.
func (h *History) GetUndoneOperation(undoing operation.Operation) operation.Operation {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.undoPairs[undoing]
}

// Reset clears the log and returns to version 0.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.operations = nil
	h.byVersion = make(map[int]int)
	h.version = 0
	h.gaps = nil
	h.undoPairs = make(map[operation.Operation]operation.Operation)
	h.undone = make(map[operation.Operation]struct{})
}
