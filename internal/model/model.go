package model

import (
	"github.com/dshills/treemodel/internal/model/operation"
)

// PostFixer inspects the tree at the end of an outermost change block and
// may fix it through w. It returns true when it changed anything, which
// runs all post-fixers again.
type PostFixer func(w *Writer) bool

type pendingChange struct {
	batch *Batch
	fn    func(*Writer) error
}

// Model is the entry point for changing a Document.
type Model struct {
	doc        *Document
	pending    []pendingChange
	current    *Writer
	postFixers []PostFixer

	trackHistory     bool
	graveyardChanges bool
}

// New creates a model with an empty document.
func New(opts ...Option) *Model {
	m := &Model{trackHistory: true}
	for _, opt := range opts {
		opt(m)
	}
	m.doc = newDocument(m)
	return m
}

// Document returns the model's document.
func (m *Model) Document() *Document { return m.doc }

// Markers returns the document's marker collection.
func (m *Model) Markers() *MarkerCollection { return m.doc.markers }

// RegisterPostFixer adds fn to the post-fixers run at the end of every
// outermost change block.
func (m *Model) RegisterPostFixer(fn PostFixer) {
	m.postFixers = append(m.postFixers, fn)
}

// ApplyOperation runs op through the operation pipeline. Operations applied
// directly are not part of any batch unless the caller adds them.
func (m *Model) ApplyOperation(op operation.Operation) error {
	return m.doc.applyOperation(op)
}

// Change runs fn with a writer. The outermost call opens a change block
// with a new default batch and runs blocks enqueued meanwhile after it.
// A nested call runs fn in the enclosing block with its writer.
//
// Panics carrying an error, which is how writer misuse is reported, are
// recovered and returned. The block is closed either way and pending
// enqueued blocks are dropped on error.
func (m *Model) Change(fn func(w *Writer) error) error {
	if len(m.pending) == 0 {
		m.pending = append(m.pending, pendingChange{batch: NewBatch(DefaultBatchType()), fn: fn})
		return m.runPendingChanges()
	}
	return fn(m.current)
}

// EnqueueChange queues fn to run in its own change block with batch, after
// the current block if there is one. A nil batch gets the default type.
func (m *Model) EnqueueChange(batch *Batch, fn func(w *Writer) error) error {
	if batch == nil {
		batch = NewBatch(DefaultBatchType())
	}
	m.pending = append(m.pending, pendingChange{batch: batch, fn: fn})
	if len(m.pending) == 1 {
		return m.runPendingChanges()
	}
	return nil
}

func (m *Model) runPendingChanges() error {
	defer func() {
		m.pending = nil
		m.current = nil
	}()
	for len(m.pending) > 0 {
		change := m.pending[0]
		w := &Writer{model: m, batch: change.batch}
		m.current = w
		tracer().Debugf("change block %s started", change.batch.ID())
		err := protect(func() error { return change.fn(w) })
		if blockErr := m.doc.handleChangeBlock(w); err == nil {
			err = blockErr
		}
		if err != nil {
			tracer().Errorf("change block %s failed: %v", change.batch.ID(), err)
			return err
		}
		m.pending = m.pending[1:]
	}
	return nil
}

// protect turns a panic carrying an error into a returned error. Other
// panics propagate.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				panic(r)
			}
			err = e
		}
	}()
	return fn()
}

// Undo reverts batch in a new undo batch, enqueued like EnqueueChange.
// Only the last batch that changed the document can be undone, and only
// once. Batches without document operations return a nil batch.
func (m *Model) Undo(batch *Batch) (*Batch, error) {
	last := batch.lastDocumentOperation()
	if last == nil {
		return nil, nil
	}
	h := m.doc.history
	if h.IsUndoneOperation(last) {
		return nil, ErrAlreadyUndone
	}
	if last.BaseVersion()+1 != m.doc.Version() {
		return nil, ErrUndoNotLast
	}

	undo := NewBatch(BatchType{IsUndoable: true, IsLocal: true, IsUndo: true})
	err := m.EnqueueChange(undo, func(w *Writer) error {
		ops := batch.Operations()
		for i := len(ops) - 1; i >= 0; i-- {
			op := ops[i]
			if !op.IsDocumentOperation() {
				continue
			}
			reversed := op.Reversed()
			reversed.SetBaseVersion(m.doc.Version())
			w.apply(reversed)
			h.SetOperationAsUndone(op, reversed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	tracer().Infof("batch %s undone by %s", batch.ID(), undo.ID())
	return undo, nil
}
