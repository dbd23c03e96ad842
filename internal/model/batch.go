package model

import (
	"github.com/dshills/treemodel/internal/model/operation"
	"github.com/google/uuid"
)

// BatchType flags how a batch was created and how undo treats it.
type BatchType struct {
	// IsUndoable batches are recorded for undo.
	IsUndoable bool

	// IsLocal batches were created by this client.
	IsLocal bool

	// IsUndo batches revert another batch.
	IsUndo bool

	// IsTyping batches come from typing.
	IsTyping bool
}

// DefaultBatchType is a local, undoable batch.
func DefaultBatchType() BatchType {
	return BatchType{IsUndoable: true, IsLocal: true}
}

// Batch groups the operations of one change block into one undo step.
type Batch struct {
	id         string
	Type       BatchType
	operations []operation.Operation
}

// NewBatch creates an empty batch.
func NewBatch(t BatchType) *Batch {
	return &Batch{id: uuid.NewString(), Type: t}
}

// ID returns the unique batch identifier.
func (b *Batch) ID() string { return b.id }

// Operations returns the operations added so far.
func (b *Batch) Operations() []operation.Operation {
	return append([]operation.Operation(nil), b.operations...)
}

// AddOperation appends op and binds it to the batch.
func (b *Batch) AddOperation(op operation.Operation) operation.Operation {
	op.SetBatch(b)
	b.operations = append(b.operations, op)
	return op
}

// BaseVersion returns the base version of the first document operation,
// or operation.NoVersion.
func (b *Batch) BaseVersion() int {
	for _, op := range b.operations {
		if op.IsDocumentOperation() {
			return op.BaseVersion()
		}
	}
	return operation.NoVersion
}

// lastDocumentOperation returns the last operation applied to the document.
func (b *Batch) lastDocumentOperation() operation.Operation {
	for i := len(b.operations) - 1; i >= 0; i-- {
		if b.operations[i].IsDocumentOperation() {
			return b.operations[i]
		}
	}
	return nil
}
