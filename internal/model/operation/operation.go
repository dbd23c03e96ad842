package operation

import (
	"github.com/dshills/treemodel/internal/model/tree"
)

// Type names an operation kind.
type Type string

// Operation types. Move operations report remove or reinsert when they
// target or leave the graveyard.
const (
	TypeInsert              Type = "insert"
	TypeMove                Type = "move"
	TypeRemove              Type = "remove"
	TypeReinsert            Type = "reinsert"
	TypeDetach              Type = "detach"
	TypeSplit               Type = "split"
	TypeMerge               Type = "merge"
	TypeAddAttribute        Type = "addAttribute"
	TypeRemoveAttribute     Type = "removeAttribute"
	TypeChangeAttribute     Type = "changeAttribute"
	TypeRename              Type = "rename"
	TypeMarker              Type = "marker"
	TypeAddRootAttribute    Type = "addRootAttribute"
	TypeRemoveRootAttribute Type = "removeRootAttribute"
	TypeChangeRootAttribute Type = "changeRootAttribute"
	TypeAddRoot             Type = "addRoot"
	TypeDetachRoot          Type = "detachRoot"
	TypeNoop                Type = "noop"
)

// NoVersion is the base version of operations on detached trees.
const NoVersion = -1

// Operation is a single reversible edit.
type Operation interface {
	// Type returns the operation kind.
	Type() Type

	// BaseVersion is the document version the operation applies to.
	BaseVersion() int
	SetBaseVersion(v int)

	// IsDocumentOperation reports whether the operation targets the document
	// rather than a detached tree.
	IsDocumentOperation() bool

	// Batch returns the batch the operation belongs to, or nil.
	Batch() any
	SetBatch(b any)

	// Validate checks that the operation can be applied to the tree in
	// its current state.
	Validate() error

	// Execute validates and applies the operation.
	Execute() error

	// Reversed returns the operation undoing this one, with base version
	// one above this operation's.
	Reversed() Operation

	// Clone returns an independent copy without batch.
	Clone() Operation

	// ToJSON returns a plain map describing the operation.
	ToJSON() map[string]any
}

// base holds the fields common to all operations.
type base struct {
	baseVersion int
	batch       any
}

func (b *base) BaseVersion() int          { return b.baseVersion }
func (b *base) SetBaseVersion(v int)      { b.baseVersion = v }
func (b *base) IsDocumentOperation() bool { return b.baseVersion != NoVersion }
func (b *base) Batch() any                { return b.batch }
func (b *base) SetBatch(batch any)        { b.batch = batch }

func (b *base) next() int {
	if b.baseVersion == NoVersion {
		return NoVersion
	}
	return b.baseVersion + 1
}

func (b *base) json(t Type) map[string]any {
	return map[string]any{
		"type":        string(t),
		"baseVersion": b.baseVersion,
	}
}

// graveyardStart returns the start of the graveyard of the document owning
// pos, or false for detached trees.
func graveyardStart(pos tree.Position) (tree.Position, bool) {
	owner := pos.Root().Owner()
	if owner == nil || owner.Graveyard() == nil {
		return tree.Position{}, false
	}
	return tree.PositionAt(owner.Graveyard(), 0), true
}

func inGraveyard(pos tree.Position) bool {
	return pos.Root().RootName() == tree.GraveyardName
}

func resolve(t Type, pos tree.Position) (*tree.Node, error) {
	parent, err := pos.ResolveParent()
	if err != nil {
		return nil, fail(t, ErrPositionInvalid, "%v", err)
	}
	if pos.Offset() < 0 || pos.Offset() > parent.MaxOffset() {
		return nil, fail(t, ErrPositionInvalid, "offset %d outside %s", pos.Offset(), pos)
	}
	return parent, nil
}

func rangeJSON(r *tree.Range) any {
	if r == nil {
		return nil
	}
	return r.ToJSON()
}
