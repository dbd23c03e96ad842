package operation

import (
	"github.com/dshills/treemodel/internal/model/tree"
)

// RootRegistry resolves and creates the roots of a document.
type RootRegistry interface {
	GetRoot(name string) *tree.Node
	CreateRoot(elementName, rootName string) *tree.Node
}

// RootState attaches or detaches a root.
type RootState struct {
	base
	RootName    string
	ElementName string
	IsAdd       bool
	roots       RootRegistry
}

// NewRootState creates a root state operation. A root that does not exist
// yet is created detached, so that executing the operation attaches it.
func NewRootState(rootName, elementName string, isAdd bool, roots RootRegistry, baseVersion int) *RootState {
	if roots.GetRoot(rootName) == nil {
		roots.CreateRoot(elementName, rootName).SetAttached(false)
	}
	return &RootState{
		base:        base{baseVersion: baseVersion},
		RootName:    rootName,
		ElementName: elementName,
		IsAdd:       isAdd,
		roots:       roots,
	}
}

func (op *RootState) Type() Type {
	if op.IsAdd {
		return TypeAddRoot
	}
	return TypeDetachRoot
}

// Root returns the affected root.
func (op *RootState) Root() *tree.Node { return op.roots.GetRoot(op.RootName) }

func (op *RootState) Validate() error {
	if op.Root() == nil {
		return fail(op.Type(), ErrRootNotFound, "%q", op.RootName)
	}
	return nil
}

func (op *RootState) Execute() error {
	if err := op.Validate(); err != nil {
		return err
	}
	op.Root().SetAttached(op.IsAdd)
	return nil
}

func (op *RootState) Reversed() Operation {
	return NewRootState(op.RootName, op.ElementName, !op.IsAdd, op.roots, op.next())
}

func (op *RootState) Clone() Operation {
	return NewRootState(op.RootName, op.ElementName, op.IsAdd, op.roots, op.baseVersion)
}

func (op *RootState) ToJSON() map[string]any {
	j := op.json(op.Type())
	j["rootName"] = op.RootName
	j["elementName"] = op.ElementName
	return j
}

// Noop does nothing. It keeps version numbers continuous where another
// operation was dropped.
type Noop struct {
	base
}

// NewNoop creates a no-op.
func NewNoop(baseVersion int) *Noop {
	return &Noop{base: base{baseVersion: baseVersion}}
}

func (op *Noop) Type() Type             { return TypeNoop }
func (op *Noop) Validate() error        { return nil }
func (op *Noop) Execute() error         { return nil }
func (op *Noop) Reversed() Operation    { return NewNoop(op.next()) }
func (op *Noop) Clone() Operation       { return NewNoop(op.baseVersion) }
func (op *Noop) ToJSON() map[string]any { return op.json(TypeNoop) }
