package operation

import (
	"github.com/dshills/treemodel/internal/model/tree"
)

// Rename changes the name of the element after Position.
type Rename struct {
	base
	Position tree.Position
	OldName  string
	NewName  string
}

// NewRename creates a rename operation.
func NewRename(pos tree.Position, oldName, newName string, baseVersion int) *Rename {
	return &Rename{
		base:     base{baseVersion: baseVersion},
		Position: pos.WithStickiness(tree.StickToNext),
		OldName:  oldName,
		NewName:  newName,
	}
}

func (op *Rename) Type() Type { return TypeRename }

func (op *Rename) Validate() error {
	if _, err := resolve(TypeRename, op.Position); err != nil {
		return err
	}
	element := op.Position.NodeAfter()
	if element == nil || !element.IsElement() {
		return fail(TypeRename, ErrNotElement, "nothing to rename at %s", op.Position)
	}
	if element.Name() != op.OldName {
		return fail(TypeRename, ErrWrongName, "%q is not %q", element.Name(), op.OldName)
	}
	return nil
}

func (op *Rename) Execute() error {
	if err := op.Validate(); err != nil {
		return err
	}
	if op.OldName != op.NewName {
		op.Position.NodeAfter().SetName(op.NewName)
	}
	return nil
}

func (op *Rename) Reversed() Operation {
	return NewRename(op.Position, op.NewName, op.OldName, op.next())
}

func (op *Rename) Clone() Operation {
	return NewRename(op.Position, op.OldName, op.NewName, op.baseVersion)
}

func (op *Rename) ToJSON() map[string]any {
	j := op.json(TypeRename)
	j["position"] = op.Position.ToJSON()
	j["oldName"] = op.OldName
	j["newName"] = op.NewName
	return j
}
