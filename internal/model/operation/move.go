package operation

import (
	"github.com/dshills/treemodel/internal/model/tree"
)

// Move relocates HowMany offsets from Source to Target. Both positions are
// expressed in coordinates from before the move.
type Move struct {
	base
	Source  tree.Position
	HowMany int
	Target  tree.Position
}

// NewMove creates a move operation.
func NewMove(source tree.Position, howMany int, target tree.Position, baseVersion int) *Move {
	return &Move{
		base:    base{baseVersion: baseVersion},
		Source:  source.WithStickiness(tree.StickToNext),
		HowMany: howMany,
		Target:  target.WithStickiness(tree.StickToNone),
	}
}

// Type is remove when the target is in the graveyard, reinsert when the
// source is, and move otherwise.
func (op *Move) Type() Type {
	switch {
	case inGraveyard(op.Target):
		return TypeRemove
	case inGraveyard(op.Source):
		return TypeReinsert
	default:
		return TypeMove
	}
}

// MovedRangeStart returns where the moved content starts after the move.
func (op *Move) MovedRangeStart() tree.Position {
	if t := op.Target.TransformedByDeletion(op.Source, op.HowMany); t != nil {
		return *t
	}
	return op.Target
}

// SourceRange returns the moved range before the move.
func (op *Move) SourceRange() tree.Range {
	return tree.RangeFromShift(op.Source, op.HowMany)
}

func (op *Move) Validate() error {
	t := op.Type()
	sourceElement, err := resolve(t, op.Source)
	if err != nil {
		return err
	}
	targetElement, err := resolve(t, op.Target)
	if err != nil {
		return err
	}
	sourceOffset, targetOffset := op.Source.Offset(), op.Target.Offset()
	if sourceOffset+op.HowMany > sourceElement.MaxOffset() {
		return fail(t, ErrNodesMissing, "%d offsets at %s", op.HowMany, op.Source)
	}
	if sourceElement == targetElement && sourceOffset < targetOffset && targetOffset < sourceOffset+op.HowMany {
		return fail(t, ErrMoveIntoItself, "%s into %s", op.SourceRange(), op.Target)
	}
	if op.Source.Root() == op.Target.Root() {
		sp, tp := op.Source.ParentPath(), op.Target.Path()
		if len(tp) > len(sp)+1 && isPrefix(sp, tp) {
			i := len(sp)
			if tp[i] >= sourceOffset && tp[i] < sourceOffset+op.HowMany {
				return fail(t, ErrMoveIntoItself, "%s into %s", op.SourceRange(), op.Target)
			}
		}
	}
	return nil
}

func (op *Move) Execute() error {
	if err := op.Validate(); err != nil {
		return err
	}
	if op.HowMany == 0 {
		return nil
	}
	tree.Move(op.SourceRange(), op.Target)
	return nil
}

// Reversed moves the content back.
func (op *Move) Reversed() Operation {
	newTarget := op.Source.TransformedByInsertion(op.Target, op.HowMany)
	return NewMove(op.MovedRangeStart(), op.HowMany, newTarget, op.next())
}

func (op *Move) Clone() Operation {
	c := *op
	c.batch = nil
	return &c
}

func (op *Move) ToJSON() map[string]any {
	j := op.json(op.Type())
	j["sourcePosition"] = op.Source.ToJSON()
	j["howMany"] = op.HowMany
	j["targetPosition"] = op.Target.ToJSON()
	return j
}

func isPrefix(prefix, path []int) bool {
	if len(prefix) > len(path) {
		return false
	}
	for i, v := range prefix {
		if path[i] != v {
			return false
		}
	}
	return true
}

// Detach removes content from a detached tree. It is never a document
// operation and has no reverse.
type Detach struct {
	base
	Position tree.Position
	HowMany  int
}

// NewDetach creates a detach operation.
func NewDetach(pos tree.Position, howMany int) *Detach {
	return &Detach{base: base{baseVersion: NoVersion}, Position: pos, HowMany: howMany}
}

func (op *Detach) Type() Type { return TypeDetach }

func (op *Detach) Validate() error {
	parent, err := resolve(TypeDetach, op.Position)
	if err != nil {
		return err
	}
	if op.Position.Offset()+op.HowMany > parent.MaxOffset() {
		return fail(TypeDetach, ErrNodesMissing, "%d offsets at %s", op.HowMany, op.Position)
	}
	return nil
}

func (op *Detach) Execute() error {
	if err := op.Validate(); err != nil {
		return err
	}
	tree.Remove(tree.RangeFromShift(op.Position, op.HowMany))
	return nil
}

func (op *Detach) Reversed() Operation { return NewNoop(NoVersion) }

func (op *Detach) Clone() Operation {
	c := *op
	c.batch = nil
	return &c
}

func (op *Detach) ToJSON() map[string]any {
	j := op.json(TypeDetach)
	j["position"] = op.Position.ToJSON()
	j["howMany"] = op.HowMany
	return j
}
