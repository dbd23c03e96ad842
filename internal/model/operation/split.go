package operation

import (
	"github.com/dshills/treemodel/internal/model/tree"
)

// Split divides the parent of SplitPosition in two. A copy of the element
// is inserted at InsertionPosition, or the element at GraveyardPosition is
// reused, and the content after SplitPosition moves into it.
type Split struct {
	base
	SplitPosition     tree.Position
	HowMany           int
	InsertionPosition tree.Position
	GraveyardPosition *tree.Position
}

// NewSplit creates a split operation. graveyardPos may be nil.
func NewSplit(splitPos tree.Position, howMany int, insertionPos tree.Position, graveyardPos *tree.Position, baseVersion int) *Split {
	op := &Split{
		base:              base{baseVersion: baseVersion},
		SplitPosition:     splitPos.WithStickiness(tree.StickToNext),
		HowMany:           howMany,
		InsertionPosition: insertionPos,
	}
	if graveyardPos != nil {
		gy := graveyardPos.WithStickiness(tree.StickToNext)
		op.GraveyardPosition = &gy
	}
	return op
}

func (op *Split) Type() Type { return TypeSplit }

// MoveTargetPosition is the start of the new element.
func (op *Split) MoveTargetPosition() tree.Position {
	path := append(op.InsertionPosition.Path(), 0)
	return tree.NewPosition(op.InsertionPosition.Root(), path, tree.StickToNone)
}

// MovedRange is the content that moves to the new element, in coordinates
// from before the split.
func (op *Split) MovedRange() tree.Range {
	end := op.SplitPosition.GetShiftedBy(tree.ShiftToEnd)
	return tree.NewRange(op.SplitPosition, end)
}

func (op *Split) Validate() error {
	element, err := resolve(TypeSplit, op.SplitPosition)
	if err != nil {
		return err
	}
	if element.Parent() == nil {
		return fail(TypeSplit, ErrSplitInRoot, "at %s", op.SplitPosition)
	}
	if op.HowMany != element.MaxOffset()-op.SplitPosition.Offset() {
		return fail(TypeSplit, ErrHowManyInvalid, "%d offsets after %s", op.HowMany, op.SplitPosition)
	}
	if _, err := resolve(TypeSplit, op.InsertionPosition); err != nil {
		return err
	}
	if op.GraveyardPosition != nil {
		if _, err := resolve(TypeSplit, *op.GraveyardPosition); err != nil {
			return err
		}
		if op.GraveyardPosition.NodeAfter() == nil {
			return fail(TypeSplit, ErrGraveyardPositionInvalid, "%s", op.GraveyardPosition)
		}
	}
	return nil
}

func (op *Split) Execute() error {
	if err := op.Validate(); err != nil {
		return err
	}
	element := op.SplitPosition.Parent()
	if op.GraveyardPosition != nil {
		tree.Move(tree.RangeFromShift(*op.GraveyardPosition, 1), op.InsertionPosition)
	} else {
		tree.Insert(op.InsertionPosition, element.Clone(false))
	}
	source := tree.NewRange(tree.PositionAt(element, op.SplitPosition.Offset()), tree.PositionAtEnd(element))
	tree.Move(source, op.MoveTargetPosition())
	return nil
}

// Reversed merges the new element back.
func (op *Split) Reversed() Operation {
	gy, ok := graveyardStart(op.SplitPosition)
	if !ok {
		gy = tree.PositionAt(op.SplitPosition.Root(), 0)
	}
	return NewMerge(op.MoveTargetPosition(), op.HowMany, op.SplitPosition, gy, op.next())
}

func (op *Split) Clone() Operation {
	return NewSplit(op.SplitPosition, op.HowMany, op.InsertionPosition, op.GraveyardPosition, op.baseVersion)
}

func (op *Split) ToJSON() map[string]any {
	j := op.json(TypeSplit)
	j["splitPosition"] = op.SplitPosition.ToJSON()
	j["howMany"] = op.HowMany
	j["insertionPosition"] = op.InsertionPosition.ToJSON()
	if op.GraveyardPosition != nil {
		j["graveyardPosition"] = op.GraveyardPosition.ToJSON()
	}
	return j
}
