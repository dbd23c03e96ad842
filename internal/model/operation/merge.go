package operation

import (
	"github.com/dshills/treemodel/internal/model/tree"
)

// Merge moves the whole content of the element starting at Source to
// Target, the end of the preceding element, and then moves the emptied
// element to GraveyardPosition.
type Merge struct {
	base
	Source            tree.Position
	HowMany           int
	Target            tree.Position
	GraveyardPosition tree.Position
}

// NewMerge creates a merge operation.
func NewMerge(source tree.Position, howMany int, target, graveyardPos tree.Position, baseVersion int) *Merge {
	return &Merge{
		base:              base{baseVersion: baseVersion},
		Source:            source.WithStickiness(tree.StickToPrevious),
		HowMany:           howMany,
		Target:            target.WithStickiness(tree.StickToNext),
		GraveyardPosition: graveyardPos,
	}
}

func (op *Merge) Type() Type { return TypeMerge }

// DeletionPosition is the position before the merged element.
func (op *Merge) DeletionPosition() tree.Position {
	return tree.NewPosition(op.Source.Root(), op.Source.ParentPath(), tree.StickToNone)
}

// MovedRange is the merged element content, in coordinates from before the merge.
func (op *Merge) MovedRange() tree.Range {
	return tree.NewRange(op.Source, op.Source.GetShiftedBy(tree.ShiftToEnd))
}

func (op *Merge) Validate() error {
	sourceElement, err := resolve(TypeMerge, op.Source)
	if err != nil {
		return err
	}
	targetElement, err := resolve(TypeMerge, op.Target)
	if err != nil {
		return err
	}
	if sourceElement.Parent() == nil {
		return fail(TypeMerge, ErrMergeSourceInvalid, "%s", op.Source)
	}
	if op.Target.Offset() != targetElement.MaxOffset() {
		return fail(TypeMerge, ErrMergeTargetInvalid, "%s", op.Target)
	}
	if op.HowMany != sourceElement.MaxOffset() {
		return fail(TypeMerge, ErrHowManyInvalid, "%d offsets in %s", op.HowMany, sourceElement.Name())
	}
	_, err = resolve(TypeMerge, op.GraveyardPosition)
	return err
}

func (op *Merge) Execute() error {
	if err := op.Validate(); err != nil {
		return err
	}
	sourceElement := op.Source.Parent()
	tree.Move(tree.RangeIn(sourceElement), op.Target)
	tree.Move(tree.RangeOn(sourceElement), op.GraveyardPosition)
	return nil
}

// Reversed splits the merged element out again, reusing the element from
// the graveyard.
func (op *Merge) Reversed() Operation {
	target := TransformPositionByMerge(op.Target, op)
	insertion := TransformPositionByMerge(op.DeletionPosition(), op)
	gy := op.GraveyardPosition
	return NewSplit(target, op.HowMany, insertion, &gy, op.next())
}

func (op *Merge) Clone() Operation {
	return NewMerge(op.Source, op.HowMany, op.Target, op.GraveyardPosition, op.baseVersion)
}

func (op *Merge) ToJSON() map[string]any {
	j := op.json(TypeMerge)
	j["sourcePosition"] = op.Source.ToJSON()
	j["howMany"] = op.HowMany
	j["targetPosition"] = op.Target.ToJSON()
	j["graveyardPosition"] = op.GraveyardPosition.ToJSON()
	return j
}
