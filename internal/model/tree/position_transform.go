package tree

import "math"

// ShiftToEnd is a shift large enough to reach the end of any parent.
const ShiftToEnd = math.MaxInt32

// TransformedByInsertion returns p adjusted for howMany offsets inserted at
// insertPos. A position equal to insertPos moves with the insertion unless
// it sticks to the previous content.
func (p Position) TransformedByInsertion(insertPos Position, howMany int) Position {
	out := Position{root: p.root, path: p.Path(), Stickiness: p.Stickiness}
	if p.root != insertPos.root {
		return out
	}
	ipath := insertPos.path
	switch comparePaths(ipath[:len(ipath)-1], p.path[:len(p.path)-1]) {
	case pathSame:
		off := insertPos.Offset()
		if off < p.Offset() || (off == p.Offset() && p.Stickiness != StickToPrevious) {
			out.path[len(out.path)-1] += howMany
		}
	case pathPrefix:
		i := len(ipath) - 1
		if insertPos.Offset() <= p.path[i] {
			out.path[i] += howMany
		}
	}
	return out
}

// TransformedByDeletion returns p adjusted for howMany offsets removed at
// deletePos, or nil if p was inside the removed content.
func (p Position) TransformedByDeletion(deletePos Position, howMany int) *Position {
	out := Position{root: p.root, path: p.Path(), Stickiness: p.Stickiness}
	if p.root != deletePos.root {
		return &out
	}
	dpath := deletePos.path
	switch comparePaths(dpath[:len(dpath)-1], p.path[:len(p.path)-1]) {
	case pathSame:
		off := deletePos.Offset()
		if off < p.Offset() {
			if off+howMany > p.Offset() {
				return nil
			}
			out.path[len(out.path)-1] -= howMany
		}
	case pathPrefix:
		i := len(dpath) - 1
		if deletePos.Offset() <= p.path[i] {
			if deletePos.Offset()+howMany > p.path[i] {
				return nil
			}
			out.path[i] -= howMany
		}
	}
	return &out
}

// TransformedByMove returns p adjusted for howMany offsets moved from
// source to target. Positions inside the moved content travel with it.
func (p Position) TransformedByMove(source, target Position, howMany int) Position {
	t := target.TransformedByDeletion(source, howMany)
	if t == nil {
		// target inside the moved range; such a move cannot be applied
		return p.clone()
	}
	if source.IsEqual(*t) {
		return p.clone()
	}
	moved := p.TransformedByDeletion(source, howMany)
	isMoved := moved == nil ||
		(source.IsEqual(p) && p.Stickiness == StickToNext) ||
		(source.GetShiftedBy(howMany).IsEqual(p) && p.Stickiness == StickToPrevious)
	if isMoved {
		return p.Combined(source, *t)
	}
	return moved.TransformedByInsertion(*t, howMany)
}

// Combined re-expresses p, which lies at or below source, relative to
// target: the part of the path below the source depth is kept.
func (p Position) Combined(source, target Position) Position {
	i := len(source.path) - 1
	path := target.Path()
	path[len(path)-1] += p.path[i] - source.Offset()
	path = append(path, p.path[i+1:]...)
	return Position{root: target.root, path: path, Stickiness: p.Stickiness}
}

// TransformedBySplit returns p adjusted for splitting the parent of
// splitPos. Content from splitPos to the end of the split element moves to
// moveTarget, the first offset of the new element inserted at insertion.
// When graveyardPos is set, the new element is taken from there instead
// of being created.
func (p Position) TransformedBySplit(splitPos, insertion, moveTarget Position, graveyardPos *Position) Position {
	movedEnd := splitPos.GetShiftedBy(ShiftToEnd)
	contained := (p.IsAfter(splitPos) && p.IsBefore(movedEnd)) ||
		(splitPos.IsEqual(p) && p.Stickiness == StickToNext)
	if contained {
		return p.Combined(splitPos, moveTarget)
	}
	if graveyardPos != nil {
		return p.TransformedByMove(*graveyardPos, insertion, 1)
	}
	return p.TransformedByInsertion(insertion, 1)
}

// TransformedByMerge returns p adjusted for merging the element starting
// at source into the element ending at target. The emptied element at
// deletion moves to graveyardPos.
func (p Position) TransformedByMerge(source, target, deletion, graveyardPos Position) Position {
	movedEnd := source.GetShiftedBy(ShiftToEnd)
	contained := (p.IsAfter(source) && p.IsBefore(movedEnd)) || source.IsEqual(p)
	switch {
	case contained:
		out := p.Combined(source, target)
		if source.IsBefore(target) {
			if d := out.TransformedByDeletion(deletion, 1); d != nil {
				out = *d
			}
		}
		return out
	case p.IsEqual(deletion):
		return Position{root: deletion.root, path: deletion.Path(), Stickiness: p.Stickiness}
	default:
		return p.TransformedByMove(deletion, graveyardPos, 1)
	}
}

func (p Position) clone() Position {
	return Position{root: p.root, path: p.Path(), Stickiness: p.Stickiness}
}

// SplitInsertionPosition returns the position right after the parent of splitPos.
func SplitInsertionPosition(splitPos Position) Position {
	path := splitPos.ParentPath()
	path[len(path)-1]++
	return Position{root: splitPos.root, path: path, Stickiness: StickToPrevious}
}
