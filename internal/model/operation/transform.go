package operation

import (
	"github.com/dshills/treemodel/internal/model/tree"
)

// TransformPosition returns p as it is after op was applied. It returns
// false when op destroyed the position, which only detach operations do.
func TransformPosition(p tree.Position, op Operation) (tree.Position, bool) {
	switch o := op.(type) {
	case *Insert:
		return p.TransformedByInsertion(o.Position, o.HowMany()), true
	case *Move:
		return p.TransformedByMove(o.Source, o.Target, o.HowMany), true
	case *Split:
		return p.TransformedBySplit(o.SplitPosition, o.InsertionPosition, o.MoveTargetPosition(), o.GraveyardPosition), true
	case *Merge:
		return TransformPositionByMerge(p, o), true
	case *Detach:
		if t := p.TransformedByDeletion(o.Position, o.HowMany); t != nil {
			return *t, true
		}
		return tree.Position{}, false
	}
	return p, true
}

// TransformPositionByMerge returns p as it is after the merge.
func TransformPositionByMerge(p tree.Position, op *Merge) tree.Position {
	return p.TransformedByMerge(op.Source, op.Target, op.DeletionPosition(), op.GraveyardPosition)
}

// TransformRange returns r as it is after op was applied. A move may cut r
// into pieces. An empty result means op destroyed the range.
func TransformRange(r tree.Range, op Operation) []tree.Range {
	switch o := op.(type) {
	case *Insert:
		return r.TransformedByInsertion(o.Position, o.HowMany(), false)
	case *Move:
		return r.TransformedByMove(o.Source, o.Target, o.HowMany, false)
	case *Split:
		return []tree.Range{r.TransformedBySplit(o.SplitPosition, o.InsertionPosition, o.MoveTargetPosition(), o.GraveyardPosition)}
	case *Merge:
		return []tree.Range{r.TransformedByMerge(o.Source, o.Target, o.DeletionPosition(), o.GraveyardPosition)}
	case *Detach:
		if t := r.TransformedByDeletion(o.Position, o.HowMany); t != nil {
			return []tree.Range{*t}
		}
		return nil
	}
	return []tree.Range{r}
}
