package tree

import "fmt"

// Range is a pair of positions in one root, start not after end.
type Range struct {
	Start Position
	End   Position
}

// NewRange creates a range, swapping the boundaries if end precedes start.
func NewRange(start, end Position) Range {
	if end.IsBefore(start) {
		start, end = end, start
	}
	return Range{Start: start.clone(), End: end.clone()}
}

// CollapsedRange creates an empty range at pos.
func CollapsedRange(pos Position) Range {
	return Range{Start: pos.clone(), End: pos.clone()}
}

// RangeOn creates a range spanning exactly item.
func RangeOn(item Item) Range {
	return Range{Start: PositionBefore(item), End: PositionAfter(item)}
}

// RangeIn creates a range covering all children of element.
func RangeIn(element *Node) Range {
	return Range{Start: PositionAt(element, 0), End: PositionAtEnd(element)}
}

// RangeFromShift creates a range from pos covering shift offsets.
func RangeFromShift(pos Position, shift int) Range {
	return NewRange(pos, pos.GetShiftedBy(shift))
}

// Root returns the root of the range.
func (r Range) Root() *Node { return r.Start.root }

// IsCollapsed reports whether start equals end.
func (r Range) IsCollapsed() bool { return r.Start.IsEqual(r.End) }

// IsFlat reports whether both boundaries share a parent.
func (r Range) IsFlat() bool { return r.Start.HasSameParentAs(r.End) }

// IsEqual reports whether both ranges have equal boundaries.
func (r Range) IsEqual(other Range) bool {
	return r.Start.IsEqual(other.Start) && r.End.IsEqual(other.End)
}

// IsIntersecting reports whether the ranges share any content.
func (r Range) IsIntersecting(other Range) bool {
	return r.Start.IsBefore(other.End) && r.End.IsAfter(other.Start)
}

// ContainsPosition reports whether pos lies strictly inside the range.
func (r Range) ContainsPosition(pos Position) bool {
	return pos.IsAfter(r.Start) && pos.IsBefore(r.End)
}

// ContainsRange reports whether other lies inside r. With loose, shared
// boundaries count as contained, except for a collapsed other.
func (r Range) ContainsRange(other Range, loose bool) bool {
	if other.IsCollapsed() {
		loose = false
	}
	containsStart := r.ContainsPosition(other.Start) || (loose && r.Start.IsEqual(other.Start))
	containsEnd := r.ContainsPosition(other.End) || (loose && r.End.IsEqual(other.End))
	return containsStart && containsEnd
}

// ContainsItem reports whether item starts inside the range.
func (r Range) ContainsItem(item Item) bool {
	pos := PositionBefore(item)
	return r.ContainsPosition(pos) || r.Start.IsEqual(pos)
}

// GetDifference returns the parts of r not covered by other: zero, one or
// two ranges.
func (r Range) GetDifference(other Range) []Range {
	if !r.IsIntersecting(other) {
		return []Range{r}
	}
	var out []Range
	if r.ContainsPosition(other.Start) {
		out = append(out, Range{Start: r.Start, End: other.Start})
	}
	if r.ContainsPosition(other.End) {
		out = append(out, Range{Start: other.End, End: r.End})
	}
	return out
}

// GetIntersection returns the common part of both ranges, or nil.
func (r Range) GetIntersection(other Range) *Range {
	if !r.IsIntersecting(other) {
		return nil
	}
	start, end := r.Start, r.End
	if r.ContainsPosition(other.Start) {
		start = other.Start
	}
	if r.ContainsPosition(other.End) {
		end = other.End
	}
	return &Range{Start: start, End: end}
}

// GetJoined returns the union of both ranges if they intersect or touch.
// Strictly they must share a boundary; loosely, only element boundaries
// may separate them.
func (r Range) GetJoined(other Range, loose bool) *Range {
	join := r.IsIntersecting(other)
	if !join {
		if r.Start.IsBefore(other.Start) {
			if loose {
				join = r.End.IsTouching(other.Start)
			} else {
				join = r.End.IsEqual(other.Start)
			}
		} else {
			if loose {
				join = other.End.IsTouching(r.Start)
			} else {
				join = other.End.IsEqual(r.Start)
			}
		}
	}
	if !join {
		return nil
	}
	start, end := r.Start, r.End
	if other.Start.IsBefore(start) {
		start = other.Start
	}
	if other.End.IsAfter(end) {
		end = other.End
	}
	return &Range{Start: start, End: end}
}

// GetMinimalFlatRanges splits r into the fewest flat ranges covering
// exactly its content. Partially covered ancestors are not included.
func (r Range) GetMinimalFlatRanges() []Range {
	var ranges []Range
	diffAt := len(r.Start.CommonPath(r.End))
	path := r.Start.Path()
	parent := r.Start.Parent()

	// up from the start boundary
	for len(path) > diffAt+1 {
		offset := path[len(path)-1]
		if howMany := parent.MaxOffset() - offset; howMany != 0 {
			ranges = append(ranges, r.flat(path, offset, offset+howMany))
		}
		path = path[:len(path)-1]
		path[len(path)-1]++
		parent = parent.parent
	}

	// down towards the end boundary
	for len(path) <= len(r.End.path) {
		offset := path[len(path)-1]
		target := r.End.path[len(path)-1]
		if howMany := target - offset; howMany != 0 {
			ranges = append(ranges, r.flat(path, offset, target))
		}
		path[len(path)-1] = target
		path = append(path, 0)
	}
	return ranges
}

func (r Range) flat(path []int, from, to int) Range {
	start := append([]int(nil), path...)
	end := append([]int(nil), path...)
	start[len(start)-1] = from
	end[len(end)-1] = to
	return Range{Start: Position{root: r.Start.root, path: start}, End: Position{root: r.Start.root, path: end}}
}

// CommonAncestor returns the deepest element containing the whole range.
func (r Range) CommonAncestor() *Node { return r.Start.CommonAncestor(r.End) }

// ContainedElement returns the element the range spans exactly, or nil.
func (r Range) ContainedElement() *Node {
	if r.IsCollapsed() {
		return nil
	}
	after, before := r.Start.NodeAfter(), r.End.NodeBefore()
	if after != nil && after.IsElement() && after == before {
		return after
	}
	return nil
}

// Walker returns a tree walker bounded by the range.
func (r Range) Walker(opts WalkerOptions) *TreeWalker {
	opts.Boundaries = &r
	return NewTreeWalker(opts)
}

// Items returns every item in the range, in walk order, without element ends.
func (r Range) Items(opts WalkerOptions) []Item {
	opts.IgnoreElementEnd = true
	w := r.Walker(opts)
	var items []Item
	for v, ok := w.Next(); ok; v, ok = w.Next() {
		items = append(items, v.Item)
	}
	return items
}

// Positions returns every position the walker visits, start included.
func (r Range) Positions(opts WalkerOptions) []Position {
	w := r.Walker(opts)
	out := []Position{w.Position()}
	for v, ok := w.Next(); ok; v, ok = w.Next() {
		out = append(out, v.NextPosition)
	}
	return out
}

// String renders the range as [start, end].
func (r Range) String() string { return fmt.Sprintf("[%s, %s]", r.Start, r.End) }

// ========================================================================
// Transformations
// ========================================================================

// TransformedByInsertion adjusts r for an insertion. With spread, an
// insertion strictly inside r splits it in two around the new content.
func (r Range) TransformedByInsertion(pos Position, howMany int, spread bool) []Range {
	if spread && r.ContainsPosition(pos) {
		return []Range{
			{Start: r.Start, End: pos},
			{Start: pos.GetShiftedBy(howMany), End: r.End.TransformedByInsertion(pos, howMany)},
		}
	}
	return []Range{{
		Start: r.Start.TransformedByInsertion(pos, howMany),
		End:   r.End.TransformedByInsertion(pos, howMany),
	}}
}

// TransformedByDeletion adjusts r for a deletion, or returns nil when all
// of r was deleted.
func (r Range) TransformedByDeletion(pos Position, howMany int) *Range {
	start := r.Start.TransformedByDeletion(pos, howMany)
	end := r.End.TransformedByDeletion(pos, howMany)
	if start == nil && end == nil {
		return nil
	}
	if start == nil {
		start = &pos
	}
	if end == nil {
		end = &pos
	}
	return &Range{Start: *start, End: *end}
}

// TransformedByMove adjusts r for a move of howMany offsets from source to
// target. The result holds zero, one or two ranges; the moved part of r is
// kept as a separate range when r was split by the move.
func (r Range) TransformedByMove(source, target Position, howMany int, spread bool) []Range {
	if r.IsCollapsed() {
		return []Range{CollapsedRange(r.Start.TransformedByMove(source, target, howMany))}
	}
	moveRange := RangeFromShift(source, howMany)
	insertPtr := target.TransformedByDeletion(source, howMany)
	if insertPtr == nil {
		return []Range{r}
	}
	insertPos := *insertPtr

	if r.ContainsPosition(target) && !spread {
		if moveRange.ContainsPosition(r.Start) || moveRange.ContainsPosition(r.End) {
			return []Range{{
				Start: r.Start.TransformedByMove(source, target, howMany),
				End:   r.End.TransformedByMove(source, target, howMany),
			}}
		}
	}

	diff := r.GetDifference(moveRange)
	common := r.GetIntersection(moveRange)
	var difference *Range
	switch len(diff) {
	case 1:
		s := diff[0].Start.TransformedByDeletion(source, howMany)
		e := diff[0].End.TransformedByDeletion(source, howMany)
		if s != nil && e != nil {
			difference = &Range{Start: *s, End: *e}
		}
	case 2:
		if e := r.End.TransformedByDeletion(source, howMany); e != nil {
			difference = &Range{Start: r.Start, End: *e}
		}
	}

	var result []Range
	if difference != nil {
		result = difference.TransformedByInsertion(insertPos, howMany, common != nil || spread)
	}
	if common != nil {
		moved := Range{
			Start: common.Start.Combined(moveRange.Start, insertPos),
			End:   common.End.Combined(moveRange.Start, insertPos),
		}
		if len(result) == 2 {
			result = []Range{result[0], moved, result[1]}
		} else {
			result = append(result, moved)
		}
	}
	return result
}

// TransformedBySplit adjusts r for a split operation.
func (r Range) TransformedBySplit(splitPos, insertion, moveTarget Position, graveyardPos *Position) Range {
	start := r.Start.TransformedBySplit(splitPos, insertion, moveTarget, graveyardPos)
	end := r.End.TransformedBySplit(splitPos, insertion, moveTarget, graveyardPos)
	if r.End.IsEqual(insertion) {
		end = r.End.GetShiftedBy(1)
	}
	if start.root != end.root {
		end = r.End.GetShiftedBy(-1)
	}
	return NewRange(start, end)
}

// TransformedByMerge adjusts r for a merge operation.
func (r Range) TransformedByMerge(source, target, deletion, graveyardPos Position) Range {
	if r.Start.IsEqual(target) && r.End.IsEqual(deletion) {
		return CollapsedRange(r.Start)
	}
	start := r.Start.TransformedByMerge(source, target, deletion, graveyardPos)
	end := r.End.TransformedByMerge(source, target, deletion, graveyardPos)
	if start.root != end.root {
		end = r.End.GetShiftedBy(-1)
	}
	if start.IsAfter(end) {
		if source.IsBefore(target) {
			start = end.WithOffset(0)
		} else {
			if !deletion.IsEqual(start) {
				end = deletion
			}
			start = target
		}
	}
	return Range{Start: start, End: end}
}

// RangeFromRanges joins ranges into one: the first range extended over
// every other range that touches it directly or through its neighbours.
func RangeFromRanges(ranges []Range) Range {
	assertThat(len(ranges) > 0, ErrInvalidPath, "no ranges to join")
	if len(ranges) == 1 {
		return ranges[0]
	}
	ref := ranges[0]
	sorted := append([]Range(nil), ranges...)
	sortRanges(sorted)
	refIndex := 0
	for i, rg := range sorted {
		if rg.IsEqual(ref) {
			refIndex = i
			break
		}
	}
	result := ref
	for i := refIndex - 1; i >= 0; i-- {
		if !sorted[i].End.IsEqual(result.Start) {
			break
		}
		result.Start = sorted[i].Start
	}
	for i := refIndex + 1; i < len(sorted); i++ {
		if !sorted[i].Start.IsEqual(result.End) {
			break
		}
		result.End = sorted[i].End
	}
	return result
}

func sortRanges(rs []Range) {
	for i := 1; i < len(rs); i++ {
		for j := i; j > 0 && rs[j].Start.IsBefore(rs[j-1].Start); j-- {
			rs[j], rs[j-1] = rs[j-1], rs[j]
		}
	}
}
