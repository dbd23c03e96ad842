package tree

// Insert puts nodes at pos, splitting a text node at pos if needed and
// joining text at both seams. It returns the range of the inserted content.
func Insert(pos Position, nodes ...*Node) Range {
	items := make([]Item, len(nodes))
	for i, n := range nodes {
		items[i] = n
	}
	normalized := NormalizeNodes(items...)
	size := 0
	for _, n := range normalized {
		size += n.OffsetSize()
	}
	parent := pos.Parent()
	splitTextAt(pos)
	index := pos.Index()
	parent.InsertChildren(index, normalized...)
	mergeTextAt(parent, index+len(normalized))
	mergeTextAt(parent, index)
	tracer().Debugf("inserted %d offsets at %s", size, pos)
	return Range{Start: pos.clone(), End: pos.GetShiftedBy(size)}
}

// Remove detaches the content of a flat range and returns it.
func Remove(rng Range) []*Node {
	assertThat(rng.IsFlat(), ErrRangeNotFlat, "cannot remove %s", rng)
	parent := rng.Start.Parent()
	splitTextAt(rng.Start)
	splitTextAt(rng.End)
	start := rng.Start.Index()
	removed := parent.RemoveChildren(start, rng.End.Index()-start)
	mergeTextAt(parent, start)
	tracer().Debugf("removed %s", rng)
	return removed
}

// Move relocates the content of a flat range to target, given in
// coordinates from before the move. It returns the range at the target.
func Move(rng Range, target Position) Range {
	assertThat(rng.IsFlat(), ErrRangeNotFlat, "cannot move %s", rng)
	nodes := Remove(rng)
	t := target.TransformedByDeletion(rng.Start, rng.End.Offset()-rng.Start.Offset())
	assertThat(t != nil, ErrInvalidPath, "move target %s inside moved range %s", target, rng)
	return Insert(*t, nodes...)
}

// SetAttribute sets key to value on every item of a flat range. A nil value
// removes the attribute.
func SetAttribute(rng Range, key string, value any) {
	splitTextAt(rng.Start)
	splitTextAt(rng.End)
	for _, item := range rng.Items(WalkerOptions{Shallow: true}) {
		node := NodeOf(item)
		node.SetAttribute(key, value)
		mergeTextAt(node.parent, node.Index())
	}
	parent := rng.End.Parent()
	mergeTextAt(parent, rng.End.Index())
}
