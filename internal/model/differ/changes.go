package differ

import (
	"github.com/dshills/treemodel/internal/model/tree"
)

func (d *Differ) markInsert(parent *tree.Node, offset, howMany int) {
	d.markChange(parent, &change{kind: kindInsert, offset: offset, howMany: howMany, count: d.nextCount()})
}

func (d *Differ) markRemove(parent *tree.Node, offset, howMany int) {
	d.markChange(parent, &change{kind: kindRemove, offset: offset, howMany: howMany, count: d.nextCount()})
	d.removeAllNestedChanges(parent, offset, howMany)
}

func (d *Differ) markAttribute(item tree.Item) {
	d.markChange(item.Parent(), &change{kind: kindAttribute, offset: item.StartOffset(), howMany: item.OffsetSize(), count: d.nextCount()})
}

func (d *Differ) nextCount() int {
	c := d.changeCount
	d.changeCount++
	return c
}

// markChange snapshots parent on first touch, folds inc into the changes
// already recorded for parent and drops changes that became empty.
func (d *Differ) markChange(parent *tree.Node, inc *change) {
	if _, ok := d.elementSnapshots[parent]; !ok {
		d.elementSnapshots[parent] = snapshotChildren(parent)
	}
	changes, ok := d.changesInElement[parent]
	if !ok {
		d.elementOrder = append(d.elementOrder, parent)
	}
	changes = d.handleChange(inc, changes)
	changes = append(changes, inc)
	kept := changes[:0]
	for _, c := range changes {
		if c.howMany >= 1 {
			kept = append(kept, c)
		}
	}
	d.changesInElement[parent] = kept
}

// handleChange adjusts the recorded changes of one element for the
// incoming change inc, and inc itself, so that every offset is counted
// once. It returns the changes with any split-off parts prepended.
func (d *Differ) handleChange(inc *change, changes []*change) []*change {
	inc.nodesToHandle = inc.howMany
	for _, old := range append([]*change(nil), changes...) {
		incEnd := inc.offset + inc.howMany
		oldEnd := old.offset + old.howMany

		switch inc.kind {
		case kindInsert:
			switch old.kind {
			case kindInsert:
				if inc.offset <= old.offset {
					old.offset += inc.howMany
				} else if inc.offset < oldEnd {
					old.howMany += inc.nodesToHandle
					inc.nodesToHandle = 0
				}
			case kindRemove:
				if inc.offset < old.offset {
					old.offset += inc.howMany
				}
			case kindAttribute:
				if inc.offset <= old.offset {
					old.offset += inc.howMany
				} else if inc.offset < oldEnd {
					// split the attribute change around the insertion
					howMany := old.howMany
					old.howMany = inc.offset - old.offset
					changes = append([]*change{{
						kind: kindAttribute, offset: incEnd, howMany: howMany - old.howMany, count: d.nextCount(),
					}}, changes...)
				}
			}

		case kindRemove:
			switch old.kind {
			case kindInsert:
				switch {
				case incEnd <= old.offset:
					old.offset -= inc.howMany
				case incEnd <= oldEnd:
					if inc.offset < old.offset {
						intersection := incEnd - old.offset
						old.offset = inc.offset
						old.howMany -= intersection
						inc.nodesToHandle -= intersection
					} else {
						old.howMany -= inc.nodesToHandle
						inc.nodesToHandle = 0
					}
				default:
					if inc.offset <= old.offset {
						inc.nodesToHandle -= old.howMany
						old.howMany = 0
					} else if inc.offset < oldEnd {
						intersection := oldEnd - inc.offset
						old.howMany -= intersection
						inc.nodesToHandle -= intersection
					}
				}
			case kindRemove:
				if incEnd <= old.offset {
					old.offset -= inc.howMany
				} else if inc.offset < old.offset {
					inc.nodesToHandle += old.howMany
					old.howMany = 0
				}
			case kindAttribute:
				switch {
				case incEnd <= old.offset:
					old.offset -= inc.howMany
				case inc.offset < old.offset:
					intersection := incEnd - old.offset
					old.offset = inc.offset
					old.howMany -= intersection
				case inc.offset < oldEnd:
					if incEnd <= oldEnd {
						howMany := old.howMany
						old.howMany = inc.offset - old.offset
						after := howMany - old.howMany - inc.nodesToHandle
						changes = append([]*change{{
							kind: kindAttribute, offset: inc.offset, howMany: after, count: d.nextCount(),
						}}, changes...)
					} else {
						old.howMany -= oldEnd - inc.offset
					}
				}
			}

		case kindAttribute:
			switch old.kind {
			case kindInsert:
				if inc.offset < old.offset && incEnd > old.offset {
					if incEnd > oldEnd {
						part := &change{kind: kindAttribute, offset: oldEnd, howMany: incEnd - oldEnd, count: d.nextCount()}
						changes = d.handleChange(part, changes)
						changes = append(changes, part)
					}
					inc.nodesToHandle = old.offset - inc.offset
					inc.howMany = inc.nodesToHandle
				} else if inc.offset >= old.offset && inc.offset < oldEnd {
					if incEnd > oldEnd {
						inc.nodesToHandle = incEnd - oldEnd
						inc.offset = oldEnd
					} else {
						inc.nodesToHandle = 0
					}
				}
			case kindRemove:
				if inc.offset < old.offset && incEnd > old.offset {
					part := &change{kind: kindAttribute, offset: old.offset, howMany: incEnd - old.offset, count: d.nextCount()}
					changes = d.handleChange(part, changes)
					changes = append(changes, part)
					inc.nodesToHandle = old.offset - inc.offset
					inc.howMany = inc.nodesToHandle
				}
			case kindAttribute:
				if inc.offset >= old.offset && incEnd <= oldEnd {
					// already covered
					inc.nodesToHandle = 0
					inc.howMany = 0
					inc.offset = 0
				} else if inc.offset <= old.offset && incEnd >= oldEnd {
					old.howMany = 0
				}
			}
		}
	}
	inc.howMany = inc.nodesToHandle
	return changes
}

// removeAllNestedChanges forgets the changes and snapshots of every
// element inside [offset, offset+howMany) of parent.
func (d *Differ) removeAllNestedChanges(parent *tree.Node, offset, howMany int) {
	if offset+howMany > parent.MaxOffset() {
		howMany = parent.MaxOffset() - offset
	}
	if howMany <= 0 {
		return
	}
	rng := tree.NewRange(tree.PositionAt(parent, offset), tree.PositionAt(parent, offset+howMany))
	for _, item := range rng.Items(tree.WalkerOptions{Shallow: true}) {
		el, ok := item.(*tree.Node)
		if !ok || !el.IsElement() {
			continue
		}
		d.forgetElement(el)
		d.removeAllNestedChanges(el, 0, el.MaxOffset())
	}
}

func (d *Differ) forgetElement(el *tree.Node) {
	if _, ok := d.changesInElement[el]; !ok {
		delete(d.elementSnapshots, el)
		return
	}
	delete(d.changesInElement, el)
	delete(d.elementSnapshots, el)
	for i, e := range d.elementOrder {
		if e == el {
			d.elementOrder = append(d.elementOrder[:i:i], d.elementOrder[i+1:]...)
			break
		}
	}
}

// isInInsertedElement reports whether element lies inside content that is
// already recorded as inserted. Changes inside such content need no
// separate record.
func (d *Differ) isInInsertedElement(element *tree.Node) bool {
	parent := element.Parent()
	if parent == nil {
		return false
	}
	offset := element.StartOffset()
	for _, c := range d.changesInElement[parent] {
		if c.kind == kindInsert && offset >= c.offset && offset < c.offset+c.howMany {
			return true
		}
	}
	return d.isInInsertedElement(parent)
}
