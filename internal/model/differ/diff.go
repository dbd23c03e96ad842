package differ

import (
	"sort"

	"github.com/dshills/treemodel/internal/model/tree"
)

// action is one step when aligning old and new children of an element.
type action byte

const (
	actionEqual     action = 'e'
	actionInsert    action = 'i'
	actionRemove    action = 'r'
	actionAttribute action = 'a'
)

// GetChanges returns the buffered changes in document order. The result is
// cached until the next buffered operation; every call returns fresh
// copies of the cached items, attribute maps included.
func (d *Differ) GetChanges(opts Options) []DiffItem {
	if !d.cached {
		d.computeChanges()
	}
	if opts.IncludeChangesInGraveyard {
		return copyItems(d.cachedChangesWithGraveyard)
	}
	return copyItems(d.cachedChanges)
}

func copyItems(items []DiffItem) []DiffItem {
	if items == nil {
		return nil
	}
	out := make([]DiffItem, len(items))
	for i, item := range items {
		if item.Attributes != nil {
			attrs := make(map[string]any, len(item.Attributes))
			for k, v := range item.Attributes {
				attrs[k] = v
			}
			item.Attributes = attrs
		}
		out[i] = item
	}
	return out
}

func (d *Differ) computeChanges() {
	var diffSet []DiffItem
	for _, element := range d.elementOrder {
		changes := d.changesInElement[element]
		sort.SliceStable(changes, func(i, j int) bool {
			a, b := changes[i], changes[j]
			if a.offset == b.offset {
				return a.kind == kindRemove && b.kind != kindRemove
			}
			return a.offset < b.offset
		})
		before := d.elementSnapshots[element]
		after := snapshotChildren(element)

		i, j := 0, 0 // i walks current children, j walks the snapshot
		for _, act := range generateActions(len(before), changes) {
			switch act {
			case actionInsert:
				diffSet = append(diffSet, d.insertDiff(element, i, after[i]))
				i++
			case actionRemove:
				diffSet = append(diffSet, d.removeDiff(element, i, before[j]))
				j++
			case actionAttribute:
				var rng tree.Range
				if after[i].name == tree.TextName {
					rng = tree.NewRange(tree.PositionAt(element, i), tree.PositionAt(element, i+1))
				} else {
					child := element.Child(element.OffsetToIndex(i))
					rng = tree.Range{Start: tree.PositionAt(element, i), End: tree.PositionAt(child, 0)}
				}
				diffSet = append(diffSet, d.attributesDiff(rng, before[j].attrs, after[i].attrs)...)
				i++
				j++
			default:
				i++
				j++
			}
		}
	}

	sort.SliceStable(diffSet, func(x, y int) bool {
		a, b := diffSet[x].Position, diffSet[y].Position
		if a.Root() != b.Root() {
			return a.Root().RootName() < b.Root().RootName()
		}
		if a.IsEqual(b) {
			return diffSet[x].changeCount < diffSet[y].changeCount
		}
		return a.IsBefore(b)
	})

	diffSet = glue(diffSet)
	d.changeCount = 0

	d.cachedChangesWithGraveyard = diffSet
	d.cachedChanges = nil
	for _, item := range diffSet {
		if !inGraveyard(item) {
			d.cachedChanges = append(d.cachedChanges, item)
		}
	}
	d.cached = true
	tracer().Debugf("computed %d changes (%d with graveyard)", len(d.cachedChanges), len(diffSet))
}

// glue joins consecutive single-offset text inserts, text removes and
// equal attribute changes.
func glue(diffSet []DiffItem) []DiffItem {
	if len(diffSet) == 0 {
		return nil
	}
	out := []DiffItem{diffSet[0]}
	for _, this := range diffSet[1:] {
		prev := &out[len(out)-1]
		consecutiveRemove := prev.Type == Remove && this.Type == Remove &&
			prev.Name == tree.TextName && this.Name == tree.TextName &&
			prev.Position.IsEqual(this.Position)
		consecutiveInsert := prev.Type == Insert && this.Type == Insert &&
			prev.Name == tree.TextName && this.Name == tree.TextName &&
			prev.Position.HasSameParentAs(this.Position) &&
			prev.Position.Offset()+prev.Length == this.Position.Offset()
		consecutiveAttribute := prev.Type == Attribute && this.Type == Attribute &&
			prev.Position.HasSameParentAs(this.Position) &&
			prev.Range.IsFlat() && this.Range.IsFlat() &&
			prev.Position.Offset()+prev.Length == this.Position.Offset() &&
			prev.AttributeKey == this.AttributeKey &&
			tree.ValuesEqual(prev.AttributeOldValue, this.AttributeOldValue) &&
			tree.ValuesEqual(prev.AttributeNewValue, this.AttributeNewValue)

		switch {
		case consecutiveRemove, consecutiveInsert:
			prev.Length++
		case consecutiveAttribute:
			prev.Length++
			prev.Range.End = prev.Range.End.GetShiftedBy(1)
		default:
			out = append(out, this)
		}
	}
	return out
}

func inGraveyard(item DiffItem) bool {
	if item.Position.Root() != nil && item.Position.Root().RootName() == tree.GraveyardName {
		return true
	}
	return item.Range.Root() != nil && item.Range.Root().RootName() == tree.GraveyardName
}

func (d *Differ) insertDiff(parent *tree.Node, offset int, child childSnapshot) DiffItem {
	item := DiffItem{
		Type:        Insert,
		Position:    tree.PositionAt(parent, offset),
		Name:        child.name,
		Attributes:  child.attrs,
		Length:      1,
		changeCount: d.nextCount(),
	}
	if _, ok := d.refreshed[child.node]; ok {
		item.Action = ActionRefresh
	}
	return item
}

func (d *Differ) removeDiff(parent *tree.Node, offset int, child childSnapshot) DiffItem {
	return DiffItem{
		Type:        Remove,
		Position:    tree.PositionAt(parent, offset),
		Name:        child.name,
		Attributes:  child.attrs,
		Length:      1,
		changeCount: d.nextCount(),
	}
}

// attributesDiff compares two attribute sets of one offset. Keys are
// visited in sorted order.
func (d *Differ) attributesDiff(rng tree.Range, oldAttrs, newAttrs map[string]any) []DiffItem {
	var out []DiffItem
	item := func(key string, oldValue, newValue any) DiffItem {
		return DiffItem{
			Type:              Attribute,
			Position:          rng.Start,
			Range:             rng,
			Length:            1,
			AttributeKey:      key,
			AttributeOldValue: oldValue,
			AttributeNewValue: newValue,
			changeCount:       d.nextCount(),
		}
	}
	for _, key := range sortedKeys(oldAttrs) {
		newValue := newAttrs[key]
		if !tree.ValuesEqual(oldAttrs[key], newValue) {
			out = append(out, item(key, oldAttrs[key], newValue))
		}
	}
	for _, key := range sortedKeys(newAttrs) {
		if _, ok := oldAttrs[key]; !ok {
			out = append(out, item(key, nil, newAttrs[key]))
		}
	}
	return out
}

// generateActions aligns the snapshot of an element with its sorted
// changes: unchanged offsets are equal, inserts and removes consume new
// or old children, attribute changes consume both.
func generateActions(oldLength int, changes []*change) []action {
	var actions []action
	offset := 0
	oldHandled := 0
	repeat := func(a action, n int) {
		for k := 0; k < n; k++ {
			actions = append(actions, a)
		}
	}
	for _, c := range changes {
		if c.offset > offset {
			repeat(actionEqual, c.offset-offset)
			oldHandled += c.offset - offset
		}
		switch c.kind {
		case kindInsert:
			repeat(actionInsert, c.howMany)
			offset = c.offset + c.howMany
		case kindRemove:
			repeat(actionRemove, c.howMany)
			offset = c.offset
			oldHandled += c.howMany
		default:
			repeat(actionAttribute, c.howMany)
			offset = c.offset + c.howMany
			oldHandled += c.howMany
		}
	}
	if oldHandled < oldLength {
		repeat(actionEqual, oldLength-oldHandled)
	}
	return actions
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
