package differ

import (
	"sort"

	"github.com/dshills/treemodel/internal/model/operation"
	"github.com/dshills/treemodel/internal/model/tree"
)

// Differ buffers operations and markers and computes the resulting changes.
type Differ struct {
	markers MarkerSource

	changesInElement map[*tree.Node][]*change
	elementSnapshots map[*tree.Node][]childSnapshot
	elementOrder     []*tree.Node

	changedMarkers map[string]*ChangedMarker
	markerOrder    []string

	changedRoots map[string]*RootChange
	refreshed    map[*tree.Node]struct{}

	changeCount int

	cachedChanges              []DiffItem
	cachedChangesWithGraveyard []DiffItem
	cached                     bool
}

// New creates an empty differ. markers may be nil when the document has no
// marker collection.
func New(markers MarkerSource) *Differ {
	d := &Differ{markers: markers}
	d.Reset()
	return d
}

// IsEmpty reports whether nothing is buffered.
func (d *Differ) IsEmpty() bool {
	return len(d.changesInElement) == 0 && len(d.changedMarkers) == 0 && len(d.changedRoots) == 0
}

// Reset drops everything buffered.
func (d *Differ) Reset() {
	d.changesInElement = make(map[*tree.Node][]*change)
	d.elementSnapshots = make(map[*tree.Node][]childSnapshot)
	d.elementOrder = nil
	d.changedMarkers = make(map[string]*ChangedMarker)
	d.markerOrder = nil
	d.changedRoots = make(map[string]*RootChange)
	d.refreshed = make(map[*tree.Node]struct{})
	d.changeCount = 0
	d.invalidate()
}

func (d *Differ) invalidate() {
	d.cached = false
	d.cachedChanges = nil
	d.cachedChangesWithGraveyard = nil
}

// BufferOperation records op. It must be called before op executes, while
// the tree is still in its previous state.
func (d *Differ) BufferOperation(op operation.Operation) {
	switch o := op.(type) {
	case *operation.Insert:
		parent := parentOf(o.Position)
		if parent == nil || d.isInInsertedElement(parent) {
			return
		}
		d.markInsert(parent, o.Position.Offset(), o.HowMany())

	case *operation.Attribute:
		if parentOf(o.Range.Start) == nil || parentOf(o.Range.End) == nil {
			return
		}
		for _, item := range o.Range.Items(tree.WalkerOptions{Shallow: true}) {
			if d.isInInsertedElement(item.Parent()) {
				continue
			}
			d.markAttribute(item)
		}

	case *operation.Move:
		if o.Source.IsEqual(o.Target) || o.Source.GetShiftedBy(o.HowMany).IsEqual(o.Target) {
			return
		}
		source, target := parentOf(o.Source), parentOf(o.Target)
		if source == nil || target == nil {
			return
		}
		sourceInserted := d.isInInsertedElement(source)
		targetInserted := d.isInInsertedElement(target)
		if !sourceInserted {
			d.markRemove(source, o.Source.Offset(), o.HowMany)
		}
		if !targetInserted {
			d.markInsert(target, o.MovedRangeStart().Offset(), o.HowMany)
		}

	case *operation.Rename:
		parent := parentOf(o.Position)
		if parent == nil || d.isInInsertedElement(parent) {
			return
		}
		d.markRemove(parent, o.Position.Offset(), 1)
		d.markInsert(parent, o.Position.Offset(), 1)
		d.refreshMarkers(tree.RangeFromShift(o.Position, 1))

	case *operation.Split:
		splitElement := parentOf(o.SplitPosition)
		insertionParent := parentOf(o.InsertionPosition)
		if splitElement == nil || insertionParent == nil {
			return
		}
		if !d.isInInsertedElement(splitElement) {
			d.markRemove(splitElement, o.SplitPosition.Offset(), o.HowMany)
		}
		if !d.isInInsertedElement(insertionParent) {
			d.markInsert(insertionParent, o.InsertionPosition.Offset(), 1)
		}
		if o.GraveyardPosition != nil {
			if gy := parentOf(*o.GraveyardPosition); gy != nil {
				d.markRemove(gy, o.GraveyardPosition.Offset(), 1)
			}
		}

	case *operation.Merge:
		merged := parentOf(o.Source)
		mergedInto := parentOf(o.Target)
		gy := parentOf(o.GraveyardPosition)
		if merged == nil || merged.Parent() == nil || mergedInto == nil || gy == nil {
			return
		}
		if !d.isInInsertedElement(merged.Parent()) {
			d.markRemove(merged.Parent(), merged.StartOffset(), 1)
		}
		d.markInsert(gy, o.GraveyardPosition.Offset(), 1)
		if !d.isInInsertedElement(mergedInto) {
			d.markInsert(mergedInto, o.Target.Offset(), merged.MaxOffset())
		}

	case *operation.RootState:
		root := o.Root()
		if root == nil || root.IsAttached() == o.IsAdd {
			return
		}
		d.bufferRootStateChange(o.RootName, o.IsAdd)

	case *operation.RootAttribute:
		if o.Root == nil {
			return
		}
		d.bufferRootAttributeChange(o.Root.RootName(), o.Key, o.OldValue, o.NewValue)

	default:
		return
	}
	tracer().Debugf("buffered %s operation", op.Type())
	d.invalidate()
}

// RefreshItem marks item as removed and reinserted so that it shows up as
// changed without an actual edit.
func (d *Differ) RefreshItem(item tree.Item) {
	parent := item.Parent()
	if parent == nil || d.isInInsertedElement(parent) {
		return
	}
	d.markRemove(parent, item.StartOffset(), item.OffsetSize())
	d.markInsert(parent, item.StartOffset(), item.OffsetSize())
	d.refreshed[tree.NodeOf(item)] = struct{}{}
	d.refreshMarkers(tree.RangeOn(item))
	d.invalidate()
}

func (d *Differ) refreshMarkers(rng tree.Range) {
	if d.markers == nil {
		return
	}
	found := d.markers.MarkersIntersecting(rng)
	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d.BufferMarkerChange(name, found[name], found[name])
	}
}

func parentOf(pos tree.Position) *tree.Node {
	parent, err := pos.ResolveParent()
	if err != nil {
		return nil
	}
	return parent
}

// ========================================================================
// Markers and roots
// ========================================================================

// BufferMarkerChange records a marker change. Ranges in the graveyard
// count as absent. A marker that did not exist before and does not exist
// now is forgotten.
func (d *Differ) BufferMarkerChange(name string, oldData, newData MarkerData) {
	oldData.Range = outsideGraveyard(oldData.Range)
	newData.Range = outsideGraveyard(newData.Range)

	buffered, ok := d.changedMarkers[name]
	if !ok {
		buffered = &ChangedMarker{Name: name, Old: oldData, New: newData}
		d.changedMarkers[name] = buffered
		d.markerOrder = append(d.markerOrder, name)
	} else {
		buffered.New = newData
	}
	if buffered.Old.Range == nil && buffered.New.Range == nil {
		delete(d.changedMarkers, name)
		for i, n := range d.markerOrder {
			if n == name {
				d.markerOrder = append(d.markerOrder[:i:i], d.markerOrder[i+1:]...)
				break
			}
		}
	}
}

func outsideGraveyard(r *tree.Range) *tree.Range {
	if r == nil || r.Root() == nil || r.Root().RootName() == tree.GraveyardName {
		return nil
	}
	c := *r
	return &c
}

// GetMarkersToRemove returns markers with their ranges from before the
// buffered changes, for markers that existed then.
func (d *Differ) GetMarkersToRemove() []MarkerRange {
	var out []MarkerRange
	for _, name := range d.markerOrder {
		if m := d.changedMarkers[name]; m.Old.Range != nil {
			out = append(out, MarkerRange{Name: name, Range: *m.Old.Range})
		}
	}
	return out
}

// GetMarkersToAdd returns markers with their current ranges, for markers
// that exist now.
func (d *Differ) GetMarkersToAdd() []MarkerRange {
	var out []MarkerRange
	for _, name := range d.markerOrder {
		if m := d.changedMarkers[name]; m.New.Range != nil {
			out = append(out, MarkerRange{Name: name, Range: *m.New.Range})
		}
	}
	return out
}

// GetChangedMarkers returns every buffered marker change in buffering order.
func (d *Differ) GetChangedMarkers() []ChangedMarker {
	out := make([]ChangedMarker, 0, len(d.markerOrder))
	for _, name := range d.markerOrder {
		out = append(out, *d.changedMarkers[name])
	}
	return out
}

func (d *Differ) bufferRootStateChange(name string, attached bool) {
	state := RootDetached
	if attached {
		state = RootAttached
	}
	item, ok := d.changedRoots[name]
	if !ok {
		d.changedRoots[name] = &RootChange{Name: name, State: state}
		return
	}
	if item.State != "" {
		// attaching and detaching again cancels out
		item.State = ""
		if len(item.Attributes) == 0 {
			delete(d.changedRoots, name)
		}
		return
	}
	item.State = state
}

func (d *Differ) bufferRootAttributeChange(name, key string, oldValue, newValue any) {
	item, ok := d.changedRoots[name]
	if !ok {
		item = &RootChange{Name: name}
	}
	if item.Attributes == nil {
		item.Attributes = make(map[string]AttributeChange)
	}
	if entry, ok := item.Attributes[key]; ok {
		if tree.ValuesEqual(newValue, entry.OldValue) {
			delete(item.Attributes, key)
		} else {
			entry.NewValue = newValue
			item.Attributes[key] = entry
		}
	} else {
		item.Attributes[key] = AttributeChange{OldValue: oldValue, NewValue: newValue}
	}
	if len(item.Attributes) == 0 {
		item.Attributes = nil
		if item.State == "" {
			delete(d.changedRoots, name)
		}
		return
	}
	d.changedRoots[name] = item
}

// GetChangedRoots returns the attached, detached and attribute-changed
// roots, sorted by name.
func (d *Differ) GetChangedRoots() []RootChange {
	out := make([]RootChange, 0, len(d.changedRoots))
	for _, item := range d.changedRoots {
		c := RootChange{Name: item.Name, State: item.State}
		if len(item.Attributes) > 0 {
			c.Attributes = make(map[string]AttributeChange, len(item.Attributes))
			for k, v := range item.Attributes {
				c.Attributes[k] = v
			}
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// HasDataChanges reports whether the buffered changes affect document
// data: tree changes, root changes, or changes of markers that affect data.
func (d *Differ) HasDataChanges() bool {
	if len(d.GetChanges(Options{})) > 0 || len(d.changedRoots) > 0 {
		return true
	}
	for _, m := range d.changedMarkers {
		if m.New.AffectsData != m.Old.AffectsData {
			return true
		}
		if !m.New.AffectsData {
			continue
		}
		added := m.New.Range != nil && m.Old.Range == nil
		removed := m.New.Range == nil && m.Old.Range != nil
		changed := m.New.Range != nil && m.Old.Range != nil && !m.New.Range.IsEqual(*m.Old.Range)
		if added || removed || changed {
			return true
		}
	}
	return false
}
