package model

import (
	"context"
	"strings"

	"github.com/dshills/treemodel/internal/event"
	"github.com/dshills/treemodel/internal/model/differ"
	"github.com/dshills/treemodel/internal/model/tree"
)

// Marker is a named live range layered over the tree. Markers managed
// using operations take part in history and undo; others are local.
type Marker struct {
	name                   string
	liveRange              *LiveRange
	managedUsingOperations bool
	affectsData            bool
	listeners              []func(RangeChange)
}

// Name returns the marker name.
func (m *Marker) Name() string { return m.name }

// ManagedUsingOperations reports whether the marker is changed through
// marker operations.
func (m *Marker) ManagedUsingOperations() bool { return m.managedUsingOperations }

// AffectsData reports whether changes of the marker count as data changes.
func (m *Marker) AffectsData() bool { return m.affectsData }

// Range returns the current marker range. It panics for removed markers.
func (m *Marker) Range() tree.Range {
	assertThat(m.liveRange != nil, ErrMarkerNotFound, "marker %q was removed", m.name)
	return m.liveRange.ToRange()
}

// Start returns the start of the marker range.
func (m *Marker) Start() tree.Position { return m.Range().Start }

// End returns the end of the marker range.
func (m *Marker) End() tree.Position { return m.Range().End }

// OnChange registers fn for changes of the marker range or its content.
func (m *Marker) OnChange(fn func(RangeChange)) {
	m.listeners = append(m.listeners, fn)
}

func (m *Marker) data() differ.MarkerData {
	d := differ.MarkerData{AffectsData: m.affectsData, ManagedUsingOperations: m.managedUsingOperations}
	if m.liveRange != nil {
		r := m.liveRange.ToRange()
		d.Range = &r
	}
	return d
}

func (m *Marker) attachLiveRange(lr *LiveRange) {
	m.detachLiveRange()
	m.liveRange = lr
	lr.OnChange(func(c RangeChange) {
		for _, fn := range m.listeners {
			fn(c)
		}
	})
}

func (m *Marker) detachLiveRange() {
	if m.liveRange != nil {
		m.liveRange.Detach()
		m.liveRange = nil
	}
}

// MarkerUpdate is the payload of TopicMarkerUpdate. OldRange is nil for
// new markers, NewRange is nil for removed ones.
type MarkerUpdate struct {
	Marker   *Marker
	OldRange *tree.Range
	NewRange *tree.Range
	OldData  differ.MarkerData
}

// MarkerCollection holds the markers of a document, in insertion order.
// Markers are added, updated and removed through the Writer.
type MarkerCollection struct {
	doc     *Document
	markers map[string]*Marker
	order   []string
}

func newMarkerCollection(doc *Document) *MarkerCollection {
	return &MarkerCollection{doc: doc, markers: make(map[string]*Marker)}
}

// Has reports whether a marker named name exists.
func (mc *MarkerCollection) Has(name string) bool {
	_, ok := mc.markers[name]
	return ok
}

// Get returns the marker named name, or nil.
func (mc *MarkerCollection) Get(name string) *Marker { return mc.markers[name] }

// Len returns the number of markers.
func (mc *MarkerCollection) Len() int { return len(mc.order) }

// All returns every marker in insertion order.
func (mc *MarkerCollection) All() []*Marker {
	out := make([]*Marker, 0, len(mc.order))
	for _, name := range mc.order {
		out = append(out, mc.markers[name])
	}
	return out
}

// GetMarkersAtPosition returns the markers whose range strictly contains pos.
func (mc *MarkerCollection) GetMarkersAtPosition(pos tree.Position) []*Marker {
	return mc.filter(func(m *Marker) bool { return m.Range().ContainsPosition(pos) })
}

// GetMarkersIntersectingRange returns the markers sharing content with rng.
func (mc *MarkerCollection) GetMarkersIntersectingRange(rng tree.Range) []*Marker {
	return mc.filter(func(m *Marker) bool { return m.Range().GetIntersection(rng) != nil })
}

// GetMarkersGroup returns the markers named "prefix:...".
func (mc *MarkerCollection) GetMarkersGroup(prefix string) []*Marker {
	return mc.filter(func(m *Marker) bool { return strings.HasPrefix(m.name, prefix+":") })
}

// OnUpdate registers fn for every marker added, changed or removed.
func (mc *MarkerCollection) OnUpdate(fn func(MarkerUpdate)) *event.Subscription {
	return mc.doc.emitter.MustSubscribe(TopicMarkerUpdate, func(_ context.Context, ev event.Event) error {
		fn(ev.Payload.(MarkerUpdate))
		return nil
	})
}

func (mc *MarkerCollection) filter(keep func(*Marker) bool) []*Marker {
	var out []*Marker
	for _, m := range mc.All() {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// MarkersIntersecting returns the data of markers sharing content with rng.
func (mc *MarkerCollection) MarkersIntersecting(rng tree.Range) map[string]differ.MarkerData {
	out := make(map[string]differ.MarkerData)
	for _, m := range mc.GetMarkersIntersectingRange(rng) {
		out[m.name] = m.data()
	}
	return out
}

// SetMarker creates or updates a marker. It is called by marker operations.
func (mc *MarkerCollection) SetMarker(name string, rng tree.Range, managedUsingOperations, affectsData bool) {
	mc.set(name, rng, managedUsingOperations, &affectsData)
}

// RemoveMarker removes a marker. It is called by marker operations.
func (mc *MarkerCollection) RemoveMarker(name string) bool {
	return mc.remove(name)
}

// set creates a marker or updates an existing one. A nil affectsData keeps
// the current value. An update that changes nothing is silent.
func (mc *MarkerCollection) set(name string, rng tree.Range, managed bool, affectsData *bool) *Marker {
	assertThat(!strings.Contains(name, ","), ErrMarkerName, "%q", name)
	if m, ok := mc.markers[name]; ok {
		oldData := m.data()
		oldRange := m.Range()
		changed := false
		if !oldRange.IsEqual(rng) {
			m.attachLiveRange(mc.liveRange(rng))
			changed = true
		}
		if managed != m.managedUsingOperations {
			m.managedUsingOperations = managed
			changed = true
		}
		if affectsData != nil && *affectsData != m.affectsData {
			m.affectsData = *affectsData
			changed = true
		}
		if changed {
			newRange := rng
			mc.fire(MarkerUpdate{Marker: m, OldRange: &oldRange, NewRange: &newRange, OldData: oldData})
		}
		return m
	}

	m := &Marker{name: name, managedUsingOperations: managed}
	if affectsData != nil {
		m.affectsData = *affectsData
	}
	m.attachLiveRange(mc.liveRange(rng))
	mc.markers[name] = m
	mc.order = append(mc.order, name)
	oldData := m.data()
	oldData.Range = nil
	newRange := rng
	mc.fire(MarkerUpdate{Marker: m, NewRange: &newRange, OldData: oldData})
	tracer().Debugf("marker %q added at %s", name, rng)
	return m
}

func (mc *MarkerCollection) remove(name string) bool {
	m, ok := mc.markers[name]
	if !ok {
		return false
	}
	delete(mc.markers, name)
	for i, n := range mc.order {
		if n == name {
			mc.order = append(mc.order[:i:i], mc.order[i+1:]...)
			break
		}
	}
	oldRange := m.Range()
	mc.fire(MarkerUpdate{Marker: m, OldRange: &oldRange, OldData: m.data()})
	m.detachLiveRange()
	m.listeners = nil
	tracer().Debugf("marker %q removed", name)
	return true
}

// refresh reports the marker as changed without changing it.
func (mc *MarkerCollection) refresh(name string) {
	m, ok := mc.markers[name]
	assertThat(ok, ErrMarkerNotFound, "cannot refresh %q", name)
	rng := m.Range()
	mc.fire(MarkerUpdate{Marker: m, OldRange: &rng, NewRange: &rng, OldData: m.data()})
}

func (mc *MarkerCollection) liveRange(rng tree.Range) *LiveRange {
	lr, err := NewLiveRange(mc.doc, rng)
	must(err)
	return lr
}

func (mc *MarkerCollection) fire(u MarkerUpdate) {
	must(mc.doc.emitter.Emit(context.Background(), TopicMarkerUpdate, u))
}
