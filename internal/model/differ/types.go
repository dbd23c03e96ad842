package differ

import (
	"github.com/dshills/treemodel/internal/model/tree"
)

// ChangeType classifies a diff item.
type ChangeType string

// Diff item types.
const (
	Insert    ChangeType = "insert"
	Remove    ChangeType = "remove"
	Attribute ChangeType = "attribute"
)

// ActionRefresh marks insert items produced by RefreshItem.
const ActionRefresh = "refresh"

// DiffItem is one observable change.
//
// Insert and remove items describe Length offsets of nodes named Name
// (tree.TextName for text) at Position. Attribute items describe a change
// of AttributeKey over Range; their Position is the range start.
type DiffItem struct {
	Type       ChangeType
	Name       string
	Attributes map[string]any
	Position   tree.Position
	Length     int
	Action     string

	Range             tree.Range
	AttributeKey      string
	AttributeOldValue any
	AttributeNewValue any

	changeCount int
}

// MarkerData is the state of a marker at one point in time. A nil Range
// means the marker does not exist.
type MarkerData struct {
	Range                  *tree.Range
	AffectsData            bool
	ManagedUsingOperations bool
}

// ChangedMarker pairs the buffered old and new state of a marker.
type ChangedMarker struct {
	Name string
	Old  MarkerData
	New  MarkerData
}

// MarkerRange is a marker name with a range.
type MarkerRange struct {
	Name  string
	Range tree.Range
}

// Root states reported in RootChange.
const (
	RootAttached = "attached"
	RootDetached = "detached"
)

// AttributeChange is the old and new value of a root attribute.
type AttributeChange struct {
	OldValue any
	NewValue any
}

// RootChange describes a root attached, detached or with changed attributes.
type RootChange struct {
	Name       string
	State      string
	Attributes map[string]AttributeChange
}

// MarkerSource gives the differ read access to document markers.
type MarkerSource interface {
	// MarkersIntersecting returns the data of every marker whose range
	// intersects rng, keyed by name.
	MarkersIntersecting(rng tree.Range) map[string]MarkerData
}

// Options for GetChanges.
type Options struct {
	// IncludeChangesInGraveyard keeps items positioned in the graveyard root.
	IncludeChangesInGraveyard bool
}

type changeKind uint8

const (
	kindInsert changeKind = iota
	kindRemove
	kindAttribute
)

func (k changeKind) String() string {
	switch k {
	case kindInsert:
		return "insert"
	case kindRemove:
		return "remove"
	default:
		return "attribute"
	}
}

// change is a raw change in the offset space of one element.
type change struct {
	kind          changeKind
	offset        int
	howMany       int
	count         int
	nodesToHandle int
}

// childSnapshot is one offset of an element's children: an element, or a
// single character of text.
type childSnapshot struct {
	name  string
	attrs map[string]any
	node  *tree.Node
}

func snapshotChildren(element *tree.Node) []childSnapshot {
	var out []childSnapshot
	for _, child := range element.Children() {
		if child.IsText() {
			attrs := child.Attributes()
			for i := 0; i < child.OffsetSize(); i++ {
				out = append(out, childSnapshot{name: tree.TextName, attrs: attrs, node: child})
			}
			continue
		}
		out = append(out, childSnapshot{name: child.Name(), attrs: child.Attributes(), node: child})
	}
	return out
}
