package operation

import (
	"github.com/dshills/treemodel/internal/model/tree"
)

// MarkerStore is the marker collection a marker operation writes to.
type MarkerStore interface {
	SetMarker(name string, rng tree.Range, managedUsingOperations, affectsData bool)
	RemoveMarker(name string) bool
}

// Marker sets, moves or removes a named marker. A nil NewRange removes it.
type Marker struct {
	base
	Name        string
	OldRange    *tree.Range
	NewRange    *tree.Range
	AffectsData bool
	markers     MarkerStore
}

// NewMarker creates a marker operation.
func NewMarker(name string, oldRange, newRange *tree.Range, markers MarkerStore, affectsData bool, baseVersion int) *Marker {
	return &Marker{
		base:        base{baseVersion: baseVersion},
		Name:        name,
		OldRange:    copyRange(oldRange),
		NewRange:    copyRange(newRange),
		AffectsData: affectsData,
		markers:     markers,
	}
}

func (op *Marker) Type() Type { return TypeMarker }

func (op *Marker) Validate() error { return nil }

func (op *Marker) Execute() error {
	if op.NewRange != nil {
		op.markers.SetMarker(op.Name, *op.NewRange, true, op.AffectsData)
		return nil
	}
	op.markers.RemoveMarker(op.Name)
	return nil
}

func (op *Marker) Reversed() Operation {
	return NewMarker(op.Name, op.NewRange, op.OldRange, op.markers, op.AffectsData, op.next())
}

func (op *Marker) Clone() Operation {
	return NewMarker(op.Name, op.OldRange, op.NewRange, op.markers, op.AffectsData, op.baseVersion)
}

func (op *Marker) ToJSON() map[string]any {
	j := op.json(TypeMarker)
	j["name"] = op.Name
	j["oldRange"] = rangeJSON(op.OldRange)
	j["newRange"] = rangeJSON(op.NewRange)
	j["affectsData"] = op.AffectsData
	return j
}

func copyRange(r *tree.Range) *tree.Range {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
