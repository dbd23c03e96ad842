package model

import (
	"context"
	"fmt"

	"github.com/dshills/treemodel/internal/event"
	"github.com/dshills/treemodel/internal/model/operation"
	"github.com/dshills/treemodel/internal/model/tree"
)

// LivePosition is a position that follows document operations. It must be
// detached when no longer needed.
type LivePosition struct {
	doc       *Document
	pos       tree.Position
	sub       *event.Subscription
	listeners []func(old tree.Position)
}

// NewLivePosition starts tracking pos. The position must be in a root of
// doc.
func NewLivePosition(doc *Document, pos tree.Position) (*LivePosition, error) {
	if !doc.owns(pos.Root()) {
		return nil, fmt.Errorf("%w: %s", ErrNotInDocument, pos)
	}
	lp := &LivePosition{doc: doc, pos: pos}
	lp.sub = doc.emitter.MustSubscribe(TopicOperation, lp.transform, event.WithPriority(event.PriorityLow))
	return lp, nil
}

// ToPosition returns the current position.
func (lp *LivePosition) ToPosition() tree.Position { return lp.pos }

// OnChange registers fn to receive the previous position whenever the
// position moves.
func (lp *LivePosition) OnChange(fn func(old tree.Position)) {
	lp.listeners = append(lp.listeners, fn)
}

// Detach stops tracking. The position keeps its last value.
func (lp *LivePosition) Detach() {
	lp.sub.Cancel()
	lp.listeners = nil
}

// IsDetached reports whether Detach was called.
func (lp *LivePosition) IsDetached() bool {
	return lp.sub.State() == event.SubscriptionStateCancelled
}

func (lp *LivePosition) transform(_ context.Context, ev event.Event) error {
	op := ev.Payload.(operation.Operation)
	if !op.IsDocumentOperation() {
		return nil
	}
	next, ok := operation.TransformPosition(lp.pos, op)
	if !ok || next.IsEqual(lp.pos) {
		return nil
	}
	old := lp.pos
	lp.pos = next
	for _, fn := range lp.listeners {
		fn(old)
	}
	return nil
}

// RangeChange describes an update of a LiveRange.
type RangeChange struct {
	// Content is set when only the content inside the range changed.
	Content bool

	// OldRange is the range before the operation. It equals the current
	// range for content changes.
	OldRange tree.Range

	// DeletionPosition is where the content was removed from when the
	// range moved into the graveyard.
	DeletionPosition *tree.Position
}

// LiveRange is a range that follows document operations. Its start sticks
// to the following content and its end to the preceding content, so text
// typed at either boundary stays outside. It must be detached when no
// longer needed.
type LiveRange struct {
	doc       *Document
	rng       tree.Range
	sub       *event.Subscription
	listeners []func(RangeChange)
}

// NewLiveRange starts tracking rng. The range must be in a root of doc.
func NewLiveRange(doc *Document, rng tree.Range) (*LiveRange, error) {
	if !doc.owns(rng.Root()) {
		return nil, fmt.Errorf("%w: %s", ErrNotInDocument, rng)
	}
	lr := &LiveRange{doc: doc, rng: withBoundaryStickiness(rng)}
	lr.sub = doc.emitter.MustSubscribe(TopicOperation, lr.transform, event.WithPriority(event.PriorityLow))
	return lr, nil
}

// ToRange returns the current range.
func (lr *LiveRange) ToRange() tree.Range { return lr.rng }

// OnChange registers fn for boundary and content changes.
func (lr *LiveRange) OnChange(fn func(RangeChange)) {
	lr.listeners = append(lr.listeners, fn)
}

// Detach stops tracking. The range keeps its last value.
func (lr *LiveRange) Detach() {
	lr.sub.Cancel()
	lr.listeners = nil
}

// IsDetached reports whether Detach was called.
func (lr *LiveRange) IsDetached() bool {
	return lr.sub.State() == event.SubscriptionStateCancelled
}

func (lr *LiveRange) transform(_ context.Context, ev event.Event) error {
	op := ev.Payload.(operation.Operation)
	if !op.IsDocumentOperation() {
		return nil
	}
	ranges := operation.TransformRange(lr.rng, op)
	if len(ranges) == 0 {
		return nil
	}
	result := withBoundaryStickiness(tree.RangeFromRanges(ranges))

	var change RangeChange
	switch {
	case !result.IsEqual(lr.rng):
		change.OldRange = lr.rng
		if result.Root().RootName() == tree.GraveyardName {
			change.DeletionPosition = deletionPosition(op)
		}
		lr.rng = result
	case changesRangeContent(lr.rng, op):
		change.Content = true
		change.OldRange = lr.rng
	default:
		return nil
	}
	for _, fn := range lr.listeners {
		fn(change)
	}
	return nil
}

// withBoundaryStickiness makes a non-collapsed range stick to its content.
func withBoundaryStickiness(r tree.Range) tree.Range {
	if r.IsCollapsed() {
		return tree.Range{Start: r.Start.WithStickiness(tree.StickToNone), End: r.End.WithStickiness(tree.StickToNone)}
	}
	return tree.Range{Start: r.Start.WithStickiness(tree.StickToNext), End: r.End.WithStickiness(tree.StickToPrevious)}
}

func deletionPosition(op operation.Operation) *tree.Position {
	switch o := op.(type) {
	case *operation.Move:
		if o.Type() == operation.TypeRemove {
			p := o.Source
			return &p
		}
	case *operation.Merge:
		p := o.DeletionPosition()
		return &p
	}
	return nil
}

// changesRangeContent reports whether op inserts, removes or splits
// content strictly inside r.
func changesRangeContent(r tree.Range, op operation.Operation) bool {
	switch o := op.(type) {
	case *operation.Insert:
		return r.ContainsPosition(o.Position)
	case *operation.Move:
		return r.ContainsPosition(o.Source) || r.Start.IsEqual(o.Source) || r.ContainsPosition(o.Target)
	case *operation.Merge:
		return r.ContainsPosition(o.Source) || r.Start.IsEqual(o.Source) || r.ContainsPosition(o.Target)
	case *operation.Split:
		return r.ContainsPosition(o.SplitPosition) || r.ContainsPosition(o.InsertionPosition)
	}
	return false
}
