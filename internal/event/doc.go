// Package event provides the synchronous publish/subscribe emitter that
// drives the document model.
//
// Every document owns one Emitter. Applying an operation, finishing a
// change block and moving a live reference are all published through it,
// and every subscriber runs to completion in the publisher's goroutine
// before Emit returns.
//
// # Topics
//
// Topics are hierarchical with dot notation:
//
//	operation            an operation is being applied
//	change               a change block finished
//	change.data          a change block finished with data changes
//	marker.update        a marker was set, moved or removed
//
// Subscriptions may use wildcard patterns: "*" matches one segment and
// "**" matches any number of segments, so "change.**" receives both
// change topics.
//
// # Priority Ordering
//
// Handlers run in priority order, lower values first. Handlers with equal
// priority run in subscription order:
//
//   - Critical (0): consistency checks that must see the old state
//   - High (100): observers that snapshot the old state
//   - Normal (200): the default, applies the change
//   - Low (300): observers of the new state
//
// # Basic Usage
//
//	em := event.NewEmitter()
//	sub, err := em.Subscribe("change", func(ctx context.Context, ev event.Event) error {
//	    batch := ev.Payload.(*model.Batch)
//	    ...
//	    return nil
//	}, event.WithPriority(event.PriorityLow))
//	...
//	sub.Cancel()
//
// A handler error stops delivery and is returned from Emit wrapped in a
// *HandlerError. Panics are not recovered: they are programming errors and
// propagate to the publisher.
package event

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'treemodel.event'.
func tracer() tracing.Trace {
	return tracing.Select("treemodel.event")
}
