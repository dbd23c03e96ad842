// Package tree implements the addressable structure of a document model:
// nodes, offset-path positions, ranges and a bidirectional tree walker.
//
// # Nodes
//
// A Node is one of four kinds: Element, Text, DocumentFragment or
// RootElement. The kind is a closed enumeration, so callers switch on
// Node.Kind instead of inspecting names. Element-like nodes (elements,
// roots and fragments) own an ordered list of children. Every child keeps a
// non-owning reference to its parent, which is cleared when the child is
// removed.
//
// Offsets are measured in code points. An element occupies one offset in
// its parent; a text node occupies one offset per rune of its data.
//
// # Positions
//
// A Position is a root plus an offset path. Each path component is the
// offset inside the ancestor at that depth, the last one being the offset
// inside the immediate parent. Positions are values: every transformation
// returns a new Position. Transformations never fail on stale paths; only
// accessors which need to resolve the path (Parent, NodeAfter, ...) do.
//
//	root := tree.NewRoot("$root", "main")
//	p := tree.NewElement("paragraph", nil, tree.NewText("foo", nil))
//	root.InsertChildren(0, p)
//
//	pos := tree.PositionAt(p, 1)  // <paragraph>f|oo</paragraph>
//	pos.Path()                    // [0 1]
//
// # Ranges and walking
//
// A Range is an ordered pair of positions in the same root. A TreeWalker
// iterates the items between two positions, reporting element starts,
// element ends and text runs.
package tree

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'treemodel.tree'.
func tracer() tracing.Trace {
	return tracing.Select("treemodel.tree")
}

// assertThat panics with a formatted message if a precondition does not hold.
func assertThat(that bool, err error, msg string, msgargs ...interface{}) {
	if !that {
		m := fmt.Sprintf(msg, msgargs...)
		tracer().Errorf("tree: %s", m)
		panic(fmt.Errorf("%w: %s", err, m))
	}
}
