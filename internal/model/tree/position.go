package tree

import (
	"fmt"

	"github.com/rivo/uniseg"
)

// Stickiness decides how a position reattaches to neighbouring content
// when an edit happens exactly at it.
type Stickiness uint8

const (
	// StickToNone keeps no preference; insertions at the position push it forward.
	StickToNone Stickiness = iota

	// StickToNext keeps the position glued to the content after it.
	StickToNext

	// StickToPrevious keeps the position glued to the content before it.
	StickToPrevious
)

// String returns the stickiness name.
func (s Stickiness) String() string {
	switch s {
	case StickToNext:
		return "toNext"
	case StickToPrevious:
		return "toPrevious"
	default:
		return "toNone"
	}
}

// ParseStickiness reads a stickiness name, defaulting to StickToNone.
func ParseStickiness(s string) Stickiness {
	switch s {
	case "toNext":
		return StickToNext
	case "toPrevious":
		return StickToPrevious
	default:
		return StickToNone
	}
}

// Relation is the result of comparing two positions.
type Relation int

const (
	// Before means the position precedes the other one.
	Before Relation = iota
	// Same means both positions are equal.
	Same
	// After means the position follows the other one.
	After
	// Different means the positions are in different roots.
	Different
)

// String returns the relation name.
func (r Relation) String() string {
	switch r {
	case Before:
		return "before"
	case Same:
		return "same"
	case After:
		return "after"
	default:
		return "different"
	}
}

// OffsetEnd can be passed to PositionAt to address the end of a parent.
const OffsetEnd = -1

// Position is an immutable address in a tree: a root and an offset path.
type Position struct {
	root       *Node
	path       []int
	Stickiness Stickiness
}

// NewPosition creates a position. If root is not a topmost node, path is
// taken relative to it and rebased onto its root.
func NewPosition(root *Node, path []int, stickiness Stickiness) Position {
	assertThat(root != nil && root.IsContainer(), ErrNotRoot, "position root must be an element or fragment")
	assertThat(len(path) > 0, ErrInvalidPath, "position path must not be empty")
	var full []int
	if root.parent != nil {
		full = append(root.Path(), path...)
		root = root.Root()
	} else {
		full = append([]int(nil), path...)
	}
	return Position{root: root, path: full, Stickiness: stickiness}
}

// PositionAt creates a position at offset inside parent. OffsetEnd
// addresses the end of parent.
func PositionAt(parent *Node, offset int) Position {
	assertThat(parent.IsContainer(), ErrNotElement, "cannot create position inside %s", parent.Kind())
	if offset == OffsetEnd {
		offset = parent.MaxOffset()
	}
	assertThat(offset >= 0 && offset <= parent.MaxOffset(), ErrOffsetOutOfRange,
		"offset %d not in [0,%d]", offset, parent.MaxOffset())
	return Position{root: parent.Root(), path: append(parent.Path(), offset)}
}

// PositionAtEnd creates a position at the end of parent.
func PositionAtEnd(parent *Node) Position { return PositionAt(parent, OffsetEnd) }

// PositionBefore creates a position just before item.
func PositionBefore(item Item) Position {
	parent := item.Parent()
	assertThat(parent != nil, ErrNotRoot, "cannot create position before a root")
	return Position{root: parent.Root(), path: append(parent.Path(), item.StartOffset())}
}

// PositionAfter creates a position just after item.
func PositionAfter(item Item) Position {
	parent := item.Parent()
	assertThat(parent != nil, ErrNotRoot, "cannot create position after a root")
	return Position{root: parent.Root(), path: append(parent.Path(), item.StartOffset()+item.OffsetSize())}
}

// IsZero reports whether p is the zero value.
func (p Position) IsZero() bool { return p.root == nil }

// Root returns the root of the position.
func (p Position) Root() *Node { return p.root }

// Path returns a copy of the offset path.
func (p Position) Path() []int { return append([]int(nil), p.path...) }

// Depth returns the length of the path.
func (p Position) Depth() int { return len(p.path) }

// Offset returns the offset in the immediate parent.
func (p Position) Offset() int { return p.path[len(p.path)-1] }

// WithOffset returns a copy of p with a different last path component.
func (p Position) WithOffset(offset int) Position {
	path := p.Path()
	path[len(path)-1] = offset
	return Position{root: p.root, path: path, Stickiness: p.Stickiness}
}

// WithStickiness returns a copy of p with a different stickiness.
func (p Position) WithStickiness(s Stickiness) Position {
	return Position{root: p.root, path: p.path, Stickiness: s}
}

// ParentPath returns the path without its last component.
func (p Position) ParentPath() []int { return append([]int(nil), p.path[:len(p.path)-1]...) }

// ResolveParent finds the element the position is in.
func (p Position) ResolveParent() (*Node, error) {
	parent := p.root
	for i := 0; i < len(p.path)-1; i++ {
		parent = parent.Child(parent.OffsetToIndex(p.path[i]))
		if parent == nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPath, p.path)
		}
	}
	if parent.IsText() {
		return nil, fmt.Errorf("%w: %v ends inside text", ErrInvalidPath, p.path)
	}
	return parent, nil
}

// IsValid reports whether the path resolves and the offset fits its parent.
func (p Position) IsValid() bool {
	parent, err := p.ResolveParent()
	return err == nil && p.Offset() >= 0 && p.Offset() <= parent.MaxOffset()
}

// Parent returns the element the position is in. It panics on a stale path.
func (p Position) Parent() *Node {
	parent, err := p.ResolveParent()
	if err != nil {
		tracer().Errorf("tree: %v", err)
		panic(err)
	}
	return parent
}

// Index returns the index of the child at or containing the offset.
func (p Position) Index() int { return p.Parent().OffsetToIndex(p.Offset()) }

// TextNode returns the text node the position splits, or nil.
func (p Position) TextNode() *Node {
	return textNodeAt(p, p.Parent())
}

func textNodeAt(p Position, parent *Node) *Node {
	node := parent.Child(parent.OffsetToIndex(p.Offset()))
	if node != nil && node.IsText() && node.StartOffset() < p.Offset() {
		return node
	}
	return nil
}

// NodeAfter returns the node directly after the position, or nil.
func (p Position) NodeAfter() *Node {
	parent := p.Parent()
	if textNodeAt(p, parent) != nil {
		return nil
	}
	return parent.Child(parent.OffsetToIndex(p.Offset()))
}

// NodeBefore returns the node directly before the position, or nil.
func (p Position) NodeBefore() *Node {
	parent := p.Parent()
	if textNodeAt(p, parent) != nil {
		return nil
	}
	return parent.Child(parent.OffsetToIndex(p.Offset()) - 1)
}

// IsAtStart reports whether the position is at offset 0.
func (p Position) IsAtStart() bool { return p.Offset() == 0 }

// IsAtEnd reports whether the position is at the end of its parent.
func (p Position) IsAtEnd() bool { return p.Offset() == p.Parent().MaxOffset() }

// Ancestors returns the parent chain of the position, outermost first.
func (p Position) Ancestors() []*Node {
	parent := p.Parent()
	if parent.IsFragment() {
		return []*Node{parent}
	}
	return parent.Ancestors(true)
}

// CommonAncestor returns the deepest element containing both positions.
func (p Position) CommonAncestor(other Position) *Node {
	if p.root != other.root {
		return nil
	}
	a, b := p.Ancestors(), other.Ancestors()
	var common *Node
	for i := 0; i < len(a) && i < len(b) && a[i] == b[i]; i++ {
		common = a[i]
	}
	return common
}

// CommonPath returns the shared prefix of both paths.
func (p Position) CommonPath(other Position) []int {
	if p.root != other.root {
		return nil
	}
	cmp := comparePaths(p.path, other.path)
	switch cmp {
	case pathSame:
		return p.Path()
	case pathPrefix:
		return p.Path()
	case pathExtension:
		return other.Path()
	default:
		return append([]int(nil), p.path[:cmp]...)
	}
}

// HasSameParentAs reports whether both positions share a parent path.
func (p Position) HasSameParentAs(other Position) bool {
	if p.root != other.root {
		return false
	}
	return comparePaths(p.path[:len(p.path)-1], other.path[:len(other.path)-1]) == pathSame
}

// CompareWith returns the document-order relation of p to other.
func (p Position) CompareWith(other Position) Relation {
	if p.root != other.root {
		return Different
	}
	switch cmp := comparePaths(p.path, other.path); cmp {
	case pathSame:
		return Same
	case pathPrefix:
		return Before
	case pathExtension:
		return After
	default:
		if p.path[cmp] < other.path[cmp] {
			return Before
		}
		return After
	}
}

// IsBefore reports whether p precedes other.
func (p Position) IsBefore(other Position) bool { return p.CompareWith(other) == Before }

// IsAfter reports whether p follows other.
func (p Position) IsAfter(other Position) bool { return p.CompareWith(other) == After }

// IsEqual reports whether both positions address the same place.
func (p Position) IsEqual(other Position) bool { return p.CompareWith(other) == Same }

// IsTouching reports whether no content separates p and other: only
// element boundaries may lie between them.
func (p Position) IsTouching(other Position) bool {
	var left, right Position
	switch p.CompareWith(other) {
	case Same:
		return true
	case Before:
		left, right = p, other
	case After:
		left, right = other, p
	default:
		return false
	}
	lpath, rpath := left.Path(), right.Path()
	leftParent, err := left.ResolveParent()
	if err != nil {
		return false
	}
	for len(lpath)+len(rpath) > 0 {
		if comparePaths(lpath, rpath) == pathSame {
			return true
		}
		if len(lpath) > len(rpath) {
			if leftParent == nil || lpath[len(lpath)-1] != leftParent.MaxOffset() {
				return false
			}
			lpath = lpath[:len(lpath)-1]
			leftParent = leftParent.parent
			if len(lpath) == 0 {
				return false
			}
			lpath[len(lpath)-1]++
		} else {
			if rpath[len(rpath)-1] != 0 {
				return false
			}
			rpath = rpath[:len(rpath)-1]
		}
	}
	return false
}

// GetShiftedBy moves the offset by shift, clamping at zero.
func (p Position) GetShiftedBy(shift int) Position {
	offset := p.Offset() + shift
	if offset < 0 {
		offset = 0
	}
	return p.WithOffset(offset)
}

// IsInsideGrapheme reports whether the position splits a user-perceived
// character, such as a base letter and its combining marks.
func (p Position) IsInsideGrapheme() bool {
	parent, err := p.ResolveParent()
	if err != nil {
		return false
	}
	textNode := textNodeAt(p, parent)
	if textNode == nil {
		return false
	}
	cut := p.Offset() - textNode.StartOffset()
	g := uniseg.NewGraphemes(textNode.Data())
	at := 0
	for g.Next() {
		n := len(g.Runes())
		if cut > at && cut < at+n {
			return true
		}
		at += n
		if at >= cut {
			break
		}
	}
	return false
}

// String renders the position as rootName:[path].
func (p Position) String() string {
	if p.root == nil {
		return "<nil position>"
	}
	name := p.root.rootName
	if name == "" {
		name = p.root.Kind().String()
	}
	return fmt.Sprintf("%s%v", name, p.path)
}

// path comparison results; non-negative values are the first differing index
const (
	pathSame      = -1
	pathPrefix    = -2
	pathExtension = -3
)

func comparePaths(a, b []int) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	switch {
	case len(a) == len(b):
		return pathSame
	case len(a) < len(b):
		return pathPrefix
	default:
		return pathExtension
	}
}
