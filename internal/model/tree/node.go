package tree

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Kind tags the variant of a Node.
type Kind uint8

const (
	// KindElement is a named node owning children.
	KindElement Kind = iota

	// KindText is a run of characters sharing one attribute set.
	KindText

	// KindFragment is a parentless container for detached content.
	KindFragment

	// KindRoot is an element owned by a document.
	KindRoot
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindFragment:
		return "fragment"
	case KindRoot:
		return "root"
	default:
		return "unknown"
	}
}

// TextName is the name reported for text content in snapshots and diffs.
const TextName = "$text"

// GraveyardName is the root name of the document's graveyard.
const GraveyardName = "$graveyard"

// Owner is implemented by the document holding a root element.
type Owner interface {
	// Graveyard returns the root which receives removed content.
	Graveyard() *Node
}

// Item is a piece of the tree reported by a walker: a *Node or a *TextProxy.
type Item interface {
	Parent() *Node
	Root() *Node
	StartOffset() int
	OffsetSize() int
	Attribute(key string) any
	HasAttribute(key string) bool
	Attributes() map[string]any
	IsText() bool
}

// Node is a tagged tree node. Element-like kinds own children, text nodes
// own their data. The parent link is a non-owning back reference.
type Node struct {
	kind     Kind
	name     string
	text     []rune
	attrs    map[string]any
	parent   *Node
	children []*Node

	// root state
	rootName string
	attached bool
	owner    Owner
}

// NewElement creates a detached element with the given attributes and children.
func NewElement(name string, attrs map[string]any, children ...*Node) *Node {
	n := &Node{kind: KindElement, name: name, attrs: copyAttrs(attrs)}
	n.InsertChildren(0, children...)
	return n
}

// NewText creates a detached text node.
func NewText(data string, attrs map[string]any) *Node {
	return &Node{kind: KindText, text: []rune(data), attrs: copyAttrs(attrs)}
}

// NewFragment creates a document fragment holding the given nodes.
func NewFragment(children ...*Node) *Node {
	n := &Node{kind: KindFragment}
	n.InsertChildren(0, children...)
	return n
}

// NewRoot creates a root element named elementName, addressed as rootName.
// Roots start attached.
func NewRoot(elementName, rootName string) *Node {
	return &Node{kind: KindRoot, name: elementName, rootName: rootName, attached: true}
}

// Kind returns the node variant.
func (n *Node) Kind() Kind { return n.kind }

// Name returns the element name, or TextName for text and "" for fragments.
func (n *Node) Name() string {
	if n.kind == KindText {
		return TextName
	}
	return n.name
}

// SetName renames an element.
func (n *Node) SetName(name string) {
	assertThat(n.IsElement(), ErrNotElement, "cannot rename %s", n.kind)
	n.name = name
}

// Data returns the characters of a text node.
func (n *Node) Data() string { return string(n.text) }

// IsElement reports whether n is an element or a root element.
func (n *Node) IsElement() bool { return n.kind == KindElement || n.kind == KindRoot }

// IsText reports whether n is a text node.
func (n *Node) IsText() bool { return n.kind == KindText }

// IsFragment reports whether n is a document fragment.
func (n *Node) IsFragment() bool { return n.kind == KindFragment }

// IsRoot reports whether n is a root element.
func (n *Node) IsRoot() bool { return n.kind == KindRoot }

// IsContainer reports whether n can own children.
func (n *Node) IsContainer() bool { return n.kind != KindText }

// RootName returns the name under which a root is registered.
func (n *Node) RootName() string { return n.rootName }

// Owner returns the document owning the root of n, or nil for detached trees.
func (n *Node) Owner() Owner {
	r := n.Root()
	if r.kind != KindRoot {
		return nil
	}
	return r.owner
}

// SetOwner binds a root to its document.
func (n *Node) SetOwner(o Owner) {
	assertThat(n.kind == KindRoot, ErrNotRoot, "owner set on %s", n.kind)
	n.owner = o
}

// IsAttached reports whether a root is attached, or whether a node is
// inside an attached root.
func (n *Node) IsAttached() bool {
	if n.kind == KindRoot {
		return n.attached
	}
	if n.parent == nil {
		return false
	}
	return n.Root().IsAttached()
}

// SetAttached changes the attach state of a root.
func (n *Node) SetAttached(attached bool) {
	assertThat(n.kind == KindRoot, ErrNotRoot, "attach state set on %s", n.kind)
	n.attached = attached
}

// Parent returns the node's parent or nil.
func (n *Node) Parent() *Node { return n.parent }

// Root returns the topmost ancestor, which is n itself when detached.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// OffsetSize is 1 for elements and the rune count for text.
func (n *Node) OffsetSize() int {
	if n.kind == KindText {
		return len(n.text)
	}
	return 1
}

// Index returns the position of n among its siblings, or -1.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	return n.parent.childIndex(n)
}

// StartOffset returns the offset of n in its parent, or -1.
func (n *Node) StartOffset() int {
	if n.parent == nil {
		return -1
	}
	off := 0
	for _, c := range n.parent.children {
		if c == n {
			return off
		}
		off += c.OffsetSize()
	}
	return -1
}

// EndOffset returns StartOffset plus OffsetSize, or -1.
func (n *Node) EndOffset() int {
	if n.parent == nil {
		return -1
	}
	return n.StartOffset() + n.OffsetSize()
}

// NextSibling returns the following sibling or nil.
func (n *Node) NextSibling() *Node {
	i := n.Index()
	if i < 0 {
		return nil
	}
	return n.parent.Child(i + 1)
}

// PreviousSibling returns the preceding sibling or nil.
func (n *Node) PreviousSibling() *Node {
	i := n.Index()
	if i < 0 {
		return nil
	}
	return n.parent.Child(i - 1)
}

// Path returns the offset path from the root to n.
func (n *Node) Path() []int {
	var path []int
	for c := n; c.parent != nil; c = c.parent {
		path = append(path, c.StartOffset())
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Ancestors returns the ancestors of n, outermost first.
func (n *Node) Ancestors(includeSelf bool) []*Node {
	var anc []*Node
	c := n.parent
	if includeSelf {
		c = n
	}
	for ; c != nil; c = c.parent {
		anc = append(anc, c)
	}
	for i, j := 0, len(anc)-1; i < j; i, j = i+1, j-1 {
		anc[i], anc[j] = anc[j], anc[i]
	}
	return anc
}

// CommonAncestor returns the deepest node which is an ancestor of both.
func (n *Node) CommonAncestor(other *Node, includeSelf bool) *Node {
	a, b := n.Ancestors(includeSelf), other.Ancestors(includeSelf)
	var common *Node
	for i := 0; i < len(a) && i < len(b) && a[i] == b[i]; i++ {
		common = a[i]
	}
	return common
}

// IsBefore reports whether n precedes other in document order.
func (n *Node) IsBefore(other *Node) bool {
	if n == other || n.Root() != other.Root() {
		return false
	}
	pa, pb := n.Path(), other.Path()
	switch cmp := comparePaths(pa, pb); cmp {
	case pathSame, pathExtension:
		return false
	case pathPrefix:
		return true
	default:
		return pa[cmp] < pb[cmp]
	}
}

// IsAfter reports whether n follows other in document order.
func (n *Node) IsAfter(other *Node) bool {
	if n == other || n.Root() != other.Root() {
		return false
	}
	return !n.IsBefore(other)
}

// ========================================================================
// Children
// ========================================================================

// ChildCount returns the number of children.
func (n *Node) ChildCount() int { return len(n.children) }

// IsEmpty reports whether a container has no children.
func (n *Node) IsEmpty() bool { return len(n.children) == 0 }

// Child returns the child at index or nil.
func (n *Node) Child(index int) *Node {
	if index < 0 || index >= len(n.children) {
		return nil
	}
	return n.children[index]
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// MaxOffset returns the sum of the children's offset sizes.
func (n *Node) MaxOffset() int {
	size := 0
	for _, c := range n.children {
		size += c.OffsetSize()
	}
	return size
}

// OffsetToIndex returns the index of the child occupying offset, or the
// child count if offset is at or past the end.
func (n *Node) OffsetToIndex(offset int) int {
	total := 0
	for i, c := range n.children {
		if offset >= total && offset < total+c.OffsetSize() {
			return i
		}
		total += c.OffsetSize()
	}
	return len(n.children)
}

// IndexOffset returns the offset at which the child with index starts.
func (n *Node) IndexOffset(index int) int {
	off := 0
	for i := 0; i < index && i < len(n.children); i++ {
		off += n.children[i].OffsetSize()
	}
	return off
}

// NodeAtPath descends from n following an offset path.
func (n *Node) NodeAtPath(path []int) *Node {
	c := n
	for _, off := range path {
		if c == nil || !c.IsContainer() {
			return nil
		}
		c = c.Child(c.OffsetToIndex(off))
	}
	return c
}

// InsertChildren inserts nodes at index. Nodes which already have a
// parent are removed from it first. For nodes taken from n itself, index
// counts the children before they were removed.
func (n *Node) InsertChildren(index int, nodes ...*Node) {
	assertThat(n.IsContainer(), ErrNotElement, "cannot insert into %s", n.kind)
	assertThat(index >= 0 && index <= len(n.children), ErrOffsetOutOfRange,
		"index %d not in [0,%d]", index, len(n.children))
	for _, c := range nodes {
		if c.parent == n && c.Index() < index {
			index--
		}
		if c.parent != nil {
			c.Remove()
		}
		c.parent = n
	}
	n.children = append(n.children[:index], append(append([]*Node(nil), nodes...), n.children[index:]...)...)
}

// AppendChildren adds nodes at the end.
func (n *Node) AppendChildren(nodes ...*Node) {
	n.InsertChildren(len(n.children), nodes...)
}

// RemoveChildren detaches count children starting at index.
func (n *Node) RemoveChildren(index, count int) []*Node {
	assertThat(index >= 0 && count >= 0 && index+count <= len(n.children), ErrOffsetOutOfRange,
		"cannot remove %d children at %d of %d", count, index, len(n.children))
	removed := make([]*Node, count)
	copy(removed, n.children[index:index+count])
	for _, c := range removed {
		c.parent = nil
	}
	n.children = append(n.children[:index], n.children[index+count:]...)
	return removed
}

// Remove detaches n from its parent.
func (n *Node) Remove() {
	if n.parent == nil {
		return
	}
	n.parent.RemoveChildren(n.Index(), 1)
}

func (n *Node) childIndex(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// ========================================================================
// Attributes
// ========================================================================

// Attribute returns the attribute value for key or nil.
func (n *Node) Attribute(key string) any { return n.attrs[key] }

// HasAttribute reports whether key is set.
func (n *Node) HasAttribute(key string) bool {
	_, ok := n.attrs[key]
	return ok
}

// Attributes returns a copy of the attribute map.
func (n *Node) Attributes() map[string]any { return copyAttrs(n.attrs) }

// AttributeKeys returns the attribute keys in sorted order.
func (n *Node) AttributeKeys() []string { return sortedKeys(n.attrs) }

// SetAttribute sets key to value. A nil value removes the attribute.
func (n *Node) SetAttribute(key string, value any) {
	if value == nil {
		n.RemoveAttribute(key)
		return
	}
	if n.attrs == nil {
		n.attrs = make(map[string]any)
	}
	n.attrs[key] = value
}

// RemoveAttribute deletes key, reporting whether it was set.
func (n *Node) RemoveAttribute(key string) bool {
	if _, ok := n.attrs[key]; !ok {
		return false
	}
	delete(n.attrs, key)
	return true
}

// ClearAttributes removes every attribute.
func (n *Node) ClearAttributes() { n.attrs = nil }

// SameAttributes reports whether n and other carry equal attribute sets.
func (n *Node) SameAttributes(other Item) bool {
	return AttributesEqual(n.attrs, other.Attributes())
}

// Clone copies n. Deep clones copy the subtree as well.
func (n *Node) Clone(deep bool) *Node {
	c := &Node{
		kind:     n.kind,
		name:     n.name,
		text:     append([]rune(nil), n.text...),
		attrs:    copyAttrs(n.attrs),
		rootName: n.rootName,
		attached: n.attached,
	}
	if deep {
		for _, child := range n.children {
			cc := child.Clone(true)
			cc.parent = c
			c.children = append(c.children, cc)
		}
	}
	return c
}

// String renders the subtree in a compact tag notation.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	if n.kind == KindText {
		b.WriteString(string(n.text))
		return
	}
	if n.kind != KindFragment {
		b.WriteString("<" + n.name)
		for _, k := range n.AttributeKeys() {
			fmt.Fprintf(b, " %s=%v", k, n.attrs[k])
		}
		b.WriteString(">")
	}
	for _, c := range n.children {
		c.write(b)
	}
	if n.kind != KindFragment {
		b.WriteString("</" + n.name + ">")
	}
}

// AttributesEqual compares two attribute maps by value.
func AttributesEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !ValuesEqual(va, vb) {
			return false
		}
	}
	return true
}

// ValuesEqual compares two attribute values; nil means "not set".
func ValuesEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

func copyAttrs(attrs map[string]any) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
