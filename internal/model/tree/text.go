package tree

// TextProxy is a view on a part of a text node. Walkers return proxies
// because a text node may be only partially inside the walked range.
type TextProxy struct {
	node   *Node
	offset int
	size   int
}

// NewTextProxy creates a view of size runes of node starting at offsetInText.
func NewTextProxy(node *Node, offsetInText, size int) *TextProxy {
	assertThat(node.IsText(), ErrNotElement, "text proxy on %s", node.Kind())
	assertThat(offsetInText >= 0 && size >= 0 && offsetInText+size <= node.OffsetSize(),
		ErrOffsetOutOfRange, "proxy [%d,+%d] outside text of size %d", offsetInText, size, node.OffsetSize())
	return &TextProxy{node: node, offset: offsetInText, size: size}
}

// TextNode returns the underlying text node.
func (t *TextProxy) TextNode() *Node { return t.node }

// OffsetInText returns the start of the view inside the text node.
func (t *TextProxy) OffsetInText() int { return t.offset }

// Data returns the characters covered by the view.
func (t *TextProxy) Data() string { return string(t.node.text[t.offset : t.offset+t.size]) }

// IsPartial reports whether the view does not cover the whole text node.
func (t *TextProxy) IsPartial() bool { return t.size != t.node.OffsetSize() }

// Parent returns the text node's parent.
func (t *TextProxy) Parent() *Node { return t.node.parent }

// Root returns the text node's root.
func (t *TextProxy) Root() *Node { return t.node.Root() }

// StartOffset returns the offset of the first proxied character in the parent.
func (t *TextProxy) StartOffset() int {
	start := t.node.StartOffset()
	if start < 0 {
		return -1
	}
	return start + t.offset
}

// OffsetSize returns the number of proxied characters.
func (t *TextProxy) OffsetSize() int { return t.size }

// Attribute returns the text node's attribute for key.
func (t *TextProxy) Attribute(key string) any { return t.node.Attribute(key) }

// HasAttribute reports whether the text node carries key.
func (t *TextProxy) HasAttribute(key string) bool { return t.node.HasAttribute(key) }

// Attributes returns a copy of the text node's attributes.
func (t *TextProxy) Attributes() map[string]any { return t.node.Attributes() }

// IsText is always true.
func (t *TextProxy) IsText() bool { return true }

// String returns the proxied characters.
func (t *TextProxy) String() string { return t.Data() }

// NodeOf returns the node behind an item: the node itself or the text node
// of a proxy.
func NodeOf(item Item) *Node {
	switch v := item.(type) {
	case *Node:
		return v
	case *TextProxy:
		return v.node
	}
	return nil
}

// NormalizeNodes prepares nodes for insertion: text proxies become text
// nodes, empty text is dropped and adjacent text with equal attributes is
// joined.
func NormalizeNodes(items ...Item) []*Node {
	var out []*Node
	for _, it := range items {
		var n *Node
		switch v := it.(type) {
		case *Node:
			n = v
		case *TextProxy:
			n = NewText(v.Data(), v.Attributes())
		}
		if n == nil || (n.IsText() && len(n.text) == 0) {
			continue
		}
		if k := len(out) - 1; k >= 0 && n.IsText() && out[k].IsText() && out[k].SameAttributes(n) {
			out[k] = NewText(out[k].Data()+n.Data(), out[k].attrs)
			continue
		}
		out = append(out, n)
	}
	return out
}

// splitTextAt splits the text node containing pos so that pos falls
// between two nodes.
func splitTextAt(pos Position) {
	textNode := pos.TextNode()
	if textNode == nil {
		return
	}
	parent := textNode.parent
	cut := pos.Offset() - textNode.StartOffset()
	index := textNode.Index()
	parent.RemoveChildren(index, 1)
	first := NewText(string(textNode.text[:cut]), textNode.attrs)
	second := NewText(string(textNode.text[cut:]), textNode.attrs)
	parent.InsertChildren(index, first, second)
}

// mergeTextAt joins the text nodes at index-1 and index when their
// attributes match.
func mergeTextAt(parent *Node, index int) {
	before, after := parent.Child(index-1), parent.Child(index)
	if before == nil || after == nil || !before.IsText() || !after.IsText() || !before.SameAttributes(after) {
		return
	}
	merged := NewText(before.Data()+after.Data(), before.attrs)
	parent.RemoveChildren(index-1, 2)
	parent.InsertChildren(index-1, merged)
}
