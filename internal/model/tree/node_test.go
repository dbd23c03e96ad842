package tree

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRoot builds <$root><paragraph>ab</paragraph><paragraph>cd</paragraph></$root>.
func newTestRoot() (*Node, *Node, *Node) {
	root := NewRoot("$root", "main")
	p1 := NewElement("paragraph", nil, NewText("ab", nil))
	p2 := NewElement("paragraph", nil, NewText("cd", nil))
	root.AppendChildren(p1, p2)
	return root, p1, p2
}

type rootMap map[string]*Node

func (m rootMap) GetRoot(name string) *Node { return m[name] }

func TestNodeOffsets(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "treemodel.tree")
	defer teardown()

	bold := map[string]any{"bold": true}
	p := NewElement("paragraph", nil,
		NewText("foo", nil), NewElement("img", nil), NewText("bar", bold))

	assert.Equal(t, 7, p.MaxOffset())
	assert.Equal(t, 3, p.ChildCount())
	assert.Equal(t, 0, p.OffsetToIndex(2))
	assert.Equal(t, 1, p.OffsetToIndex(3))
	assert.Equal(t, 2, p.OffsetToIndex(4))
	assert.Equal(t, 3, p.OffsetToIndex(7))
	assert.Equal(t, 4, p.Child(2).StartOffset())
	assert.Equal(t, 7, p.Child(2).EndOffset())
	assert.Equal(t, 1, p.Child(1).OffsetSize())
	assert.Equal(t, -1, p.StartOffset())
}

func TestNodePathAndAncestors(t *testing.T) {
	root, _, p2 := newTestRoot()
	text := p2.Child(0)

	assert.Equal(t, []int{1, 0}, text.Path())
	assert.Equal(t, []*Node{root, p2}, text.Ancestors(false))
	assert.Equal(t, root, text.Root())
	assert.True(t, text.IsAttached())
	assert.Equal(t, root, p2.CommonAncestor(root.Child(0), false))
	assert.True(t, root.Child(0).IsBefore(p2))
	assert.True(t, text.IsAfter(root.Child(0)))
}

func TestNodeKinds(t *testing.T) {
	tests := []struct {
		node      *Node
		kind      Kind
		element   bool
		container bool
		name      string
	}{
		{NewElement("p", nil), KindElement, true, true, "p"},
		{NewText("x", nil), KindText, false, false, TextName},
		{NewFragment(), KindFragment, false, true, ""},
		{NewRoot("$root", "main"), KindRoot, true, true, "$root"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.node.Kind())
			assert.Equal(t, tt.element, tt.node.IsElement())
			assert.Equal(t, tt.container, tt.node.IsContainer())
			assert.Equal(t, tt.name, tt.node.Name())
		})
	}
}

func TestInsertChildrenReparents(t *testing.T) {
	root, p1, p2 := newTestRoot()
	text := p1.Child(0)
	p2.InsertChildren(0, text)

	assert.Nil(t, p1.Child(0))
	assert.Equal(t, p2, text.Parent())
	assert.Equal(t, 2, p2.ChildCount())
	assert.Equal(t, "<$root><paragraph></paragraph><paragraph>abcd</paragraph></$root>", root.String())
}

func TestInsertChildrenWithinSameParent(t *testing.T) {
	tests := []struct {
		name  string
		from  int
		index int
		want  string
	}{
		{"first to end", 0, 3, "<$root><b></b><c></c><a></a></$root>"},
		{"first to middle", 0, 2, "<$root><b></b><a></a><c></c></$root>"},
		{"last to start", 2, 0, "<$root><c></c><a></a><b></b></$root>"},
		{"onto itself", 1, 1, "<$root><a></a><b></b><c></c></$root>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := NewRoot("$root", "main")
			root.AppendChildren(NewElement("a", nil), NewElement("b", nil), NewElement("c", nil))
			moved := root.Child(tt.from)

			require.NotPanics(t, func() { root.InsertChildren(tt.index, moved) })
			assert.Equal(t, tt.want, root.String())
			assert.Equal(t, 3, root.ChildCount())
			assert.Equal(t, root, moved.Parent())
		})
	}
}

func TestRemoveChildrenClearsParent(t *testing.T) {
	_, p1, _ := newTestRoot()
	removed := p1.RemoveChildren(0, 1)
	require.Len(t, removed, 1)
	assert.Nil(t, removed[0].Parent())
	assert.False(t, removed[0].IsAttached())
}

func TestNormalizeNodes(t *testing.T) {
	bold := map[string]any{"bold": true}
	out := NormalizeNodes(NewText("a", nil), NewText("", nil), NewText("b", nil), NewText("c", bold), NewElement("img", nil))
	require.Len(t, out, 3)
	assert.Equal(t, "ab", out[0].Data())
	assert.Equal(t, "c", out[1].Data())
	assert.Equal(t, "img", out[2].Name())
}

func TestCloneIsDetached(t *testing.T) {
	_, p1, _ := newTestRoot()
	p1.SetAttribute("align", "left")
	c := p1.Clone(true)
	assert.Nil(t, c.Parent())
	assert.Equal(t, p1.String(), c.String())
	c.SetAttribute("align", "right")
	assert.Equal(t, "left", p1.Attribute("align"))

	shallow := p1.Clone(false)
	assert.True(t, shallow.IsEmpty())
}

func TestAttributes(t *testing.T) {
	n := NewElement("p", map[string]any{"a": 1})
	n.SetAttribute("b", "x")
	n.SetAttribute("a", nil)
	assert.False(t, n.HasAttribute("a"))
	assert.Equal(t, []string{"b"}, n.AttributeKeys())
	assert.True(t, AttributesEqual(map[string]any{"b": "x"}, n.Attributes()))
	assert.False(t, n.RemoveAttribute("missing"))
}
