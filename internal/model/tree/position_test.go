package tree

import (
	"testing"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionCompare(t *testing.T) {
	root, _, _ := newTestRoot()
	other := NewRoot("$root", "other")
	pos := func(path ...int) Position { return NewPosition(root, path, StickToNone) }

	tests := []struct {
		name string
		a, b Position
		want Relation
	}{
		{"same", pos(0, 1), pos(0, 1), Same},
		{"prefix", pos(0, 1), pos(0, 1, 2), Before},
		{"extension", pos(1, 0, 0), pos(1, 0), After},
		{"sibling", pos(1), pos(0, 5), After},
		{"nested", pos(0, 2), pos(1, 0), Before},
		{"roots", pos(0), NewPosition(other, []int{0}, StickToNone), Different},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.CompareWith(tt.b))
		})
	}
}

func TestPositionResolution(t *testing.T) {
	root, p1, _ := newTestRoot()
	pos := PositionAt(p1, 1)

	assert.Equal(t, []int{0, 1}, pos.Path())
	assert.Equal(t, p1, pos.Parent())
	assert.Equal(t, p1.Child(0), pos.TextNode())
	assert.Nil(t, pos.NodeAfter())
	assert.Nil(t, pos.NodeBefore())

	before := PositionBefore(p1)
	assert.Equal(t, p1, before.NodeAfter())
	assert.Equal(t, root, before.Parent())
	assert.True(t, PositionAtEnd(p1).IsAtEnd())
	assert.True(t, PositionAt(p1, 0).IsAtStart())
}

func TestPositionStalePathsAreTolerated(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "treemodel.tree")
	defer teardown()
	tracer().SetTraceLevel(tracing.LevelError)

	root, _, _ := newTestRoot()
	stale := NewPosition(root, []int{5, 3}, StickToNone)
	anchor := NewPosition(root, []int{0}, StickToNone)

	assert.NotPanics(t, func() {
		stale.TransformedByInsertion(anchor, 2)
		stale.TransformedByDeletion(anchor, 1)
		stale.TransformedByMove(anchor, NewPosition(root, []int{2}, StickToNone), 1)
		stale.IsTouching(anchor)
		stale.IsInsideGrapheme()
	})
	_, err := stale.ResolveParent()
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.False(t, stale.IsValid())
	assert.Panics(t, func() { stale.Parent() })
}

func TestPositionTransformedByInsertion(t *testing.T) {
	root, _, _ := newTestRoot()
	at := func(st Stickiness, path ...int) Position { return NewPosition(root, path, st) }

	tests := []struct {
		name   string
		pos    Position
		insert Position
		want   []int
	}{
		{"before in parent", at(StickToNone, 0, 2), at(StickToNone, 0, 1), []int{0, 5}},
		{"after in parent", at(StickToNone, 0, 1), at(StickToNone, 0, 2), []int{0, 1}},
		{"tie moves", at(StickToNone, 0, 2), at(StickToNone, 0, 2), []int{0, 5}},
		{"tie toNext moves", at(StickToNext, 0, 2), at(StickToNone, 0, 2), []int{0, 5}},
		{"tie toPrevious stays", at(StickToPrevious, 0, 2), at(StickToNone, 0, 2), []int{0, 2}},
		{"ancestor shift", at(StickToNone, 0, 2), at(StickToNone, 0), []int{3, 2}},
		{"other branch", at(StickToNone, 0, 2), at(StickToNone, 1, 0), []int{0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.pos.TransformedByInsertion(tt.insert, 3)
			assert.Equal(t, tt.want, got.Path())
			assert.Equal(t, tt.pos.Stickiness, got.Stickiness)
		})
	}
}

func TestPositionAfterSplitElementShifts(t *testing.T) {
	root, _, _ := newTestRoot()
	split := NewPosition(root, []int{0, 1}, StickToNext)
	insertion := SplitInsertionPosition(split)
	moveTarget := NewPosition(root, []int{1, 0}, StickToNone)

	tests := []struct {
		name string
		pos  Position
		want []int
	}{
		{"toNone at insertion", NewPosition(root, []int{1}, StickToNone), []int{2}},
		{"toNext at insertion", NewPosition(root, []int{1}, StickToNext), []int{2}},
		{"toPrevious at insertion", NewPosition(root, []int{1}, StickToPrevious), []int{1}},
		{"inside next element", NewPosition(root, []int{1, 1}, StickToNone), []int{2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.pos.TransformedBySplit(split, insertion, moveTarget, nil)
			assert.Equal(t, tt.want, got.Path())
		})
	}
}

func TestPositionTransformedByDeletion(t *testing.T) {
	root, _, _ := newTestRoot()
	at := func(path ...int) Position { return NewPosition(root, path, StickToNone) }

	got := at(0, 2).TransformedByDeletion(at(0, 0), 1)
	require.NotNil(t, got)
	assert.Equal(t, []int{0, 1}, got.Path())

	assert.Nil(t, at(0, 2).TransformedByDeletion(at(0, 1), 2))
	assert.Nil(t, at(0, 1).TransformedByDeletion(at(0), 1))

	got = at(0, 1).TransformedByDeletion(at(0, 1), 1)
	require.NotNil(t, got)
	assert.Equal(t, []int{0, 1}, got.Path())

	got = at(1, 1).TransformedByDeletion(at(0), 1)
	require.NotNil(t, got)
	assert.Equal(t, []int{0, 1}, got.Path())
}

func TestPositionTransformedByMove(t *testing.T) {
	root, _, _ := newTestRoot()
	at := func(path ...int) Position { return NewPosition(root, path, StickToNone) }

	// moving the second paragraph before the first carries positions inside it
	got := at(1, 1).TransformedByMove(at(1), at(0), 1)
	assert.Equal(t, []int{0, 1}, got.Path())

	// the first paragraph is shifted behind the moved one
	got = at(0, 2).TransformedByMove(at(1), at(0), 1)
	assert.Equal(t, []int{1, 2}, got.Path())

	// a no-op move leaves positions alone
	got = at(0, 1).TransformedByMove(at(1), at(2), 1)
	assert.Equal(t, []int{0, 1}, got.Path())

	// a position at the move source follows the content only when it sticks to it
	next := NewPosition(root, []int{0, 0}, StickToNext)
	got = next.TransformedByMove(at(0, 0), at(1, 0), 1)
	assert.Equal(t, []int{1, 0}, got.Path())
	got = at(0, 0).TransformedByMove(at(0, 0), at(1, 0), 1)
	assert.Equal(t, []int{0, 0}, got.Path())
}

func TestPositionIsTouching(t *testing.T) {
	root, _, _ := newTestRoot()
	at := func(path ...int) Position { return NewPosition(root, path, StickToNone) }

	assert.True(t, at(0, 2).IsTouching(at(1, 0)))
	assert.True(t, at(1, 0).IsTouching(at(0, 2)))
	assert.True(t, at(0, 2).IsTouching(at(1)))
	assert.False(t, at(0, 1).IsTouching(at(1, 0)))
	assert.False(t, at(0, 2).IsTouching(at(1, 1)))
}

func TestPositionGetShiftedBy(t *testing.T) {
	root, _, _ := newTestRoot()
	p := NewPosition(root, []int{0, 1}, StickToNext)
	assert.Equal(t, []int{0, 2}, p.GetShiftedBy(1).Path())
	assert.Equal(t, []int{0, 0}, p.GetShiftedBy(-5).Path())
	assert.Equal(t, StickToNext, p.GetShiftedBy(1).Stickiness)
	assert.Equal(t, []int{0, 1}, p.Path())
}

func TestPositionCommonAncestor(t *testing.T) {
	root, p1, _ := newTestRoot()
	a := PositionAt(p1, 0)
	b := PositionAt(p1, 2)
	assert.Equal(t, p1, a.CommonAncestor(b))
	assert.Equal(t, root, a.CommonAncestor(NewPosition(root, []int{1, 1}, StickToNone)))
	assert.Equal(t, []int{0}, a.CommonPath(b))
}

func TestPositionIsInsideGrapheme(t *testing.T) {
	root := NewRoot("$root", "main")
	p := NewElement("paragraph", nil, NewText("e\u0301x", nil))
	root.AppendChildren(p)

	assert.True(t, PositionAt(p, 1).IsInsideGrapheme())
	assert.False(t, PositionAt(p, 2).IsInsideGrapheme())
	assert.False(t, PositionAt(p, 0).IsInsideGrapheme())
}

func TestNewPositionRebasesOnRoot(t *testing.T) {
	root, _, p2 := newTestRoot()
	pos := NewPosition(p2, []int{1}, StickToNone)
	assert.Equal(t, root, pos.Root())
	assert.Equal(t, []int{1, 1}, pos.Path())
	assert.Panics(t, func() { NewPosition(root, nil, StickToNone) })
}
