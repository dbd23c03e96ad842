package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rng(root *Node, start, end []int) Range {
	return NewRange(NewPosition(root, start, StickToNone), NewPosition(root, end, StickToNone))
}

func TestNewRangeNormalizesOrder(t *testing.T) {
	root, _, _ := newTestRoot()
	r := rng(root, []int{1, 1}, []int{0, 1})
	assert.Equal(t, []int{0, 1}, r.Start.Path())
	assert.Equal(t, []int{1, 1}, r.End.Path())
	assert.False(t, r.IsFlat())
	assert.True(t, rng(root, []int{0, 0}, []int{0, 2}).IsFlat())
}

func TestRangeContainment(t *testing.T) {
	root, p1, _ := newTestRoot()
	r := rng(root, []int{0, 0}, []int{0, 2})

	assert.True(t, r.ContainsPosition(PositionAt(p1, 1)))
	assert.False(t, r.ContainsPosition(PositionAt(p1, 0)))

	inner := rng(root, []int{0, 0}, []int{0, 1})
	assert.False(t, r.ContainsRange(inner, false))
	assert.True(t, r.ContainsRange(inner, true))
	assert.False(t, r.ContainsRange(CollapsedRange(r.Start), true))
	assert.True(t, RangeIn(root).ContainsItem(p1))
}

func TestRangeDifferenceAndIntersection(t *testing.T) {
	root, _, _ := newTestRoot()
	r := rng(root, []int{0, 0}, []int{0, 2})

	diff := r.GetDifference(rng(root, []int{0, 1}, []int{0, 2}))
	require.Len(t, diff, 1)
	assert.Equal(t, "[main[0 0], main[0 1]]", diff[0].String())

	diff = rng(root, []int{0}, []int{2}).GetDifference(rng(root, []int{0, 1}, []int{1, 1}))
	require.Len(t, diff, 2)
	assert.Equal(t, []int{0}, diff[0].Start.Path())
	assert.Equal(t, []int{0, 1}, diff[0].End.Path())
	assert.Equal(t, []int{1, 1}, diff[1].Start.Path())

	assert.Nil(t, r.GetIntersection(rng(root, []int{1, 0}, []int{1, 1})))
	common := r.GetIntersection(rng(root, []int{0, 1}, []int{1, 1}))
	require.NotNil(t, common)
	assert.Equal(t, []int{0, 1}, common.Start.Path())
	assert.Equal(t, []int{0, 2}, common.End.Path())
}

func TestRangeGetJoined(t *testing.T) {
	root, _, _ := newTestRoot()
	a := rng(root, []int{0, 0}, []int{0, 2})
	b := rng(root, []int{1, 0}, []int{1, 2})

	assert.Nil(t, a.GetJoined(b, false))
	joined := a.GetJoined(b, true)
	require.NotNil(t, joined)
	assert.Equal(t, []int{0, 0}, joined.Start.Path())
	assert.Equal(t, []int{1, 2}, joined.End.Path())

	strict := a.GetJoined(rng(root, []int{0, 2}, []int{1}), false)
	require.NotNil(t, strict)
	assert.Equal(t, []int{1}, strict.End.Path())
}

func TestGetMinimalFlatRanges(t *testing.T) {
	root, _, _ := newTestRoot()
	root.AppendChildren(NewElement("paragraph", nil, NewText("x", nil)))

	flat := rng(root, []int{0, 1}, []int{1, 1}).GetMinimalFlatRanges()
	require.Len(t, flat, 2)
	assert.Equal(t, "[main[0 1], main[0 2]]", flat[0].String())
	assert.Equal(t, "[main[1 0], main[1 1]]", flat[1].String())

	flat = rng(root, []int{0, 1}, []int{2}).GetMinimalFlatRanges()
	require.Len(t, flat, 2)
	assert.Equal(t, "[main[1], main[2]]", flat[1].String())

	for _, f := range flat {
		assert.True(t, f.IsFlat())
	}
}

// fullyContained drops items the range covers only partially.
func fullyContained(r Range, items []Item) []string {
	var out []string
	for _, it := range items {
		if n, ok := it.(*Node); ok && !r.ContainsRange(RangeOn(n), true) {
			continue
		}
		out = append(out, itemLabel(it))
	}
	return out
}

func itemLabel(it Item) string {
	if tp, ok := it.(*TextProxy); ok {
		return "text:" + tp.Data()
	}
	return "element:" + it.(*Node).Name()
}

func TestMinimalFlatRangesCoverWalkerItems(t *testing.T) {
	root := NewRoot("$root", "main")
	root.AppendChildren(
		NewElement("paragraph", nil, NewText("ab", nil)),
		NewElement("blockQuote", nil,
			NewElement("paragraph", nil, NewText("cd", nil)),
			NewElement("paragraph", nil, NewText("ef", nil))),
		NewElement("paragraph", nil, NewText("gh", nil)),
	)
	ranges := []Range{
		rng(root, []int{0, 1}, []int{2, 1}),
		rng(root, []int{1, 0, 1}, []int{1, 1, 1}),
		rng(root, []int{0}, []int{3}),
		rng(root, []int{0, 1}, []int{1, 1, 2}),
		rng(root, []int{1, 1, 0}, []int{2, 2}),
	}
	for _, r := range ranges {
		t.Run(r.String(), func(t *testing.T) {
			var flattened []Item
			for _, f := range r.GetMinimalFlatRanges() {
				flattened = append(flattened, f.Items(WalkerOptions{})...)
			}
			want := fullyContained(r, r.Items(WalkerOptions{}))
			got := fullyContained(r, flattened)
			assert.Equal(t, want, got)
		})
	}
}

func TestRangeTransformedByInsertionSpread(t *testing.T) {
	root, _, _ := newTestRoot()
	r := rng(root, []int{0, 0}, []int{0, 2})
	ins := NewPosition(root, []int{0, 1}, StickToNone)

	out := r.TransformedByInsertion(ins, 3, true)
	require.Len(t, out, 2)
	assert.Equal(t, "[main[0 0], main[0 1]]", out[0].String())
	assert.Equal(t, "[main[0 4], main[0 5]]", out[1].String())

	out = r.TransformedByInsertion(ins, 3, false)
	require.Len(t, out, 1)
	assert.Equal(t, "[main[0 0], main[0 5]]", out[0].String())
}

func TestRangeTransformedByMove(t *testing.T) {
	root, _, _ := newTestRoot()
	r := rng(root, []int{0, 0}, []int{0, 2})

	out := r.TransformedByMove(NewPosition(root, []int{0, 1}, StickToNone), NewPosition(root, []int{1, 0}, StickToNone), 1, false)
	require.Len(t, out, 2)
	assert.Equal(t, "[main[0 0], main[0 1]]", out[0].String())
	assert.Equal(t, "[main[1 0], main[1 1]]", out[1].String())

	// moving content before the range shifts it
	out = rng(root, []int{1, 0}, []int{1, 2}).TransformedByMove(
		NewPosition(root, []int{0}, StickToNone), NewPosition(root, []int{2}, StickToNone), 1, false)
	require.Len(t, out, 1)
	assert.Equal(t, "[main[0 0], main[0 2]]", out[0].String())
}

func TestRangeTransformedByDeletion(t *testing.T) {
	root, _, _ := newTestRoot()
	r := rng(root, []int{0, 1}, []int{0, 2})
	assert.Nil(t, r.TransformedByDeletion(NewPosition(root, []int{0}, StickToNone), 1))

	got := rng(root, []int{0, 0}, []int{0, 2}).TransformedByDeletion(NewPosition(root, []int{0, 1}, StickToNone), 1)
	require.NotNil(t, got)
	assert.Equal(t, "[main[0 0], main[0 1]]", got.String())
}

func TestRangeTransformedBySplit(t *testing.T) {
	root := NewRoot("$root", "main")
	root.AppendChildren(
		NewElement("paragraph", nil, NewText("foobar", nil)),
		NewElement("paragraph", nil, NewText("baz", nil)))
	split := NewPosition(root, []int{0, 3}, StickToNext)
	insertion := SplitInsertionPosition(split)
	moveTarget := NewPosition(root, []int{1, 0}, StickToNone)

	tests := []struct {
		name  string
		start []int
		end   []int
		want  string
	}{
		{"split inside moves end into new element", []int{0, 1}, []int{0, 5}, "[main[0 1], main[1 2]]"},
		{"split at range end", []int{0, 1}, []int{0, 3}, "[main[0 1], main[0 3]]"},
		{"split at range start", []int{0, 3}, []int{0, 5}, "[main[0 3], main[1 2]]"},
		{"range before split element", []int{0}, []int{1}, "[main[0], main[2]]"},
		{"range after split element", []int{1, 0}, []int{1, 2}, "[main[2 0], main[2 2]]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rng(root, tt.start, tt.end).TransformedBySplit(split, insertion, moveTarget, nil)
			assert.Equal(t, tt.want, got.String())
			assert.False(t, got.Start.IsAfter(got.End))
		})
	}
}

func TestRangeTransformedByMerge(t *testing.T) {
	root := NewRoot("$root", "main")
	root.AppendChildren(
		NewElement("paragraph", nil, NewText("foo", nil)),
		NewElement("paragraph", nil, NewText("bar", nil)))
	graveyard := NewRoot("$root", GraveyardName)
	source := NewPosition(root, []int{1, 0}, StickToPrevious)
	target := NewPosition(root, []int{0, 3}, StickToNext)
	deletion := NewPosition(root, []int{1}, StickToNone)
	gy := NewPosition(graveyard, []int{0}, StickToNone)

	tests := []struct {
		name  string
		r     Range
		want  string
		empty bool
	}{
		{
			name: "range starts in merged element",
			r:    rng(root, []int{1, 1}, []int{1, 3}),
			want: "[main[0 4], main[0 6]]",
		},
		{
			name: "range from merged element to root end",
			r:    rng(root, []int{1, 1}, []int{2}),
			want: "[main[0 4], main[1]]",
		},
		{
			name: "range spans the merge gap",
			r:    rng(root, []int{0, 1}, []int{1, 2}),
			want: "[main[0 1], main[0 5]]",
		},
		{
			name:  "range between target and deletion collapses",
			r:     rng(root, []int{0, 3}, []int{1}),
			want:  "[main[0 3], main[0 3]]",
			empty: true,
		},
		{
			name: "range on merged element collapses instead of entering graveyard",
			r: Range{
				Start: NewPosition(root, []int{1}, StickToNext),
				End:   NewPosition(root, []int{2}, StickToPrevious),
			},
			want:  "[main[1], main[1]]",
			empty: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.r.TransformedByMerge(source, target, deletion, gy)
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, tt.empty, got.IsCollapsed())
			assert.Equal(t, got.Start.Root(), got.End.Root())
		})
	}
}

func TestRangeFromRanges(t *testing.T) {
	root, _, _ := newTestRoot()
	joined := RangeFromRanges([]Range{
		rng(root, []int{0, 1}, []int{0, 2}),
		rng(root, []int{0, 0}, []int{0, 1}),
		rng(root, []int{1, 0}, []int{1, 1}),
	})
	assert.Equal(t, "[main[0 0], main[0 2]]", joined.String())
}

func TestContainedElement(t *testing.T) {
	root, p1, _ := newTestRoot()
	assert.Equal(t, p1, RangeOn(p1).ContainedElement())
	assert.Nil(t, rng(root, []int{0}, []int{2}).ContainedElement())
}
