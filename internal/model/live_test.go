package model

import (
	"testing"

	"github.com/dshills/treemodel/internal/model/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLivePositionRequiresDocumentRoot(t *testing.T) {
	m, _ := newTestModel(t)
	div := tree.NewElement("div", nil, tree.NewText("foo", nil))
	_, err := NewLivePosition(m.Document(), tree.PositionAt(div, 1))
	assert.ErrorIs(t, err, ErrNotInDocument)

	_, err = NewLiveRange(m.Document(), tree.RangeIn(div))
	assert.ErrorIs(t, err, ErrNotInDocument)
}

func TestLivePositionThroughSplitAndMerge(t *testing.T) {
	for _, st := range []tree.Stickiness{tree.StickToNone, tree.StickToNext} {
		t.Run(st.String(), func(t *testing.T) {
			m, root := newParagraphModel(t, "foobar")
			lp, err := NewLivePosition(m.Document(), tree.NewPosition(root, []int{0, 3}, st))
			require.NoError(t, err)
			defer lp.Detach()

			change(t, m, func(w *Writer) { w.Split(pos(root, 0, 3), nil) })
			assert.Equal(t, "<$root><paragraph>foo</paragraph><paragraph>bar</paragraph></$root>", root.String())

			change(t, m, func(w *Writer) { w.Merge(pos(root, 1)) })
			assert.Equal(t, "<$root><paragraph>foobar</paragraph></$root>", root.String())
			assert.Equal(t, []int{0, 3}, lp.ToPosition().Path())
			assert.Equal(t, st, lp.ToPosition().Stickiness)
		})
	}
}

func TestLivePositionStickiness(t *testing.T) {
	tests := []struct {
		stickiness tree.Stickiness
		want       []int
	}{
		{tree.StickToNone, []int{0, 5}},
		{tree.StickToNext, []int{0, 5}},
		{tree.StickToPrevious, []int{0, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.stickiness.String(), func(t *testing.T) {
			m, root := newParagraphModel(t, "foobar")
			lp, err := NewLivePosition(m.Document(), tree.NewPosition(root, []int{0, 3}, tt.stickiness))
			require.NoError(t, err)
			defer lp.Detach()

			change(t, m, func(w *Writer) { w.InsertText("xy", nil, pos(root, 0, 3)) })
			assert.Equal(t, tt.want, lp.ToPosition().Path())
		})
	}
}

func TestLivePositionOnChangeAndDetach(t *testing.T) {
	m, root := newParagraphModel(t, "foobar")
	lp, err := NewLivePosition(m.Document(), pos(root, 0, 4))
	require.NoError(t, err)

	var olds [][]int
	lp.OnChange(func(old tree.Position) { olds = append(olds, old.Path()) })

	change(t, m, func(w *Writer) {
		w.InsertText("x", nil, pos(root, 0, 0))
		// after the position: no change reported
		w.InsertText("y", nil, pos(root, 0, 6))
	})
	assert.Equal(t, [][]int{{0, 4}}, olds)
	assert.Equal(t, []int{0, 5}, lp.ToPosition().Path())

	lp.Detach()
	assert.True(t, lp.IsDetached())
	change(t, m, func(w *Writer) { w.InsertText("z", nil, pos(root, 0, 0)) })
	assert.Equal(t, []int{0, 5}, lp.ToPosition().Path())
}

func TestLivePositionIntoGraveyard(t *testing.T) {
	m, root := newParagraphModel(t, "foobar")
	lp, err := NewLivePosition(m.Document(), pos(root, 0, 2))
	require.NoError(t, err)
	defer lp.Detach()

	change(t, m, func(w *Writer) { w.Remove(tree.RangeOn(root.Child(0))) })
	assert.Equal(t, tree.GraveyardName, lp.ToPosition().Root().RootName())
	assert.Equal(t, []int{0, 2}, lp.ToPosition().Path())
}

func TestLiveRangeBoundaries(t *testing.T) {
	m, root := newParagraphModel(t, "foobar")
	lr, err := NewLiveRange(m.Document(), tree.NewRange(pos(root, 0, 2), pos(root, 0, 4)))
	require.NoError(t, err)
	defer lr.Detach()

	var changes []RangeChange
	lr.OnChange(func(c RangeChange) { changes = append(changes, c) })

	// text typed at either boundary stays outside the range
	change(t, m, func(w *Writer) {
		w.InsertText("x", nil, pos(root, 0, 4))
		w.InsertText("y", nil, pos(root, 0, 2))
	})
	assert.Equal(t, []int{0, 3}, lr.ToRange().Start.Path())
	assert.Equal(t, []int{0, 5}, lr.ToRange().End.Path())
	require.Len(t, changes, 1)
	assert.False(t, changes[0].Content)
	assert.Equal(t, []int{0, 2}, changes[0].OldRange.Start.Path())

	// text typed inside extends it
	change(t, m, func(w *Writer) { w.InsertText("z", nil, pos(root, 0, 4)) })
	assert.Equal(t, []int{0, 6}, lr.ToRange().End.Path())
}

func TestLiveRangeContentChange(t *testing.T) {
	m, root := newParagraphModel(t, "foobar")
	lr, err := NewLiveRange(m.Document(), tree.NewRange(pos(root, 0, 1), pos(root, 0, 5)))
	require.NoError(t, err)
	defer lr.Detach()

	var changes []RangeChange
	lr.OnChange(func(c RangeChange) { changes = append(changes, c) })

	change(t, m, func(w *Writer) {
		w.Move(tree.RangeFromShift(pos(root, 0, 2), 1), pos(root, 0, 4))
	})
	assert.Equal(t, "foboar", textOf(root.Child(0)))
	require.Len(t, changes, 1)
	assert.True(t, changes[0].Content)
	assert.True(t, changes[0].OldRange.IsEqual(lr.ToRange()))
}

func TestLiveRangeRemoved(t *testing.T) {
	m, root := newParagraphModel(t, "foobar")
	lr, err := NewLiveRange(m.Document(), tree.NewRange(pos(root, 0, 1), pos(root, 0, 3)))
	require.NoError(t, err)
	defer lr.Detach()

	var changes []RangeChange
	lr.OnChange(func(c RangeChange) { changes = append(changes, c) })

	change(t, m, func(w *Writer) { w.Remove(tree.RangeFromShift(pos(root, 0, 0), 4)) })
	assert.Equal(t, tree.GraveyardName, lr.ToRange().Root().RootName())
	require.Len(t, changes, 1)
	require.NotNil(t, changes[0].DeletionPosition)
	assert.Equal(t, []int{0, 0}, changes[0].DeletionPosition.Path())
	assert.Equal(t, "main", changes[0].DeletionPosition.Root().RootName())
}
