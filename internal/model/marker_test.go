package model

import (
	"testing"

	"github.com/dshills/treemodel/internal/model/operation"
	"github.com/dshills/treemodel/internal/model/tree"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMarkerUsingOperation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "treemodel.model")
	defer teardown()

	m, root := newParagraphModel(t, "foobar")
	events := recordChanges(t, m)
	version := m.Document().Version()

	var marker *Marker
	change(t, m, func(w *Writer) {
		marker = w.AddMarker("comment:1", WithRange(tree.NewRange(pos(root, 0, 3), pos(root, 0, 6))), UsingOperation(true))
	})
	require.NotNil(t, marker)
	assert.Same(t, marker, m.Markers().Get("comment:1"))
	assert.True(t, marker.ManagedUsingOperations())
	assert.False(t, marker.AffectsData())
	assert.Equal(t, version+1, m.Document().Version())

	require.Len(t, *events, 1)
	got := (*events)[0]
	assert.Equal(t, TopicChange, got.topic)
	require.Len(t, got.event.MarkersToAdd, 1)
	assert.Equal(t, "comment:1", got.event.MarkersToAdd[0].Name)
	assert.Empty(t, got.event.MarkersToRemove)
}

func TestAddLocalMarker(t *testing.T) {
	m, root := newParagraphModel(t, "foobar")
	events := recordChanges(t, m)
	version := m.Document().Version()

	change(t, m, func(w *Writer) {
		w.AddMarker("search", WithRange(tree.RangeIn(root.Child(0))), UsingOperation(false), AffectsData(true))
	})
	assert.Equal(t, version, m.Document().Version())
	assert.False(t, m.Markers().Get("search").ManagedUsingOperations())
	require.Len(t, *events, 1)
	assert.Equal(t, TopicChangeData, (*events)[0].topic)
}

func TestAddMarkerErrors(t *testing.T) {
	m, root := newParagraphModel(t, "foobar")
	rng := tree.RangeIn(root.Child(0))
	change(t, m, func(w *Writer) { w.AddMarker("a", WithRange(rng), UsingOperation(true)) })

	tests := []struct {
		name string
		add  func(w *Writer)
		err  error
	}{
		{"exists", func(w *Writer) { w.AddMarker("a", WithRange(rng), UsingOperation(true)) }, ErrMarkerExists},
		{"no range", func(w *Writer) { w.AddMarker("b", UsingOperation(true)) }, ErrMarkerOptions},
		{"no usingOperation", func(w *Writer) { w.AddMarker("b", WithRange(rng)) }, ErrMarkerOptions},
		{"comma", func(w *Writer) { w.AddMarker("b,c", WithRange(rng), UsingOperation(false)) }, ErrMarkerName},
		{"detached", func(w *Writer) {
			div := w.CreateElement("div", nil)
			w.AddMarker("b", WithRange(tree.RangeIn(div)), UsingOperation(false))
		}, ErrNotInDocument},
		{"update unknown", func(w *Writer) { w.UpdateMarker("x", WithRange(rng)) }, ErrMarkerNotFound},
		{"remove unknown", func(w *Writer) { w.RemoveMarker("x") }, ErrMarkerNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, changeErr(m, tt.add), tt.err)
		})
	}
	assert.Equal(t, 1, m.Markers().Len())
}

func TestMarkerFollowsContent(t *testing.T) {
	m, root := newParagraphModel(t, "foobar")
	var marker *Marker
	change(t, m, func(w *Writer) {
		marker = w.AddMarker("m", WithRange(tree.NewRange(pos(root, 0, 3), pos(root, 0, 6))), UsingOperation(true))
	})
	change(t, m, func(w *Writer) { w.InsertText("xx", nil, pos(root, 0, 0)) })
	assert.Equal(t, []int{0, 5}, marker.Start().Path())
	assert.Equal(t, []int{0, 8}, marker.End().Path())

	events := recordChanges(t, m)
	change(t, m, func(w *Writer) { w.InsertText("y", nil, pos(root, 0, 6)) })
	assert.Equal(t, []int{0, 9}, marker.End().Path())
	require.Len(t, *events, 1)
	require.Len(t, (*events)[0].event.MarkersToAdd, 1)
	assert.Equal(t, []int{0, 9}, (*events)[0].event.MarkersToAdd[0].Range.End.Path())
	assert.Equal(t, []int{0, 8}, (*events)[0].event.MarkersToRemove[0].Range.End.Path())
}

func TestMarkerRemovedToGraveyard(t *testing.T) {
	m, root := newTwoParagraphModel(t)
	rng := tree.RangeIn(root.Child(0))
	change(t, m, func(w *Writer) { w.AddMarker("m", WithRange(rng), UsingOperation(true)) })
	events := recordChanges(t, m)

	var batch *Batch
	change(t, m, func(w *Writer) {
		batch = w.Batch()
		w.Remove(rng)
	})

	// the marker op recording the range comes first
	assert.Equal(t, []operation.Type{operation.TypeMarker, operation.TypeRemove}, operationTypes(batch))
	assert.Equal(t, tree.GraveyardName, m.Markers().Get("m").Range().Root().RootName())

	require.Len(t, *events, 1)
	ev := (*events)[0].event
	require.Len(t, ev.MarkersToRemove, 1)
	assert.Equal(t, "m", ev.MarkersToRemove[0].Name)
	assert.True(t, ev.MarkersToRemove[0].Range.IsEqual(rng))
	assert.Empty(t, ev.MarkersToAdd)

	// undo brings the content and the marker back
	_, err := m.Undo(batch)
	require.NoError(t, err)
	assert.Equal(t, "main", m.Markers().Get("m").Range().Root().RootName())
	assert.True(t, m.Markers().Get("m").Range().IsEqual(rng))
}

func TestUpdateMarker(t *testing.T) {
	m, root := newParagraphModel(t, "foobar")
	change(t, m, func(w *Writer) {
		w.AddMarker("m", WithRange(tree.RangeFromShift(pos(root, 0, 0), 3)), UsingOperation(true))
	})
	marker := m.Markers().Get("m")

	var updates []MarkerUpdate
	m.Markers().OnUpdate(func(u MarkerUpdate) { updates = append(updates, u) })

	moved := tree.RangeFromShift(pos(root, 0, 3), 3)
	change(t, m, func(w *Writer) { w.UpdateMarker("m", WithRange(moved)) })
	assert.True(t, marker.Range().IsEqual(moved))
	require.Len(t, updates, 1)
	assert.Equal(t, []int{0, 0}, updates[0].OldRange.Start.Path())

	// to a local marker: no further operations
	change(t, m, func(w *Writer) { w.UpdateMarker("m", UsingOperation(false)) })
	local := m.Markers().Get("m")
	require.NotNil(t, local)
	assert.False(t, local.ManagedUsingOperations())
	assert.True(t, local.Range().IsEqual(moved))
	version := m.Document().Version()
	change(t, m, func(w *Writer) { w.UpdateMarker("m", AffectsData(true)) })
	assert.Equal(t, version, m.Document().Version())
	assert.True(t, local.AffectsData())

	// and back
	change(t, m, func(w *Writer) { w.UpdateMarker("m", UsingOperation(true)) })
	assert.True(t, m.Markers().Get("m").ManagedUsingOperations())
	assert.True(t, m.Markers().Get("m").AffectsData())
	assert.Equal(t, version+1, m.Document().Version())
}

func TestRefreshMarker(t *testing.T) {
	m, root := newParagraphModel(t, "foobar")
	change(t, m, func(w *Writer) {
		w.AddMarker("m", WithRange(tree.RangeIn(root.Child(0))), UsingOperation(false))
	})
	events := recordChanges(t, m)
	change(t, m, func(w *Writer) { w.UpdateMarker("m") })
	require.Len(t, *events, 1)
	ev := (*events)[0].event
	require.Len(t, ev.MarkersToRemove, 1)
	require.Len(t, ev.MarkersToAdd, 1)
	assert.True(t, ev.MarkersToAdd[0].Range.IsEqual(ev.MarkersToRemove[0].Range))
}

func TestRemoveMarker(t *testing.T) {
	m, root := newParagraphModel(t, "foobar")
	change(t, m, func(w *Writer) {
		w.AddMarker("managed", WithRange(tree.RangeIn(root.Child(0))), UsingOperation(true))
		w.AddMarker("local", WithRange(tree.RangeIn(root.Child(0))), UsingOperation(false))
	})
	events := recordChanges(t, m)
	version := m.Document().Version()

	change(t, m, func(w *Writer) {
		w.RemoveMarker("managed")
		w.RemoveMarker("local")
	})
	assert.Equal(t, 0, m.Markers().Len())
	assert.Equal(t, version+1, m.Document().Version())
	require.Len(t, *events, 1)
	var names []string
	for _, mr := range (*events)[0].event.MarkersToRemove {
		names = append(names, mr.Name)
	}
	assert.Equal(t, []string{"managed", "local"}, names)
}

func TestAddAndRemoveMarkerInOneBlock(t *testing.T) {
	m, root := newParagraphModel(t, "foobar")
	events := recordChanges(t, m)
	change(t, m, func(w *Writer) {
		w.AddMarker("tmp", WithRange(tree.RangeIn(root.Child(0))), UsingOperation(false))
		w.RemoveMarker("tmp")
	})
	assert.Empty(t, *events)
}

func TestMarkersAffectedByMerge(t *testing.T) {
	m, root := newTwoParagraphModel(t)
	original := tree.NewRange(pos(root, 0, 3), pos(root, 1, 0))
	change(t, m, func(w *Writer) {
		w.AddMarker("seam", WithRange(original), UsingOperation(true))
		w.AddMarker("other", WithRange(tree.RangeFromShift(pos(root, 0, 0), 1)), UsingOperation(true))
	})

	var batch *Batch
	change(t, m, func(w *Writer) {
		batch = w.Batch()
		w.Merge(pos(root, 1))
	})
	assert.Equal(t, []operation.Type{operation.TypeMarker, operation.TypeMerge}, operationTypes(batch))
	seam := m.Markers().Get("seam")
	assert.True(t, seam.Range().IsCollapsed())
	assert.Equal(t, []int{0, 3}, seam.Start().Path())

	_, err := m.Undo(batch)
	require.NoError(t, err)
	assert.Equal(t, "<$root><paragraph>foo</paragraph><paragraph>bar</paragraph></$root>", root.String())
	assert.True(t, seam.Range().IsEqual(original))
}

func TestMarkerQueries(t *testing.T) {
	m, root := newParagraphModel(t, "foobar")
	change(t, m, func(w *Writer) {
		w.AddMarker("comment:1", WithRange(tree.RangeFromShift(pos(root, 0, 0), 3)), UsingOperation(false))
		w.AddMarker("comment:2", WithRange(tree.RangeFromShift(pos(root, 0, 2), 3)), UsingOperation(false))
		w.AddMarker("search", WithRange(tree.RangeFromShift(pos(root, 0, 4), 2)), UsingOperation(false))
	})
	mc := m.Markers()

	names := func(ms []*Marker) []string {
		var out []string
		for _, mk := range ms {
			out = append(out, mk.Name())
		}
		return out
	}
	assert.Equal(t, []string{"comment:1", "comment:2", "search"}, names(mc.All()))
	assert.Equal(t, []string{"comment:1", "comment:2"}, names(mc.GetMarkersGroup("comment")))
	assert.Equal(t, []string{"comment:1"}, names(mc.GetMarkersAtPosition(pos(root, 0, 1))))
	assert.Equal(t, []string{"comment:2", "search"}, names(mc.GetMarkersIntersectingRange(tree.RangeFromShift(pos(root, 0, 4), 1))))
	assert.True(t, mc.Has("search"))
	assert.False(t, mc.Has("comment"))
}
