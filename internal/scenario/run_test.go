package scenario

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/treemodel/internal/config"
	"github.com/dshills/treemodel/internal/model"
	"github.com/dshills/treemodel/internal/model/tree"
)

func defaultModelConfig() config.ModelConfig {
	return config.Default().Model
}

func runString(t *testing.T, content string) *Result {
	t.Helper()
	s, err := Parse([]byte(content), "inline.yaml")
	require.NoError(t, err)
	res, err := Run(context.Background(), s, defaultModelConfig())
	require.NoError(t, err)
	return res
}

func TestRunTestdata(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "treemodel.scenario")
	defer teardown()

	paths, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			res, err := RunFile(context.Background(), path, defaultModelConfig())
			require.NoError(t, err)
			assert.True(t, res.Passed(), res.Text())
		})
	}
}

func TestGraveyardMarkerIsReportedRemoved(t *testing.T) {
	res, err := RunFile(context.Background(), filepath.Join("testdata", "graveyard_marker.yaml"), defaultModelConfig())
	require.NoError(t, err)
	require.Len(t, res.Steps, 2)

	remove := res.Steps[1]
	require.Len(t, remove.Events, 1)
	ev := remove.Events[0]
	require.Len(t, ev.MarkersToRemove, 1)
	assert.Equal(t, "comment:1", ev.MarkersToRemove[0].Name)
	assert.Equal(t, []int{0, 1}, ev.MarkersToRemove[0].Range.Start.Path())
	assert.Equal(t, []int{0, 4}, ev.MarkersToRemove[0].Range.End.Path())
	assert.Empty(t, ev.MarkersToAdd)
}

func TestSplitStepRecordsResult(t *testing.T) {
	res := runString(t, `
roots:
  main:
    children:
      - name: blockQuote
        children:
          - name: paragraph
            children: [{data: foobar}]
steps:
  - op: split
    at: {root: main, path: [0, 0, 3]}
    limit: {root: main, path: [0]}
expect:
  roots:
    main: <$root><blockQuote><paragraph>foo</paragraph></blockQuote><blockQuote><paragraph>bar</paragraph></blockQuote></$root>
`)
	require.True(t, res.Passed(), res.Text())
	split := res.Steps[0].Split
	require.NotNil(t, split)
	assert.Equal(t, []int{1}, split.Position.Path())
	assert.NotEmpty(t, res.Steps[0].BatchID)
}

func TestMismatchesAreReported(t *testing.T) {
	res := runString(t, `
roots:
  main:
    children: [{name: paragraph, children: [{data: foo}]}]
steps:
  - op: insert
    at: {root: main, path: [0, 0]}
    text: x
    expectChanges: 5
  - op: merge
    at: {root: main, path: [0, 1]}
  - op: insert
    at: {root: main, path: [0, 0]}
    text: y
    expectError: boom
expect:
  roots:
    main: <$root><paragraph>foo</paragraph></$root>
    other: <$root></$root>
  version: 1
  markers:
    search: {start: {root: main, path: [0, 0]}, end: {root: main, path: [0, 1]}}
  positions:
    caret: {root: main, path: [0, 0]}
`)
	assert.False(t, res.Passed())
	require.Len(t, res.Mismatches, 8)
	assert.Equal(t, "step 1 (insert): 1 changes, want 5", res.Mismatches[0])
	assert.Contains(t, res.Mismatches[1], "step 2 (merge): merge needs an element on both sides")
	assert.Equal(t, `step 3 (insert): expected error "boom"`, res.Mismatches[2])
	assert.Equal(t, []string{
		"root main: got <$root><paragraph>yxfoo</paragraph></$root>, want <$root><paragraph>foo</paragraph></$root>",
		"root other: not attached",
		"version: got 3, want 1",
		"marker search: missing",
		"position caret: no live position",
	}, res.Mismatches[3:])
	require.Len(t, res.Steps, 3)
	assert.ErrorIs(t, res.Steps[1].Err, model.ErrMergeNoElement)
}

func TestScenarioOptionsOverrideConfig(t *testing.T) {
	res := runString(t, `
options:
  trackHistory: false
  includeGraveyardChanges: true
roots:
  main:
    children: [{name: paragraph, children: [{data: foo}]}]
steps:
  - op: remove
    range:
      start: {root: main, path: [0, 0]}
      end: {root: main, path: [0, 3]}
`)
	assert.True(t, res.Passed(), res.Text())
	// the removal and its insertion into the graveyard
	assert.Equal(t, 2, res.Steps[0].ChangeCount())
	assert.Equal(t, "<$root>foo</$root>", res.Graveyard)
}

func TestLiveRootsAndMarkers(t *testing.T) {
	res := runString(t, `
roots:
  main:
    children: [{name: paragraph, children: [{data: foobar}]}]
steps:
  - op: addRoot
    name: notes
  - op: append
    root: notes
    text: hello
  - op: addMarker
    name: hl
    range:
      start: {root: notes, path: [0]}
      end: {root: notes, path: [5]}
    usingOperation: false
  - op: updateMarker
    name: hl
    range:
      start: {root: notes, path: [1]}
      end: {root: notes, path: [3]}
  - op: livePosition
    name: caret
    at: {root: notes, path: [5], stickiness: toPrevious}
  - op: insert
    at: {root: notes, path: [5]}
    text: "!"
  - op: detachRoot
    name: main
expect:
  roots:
    notes: <$root>hello!</$root>
  markers:
    hl: {start: {root: notes, path: [1]}, end: {root: notes, path: [3]}}
  positions:
    caret: {root: notes, path: [5]}
`)
	assert.True(t, res.Passed(), res.Text())
	_, attached := res.Roots["main"]
	assert.False(t, attached)
	assert.Equal(t, tree.StickToPrevious, res.Positions["caret"].Stickiness)
}

func TestRunCanceled(t *testing.T) {
	s, err := Parse([]byte("steps: [{op: undo}]\n"), "cancel.yaml")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, s, defaultModelConfig())
	assert.ErrorIs(t, err, context.Canceled)
}
