package scenario

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeepsRootOrder(t *testing.T) {
	s, err := Parse([]byte(`
roots:
  second:
    name: section
  first:
    attributes: {lang: en}
    children: [{name: paragraph}]
steps:
  - op: undo
`), "scenarios/order.yaml")
	require.NoError(t, err)
	assert.Equal(t, "order", s.Name)
	require.Len(t, s.Roots, 2)
	assert.Equal(t, "second", s.Roots[0].Name)
	assert.Equal(t, "section", s.Roots[0].Content.Name)
	assert.Equal(t, "first", s.Roots[1].Name)
	assert.Equal(t, map[string]any{"lang": "en"}, s.Roots[1].Content.Attributes)
	assert.Equal(t, "paragraph", s.Roots[1].Content.Children[0].Name)
}

func TestParseStep(t *testing.T) {
	s, err := Parse([]byte(`
name: attrs
roots: {main: {}}
steps:
  - op: setAttribute
    range:
      start: {root: main, path: [0], stickiness: toNext}
      end: {root: main, path: [1]}
    key: size
    value: 12
    expectChanges: 1
`), "attrs.yaml")
	require.NoError(t, err)
	step := s.Steps[0]
	assert.Equal(t, "attrs", s.Name)
	assert.Equal(t, 12, step.Value)
	assert.Equal(t, "toNext", step.Range.Start.Stickiness)
	assert.Equal(t, []int{1}, step.Range.End.Path)
	require.NotNil(t, step.ExpectChanges)
	assert.Equal(t, 1, *step.ExpectChanges)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
	}{
		{"unknown key", "roots: {}\nsteps: [{op: undo}]\nbogus: 1\n", ErrInvalidScenario},
		{"no steps", "roots: {main: {}}\n", ErrInvalidScenario},
		{"unknown op", "steps: [{op: explode}]\n", ErrUnknownOp},
		{"nested undo", "steps: [{op: change, steps: [{op: undo}]}]\n", ErrUnknownOp},
		{"empty change", "steps: [{op: change}]\n", ErrMissingField},
		{"graveyard root", "roots: {$graveyard: {}}\nsteps: [{op: undo}]\n", ErrInvalidScenario},
		{"roots not a mapping", "roots: [a]\nsteps: [{op: undo}]\n", ErrInvalidScenario},
		{"broken yaml", "steps: [\n", ErrInvalidScenario},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content), "bad.yaml")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidScenario)
			if tt.target != ErrInvalidScenario {
				assert.Contains(t, err.Error(), tt.target.Error())
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	scenarios, err := LoadDir("testdata", "*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)
	for i := 1; i < len(scenarios); i++ {
		assert.Less(t, scenarios[i-1].Source, scenarios[i].Source)
	}
	assert.Equal(t, filepath.Join("testdata", "errors.yaml"), scenarios[0].Source)
}

func TestLoadDirReportsBadFiles(t *testing.T) {
	scenarios, err := LoadDir("testdata", "*.txt")
	require.NoError(t, err)
	assert.Empty(t, scenarios)

	_, err = LoadDir("testdata", "[")
	assert.Error(t, err)
}
