package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvLoaderLoad(t *testing.T) {
	t.Setenv("TMTEST_LOG_LEVEL", "debug")
	t.Setenv("TMTEST_SCENARIO_DEBOUNCE_MS", "250")
	t.Setenv("TMTEST_GRAVEYARD", "yes")
	t.Setenv("TMTEST_CONFIG", "/etc/treemodel.toml")

	l := NewEnvLoader("TMTEST_")
	l.Ignore("TMTEST_CONFIG")
	config, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"log":      map[string]any{"level": "debug"},
		"scenario": map[string]any{"debounceMs": int64(250)},
		"model":    map[string]any{"includeGraveyardChanges": true},
	}, config)
}

func TestEnvLoaderCustomMapping(t *testing.T) {
	t.Setenv("TMMAP_VERBOSITY", "error")
	l := NewEnvLoaderWithMapping("TMMAP_", nil)
	l.AddMapping("TMMAP_VERBOSITY", "log.level")
	config, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"log": map[string]any{"level": "error"}}, config)
}

func TestEnvToPath(t *testing.T) {
	l := NewEnvLoader("TREEMODEL_")
	tests := []struct {
		env, expected string
	}{
		{"TREEMODEL_LOG_LEVEL", "log.level"},
		{"TREEMODEL_MODEL_TRACK_HISTORY", "model.trackHistory"},
		{"TREEMODEL_MODEL_INCLUDE_GRAVEYARD_CHANGES", "model.includeGraveyardChanges"},
		{"TREEMODEL_SIMPLE", "simple"},
		{"TREEMODEL_", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, l.envToPath(tt.env), tt.env)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input    string
		expected any
	}{
		{"true", true},
		{"On", true},
		{"no", false},
		{"FALSE", false},
		{"42", int64(42)},
		{"-3", int64(-3)},
		{"0.5", 0.5},
		{"1.2.3", "1.2.3"},
		{"*.yaml", "*.yaml"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseValue(tt.input), tt.input)
	}
}
