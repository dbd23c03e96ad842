package config

import (
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Model.TrackHistory)
	assert.Equal(t, 200*time.Millisecond, cfg.Scenario.Debounce())
}

func TestLoadLayers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "treemodel.config")
	defer teardown()

	fsys := fstest.MapFS{
		"treemodel.toml": {Data: []byte(`
[log]
level = "info"

[model]
trackHistory = false

[scenario]
output = "json"
`)},
	}
	t.Setenv("TMCFG_LOG_LEVEL", "debug")
	t.Setenv("TMCFG_SCENARIO_DEBOUNCE_MS", "50")
	t.Setenv("TMCFG_CONFIG", "ignored.toml")

	cfg, err := Load(WithFS(fsys), WithFile("treemodel.toml"), WithEnvPrefix("TMCFG_"))
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, cfg.Log.Level)
	assert.False(t, cfg.Model.TrackHistory)
	assert.Equal(t, OutputJSON, cfg.Scenario.Output)
	assert.Equal(t, "*.yaml", cfg.Scenario.Pattern)
	assert.Equal(t, 50, cfg.Scenario.DebounceMs)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(WithFS(fstest.MapFS{}), WithFile("none.toml"), WithoutEnv())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		path    string
		code    ValidationErrorCode
		target  error
	}{
		{"unknown key", "[model]\nundo = true\n", "model.undo", ErrCodeUnknownSetting, ErrUnknownSetting},
		{"wrong type", "[model]\ntrackHistory = \"yes\"\n", "config", ErrCodeTypeMismatch, ErrTypeMismatch},
		{"bad level", "[log]\nlevel = \"trace\"\n", "log.level", ErrCodeInvalidEnum, ErrInvalidValue},
		{"bad output", "[scenario]\noutput = \"xml\"\n", "scenario.output", ErrCodeInvalidEnum, ErrInvalidValue},
		{"bad pattern", "[scenario]\npattern = \"[\"\n", "scenario.pattern", ErrCodePatternMismatch, ErrInvalidValue},
		{"negative debounce", "[scenario]\ndebounceMs = -1\n", "scenario.debounceMs", ErrCodeOutOfRange, ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{"c.toml": {Data: []byte(tt.content)}}
			_, err := Load(WithFS(fsys), WithFile("c.toml"), WithoutEnv())
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.path, verr.Path)
			assert.Equal(t, tt.code, verr.Code)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestLoadSyntaxError(t *testing.T) {
	fsys := fstest.MapFS{"c.toml": {Data: []byte("[log\n")}}
	_, err := Load(WithFS(fsys), WithFile("c.toml"), WithoutEnv())
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "c.toml", perr.Path)
}

func TestTraceLevel(t *testing.T) {
	assert.Equal(t, tracing.LevelDebug, LogConfig{Level: "DEBUG"}.TraceLevel())
	assert.Equal(t, tracing.LevelInfo, LogConfig{Level: "info"}.TraceLevel())
	assert.Equal(t, tracing.LevelError, LogConfig{Level: "error"}.TraceLevel())
}

func TestModelOptions(t *testing.T) {
	opts := ModelConfig{TrackHistory: true}.Options()
	assert.Len(t, opts, 2)
}
