package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/treemodel/internal/config/loader"
	"github.com/dshills/treemodel/internal/model"
)

// EnvPrefix prefixes all environment settings.
const EnvPrefix = "TREEMODEL_"

// EnvConfigPath names the variable holding the configuration file path.
const EnvConfigPath = EnvPrefix + "CONFIG"

// Log levels.
const (
	LevelError = "error"
	LevelInfo  = "info"
	LevelDebug = "debug"
)

// Scenario output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// TraceKeys lists the tracer keys of all treemodel packages.
var TraceKeys = []string{
	"treemodel.tree",
	"treemodel.operation",
	"treemodel.history",
	"treemodel.differ",
	"treemodel.event",
	"treemodel.model",
	"treemodel.config",
	"treemodel.scenario",
	"treemodel.watch",
}

// Config holds all settings.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Model    ModelConfig    `toml:"model"`
	Scenario ScenarioConfig `toml:"scenario"`
}

// LogConfig configures tracing output.
type LogConfig struct {
	// Level is one of "error", "info" or "debug".
	Level string `toml:"level"`
}

// ModelConfig configures every model created by the tools.
type ModelConfig struct {
	// TrackHistory stores applied operations in the history.
	TrackHistory bool `toml:"trackHistory"`
	// IncludeGraveyardChanges reports graveyard items in change events.
	IncludeGraveyardChanges bool `toml:"includeGraveyardChanges"`
}

// ScenarioConfig configures the scenario runner.
type ScenarioConfig struct {
	Dir     string `toml:"dir"`
	Pattern string `toml:"pattern"`
	// Output is "text" or "json".
	Output string `toml:"output"`
	// DebounceMs coalesces file events in watch mode.
	DebounceMs int `toml:"debounceMs"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: LevelError},
		Model: ModelConfig{
			TrackHistory:            true,
			IncludeGraveyardChanges: false,
		},
		Scenario: ScenarioConfig{
			Dir:        ".",
			Pattern:    "*.yaml",
			Output:     OutputText,
			DebounceMs: 200,
		},
	}
}

// ============================================================================
// Loading
// ============================================================================

type loadOptions struct {
	fs        loader.FileSystem
	path      string
	envPrefix string
	useEnv    bool
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithFile reads settings from a TOML file. A missing file is not an error.
func WithFile(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithFS reads files from fsys instead of the OS file system.
func WithFS(fsys loader.FileSystem) LoadOption {
	return func(o *loadOptions) {
		o.fs = fsys
	}
}

// WithEnvPrefix reads environment settings with another prefix.
func WithEnvPrefix(prefix string) LoadOption {
	return func(o *loadOptions) {
		o.envPrefix = prefix
		o.useEnv = true
	}
}

// WithoutEnv ignores the environment.
func WithoutEnv() LoadOption {
	return func(o *loadOptions) {
		o.useEnv = false
	}
}

// Load layers defaults, the configuration file and the environment, then
// validates the result.
func Load(opts ...LoadOption) (*Config, error) {
	o := loadOptions{fs: loader.DefaultFS(), envPrefix: EnvPrefix, useEnv: true}
	for _, opt := range opts {
		opt(&o)
	}

	var settings map[string]any
	if o.path != "" {
		file, err := loader.NewTOMLLoaderWithFS(o.fs, o.path).Load()
		if err != nil {
			return nil, err
		}
		if file == nil {
			tracer().Infof("config file %s not found, using defaults", o.path)
		}
		settings = loader.DeepMerge(settings, file)
	}
	if o.useEnv {
		env := loader.NewEnvLoader(o.envPrefix)
		env.Ignore(o.envPrefix + "CONFIG")
		vars, err := env.Load()
		if err != nil {
			return nil, err
		}
		settings = loader.DeepMerge(settings, vars)
	}

	cfg := Default()
	if err := decode(settings, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(settings map[string]any, cfg *Config) error {
	if len(settings) == 0 {
		return nil
	}
	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	err = dec.Decode(cfg)
	if err == nil {
		return nil
	}
	var missing *toml.StrictMissingError
	if errors.As(err, &missing) && len(missing.Errors) > 0 {
		return &ValidationError{
			Path:    strings.Join(missing.Errors[0].Key(), "."),
			Message: "no such setting",
			Code:    ErrCodeUnknownSetting,
		}
	}
	return &ValidationError{Path: "config", Message: err.Error(), Code: ErrCodeTypeMismatch}
}

// ============================================================================
// Validation
// ============================================================================

// Validate checks every setting against its allowed values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case LevelError, LevelInfo, LevelDebug:
	default:
		return &ValidationError{Path: "log.level", Message: "must be error, info or debug",
			Value: c.Log.Level, Code: ErrCodeInvalidEnum}
	}
	switch c.Scenario.Output {
	case OutputText, OutputJSON:
	default:
		return &ValidationError{Path: "scenario.output", Message: "must be text or json",
			Value: c.Scenario.Output, Code: ErrCodeInvalidEnum}
	}
	if c.Scenario.Pattern == "" {
		return &ValidationError{Path: "scenario.pattern", Message: "must not be empty",
			Code: ErrCodePatternMismatch}
	}
	if _, err := filepath.Match(c.Scenario.Pattern, ""); err != nil {
		return &ValidationError{Path: "scenario.pattern", Message: err.Error(),
			Value: c.Scenario.Pattern, Code: ErrCodePatternMismatch}
	}
	if c.Scenario.DebounceMs < 0 {
		return &ValidationError{Path: "scenario.debounceMs", Message: "must not be negative",
			Value: c.Scenario.DebounceMs, Code: ErrCodeOutOfRange}
	}
	return nil
}

// ============================================================================
// Applying settings
// ============================================================================

// TraceLevel maps the configured level to a tracing level.
func (c LogConfig) TraceLevel() tracing.TraceLevel {
	switch strings.ToLower(c.Level) {
	case LevelDebug:
		return tracing.LevelDebug
	case LevelInfo:
		return tracing.LevelInfo
	default:
		return tracing.LevelError
	}
}

// Apply routes tracing of all treemodel packages to the Go logger writing
// to w.
func (c LogConfig) Apply(w io.Writer) {
	tracing.SetTraceSelector(tracing.SelectorForAdapter(gologadapter.GetAdapter()))
	level := c.TraceLevel()
	for _, key := range TraceKeys {
		t := tracing.Select(key)
		t.SetOutput(w)
		t.SetTraceLevel(level)
	}
	tracer().Infof("tracing at level %s", level)
}

// Options returns the model options for these settings.
func (c ModelConfig) Options() []model.Option {
	return []model.Option{
		model.WithTrackHistory(c.TrackHistory),
		model.WithGraveyardChanges(c.IncludeGraveyardChanges),
	}
}

// Debounce returns the watch debounce interval.
func (c ScenarioConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}
