package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dshills/treemodel/internal/config"
)

func TestOptionsApply(t *testing.T) {
	cfg := config.Default()
	opts := options{Dir: "testdata", Pattern: "p*.yaml", Output: "json", Level: "debug"}
	require.NoError(t, opts.apply(cfg))
	assert.Equal(t, "testdata", cfg.Scenario.Dir)
	assert.Equal(t, "p*.yaml", cfg.Scenario.Pattern)
	assert.Equal(t, config.OutputJSON, cfg.Scenario.Output)
	assert.Equal(t, config.LevelDebug, cfg.Log.Level)

	cfg = config.Default()
	require.NoError(t, options{}.apply(cfg))
	assert.Equal(t, config.Default(), cfg)

	assert.Error(t, options{Output: "xml"}.apply(config.Default()))
}

func TestLoadScenarios(t *testing.T) {
	cfg := config.Default().Scenario
	cfg.Dir = "testdata"

	all, err := loadScenarios(cfg, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "wrong expectation", all[0].Name)

	one, err := loadScenarios(cfg, []string{filepath.Join("testdata", "pass.yaml"), "missing.yaml"})
	assert.Error(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "append text", one[0].Name)
}

func TestRunScenariosText(t *testing.T) {
	cfg := config.Default()
	cfg.Scenario.Dir = "testdata"
	scenarios, err := loadScenarios(cfg.Scenario, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	failed, err := runScenarios(context.Background(), &out, scenarios, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
	assert.Contains(t, out.String(), "FAIL wrong expectation")
	assert.Contains(t, out.String(), "PASS append text (1 steps, version 2, 1 changes)")
	assert.True(t, strings.HasSuffix(out.String(), "2 scenarios, 1 failed\n"))
}

func TestRunScenariosJSON(t *testing.T) {
	cfg := config.Default()
	cfg.Scenario.Dir = "testdata"
	cfg.Scenario.Output = config.OutputJSON
	scenarios, err := loadScenarios(cfg.Scenario, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	failed, err := runScenarios(context.Background(), &out, scenarios, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, failed)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.False(t, gjson.Get(lines[0], "passed").Bool())
	assert.Equal(t, int64(1), gjson.Get(lines[0], "mismatches.#").Int())
	assert.True(t, gjson.Get(lines[1], "passed").Bool())
	assert.Equal(t, "append text", gjson.Get(lines[1], "name").String())
}

func TestRunScenariosCanceled(t *testing.T) {
	cfg := config.Default()
	cfg.Scenario.Dir = "testdata"
	scenarios, err := loadScenarios(cfg.Scenario, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	_, err = runScenarios(ctx, &out, scenarios, cfg)
	assert.ErrorIs(t, err, context.Canceled)
}
