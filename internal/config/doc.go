/*
Package config loads the settings of the treemodel tools.

Settings are layered, later layers winning over earlier ones:

 1. built-in defaults (Default)
 2. a TOML file, which may include other files
 3. TREEMODEL_ environment variables

Example file:

	include = ["base.toml"]

	[log]
	level = "debug"

	[model]
	trackHistory = true
	includeGraveyardChanges = false

	[scenario]
	dir = "testdata/scenarios"
	pattern = "*.yaml"
	output = "json"
	debounceMs = 200

Environment variables map to setting paths by section:
TREEMODEL_MODEL_TRACK_HISTORY sets model.trackHistory. TREEMODEL_CONFIG is
reserved for the path of the configuration file.
*/
package config

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'treemodel.config'.
func tracer() tracing.Trace {
	return tracing.Select("treemodel.config")
}
