/*
Package scenario runs scripted edits against a model and checks the
outcome.

A scenario is a YAML file naming the initial roots, a list of steps and
the expected final state:

	name: split then merge
	roots:
	  main:
	    children:
	      - name: paragraph
	        children: [{data: foobar}]
	steps:
	  - op: livePosition
	    name: caret
	    at: {root: main, path: [0, 3]}
	  - op: split
	    at: {root: main, path: [0, 3]}
	  - op: merge
	    at: {root: main, path: [1]}
	expect:
	  roots:
	    main: <$root><paragraph>foobar</paragraph></$root>
	  positions:
	    caret: {root: main, path: [0, 3]}

Every step except undo and livePosition runs in its own change block; a
"change" step groups its nested steps into one block. "undo" reverts the
batch of the most recent step, so a second undo redoes it. Steps may name
an expected error, which turns a failure into a pass.

Run reports the diff of every step, the final tree, markers and live
positions, and a list of mismatches against the expectations.
*/
package scenario

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'treemodel.scenario'.
func tracer() tracing.Trace {
	return tracing.Select("treemodel.scenario")
}
