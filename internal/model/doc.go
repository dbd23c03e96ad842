/*
Package model ties the document tree, its operations, history and differ
together behind a single mutation entry point.

# Document

A Document owns its roots, the graveyard root receiving removed content,
the History, the Differ and the MarkerCollection. Every operation passes
through one synchronous event, published on TopicOperation of the
document's emitter. Listeners run in priority order:

  - critical: base version check and operation validation
  - high:     Differ.BufferOperation, while the tree is still unchanged
  - normal:   Operation.Execute
  - low:      History.AddOperation, then live positions and ranges

# Writer and change blocks

All mutation goes through a Writer handed out by Model.Change or
Model.EnqueueChange. A writer is only usable inside its own change block;
calls from anywhere else panic with ErrWriterOutsideChangeBlock. Nested
Change calls join the outer block, enqueued blocks run in FIFO order after
it.

	m := model.New()
	root := m.Document().CreateRoot("$root", "main")
	err := m.Change(func(w *model.Writer) error {
		p := w.CreateElement("paragraph", nil)
		w.Append(p, root)
		w.InsertText("foo", nil, tree.PositionAt(p, 0))
		return nil
	})

When the outermost block ends, post-fixers run until none of them changes
the tree. Then TopicChangeData fires if the differ reports data changes,
TopicChange otherwise, and the differ is reset. Subscribing to
"change.**" receives both.

# Live references

LivePosition and LiveRange subscribe to the operation event and transform
themselves after every document operation. Markers are named live ranges
kept in the MarkerCollection. Live references must be detached when no
longer used.
*/
package model

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'treemodel.model'.
func tracer() tracing.Trace {
	return tracing.Select("treemodel.model")
}

// assertThat panics with a formatted message if a precondition does not hold.
func assertThat(that bool, err error, msg string, msgargs ...interface{}) {
	if !that {
		m := fmt.Sprintf(msg, msgargs...)
		tracer().Errorf("model: %s", m)
		panic(fmt.Errorf("%w: %s", err, m))
	}
}

// must panics on a non-nil error.
func must(err error) {
	if err != nil {
		tracer().Errorf("model: %v", err)
		panic(err)
	}
}
