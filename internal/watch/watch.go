/*
Package watch reports changes to files in a directory.

A DirWatcher turns fsnotify events for the files of one directory into
Events, keeping only files whose base name matches a glob pattern. A
Debouncer wraps any Source and coalesces bursts of events per path, so
that an editor saving a file in several steps yields one event.

	w, err := watch.NewDirWatcher("scenarios", watch.WithPattern("*.yaml"))
	if err != nil {
		return err
	}
	d := watch.NewDebouncer(w, 200*time.Millisecond)
	defer d.Close()
	for ev := range d.Events() {
		rerun(ev.Path)
	}
*/
package watch

import (
	"errors"
	"strings"
	"time"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'treemodel.watch'.
func tracer() tracing.Trace {
	return tracing.Select("treemodel.watch")
}

// Errors returned by watchers.
var (
	// ErrWatcherClosed is returned when using a closed watcher.
	ErrWatcherClosed = errors.New("watcher is closed")

	// ErrPathNotExist is returned when the watched directory does not exist.
	ErrPathNotExist = errors.New("path does not exist")

	// ErrNotDirectory is returned when the watched path is a file.
	ErrNotDirectory = errors.New("path is not a directory")
)

// Op is a set of file operations.
type Op uint8

const (
	// OpCreate reports a new file.
	OpCreate Op = 1 << iota
	// OpWrite reports modified content.
	OpWrite
	// OpRemove reports a deleted file.
	OpRemove
	// OpRename reports a file renamed away.
	OpRename
)

// Has reports whether op contains all of other.
func (op Op) Has(other Op) bool {
	return op&other == other
}

// String lists the operations, e.g. "CREATE|WRITE".
func (op Op) String() string {
	var parts []string
	if op.Has(OpCreate) {
		parts = append(parts, "CREATE")
	}
	if op.Has(OpWrite) {
		parts = append(parts, "WRITE")
	}
	if op.Has(OpRemove) {
		parts = append(parts, "REMOVE")
	}
	if op.Has(OpRename) {
		parts = append(parts, "RENAME")
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, "|")
}

// Event is a change to one file.
type Event struct {
	Path string
	Op   Op
	Time time.Time
}

// Gone reports whether the file no longer exists under its path.
func (e Event) Gone() bool {
	return e.Op.Has(OpRemove) || e.Op.Has(OpRename)
}

// Source delivers events until it is closed.
type Source interface {
	Events() <-chan Event
	Errors() <-chan error
	Close() error
}
