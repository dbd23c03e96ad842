package watch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

type options struct {
	pattern    string
	bufferSize int
}

// Option configures a DirWatcher.
type Option func(*options)

// WithPattern keeps only files whose base name matches the glob pattern.
func WithPattern(pattern string) Option {
	return func(o *options) {
		o.pattern = pattern
	}
}

// WithBufferSize sets the capacity of the event channel.
func WithBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

// DirWatcher watches the files of a single directory. Hidden files are
// skipped.
type DirWatcher struct {
	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	dir     string
	pattern string

	events chan Event
	errors chan error

	dropped int64

	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// NewDirWatcher starts watching dir.
func NewDirWatcher(dir string, opts ...Option) (*DirWatcher, error) {
	o := options{pattern: "*", bufferSize: 64}
	for _, opt := range opts {
		opt(&o)
	}
	if _, err := filepath.Match(o.pattern, ""); err != nil {
		return nil, fmt.Errorf("watch pattern %q: %w", o.pattern, err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotExist, abs)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, abs)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(abs); err != nil {
		fsw.Close()
		return nil, err
	}
	w := &DirWatcher{
		fsw:     fsw,
		dir:     abs,
		pattern: o.pattern,
		events:  make(chan Event, o.bufferSize),
		errors:  make(chan error, o.bufferSize),
		closeCh: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.processLoop()
	tracer().Infof("watching %s for %s", abs, o.pattern)
	return w, nil
}

// Dir returns the absolute path of the watched directory.
func (w *DirWatcher) Dir() string { return w.dir }

// Events returns the event channel. It is closed by Close.
func (w *DirWatcher) Events() <-chan Event { return w.events }

// Errors returns the error channel. It is closed by Close.
func (w *DirWatcher) Errors() <-chan error { return w.errors }

// Dropped returns the number of events lost to a full channel.
func (w *DirWatcher) Dropped() int64 {
	return atomic.LoadInt64(&w.dropped)
}

// Close stops watching. Calling Close twice is a no-op.
func (w *DirWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return w.fsw.Close()
}

func (w *DirWatcher) processLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.closeCh:
			return
		case fsEvent, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(fsEvent)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			tracer().Errorf("watch %s: %v", w.dir, err)
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *DirWatcher) handle(fsEvent fsnotify.Event) {
	op := convertOp(fsEvent.Op)
	if op == 0 || !w.matches(fsEvent.Name) {
		return
	}
	ev := Event{Path: fsEvent.Name, Op: op, Time: time.Now()}
	select {
	case w.events <- ev:
		tracer().Debugf("%s %s", ev.Op, ev.Path)
	default:
		atomic.AddInt64(&w.dropped, 1)
	}
}

func (w *DirWatcher) matches(path string) bool {
	base := filepath.Base(path)
	if base == "" || base[0] == '.' {
		return false
	}
	ok, _ := filepath.Match(w.pattern, base)
	return ok
}

// convertOp drops chmod-only events.
func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	return op
}
