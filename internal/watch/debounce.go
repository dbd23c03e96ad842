package watch

import (
	"sync"
	"time"
)

// Debouncer coalesces events per path. An event is delivered once its path
// has been quiet for the delay; operations seen meanwhile are combined.
type Debouncer struct {
	inner Source
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*pendingEvent
	events  chan Event
	errors  chan error
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

type pendingEvent struct {
	event Event
	timer *time.Timer
}

// NewDebouncer wraps inner. A non-positive delay defaults to 100ms.
func NewDebouncer(inner Source, delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	d := &Debouncer{
		inner:   inner,
		delay:   delay,
		pending: make(map[string]*pendingEvent),
		events:  make(chan Event, 64),
		errors:  make(chan error, 16),
		closeCh: make(chan struct{}),
	}
	d.wg.Add(1)
	go d.processLoop()
	return d
}

// Events returns the coalesced events.
func (d *Debouncer) Events() <-chan Event { return d.events }

// Errors returns errors of the wrapped source.
func (d *Debouncer) Errors() <-chan error { return d.errors }

// Pending returns the number of paths waiting for their delay to pass.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Flush delivers all pending events now.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	paths := make([]string, 0, len(d.pending))
	for path, p := range d.pending {
		p.timer.Stop()
		paths = append(paths, path)
	}
	d.mu.Unlock()
	for _, path := range paths {
		d.fire(path)
	}
}

// Close drops pending events and closes the wrapped source.
func (d *Debouncer) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	for path, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, path)
	}
	close(d.closeCh)
	d.mu.Unlock()

	d.wg.Wait()
	d.mu.Lock()
	close(d.events)
	close(d.errors)
	d.mu.Unlock()
	return d.inner.Close()
}

func (d *Debouncer) processLoop() {
	defer d.wg.Done()
	for {
		select {
		case <-d.closeCh:
			return
		case ev, ok := <-d.inner.Events():
			if !ok {
				return
			}
			d.add(ev)
		case err, ok := <-d.inner.Errors():
			if !ok {
				return
			}
			select {
			case d.errors <- err:
			default:
			}
		}
	}
}

func (d *Debouncer) add(ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if p, ok := d.pending[ev.Path]; ok {
		p.event.Op |= ev.Op
		p.event.Time = ev.Time
		p.timer.Reset(d.delay)
		return
	}
	path := ev.Path
	d.pending[path] = &pendingEvent{
		event: ev,
		timer: time.AfterFunc(d.delay, func() { d.fire(path) }),
	}
}

// fire sends under the lock; Close closes the channels under the same lock.
func (d *Debouncer) fire(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pending[path]
	if !ok || d.closed {
		return
	}
	delete(d.pending, path)
	select {
	case d.events <- p.event:
	default:
		tracer().Errorf("dropping event for %s", path)
	}
}
