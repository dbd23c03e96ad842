package model

import (
	"context"
	"errors"
	"sort"

	"github.com/dshills/treemodel/internal/event"
	"github.com/dshills/treemodel/internal/model/differ"
	"github.com/dshills/treemodel/internal/model/history"
	"github.com/dshills/treemodel/internal/model/operation"
	"github.com/dshills/treemodel/internal/model/tree"
	"github.com/google/uuid"
)

// Topics published on the document emitter.
const (
	// TopicOperation carries every applied operation.operation.Operation.
	TopicOperation event.Topic = "operation"

	// TopicChange carries a ChangeEvent for change blocks without data changes.
	TopicChange event.Topic = "change"

	// TopicChangeData carries a ChangeEvent for change blocks with data changes.
	TopicChangeData event.Topic = "change.data"

	// TopicMarkerUpdate carries a MarkerUpdate.
	TopicMarkerUpdate event.Topic = "marker.update"
)

// DefaultRootElement is the element name of roots created without one.
const DefaultRootElement = "$root"

// ChangeEvent is published when an outermost change block ends with
// buffered changes.
type ChangeEvent struct {
	Batch           *Batch
	Changes         []differ.DiffItem
	ChangedRoots    []differ.RootChange
	MarkersToRemove []differ.MarkerRange
	MarkersToAdd    []differ.MarkerRange
	HasDataChanges  bool
}

// Document is the aggregate owning roots, history, differ and markers.
type Document struct {
	id        string
	model     *Model
	roots     map[string]*tree.Node
	rootOrder []string
	graveyard *tree.Node

	history *history.History
	differ  *differ.Differ
	markers *MarkerCollection
	emitter *event.Emitter
}

func newDocument(m *Model) *Document {
	d := &Document{
		id:      uuid.NewString(),
		model:   m,
		roots:   make(map[string]*tree.Node),
		history: history.New(),
		emitter: event.NewEmitter(),
	}
	d.markers = newMarkerCollection(d)
	d.differ = differ.New(d.markers)
	d.graveyard = d.CreateRoot(DefaultRootElement, tree.GraveyardName)

	d.emitter.MustSubscribe(TopicOperation, d.checkOperation, event.WithPriority(event.PriorityCritical))
	d.emitter.MustSubscribe(TopicOperation, d.bufferOperation, event.WithPriority(event.PriorityHigh))
	d.emitter.MustSubscribe(TopicOperation, d.executeOperation, event.WithPriority(event.PriorityNormal))
	d.emitter.MustSubscribe(TopicOperation, d.recordOperation, event.WithPriority(event.PriorityLow))
	d.emitter.MustSubscribe(TopicMarkerUpdate, d.bufferMarkerUpdate)
	tracer().Infof("document %s created", d.id)
	return d
}

// ID returns the unique document identifier.
func (d *Document) ID() string { return d.id }

// Model returns the model the document belongs to.
func (d *Document) Model() *Model { return d.model }

// Version is the base version the next document operation must have.
func (d *Document) Version() int { return d.history.Version() }

// History returns the operation log.
func (d *Document) History() *history.History { return d.history }

// Differ returns the differ buffering the current change block.
func (d *Document) Differ() *differ.Differ { return d.differ }

// Markers returns the marker collection.
func (d *Document) Markers() *MarkerCollection { return d.markers }

// Graveyard returns the root holding removed content.
func (d *Document) Graveyard() *tree.Node { return d.graveyard }

// On subscribes fn to document events matching pattern, e.g. "change.**".
func (d *Document) On(pattern event.Topic, fn event.HandlerFunc, opts ...event.SubscriptionOption) (*event.Subscription, error) {
	return d.emitter.Subscribe(pattern, fn, opts...)
}

// CreateRoot creates an attached root. It panics if the name is taken.
func (d *Document) CreateRoot(elementName, rootName string) *tree.Node {
	assertThat(d.roots[rootName] == nil, ErrRootExists, "root %q", rootName)
	if elementName == "" {
		elementName = DefaultRootElement
	}
	root := tree.NewRoot(elementName, rootName)
	root.SetOwner(d)
	d.roots[rootName] = root
	if rootName != tree.GraveyardName {
		d.rootOrder = append(d.rootOrder, rootName)
	}
	tracer().Infof("root %q created", rootName)
	return root
}

// GetRoot returns the root registered under name, attached or not, or nil.
func (d *Document) GetRoot(name string) *tree.Node { return d.roots[name] }

// RootNames returns the names of the roots in creation order, without the
// graveyard. Detached roots are included on request.
func (d *Document) RootNames(includeDetached bool) []string {
	var names []string
	for _, name := range d.rootOrder {
		if includeDetached || d.roots[name].IsAttached() {
			names = append(names, name)
		}
	}
	return names
}

// Roots returns the roots named by RootNames.
func (d *Document) Roots(includeDetached bool) []*tree.Node {
	var roots []*tree.Node
	for _, name := range d.RootNames(includeDetached) {
		roots = append(roots, d.roots[name])
	}
	return roots
}

// ToJSON serializes the attached roots by name.
func (d *Document) ToJSON() map[string]tree.NodeJSON {
	out := make(map[string]tree.NodeJSON)
	for _, root := range d.Roots(false) {
		out[root.RootName()] = root.ToJSON()
	}
	return out
}

func (d *Document) owns(root *tree.Node) bool {
	return root != nil && root.IsRoot() && root.Owner() == tree.Owner(d)
}

// ========================================================================
// Operation pipeline
// ========================================================================

func (d *Document) applyOperation(op operation.Operation) error {
	tracer().Debugf("applying %s with base version %d", op.Type(), op.BaseVersion())
	err := d.emitter.Emit(context.Background(), TopicOperation, op)
	var handlerErr *event.HandlerError
	if errors.As(err, &handlerErr) {
		return handlerErr.Err
	}
	return err
}

func (d *Document) checkOperation(_ context.Context, ev event.Event) error {
	op := ev.Payload.(operation.Operation)
	if op.IsDocumentOperation() && op.BaseVersion() != d.Version() {
		return &history.VersionMismatchError{Op: op.Type(), Version: op.BaseVersion(), Expected: d.Version()}
	}
	return op.Validate()
}

func (d *Document) bufferOperation(_ context.Context, ev event.Event) error {
	if op := ev.Payload.(operation.Operation); op.IsDocumentOperation() {
		d.differ.BufferOperation(op)
	}
	return nil
}

func (d *Document) executeOperation(_ context.Context, ev event.Event) error {
	return ev.Payload.(operation.Operation).Execute()
}

func (d *Document) recordOperation(_ context.Context, ev event.Event) error {
	op := ev.Payload.(operation.Operation)
	if !op.IsDocumentOperation() {
		return nil
	}
	if d.model.trackHistory {
		d.history.AddOperation(op)
	} else {
		d.history.SetVersion(op.BaseVersion() + 1)
	}
	return nil
}

func (d *Document) bufferMarkerUpdate(_ context.Context, ev event.Event) error {
	u := ev.Payload.(MarkerUpdate)
	newData := u.Marker.data()
	newData.Range = u.NewRange
	d.differ.BufferMarkerChange(u.Marker.Name(), u.OldData, newData)
	if u.OldRange == nil {
		marker := u.Marker
		marker.OnChange(func(c RangeChange) {
			data := marker.data()
			old := data
			old.Range = &c.OldRange
			d.differ.BufferMarkerChange(marker.Name(), old, data)
		})
	}
	return nil
}

// ========================================================================
// Change blocks
// ========================================================================

// handleChangeBlock runs post-fixers and publishes the change event when
// the block changed anything, then resets the differ.
func (d *Document) handleChangeBlock(w *Writer) error {
	if d.differ.IsEmpty() {
		return nil
	}
	if err := protect(func() error { d.callPostFixers(w); return nil }); err != nil {
		d.differ.Reset()
		return err
	}

	ev := ChangeEvent{
		Batch:           w.batch,
		Changes:         d.differ.GetChanges(differ.Options{IncludeChangesInGraveyard: d.model.graveyardChanges}),
		ChangedRoots:    d.differ.GetChangedRoots(),
		MarkersToRemove: d.differ.GetMarkersToRemove(),
		MarkersToAdd:    d.differ.GetMarkersToAdd(),
		HasDataChanges:  d.differ.HasDataChanges(),
	}
	topic := TopicChange
	if ev.HasDataChanges {
		topic = TopicChangeData
	}
	tracer().Debugf("batch %s: %d changes, data=%v", w.batch.ID(), len(ev.Changes), ev.HasDataChanges)
	err := d.emitter.Emit(context.Background(), topic, ev)
	d.differ.Reset()
	return err
}

func (d *Document) callPostFixers(w *Writer) {
	for {
		fixed := false
		for _, fix := range d.model.postFixers {
			if fix(w) {
				fixed = true
				break
			}
		}
		if !fixed {
			return
		}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
