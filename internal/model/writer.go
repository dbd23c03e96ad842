package model

import (
	"github.com/dshills/treemodel/internal/model/operation"
	"github.com/dshills/treemodel/internal/model/tree"
)

// Writer is the only way to change a document. It turns its calls into
// operations, adds them to its batch and applies them. A writer is valid
// only inside the change block that created it; every method panics with
// ErrWriterOutsideChangeBlock when called anywhere else.
type Writer struct {
	model *Model
	batch *Batch
}

// Batch returns the batch collecting the writer's operations.
func (w *Writer) Batch() *Batch { return w.batch }

// Model returns the model the writer changes.
func (w *Writer) Model() *Model { return w.model }

func (w *Writer) assertCurrent() {
	assertThat(w.model.current == w, ErrWriterOutsideChangeBlock, "writer of batch %s", w.batch.ID())
}

func (w *Writer) apply(op operation.Operation) {
	w.batch.AddOperation(op)
	must(w.model.ApplyOperation(op))
}

// version returns the document version for operations on root, or
// operation.NoVersion for detached trees.
func (w *Writer) version(root *tree.Node) int {
	if w.model.doc.owns(root) {
		return w.model.doc.Version()
	}
	return operation.NoVersion
}

// sameTree reports whether content may be moved between the two roots.
func sameTree(a, b *tree.Node) bool {
	return a == b || (a.IsRoot() && b.IsRoot() && a.Owner() == b.Owner())
}

// ========================================================================
// Node creation
// ========================================================================

// CreateText creates a detached text node.
func (w *Writer) CreateText(data string, attrs map[string]any) *tree.Node {
	return tree.NewText(data, attrs)
}

// CreateElement creates a detached element.
func (w *Writer) CreateElement(name string, attrs map[string]any) *tree.Node {
	return tree.NewElement(name, attrs)
}

// CreateFragment creates an empty document fragment.
func (w *Writer) CreateFragment() *tree.Node {
	return tree.NewFragment()
}

// ========================================================================
// Structure
// ========================================================================

// Insert puts item at pos. Empty text is ignored. An item which already
// has a parent in the same tree is moved instead; one in a detached tree
// is taken out of it first. The children of a fragment are inserted in
// place of the fragment.
func (w *Writer) Insert(item *tree.Node, pos tree.Position) {
	w.assertCurrent()
	if item.IsText() && item.Data() == "" {
		return
	}
	if item.Parent() != nil {
		if sameTree(item.Root(), pos.Root()) {
			w.Move(tree.RangeOn(item), pos)
			return
		}
		assertThat(!w.model.doc.owns(item.Root()), ErrForbiddenMove, "%s cannot be inserted at %s", item, pos)
		w.Remove(tree.RangeOn(item))
	}

	nodes := []*tree.Node{item}
	if item.IsFragment() {
		nodes = item.RemoveChildren(0, item.ChildCount())
	}
	w.apply(operation.NewInsert(pos, nodes, w.version(pos.Root())))
}

// InsertText creates a text node and inserts it at pos.
func (w *Writer) InsertText(data string, attrs map[string]any, pos tree.Position) {
	w.Insert(w.CreateText(data, attrs), pos)
}

// InsertElement creates an element, inserts it at pos and returns it.
func (w *Writer) InsertElement(name string, attrs map[string]any, pos tree.Position) *tree.Node {
	el := w.CreateElement(name, attrs)
	w.Insert(el, pos)
	return el
}

// Append inserts item at the end of parent.
func (w *Writer) Append(item *tree.Node, parent *tree.Node) {
	w.Insert(item, tree.PositionAtEnd(parent))
}

// AppendText inserts text at the end of parent.
func (w *Writer) AppendText(data string, attrs map[string]any, parent *tree.Node) {
	w.InsertText(data, attrs, tree.PositionAtEnd(parent))
}

// AppendElement inserts a new element at the end of parent and returns it.
func (w *Writer) AppendElement(name string, attrs map[string]any, parent *tree.Node) *tree.Node {
	return w.InsertElement(name, attrs, tree.PositionAtEnd(parent))
}

// Remove removes the content of rng. Document content goes to the
// graveyard, content of detached trees is dropped.
func (w *Writer) Remove(rng tree.Range) {
	w.assertCurrent()
	flat := rng.GetMinimalFlatRanges()
	for i := len(flat) - 1; i >= 0; i-- {
		w.updateMarkersAffectedByMove(flat[i])
		w.removeFlat(flat[i].Start, flat[i].End.Offset()-flat[i].Start.Offset())
	}
}

// RemoveItem removes a node or a text proxy.
func (w *Writer) RemoveItem(item tree.Item) {
	w.Remove(tree.RangeOn(item))
}

func (w *Writer) removeFlat(pos tree.Position, howMany int) {
	doc := w.model.doc
	if doc.owns(pos.Root()) {
		gy := tree.NewPosition(doc.graveyard, []int{0}, tree.StickToNone)
		w.apply(operation.NewMove(pos, howMany, gy, doc.Version()))
		return
	}
	w.apply(operation.NewDetach(pos, howMany))
}

// Move moves the content of a flat range to pos. Moving a range to its own
// start does nothing.
func (w *Writer) Move(rng tree.Range, pos tree.Position) {
	w.assertCurrent()
	assertThat(rng.IsFlat(), ErrRangeNotFlat, "cannot move %s", rng)
	if pos.IsEqual(rng.Start) {
		return
	}
	w.updateMarkersAffectedByMove(rng)
	assertThat(sameTree(rng.Root(), pos.Root()), ErrDifferentDocument, "%s to %s", rng, pos)
	howMany := rng.End.Offset() - rng.Start.Offset()
	w.apply(operation.NewMove(rng.Start, howMany, pos, w.version(rng.Root())))
}

// Merge joins the elements before and after pos: the content of the
// second one moves to the end of the first and the second one is removed.
func (w *Writer) Merge(pos tree.Position) {
	w.assertCurrent()
	before, after := pos.NodeBefore(), pos.NodeAfter()
	w.updateMarkersAffectedByMerge(pos, before, after)
	assertThat(before != nil && before.IsElement(), ErrMergeNoElement, "no element before %s", pos)
	assertThat(after != nil && after.IsElement(), ErrMergeNoElement, "no element after %s", pos)

	doc := w.model.doc
	if !doc.owns(pos.Root()) {
		w.Move(tree.RangeIn(after), tree.PositionAtEnd(before))
		w.Remove(tree.RangeOn(after))
		return
	}
	source := tree.PositionAt(after, 0)
	target := tree.PositionAtEnd(before)
	gy := tree.NewPosition(doc.graveyard, []int{0}, tree.StickToNone)
	w.apply(operation.NewMerge(source, after.MaxOffset(), target, gy, doc.Version()))
}

// SplitResult is the outcome of Writer.Split.
type SplitResult struct {
	// Position is between the two halves of the outermost split element.
	Position tree.Position

	// Range spans from the end of the first split element to the start of
	// its copy.
	Range tree.Range
}

// Split splits the parent of pos, and its ancestors up to limit. A nil
// limit splits only the parent.
func (w *Writer) Split(pos tree.Position, limit *tree.Node) SplitResult {
	w.assertCurrent()
	splitElement := pos.Parent()
	assertThat(splitElement.Parent() != nil, ErrSplitNoParent, "cannot split %s", splitElement)
	if limit == nil {
		limit = splitElement.Parent()
	}
	isAncestor := false
	for _, a := range splitElement.Ancestors(true) {
		if a == limit {
			isAncestor = true
			break
		}
	}
	assertThat(isAncestor, ErrSplitLimit, "%s is not an ancestor of %s", limit, pos)

	var firstSplit, firstCopy *tree.Node
	for {
		howMany := splitElement.MaxOffset() - pos.Offset()
		w.apply(operation.NewSplit(pos, howMany, tree.SplitInsertionPosition(pos), nil, w.version(splitElement.Root())))
		if firstSplit == nil {
			firstSplit = splitElement
			firstCopy = splitElement.NextSibling()
		}
		pos = tree.PositionAfter(splitElement)
		splitElement = pos.Parent()
		if splitElement == limit {
			break
		}
	}
	return SplitResult{
		Position: pos,
		Range:    tree.Range{Start: tree.PositionAtEnd(firstSplit), End: tree.PositionAt(firstCopy, 0)},
	}
}

// Wrap puts the content of a flat range into element, which must be empty
// and detached.
func (w *Writer) Wrap(rng tree.Range, element *tree.Node) {
	w.assertCurrent()
	assertThat(rng.IsFlat(), ErrRangeNotFlat, "cannot wrap %s", rng)
	assertThat(element.IsElement() && element.ChildCount() == 0 && element.Parent() == nil,
		ErrWrapElement, "cannot wrap with %s", element)
	w.Insert(element, rng.Start)
	shifted := tree.Range{Start: rng.Start.GetShiftedBy(1), End: rng.End.GetShiftedBy(1)}
	w.Move(shifted, tree.PositionAt(element, 0))
}

// Unwrap replaces element by its children.
func (w *Writer) Unwrap(element *tree.Node) {
	w.assertCurrent()
	assertThat(element.Parent() != nil, ErrUnwrapNoParent, "cannot unwrap %s", element)
	w.Move(tree.RangeIn(element), tree.PositionAfter(element))
	w.Remove(tree.RangeOn(element))
}

// Rename changes the name of element.
func (w *Writer) Rename(element *tree.Node, newName string) {
	w.assertCurrent()
	assertThat(element.Kind() == tree.KindElement, ErrNotElement, "cannot rename %s", element)
	pos := tree.PositionBefore(element)
	w.apply(operation.NewRename(pos, element.Name(), newName, w.version(pos.Root())))
}

// ========================================================================
// Roots
// ========================================================================

// AddRoot creates and attaches a root, or re-attaches a detached one.
func (w *Writer) AddRoot(rootName, elementName string) *tree.Node {
	w.assertCurrent()
	doc := w.model.doc
	root := doc.GetRoot(rootName)
	assertThat(root == nil || !root.IsAttached(), ErrRootExists, "root %q", rootName)
	if elementName == "" {
		elementName = DefaultRootElement
	}
	w.apply(operation.NewRootState(rootName, elementName, true, doc, doc.Version()))
	return doc.GetRoot(rootName)
}

// DetachRoot removes the markers, attributes and content of a root and
// detaches it. The root name stays taken.
func (w *Writer) DetachRoot(rootName string) {
	w.assertCurrent()
	doc := w.model.doc
	root := doc.GetRoot(rootName)
	assertThat(root != nil && root.IsAttached(), ErrRootNotFound, "root %q", rootName)

	for _, m := range doc.markers.All() {
		if m.Range().Root() == root {
			w.RemoveMarker(m.Name())
		}
	}
	for _, key := range root.AttributeKeys() {
		w.RemoveNodeAttribute(key, root)
	}
	w.Remove(tree.RangeIn(root))
	w.apply(operation.NewRootState(rootName, root.Name(), false, doc, doc.Version()))
}

// ========================================================================
// Attributes
// ========================================================================

// SetAttribute sets key to value on every item of rng. Items which already
// have the value are left alone. A nil value removes the attribute.
func (w *Writer) SetAttribute(key string, value any, rng tree.Range) {
	w.assertCurrent()
	for _, flat := range rng.GetMinimalFlatRanges() {
		w.setAttributeOnRange(key, value, flat)
	}
}

// SetAttributes sets every attribute of attrs on rng.
func (w *Writer) SetAttributes(attrs map[string]any, rng tree.Range) {
	for _, key := range sortedKeys(attrs) {
		w.SetAttribute(key, attrs[key], rng)
	}
}

// RemoveAttribute removes key from every item of rng.
func (w *Writer) RemoveAttribute(key string, rng tree.Range) {
	w.SetAttribute(key, nil, rng)
}

// setAttributeOnRange emits one operation per run of items sharing the
// previous value of key.
func (w *Writer) setAttributeOnRange(key string, value any, flat tree.Range) {
	var (
		spanStart tree.Position
		spanValue any
		open      bool
	)
	flush := func(end tree.Position) {
		if open && !tree.ValuesEqual(spanValue, value) {
			rng := tree.Range{Start: spanStart, End: end}
			w.apply(operation.NewAttribute(rng, key, spanValue, value, w.version(flat.Root())))
		}
	}
	for _, v := range flat.Walker(tree.WalkerOptions{Shallow: true}).Values() {
		prev := v.Item.Attribute(key)
		if open && tree.ValuesEqual(prev, spanValue) {
			continue
		}
		flush(v.PreviousPosition)
		spanStart, spanValue, open = v.PreviousPosition, prev, true
	}
	flush(flat.End)
}

// SetNodeAttribute sets key to value on a single node. Roots and other
// parentless containers get a root attribute operation.
func (w *Writer) SetNodeAttribute(key string, value any, node *tree.Node) {
	w.assertCurrent()
	old := node.Attribute(key)
	if tree.ValuesEqual(old, value) {
		return
	}
	if node.Parent() == nil {
		w.apply(operation.NewRootAttribute(node, key, old, value, w.version(node)))
		return
	}
	rng := tree.RangeOn(node)
	w.apply(operation.NewAttribute(rng, key, old, value, w.version(rng.Root())))
}

// SetNodeAttributes sets every attribute of attrs on node.
func (w *Writer) SetNodeAttributes(attrs map[string]any, node *tree.Node) {
	for _, key := range sortedKeys(attrs) {
		w.SetNodeAttribute(key, attrs[key], node)
	}
}

// RemoveNodeAttribute removes key from node.
func (w *Writer) RemoveNodeAttribute(key string, node *tree.Node) {
	w.SetNodeAttribute(key, nil, node)
}

// ClearAttributes removes every attribute from every item of rng.
func (w *Writer) ClearAttributes(rng tree.Range) {
	w.assertCurrent()
	type span struct {
		rng  tree.Range
		keys []string
	}
	var spans []span
	for _, item := range rng.Items(tree.WalkerOptions{}) {
		if keys := sortedKeys(item.Attributes()); len(keys) > 0 {
			spans = append(spans, span{rng: tree.RangeOn(item), keys: keys})
		}
	}
	for _, s := range spans {
		for _, key := range s.keys {
			w.SetAttribute(key, nil, s.rng)
		}
	}
}

// ClearNodeAttributes removes every attribute from node.
func (w *Writer) ClearNodeAttributes(node *tree.Node) {
	for _, key := range node.AttributeKeys() {
		w.RemoveNodeAttribute(key, node)
	}
}

// ========================================================================
// Markers
// ========================================================================

type markerOptions struct {
	rng            *tree.Range
	usingOperation *bool
	affectsData    *bool
}

// MarkerOption configures Writer.AddMarker and Writer.UpdateMarker.
type MarkerOption func(*markerOptions)

// WithRange sets the marker range.
func WithRange(rng tree.Range) MarkerOption {
	return func(o *markerOptions) { o.rng = &rng }
}

// UsingOperation sets whether the marker is managed by marker operations,
// which makes its changes part of history and undo.
func UsingOperation(using bool) MarkerOption {
	return func(o *markerOptions) { o.usingOperation = &using }
}

// AffectsData sets whether changes of the marker are data changes.
func AffectsData(affects bool) MarkerOption {
	return func(o *markerOptions) { o.affectsData = &affects }
}

func collectMarkerOptions(opts []MarkerOption) markerOptions {
	var o markerOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// AddMarker adds a marker. WithRange and UsingOperation are required.
func (w *Writer) AddMarker(name string, opts ...MarkerOption) *Marker {
	w.assertCurrent()
	o := collectMarkerOptions(opts)
	markers := w.model.doc.markers
	assertThat(!markers.Has(name), ErrMarkerExists, "%q", name)
	assertThat(o.rng != nil && o.usingOperation != nil, ErrMarkerOptions, "marker %q needs a range and usingOperation", name)
	assertThat(w.model.doc.owns(o.rng.Root()), ErrNotInDocument, "marker %q at %s", name, *o.rng)

	affectsData := o.affectsData != nil && *o.affectsData
	if !*o.usingOperation {
		return markers.set(name, *o.rng, false, &affectsData)
	}
	w.applyMarkerOperation(name, nil, o.rng, affectsData)
	return markers.Get(name)
}

// UpdateMarker changes the range or flags of a marker. Without options the
// marker is only reported as changed.
func (w *Writer) UpdateMarker(name string, opts ...MarkerOption) {
	w.assertCurrent()
	markers := w.model.doc.markers
	marker := markers.Get(name)
	assertThat(marker != nil, ErrMarkerNotFound, "cannot update %q", name)
	if len(opts) == 0 {
		markers.refresh(name)
		return
	}
	o := collectMarkerOptions(opts)
	assertThat(o.rng != nil || o.usingOperation != nil || o.affectsData != nil, ErrMarkerOptions, "nothing to update on %q", name)

	current := marker.Range()
	updated := current
	if o.rng != nil {
		updated = *o.rng
	}
	affectsData := marker.AffectsData()
	if o.affectsData != nil {
		affectsData = *o.affectsData
	}

	if o.usingOperation != nil && *o.usingOperation != marker.ManagedUsingOperations() {
		if *o.usingOperation {
			// local marker becomes an operation-managed one
			markers.remove(name)
			w.applyMarkerOperation(name, nil, &updated, affectsData)
			return
		}
		w.applyMarkerOperation(name, &current, nil, affectsData)
		markers.set(name, updated, false, &affectsData)
		return
	}
	if marker.ManagedUsingOperations() {
		w.applyMarkerOperation(name, &current, &updated, affectsData)
		return
	}
	markers.set(name, updated, false, &affectsData)
}

// RemoveMarker removes a marker.
func (w *Writer) RemoveMarker(name string) {
	w.assertCurrent()
	markers := w.model.doc.markers
	marker := markers.Get(name)
	assertThat(marker != nil, ErrMarkerNotFound, "cannot remove %q", name)
	if !marker.ManagedUsingOperations() {
		markers.remove(name)
		return
	}
	current := marker.Range()
	w.applyMarkerOperation(name, &current, nil, marker.AffectsData())
}

func (w *Writer) applyMarkerOperation(name string, oldRange, newRange *tree.Range, affectsData bool) {
	doc := w.model.doc
	w.apply(operation.NewMarker(name, oldRange, newRange, doc.markers, affectsData, doc.Version()))
}

// updateMarkersAffectedByMove records the current range of every managed
// marker with a boundary inside or at the edge of rng, so that undoing the
// move restores it.
func (w *Writer) updateMarkersAffectedByMove(rng tree.Range) {
	if !w.model.doc.owns(rng.Root()) {
		return
	}
	for _, m := range w.model.doc.markers.All() {
		if !m.ManagedUsingOperations() {
			continue
		}
		mr := m.Range()
		if rng.ContainsPosition(mr.Start) || rng.Start.IsEqual(mr.Start) ||
			rng.ContainsPosition(mr.End) || rng.End.IsEqual(mr.End) {
			w.applyMarkerOperation(m.Name(), &mr, &mr, m.AffectsData())
		}
	}
}

// updateMarkersAffectedByMerge does the same for a marker touching the
// seam between the merged elements.
func (w *Writer) updateMarkersAffectedByMerge(pos tree.Position, before, after *tree.Node) {
	if before == nil || after == nil || !w.model.doc.owns(pos.Root()) {
		return
	}
	for _, m := range w.model.doc.markers.All() {
		if !m.ManagedUsingOperations() {
			continue
		}
		mr := m.Range()
		if mr.Root() != pos.Root() {
			continue
		}
		affected := (mr.Start.Parent() == before && mr.Start.IsAtEnd()) ||
			(mr.End.Parent() == after && mr.End.Offset() == 0) ||
			mr.End.NodeAfter() == after ||
			mr.Start.NodeAfter() == after
		if affected {
			w.applyMarkerOperation(m.Name(), &mr, &mr, m.AffectsData())
		}
	}
}
