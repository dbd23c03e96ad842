package tree

// Direction of a tree walk.
type Direction uint8

const (
	// Forward walks in document order.
	Forward Direction = iota
	// Backward walks against document order.
	Backward
)

// ValueType tags a walker step.
type ValueType uint8

const (
	// ElementStart is reported when the walker enters an element.
	ElementStart ValueType = iota
	// ElementEnd is reported when the walker leaves an element.
	ElementEnd
	// Text is reported for a run of characters.
	Text
)

// String returns the value type name.
func (t ValueType) String() string {
	switch t {
	case ElementStart:
		return "elementStart"
	case ElementEnd:
		return "elementEnd"
	default:
		return "text"
	}
}

// WalkerOptions configures a TreeWalker. Either Boundaries or
// StartPosition must be set.
type WalkerOptions struct {
	// Boundaries limits the walk; nil walks to the end of the root.
	Boundaries *Range

	// StartPosition defaults to the boundary start (or end when walking backward).
	StartPosition *Position

	Direction Direction

	// SingleCharacters reports every character as its own text value.
	SingleCharacters bool

	// Shallow steps over elements instead of entering them.
	Shallow bool

	// IgnoreElementEnd suppresses ElementEnd values.
	IgnoreElementEnd bool
}

// WalkerValue is one step of a walk.
type WalkerValue struct {
	Type             ValueType
	Item             Item
	PreviousPosition Position
	NextPosition     Position
	// Length is the offset size of the item, zero for element ends.
	Length int
}

// TreeWalker iterates the tree between two positions.
type TreeWalker struct {
	opts          WalkerOptions
	position      Position
	visitedParent *Node
	boundaryStart *Node
	boundaryEnd   *Node
}

// NewTreeWalker creates a walker. It panics if neither boundaries nor a
// start position are given, or if the direction is unknown.
func NewTreeWalker(opts WalkerOptions) *TreeWalker {
	assertThat(opts.Boundaries != nil || opts.StartPosition != nil, ErrWalkerConfig,
		"walker needs boundaries or a start position")
	assertThat(opts.Direction == Forward || opts.Direction == Backward, ErrWalkerConfig,
		"unknown walker direction %d", opts.Direction)
	w := &TreeWalker{opts: opts}
	switch {
	case opts.StartPosition != nil:
		w.position = opts.StartPosition.clone()
	case opts.Direction == Backward:
		w.position = opts.Boundaries.End.clone()
	default:
		w.position = opts.Boundaries.Start.clone()
	}
	w.position.Stickiness = StickToNone
	if opts.Boundaries != nil {
		w.boundaryStart = opts.Boundaries.Start.Parent()
		w.boundaryEnd = opts.Boundaries.End.Parent()
	}
	w.visitedParent = w.position.Parent()
	return w
}

// Position returns the walker's current position.
func (w *TreeWalker) Position() Position { return w.position }

// Direction returns the walk direction.
func (w *TreeWalker) Direction() Direction { return w.opts.Direction }

// Next returns the next value, or false when the walk is done.
func (w *TreeWalker) Next() (WalkerValue, bool) {
	if w.opts.Direction == Backward {
		return w.previous()
	}
	return w.next()
}

// Skip advances while skip holds. The first value for which skip is false
// is not consumed.
func (w *TreeWalker) Skip(skip func(WalkerValue) bool) {
	for {
		prevPos, prevParent := w.position, w.visitedParent
		v, ok := w.Next()
		if !ok {
			return
		}
		if !skip(v) {
			w.position, w.visitedParent = prevPos, prevParent
			return
		}
	}
}

// Values drains the walker.
func (w *TreeWalker) Values() []WalkerValue {
	var out []WalkerValue
	for v, ok := w.Next(); ok; v, ok = w.Next() {
		out = append(out, v)
	}
	return out
}

func (w *TreeWalker) next() (WalkerValue, bool) {
	prev := w.position
	parent := w.visitedParent
	offset := prev.Offset()

	if parent.parent == nil && offset == parent.MaxOffset() {
		return WalkerValue{}, false
	}
	if w.opts.Boundaries != nil && parent == w.boundaryEnd && offset == w.opts.Boundaries.End.Offset() {
		return WalkerValue{}, false
	}

	node := parent.Child(parent.OffsetToIndex(offset))
	switch {
	case node != nil && node.IsElement():
		var pos Position
		if w.opts.Shallow {
			pos = prev.WithOffset(offset + 1)
		} else {
			pos = Position{root: prev.root, path: append(prev.Path(), 0)}
			w.visitedParent = node
		}
		w.position = pos
		return WalkerValue{Type: ElementStart, Item: node, PreviousPosition: prev, NextPosition: pos, Length: 1}, true

	case node != nil && node.IsText():
		count := 1
		if !w.opts.SingleCharacters {
			end := node.EndOffset()
			if w.opts.Boundaries != nil && parent == w.boundaryEnd && w.opts.Boundaries.End.Offset() < end {
				end = w.opts.Boundaries.End.Offset()
			}
			count = end - offset
		}
		item := NewTextProxy(node, offset-node.StartOffset(), count)
		pos := prev.WithOffset(offset + count)
		w.position = pos
		return WalkerValue{Type: Text, Item: item, PreviousPosition: prev, NextPosition: pos, Length: count}, true
	}

	// leaving the visited element
	path := prev.ParentPath()
	path[len(path)-1]++
	pos := Position{root: prev.root, path: path}
	w.position = pos
	w.visitedParent = parent.parent
	if w.opts.IgnoreElementEnd {
		return w.next()
	}
	return WalkerValue{Type: ElementEnd, Item: parent, PreviousPosition: prev, NextPosition: pos}, true
}

func (w *TreeWalker) previous() (WalkerValue, bool) {
	prev := w.position
	parent := w.visitedParent
	offset := prev.Offset()

	if parent.parent == nil && offset == 0 {
		return WalkerValue{}, false
	}
	if w.opts.Boundaries != nil && parent == w.boundaryStart && offset == w.opts.Boundaries.Start.Offset() {
		return WalkerValue{}, false
	}

	var node *Node
	if offset > 0 {
		node = parent.Child(parent.OffsetToIndex(offset - 1))
	}
	switch {
	case node != nil && node.IsElement():
		if w.opts.Shallow {
			pos := prev.WithOffset(offset - 1)
			w.position = pos
			return WalkerValue{Type: ElementStart, Item: node, PreviousPosition: prev, NextPosition: pos, Length: 1}, true
		}
		path := prev.Path()
		path[len(path)-1]--
		pos := Position{root: prev.root, path: append(path, node.MaxOffset())}
		w.position = pos
		w.visitedParent = node
		if w.opts.IgnoreElementEnd {
			return w.previous()
		}
		return WalkerValue{Type: ElementEnd, Item: node, PreviousPosition: prev, NextPosition: pos}, true

	case node != nil && node.IsText():
		count := 1
		if !w.opts.SingleCharacters {
			start := node.StartOffset()
			if w.opts.Boundaries != nil && parent == w.boundaryStart && w.opts.Boundaries.Start.Offset() > start {
				start = w.opts.Boundaries.Start.Offset()
			}
			count = offset - start
		}
		item := NewTextProxy(node, offset-node.StartOffset()-count, count)
		pos := prev.WithOffset(offset - count)
		w.position = pos
		return WalkerValue{Type: Text, Item: item, PreviousPosition: prev, NextPosition: pos, Length: count}, true
	}

	// leaving the visited element through its start
	pos := Position{root: prev.root, path: prev.ParentPath()}
	w.position = pos
	w.visitedParent = parent.parent
	return WalkerValue{Type: ElementStart, Item: parent, PreviousPosition: prev, NextPosition: pos, Length: 1}, true
}
