package tree

import "errors"

// Errors raised by tree operations.
var (
	// ErrInvalidPath indicates a position path that does not resolve in its root.
	ErrInvalidPath = errors.New("position path incorrect")

	// ErrNotRoot indicates a position or range rooted in a node that has a parent.
	ErrNotRoot = errors.New("position root invalid")

	// ErrOffsetOutOfRange indicates an offset outside its parent's bounds.
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrNotElement indicates a node that cannot hold children.
	ErrNotElement = errors.New("node is not an element")

	// ErrRangeNotFlat indicates a range whose boundaries have different parents.
	ErrRangeNotFlat = errors.New("range is not flat")

	// ErrDifferentRoots indicates two positions or ranges in different roots.
	ErrDifferentRoots = errors.New("positions in different roots")

	// ErrWalkerConfig indicates a tree walker constructed with an unusable configuration.
	ErrWalkerConfig = errors.New("tree walker misconfigured")

	// ErrMalformedJSON indicates serialized nodes or positions that cannot be restored.
	ErrMalformedJSON = errors.New("malformed serialized data")
)
