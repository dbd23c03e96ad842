package operation

import (
	"github.com/dshills/treemodel/internal/model/tree"
)

// Attribute changes one attribute on every item of a flat range. A nil
// OldValue adds the attribute; a nil NewValue removes it.
type Attribute struct {
	base
	Range    tree.Range
	Key      string
	OldValue any
	NewValue any
}

// NewAttribute creates an attribute operation.
func NewAttribute(rng tree.Range, key string, oldValue, newValue any, baseVersion int) *Attribute {
	return &Attribute{
		base:     base{baseVersion: baseVersion},
		Range:    tree.NewRange(rng.Start.WithStickiness(tree.StickToNone), rng.End.WithStickiness(tree.StickToNone)),
		Key:      key,
		OldValue: oldValue,
		NewValue: newValue,
	}
}

func (op *Attribute) Type() Type {
	switch {
	case op.OldValue == nil:
		return TypeAddAttribute
	case op.NewValue == nil:
		return TypeRemoveAttribute
	default:
		return TypeChangeAttribute
	}
}

func (op *Attribute) Validate() error {
	t := op.Type()
	if !op.Range.IsFlat() {
		return fail(t, ErrRangeNotFlat, "%s", op.Range)
	}
	if _, err := resolve(t, op.Range.Start); err != nil {
		return err
	}
	if _, err := resolve(t, op.Range.End); err != nil {
		return err
	}
	for _, item := range op.Range.Items(tree.WalkerOptions{Shallow: true}) {
		if op.OldValue != nil && !tree.ValuesEqual(item.Attribute(op.Key), op.OldValue) {
			return fail(t, ErrWrongOldValue, "%q is %v, expected %v", op.Key, item.Attribute(op.Key), op.OldValue)
		}
		if op.OldValue == nil && op.NewValue != nil && item.HasAttribute(op.Key) {
			return fail(t, ErrAttributeExists, "%q on %s", op.Key, op.Range)
		}
	}
	return nil
}

func (op *Attribute) Execute() error {
	if err := op.Validate(); err != nil {
		return err
	}
	if !tree.ValuesEqual(op.OldValue, op.NewValue) {
		tree.SetAttribute(op.Range, op.Key, op.NewValue)
	}
	return nil
}

func (op *Attribute) Reversed() Operation {
	return NewAttribute(op.Range, op.Key, op.NewValue, op.OldValue, op.next())
}

func (op *Attribute) Clone() Operation {
	return NewAttribute(op.Range, op.Key, op.OldValue, op.NewValue, op.baseVersion)
}

func (op *Attribute) ToJSON() map[string]any {
	j := op.json(op.Type())
	j["range"] = op.Range.ToJSON()
	j["key"] = op.Key
	j["oldValue"] = op.OldValue
	j["newValue"] = op.NewValue
	return j
}

// RootAttribute changes one attribute of a root.
type RootAttribute struct {
	base
	Root     *tree.Node
	Key      string
	OldValue any
	NewValue any
}

// NewRootAttribute creates a root attribute operation.
func NewRootAttribute(root *tree.Node, key string, oldValue, newValue any, baseVersion int) *RootAttribute {
	return &RootAttribute{
		base:     base{baseVersion: baseVersion},
		Root:     root,
		Key:      key,
		OldValue: oldValue,
		NewValue: newValue,
	}
}

func (op *RootAttribute) Type() Type {
	switch {
	case op.OldValue == nil:
		return TypeAddRootAttribute
	case op.NewValue == nil:
		return TypeRemoveRootAttribute
	default:
		return TypeChangeRootAttribute
	}
}

func (op *RootAttribute) Validate() error {
	t := op.Type()
	if op.Root == nil || op.Root.Parent() != nil {
		return fail(t, ErrNotElement, "attribute %q target is not a root", op.Key)
	}
	if op.OldValue != nil && !tree.ValuesEqual(op.Root.Attribute(op.Key), op.OldValue) {
		return fail(t, ErrWrongOldValue, "%q is %v, expected %v", op.Key, op.Root.Attribute(op.Key), op.OldValue)
	}
	if op.OldValue == nil && op.NewValue != nil && op.Root.HasAttribute(op.Key) {
		return fail(t, ErrAttributeExists, "%q on root", op.Key)
	}
	return nil
}

func (op *RootAttribute) Execute() error {
	if err := op.Validate(); err != nil {
		return err
	}
	op.Root.SetAttribute(op.Key, op.NewValue)
	return nil
}

func (op *RootAttribute) Reversed() Operation {
	return NewRootAttribute(op.Root, op.Key, op.NewValue, op.OldValue, op.next())
}

func (op *RootAttribute) Clone() Operation {
	return NewRootAttribute(op.Root, op.Key, op.OldValue, op.NewValue, op.baseVersion)
}

func (op *RootAttribute) ToJSON() map[string]any {
	j := op.json(op.Type())
	j["root"] = op.Root.RootName()
	j["key"] = op.Key
	j["oldValue"] = op.OldValue
	j["newValue"] = op.NewValue
	return j
}
