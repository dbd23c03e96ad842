package scenario

import (
	"fmt"

	"github.com/dshills/treemodel/internal/model"
	"github.com/dshills/treemodel/internal/model/tree"
)

// write performs one writer step inside a change block.
func (r *runner) write(w *model.Writer, step Step, sr *StepResult) error {
	switch step.Op {
	case OpInsert:
		pos, err := r.position(step.At, "at")
		if err != nil {
			return err
		}
		if step.Content != nil {
			w.Insert(tree.NodeFromJSON(*step.Content), pos)
		} else {
			w.InsertText(step.Text, step.Attributes, pos)
		}

	case OpAppend:
		parent, err := r.parent(step)
		if err != nil {
			return err
		}
		if step.Content != nil {
			w.Append(tree.NodeFromJSON(*step.Content), parent)
		} else {
			w.AppendText(step.Text, step.Attributes, parent)
		}

	case OpRemove:
		rng, node, err := r.target(step)
		if err != nil {
			return err
		}
		if node != nil {
			w.RemoveItem(node)
		} else {
			w.Remove(*rng)
		}

	case OpMove:
		rng, err := r.rangeOf(step.Range)
		if err != nil {
			return err
		}
		to, err := r.position(step.To, "to")
		if err != nil {
			return err
		}
		w.Move(rng, to)

	case OpMerge:
		pos, err := r.position(step.At, "at")
		if err != nil {
			return err
		}
		w.Merge(pos)

	case OpSplit:
		pos, err := r.position(step.At, "at")
		if err != nil {
			return err
		}
		var limit *tree.Node
		if step.Limit != nil {
			if limit, err = r.node(step.Limit, "limit"); err != nil {
				return err
			}
		}
		res := w.Split(pos, limit)
		sr.Split = &res

	case OpWrap:
		rng, err := r.rangeOf(step.Range)
		if err != nil {
			return err
		}
		if step.Element == "" {
			return fmt.Errorf("%w: element", ErrMissingField)
		}
		w.Wrap(rng, w.CreateElement(step.Element, step.Attributes))

	case OpUnwrap:
		node, err := r.node(step.Node, "node")
		if err != nil {
			return err
		}
		w.Unwrap(node)

	case OpRename:
		node, err := r.node(step.Node, "node")
		if err != nil {
			return err
		}
		if step.Name == "" {
			return fmt.Errorf("%w: name", ErrMissingField)
		}
		w.Rename(node, step.Name)

	case OpSetAttribute, OpRemoveAttribute:
		if step.Key == "" {
			return fmt.Errorf("%w: key", ErrMissingField)
		}
		value := step.Value
		if step.Op == OpRemoveAttribute {
			value = nil
		}
		rng, node, err := r.target(step)
		if err != nil {
			return err
		}
		if node != nil {
			w.SetNodeAttribute(step.Key, value, node)
		} else {
			w.SetAttribute(step.Key, value, *rng)
		}

	case OpSetAttributes:
		rng, node, err := r.target(step)
		if err != nil {
			return err
		}
		if node != nil {
			w.SetNodeAttributes(step.Attributes, node)
		} else {
			w.SetAttributes(step.Attributes, *rng)
		}

	case OpClearAttributes:
		rng, node, err := r.target(step)
		if err != nil {
			return err
		}
		if node != nil {
			w.ClearNodeAttributes(node)
		} else {
			w.ClearAttributes(*rng)
		}

	case OpAddMarker:
		if step.Name == "" {
			return fmt.Errorf("%w: name", ErrMissingField)
		}
		rng, err := r.rangeOf(step.Range)
		if err != nil {
			return err
		}
		opts := []model.MarkerOption{model.WithRange(rng), model.UsingOperation(true)}
		opts = append(opts, markerFlags(step)...)
		w.AddMarker(step.Name, opts...)

	case OpUpdateMarker:
		var opts []model.MarkerOption
		if step.Range != nil {
			rng, err := r.rangeOf(step.Range)
			if err != nil {
				return err
			}
			opts = append(opts, model.WithRange(rng))
		}
		w.UpdateMarker(step.Name, append(opts, markerFlags(step)...)...)

	case OpRemoveMarker:
		w.RemoveMarker(step.Name)

	case OpAddRoot:
		if step.Name == "" {
			return fmt.Errorf("%w: name", ErrMissingField)
		}
		w.AddRoot(step.Name, step.Element)

	case OpDetachRoot:
		if step.Name == "" {
			return fmt.Errorf("%w: name", ErrMissingField)
		}
		w.DetachRoot(step.Name)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, step.Op)
	}
	return nil
}

func markerFlags(step Step) []model.MarkerOption {
	var opts []model.MarkerOption
	if step.UsingOperation != nil {
		opts = append(opts, model.UsingOperation(*step.UsingOperation))
	}
	if step.AffectsData != nil {
		opts = append(opts, model.AffectsData(*step.AffectsData))
	}
	return opts
}

// ============================================================================
// Resolving references
// ============================================================================

func (r *runner) position(j *tree.PositionJSON, field string) (tree.Position, error) {
	if j == nil {
		return tree.Position{}, fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	pos, err := tree.PositionFromJSON(*j, r.doc)
	if err != nil {
		return tree.Position{}, err
	}
	if !pos.IsValid() {
		return tree.Position{}, fmt.Errorf("%w: %s %v in %s", tree.ErrInvalidPath, field, j.Path, j.Root)
	}
	return pos, nil
}

func (r *runner) rangeOf(j *tree.RangeJSON) (tree.Range, error) {
	if j == nil {
		return tree.Range{}, fmt.Errorf("%w: range", ErrMissingField)
	}
	start, err := r.position(&j.Start, "range start")
	if err != nil {
		return tree.Range{}, err
	}
	end, err := r.position(&j.End, "range end")
	if err != nil {
		return tree.Range{}, err
	}
	return tree.NewRange(start, end), nil
}

// node returns the node right after the referenced position.
func (r *runner) node(j *tree.PositionJSON, field string) (*tree.Node, error) {
	pos, err := r.position(j, field)
	if err != nil {
		return nil, err
	}
	node := pos.NodeAfter()
	if node == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrNoNode, field, pos)
	}
	return node, nil
}

// parent resolves a root name or a node reference.
func (r *runner) parent(step Step) (*tree.Node, error) {
	if step.Root != "" {
		root := r.doc.GetRoot(step.Root)
		if root == nil {
			return nil, fmt.Errorf("%w: unknown root %q", tree.ErrNotRoot, step.Root)
		}
		return root, nil
	}
	return r.node(step.Node, "node")
}

// target resolves the range or node a step applies to.
func (r *runner) target(step Step) (*tree.Range, *tree.Node, error) {
	if step.Node != nil {
		node, err := r.node(step.Node, "node")
		return nil, node, err
	}
	rng, err := r.rangeOf(step.Range)
	if err != nil {
		return nil, nil, err
	}
	return &rng, nil, nil
}
