package operation

import (
	"github.com/dshills/treemodel/internal/model/tree"
)

// Insert puts nodes at a position.
type Insert struct {
	base
	Position tree.Position
	Nodes    []*tree.Node
}

// NewInsert creates an insert operation. The nodes are normalized: text
// proxies become text nodes and adjacent equal text is joined.
func NewInsert(pos tree.Position, nodes []*tree.Node, baseVersion int) *Insert {
	items := make([]tree.Item, len(nodes))
	for i, n := range nodes {
		items[i] = n
	}
	return &Insert{
		base:     base{baseVersion: baseVersion},
		Position: pos.WithStickiness(tree.StickToNone),
		Nodes:    tree.NormalizeNodes(items...),
	}
}

func (op *Insert) Type() Type { return TypeInsert }

// HowMany returns the offset size of the inserted nodes.
func (op *Insert) HowMany() int {
	n := 0
	for _, node := range op.Nodes {
		n += node.OffsetSize()
	}
	return n
}

func (op *Insert) Validate() error {
	_, err := resolve(TypeInsert, op.Position)
	return err
}

// Execute inserts the nodes. The operation keeps deep copies so that it
// can still be serialized or cloned afterwards.
func (op *Insert) Execute() error {
	if err := op.Validate(); err != nil {
		return err
	}
	originals := op.Nodes
	op.Nodes = cloneNodes(originals)
	tree.Insert(op.Position, originals...)
	return nil
}

// Reversed moves the inserted nodes to the graveyard. Inserts into detached
// trees are reversed by a detach.
func (op *Insert) Reversed() Operation {
	gy, ok := graveyardStart(op.Position)
	if !ok {
		return NewDetach(op.Position, op.HowMany())
	}
	return NewMove(op.Position, op.HowMany(), gy, op.next())
}

func (op *Insert) Clone() Operation {
	return &Insert{
		base:     base{baseVersion: op.baseVersion},
		Position: op.Position,
		Nodes:    cloneNodes(op.Nodes),
	}
}

func (op *Insert) ToJSON() map[string]any {
	j := op.json(TypeInsert)
	j["position"] = op.Position.ToJSON()
	nodes := make([]tree.NodeJSON, len(op.Nodes))
	for i, n := range op.Nodes {
		nodes[i] = n.ToJSON()
	}
	j["nodes"] = nodes
	return j
}

func cloneNodes(nodes []*tree.Node) []*tree.Node {
	out := make([]*tree.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone(true)
	}
	return out
}
