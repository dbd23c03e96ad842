package tree

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
	tp "github.com/xlab/treeprint"
)

// Dump renders the subtree of n as an indented tree, one node per line.
func Dump(n *Node) string {
	t := tp.New()
	t.SetValue(label(n))
	dumpChildren(t, n)
	return t.String()
}

func dumpChildren(t tp.Tree, n *Node) {
	for _, c := range n.children {
		if c.IsText() {
			t.AddNode(label(c))
			continue
		}
		dumpChildren(t.AddBranch(label(c)), c)
	}
}

func label(n *Node) string {
	var b strings.Builder
	switch n.kind {
	case KindText:
		fmt.Fprintf(&b, "%q (%d chars, %d graphemes)", n.Data(), len(n.text), uniseg.GraphemeClusterCount(n.Data()))
	case KindFragment:
		b.WriteString("#fragment")
	case KindRoot:
		fmt.Fprintf(&b, "%s root=%s", n.name, n.rootName)
		if !n.attached {
			b.WriteString(" detached")
		}
	default:
		b.WriteString(n.name)
	}
	for _, k := range n.AttributeKeys() {
		fmt.Fprintf(&b, " %s=%v", k, n.attrs[k])
	}
	return b.String()
}
