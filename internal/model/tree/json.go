package tree

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// NodeJSON is the plain serialized form of a node. It doubles as the YAML
// form used by scenario files.
type NodeJSON struct {
	Name       string         `json:"name,omitempty" yaml:"name,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Data       string         `json:"data,omitempty" yaml:"data,omitempty"`
	Children   []NodeJSON     `json:"children,omitempty" yaml:"children,omitempty"`
}

// PositionJSON is the serialized form of a position.
type PositionJSON struct {
	Root       string `json:"root" yaml:"root"`
	Path       []int  `json:"path" yaml:"path,flow"`
	Stickiness string `json:"stickiness,omitempty" yaml:"stickiness,omitempty"`
}

// RangeJSON is the serialized form of a range.
type RangeJSON struct {
	Start PositionJSON `json:"start" yaml:"start"`
	End   PositionJSON `json:"end" yaml:"end"`
}

// RootResolver maps root names to roots.
type RootResolver interface {
	GetRoot(name string) *Node
}

// ToJSON serializes the subtree of n. Roots serialize like elements.
func (n *Node) ToJSON() NodeJSON {
	j := NodeJSON{Attributes: n.Attributes()}
	switch n.kind {
	case KindText:
		j.Data = n.Data()
		return j
	case KindElement, KindRoot:
		j.Name = n.name
	}
	for _, c := range n.children {
		j.Children = append(j.Children, c.ToJSON())
	}
	return j
}

// MarshalJSON implements json.Marshaler.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.ToJSON())
}

// NodeFromJSON restores a detached node. Entries without a name are text
// when they carry data or no children, fragments otherwise.
func NodeFromJSON(j NodeJSON) *Node {
	switch {
	case j.Name != "":
		el := NewElement(j.Name, j.Attributes)
		for _, c := range j.Children {
			el.AppendChildren(NodeFromJSON(c))
		}
		return el
	case j.Data != "" || len(j.Children) == 0:
		return NewText(j.Data, j.Attributes)
	default:
		frag := NewFragment()
		for _, c := range j.Children {
			frag.AppendChildren(NodeFromJSON(c))
		}
		return frag
	}
}

// ParseNodeJSON reads a serialized node. Unknown keys are ignored and
// numeric attribute values are read as float64.
func ParseNodeJSON(data []byte) (*Node, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedJSON)
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return nil, fmt.Errorf("%w: node must be an object", ErrMalformedJSON)
	}
	return NodeFromJSON(nodeJSONFromResult(res)), nil
}

func nodeJSONFromResult(res gjson.Result) NodeJSON {
	j := NodeJSON{
		Name: res.Get("name").String(),
		Data: res.Get("data").String(),
	}
	if attrs := res.Get("attributes"); attrs.IsObject() {
		j.Attributes = make(map[string]any)
		attrs.ForEach(func(k, v gjson.Result) bool {
			j.Attributes[k.String()] = v.Value()
			return true
		})
	}
	res.Get("children").ForEach(func(_, v gjson.Result) bool {
		j.Children = append(j.Children, nodeJSONFromResult(v))
		return true
	})
	return j
}

// ToJSON serializes the position.
func (p Position) ToJSON() PositionJSON {
	j := PositionJSON{Root: p.root.rootName, Path: p.Path()}
	if p.Stickiness != StickToNone {
		j.Stickiness = p.Stickiness.String()
	}
	return j
}

// MarshalJSON implements json.Marshaler.
func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ToJSON())
}

// PositionFromJSON restores a position, resolving its root by name.
func PositionFromJSON(j PositionJSON, roots RootResolver) (Position, error) {
	root := roots.GetRoot(j.Root)
	if root == nil {
		return Position{}, fmt.Errorf("%w: unknown root %q", ErrMalformedJSON, j.Root)
	}
	if len(j.Path) == 0 {
		return Position{}, fmt.Errorf("%w: empty path", ErrMalformedJSON)
	}
	return Position{root: root, path: append([]int(nil), j.Path...), Stickiness: ParseStickiness(j.Stickiness)}, nil
}

// ParsePositionJSON reads a serialized position.
func ParsePositionJSON(data []byte, roots RootResolver) (Position, error) {
	if !gjson.ValidBytes(data) {
		return Position{}, fmt.Errorf("%w: invalid JSON", ErrMalformedJSON)
	}
	res := gjson.ParseBytes(data)
	j := PositionJSON{Root: res.Get("root").String(), Stickiness: res.Get("stickiness").String()}
	for _, v := range res.Get("path").Array() {
		j.Path = append(j.Path, int(v.Int()))
	}
	return PositionFromJSON(j, roots)
}

// ToJSON serializes the range.
func (r Range) ToJSON() RangeJSON {
	return RangeJSON{Start: r.Start.ToJSON(), End: r.End.ToJSON()}
}

// MarshalJSON implements json.Marshaler.
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToJSON())
}

// RangeFromJSON restores a range.
func RangeFromJSON(j RangeJSON, roots RootResolver) (Range, error) {
	start, err := PositionFromJSON(j.Start, roots)
	if err != nil {
		return Range{}, err
	}
	end, err := PositionFromJSON(j.End, roots)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: start, End: end}, nil
}
