package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/treemodel/internal/model/tree"
)

// Step ops.
const (
	OpInsert          = "insert"
	OpAppend          = "append"
	OpRemove          = "remove"
	OpMove            = "move"
	OpMerge           = "merge"
	OpSplit           = "split"
	OpWrap            = "wrap"
	OpUnwrap          = "unwrap"
	OpRename          = "rename"
	OpSetAttribute    = "setAttribute"
	OpSetAttributes   = "setAttributes"
	OpRemoveAttribute = "removeAttribute"
	OpClearAttributes = "clearAttributes"
	OpAddMarker       = "addMarker"
	OpUpdateMarker    = "updateMarker"
	OpRemoveMarker    = "removeMarker"
	OpAddRoot         = "addRoot"
	OpDetachRoot      = "detachRoot"
	OpChange          = "change"
	OpUndo            = "undo"
	OpLivePosition    = "livePosition"
)

// writerOps run inside a change block.
var writerOps = map[string]bool{
	OpInsert: true, OpAppend: true, OpRemove: true, OpMove: true,
	OpMerge: true, OpSplit: true, OpWrap: true, OpUnwrap: true,
	OpRename: true, OpSetAttribute: true, OpSetAttributes: true,
	OpRemoveAttribute: true, OpClearAttributes: true, OpAddMarker: true,
	OpUpdateMarker: true, OpRemoveMarker: true, OpAddRoot: true,
	OpDetachRoot: true,
}

// Scenario is one scripted edit session.
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	Options     Options `yaml:"options,omitempty"`
	Roots       Roots   `yaml:"roots"`
	Steps       []Step  `yaml:"steps"`
	Expect      Expect  `yaml:"expect,omitempty"`

	// Source is the file the scenario was read from.
	Source string `yaml:"-"`
}

// Options override the model settings for one scenario.
type Options struct {
	TrackHistory            *bool `yaml:"trackHistory,omitempty"`
	IncludeGraveyardChanges *bool `yaml:"includeGraveyardChanges,omitempty"`
}

// RootSpec is the initial content of one root. The node name becomes the
// root element name, its children the root content.
type RootSpec struct {
	Name    string
	Content tree.NodeJSON
}

// Roots keeps root specs in file order.
type Roots []RootSpec

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Roots) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: roots must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var content tree.NodeJSON
		if err := node.Content[i+1].Decode(&content); err != nil {
			return err
		}
		*r = append(*r, RootSpec{Name: node.Content[i].Value, Content: content})
	}
	return nil
}

// Step is one edit. Which fields are used depends on Op.
type Step struct {
	Op string `yaml:"op"`

	At    *tree.PositionJSON `yaml:"at,omitempty"`
	To    *tree.PositionJSON `yaml:"to,omitempty"`
	Range *tree.RangeJSON    `yaml:"range,omitempty"`
	// Node addresses the node right after the position.
	Node  *tree.PositionJSON `yaml:"node,omitempty"`
	Limit *tree.PositionJSON `yaml:"limit,omitempty"`
	// Root names a root, e.g. as the parent of append.
	Root string `yaml:"root,omitempty"`

	Text       string         `yaml:"text,omitempty"`
	Content    *tree.NodeJSON `yaml:"content,omitempty"`
	Name       string         `yaml:"name,omitempty"`
	Element    string         `yaml:"element,omitempty"`
	Key        string         `yaml:"key,omitempty"`
	Value      any            `yaml:"value,omitempty"`
	Attributes map[string]any `yaml:"attributes,omitempty"`

	UsingOperation *bool `yaml:"usingOperation,omitempty"`
	AffectsData    *bool `yaml:"affectsData,omitempty"`

	// Steps are the nested steps of a change step.
	Steps []Step `yaml:"steps,omitempty"`

	// ExpectError is a substring of the error the step must fail with.
	ExpectError string `yaml:"expectError,omitempty"`
	// ExpectChanges is the number of diff items the step must produce.
	ExpectChanges *int `yaml:"expectChanges,omitempty"`
}

// Expect describes the state after the last step. Unset fields are not
// checked.
type Expect struct {
	// Roots maps root names to their rendering, e.g. "<$root>foo</$root>".
	Roots     map[string]string `yaml:"roots,omitempty"`
	Graveyard *string           `yaml:"graveyard,omitempty"`
	Version   *int              `yaml:"version,omitempty"`
	// Markers maps marker names to ranges. A null range expects no marker.
	Markers   map[string]*tree.RangeJSON   `yaml:"markers,omitempty"`
	Positions map[string]tree.PositionJSON `yaml:"positions,omitempty"`
	// Changes is the number of diff items over all steps.
	Changes *int `yaml:"changes,omitempty"`
}

// Parse reads a scenario. Unknown keys are rejected.
func Parse(data []byte, source string) (*Scenario, error) {
	s := &Scenario{Source: source}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidScenario, source, err)
	}
	if s.Name == "" {
		base := filepath.Base(source)
		s.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidScenario, source, err)
	}
	return s, nil
}

// Load reads the scenario file at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, path)
}

// LoadDir reads all files in dir whose name matches pattern, in name
// order. Unreadable files are reported in the joined error; the others
// are returned.
func LoadDir(dir, pattern string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	var scenarios []*Scenario
	var errs []error
	for _, path := range paths {
		s, err := Load(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scenarios = append(scenarios, s)
	}
	tracer().Infof("loaded %d scenarios from %s", len(scenarios), dir)
	return scenarios, errors.Join(errs...)
}

func (s *Scenario) validate() error {
	seen := map[string]bool{}
	for _, root := range s.Roots {
		switch {
		case root.Name == "":
			return errors.New("root without name")
		case root.Name == tree.GraveyardName:
			return fmt.Errorf("root name %q is reserved", root.Name)
		case seen[root.Name]:
			return fmt.Errorf("duplicate root %q", root.Name)
		}
		seen[root.Name] = true
	}
	if len(s.Steps) == 0 {
		return errors.New("no steps")
	}
	for i, step := range s.Steps {
		if err := step.validate(false); err != nil {
			return &StepError{Index: i, Op: step.Op, Err: err}
		}
	}
	return nil
}

func (st Step) validate(nested bool) error {
	switch {
	case writerOps[st.Op]:
		return nil
	case st.Op == OpChange && !nested:
		if len(st.Steps) == 0 {
			return fmt.Errorf("%w: steps", ErrMissingField)
		}
		for _, sub := range st.Steps {
			if err := sub.validate(true); err != nil {
				return err
			}
		}
		return nil
	case (st.Op == OpUndo || st.Op == OpLivePosition) && !nested:
		return nil
	case nested:
		return fmt.Errorf("%w: %q cannot be nested in a change step", ErrUnknownOp, st.Op)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, st.Op)
	}
}
