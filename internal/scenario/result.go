package scenario

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/sjson"

	"github.com/dshills/treemodel/internal/model"
	"github.com/dshills/treemodel/internal/model/differ"
	"github.com/dshills/treemodel/internal/model/tree"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Index   int
	Op      string
	BatchID string
	// Events are the change events published while the step ran.
	Events []model.ChangeEvent
	// Split is set by split steps.
	Split *model.SplitResult
	Err   error
}

// ChangeCount returns the number of diff items of the step.
func (sr StepResult) ChangeCount() int {
	n := 0
	for _, ev := range sr.Events {
		n += len(ev.Changes)
	}
	return n
}

// Result is the outcome of a scenario run.
type Result struct {
	Name   string
	Source string
	Steps  []StepResult

	// Roots maps attached root names to their rendering.
	Roots map[string]string
	// Dumps maps attached root names to an indented tree dump.
	Dumps     map[string]string
	Document  map[string]tree.NodeJSON
	Graveyard string
	Markers   map[string]tree.Range
	Positions map[string]tree.Position
	Version   int

	Mismatches []string
	Duration   time.Duration
}

// Passed reports whether the run met all expectations.
func (r *Result) Passed() bool {
	return len(r.Mismatches) == 0
}

// ChangeCount returns the number of diff items over all steps.
func (r *Result) ChangeCount() int {
	n := 0
	for _, sr := range r.Steps {
		n += sr.ChangeCount()
	}
	return n
}

// ============================================================================
// Rendering
// ============================================================================

// Text renders a human readable report. Failed runs include tree dumps.
func (r *Result) Text() string {
	var b strings.Builder
	status := "PASS"
	if !r.Passed() {
		status = "FAIL"
	}
	fmt.Fprintf(&b, "%s %s (%d steps, version %d, %d changes)\n",
		status, r.Name, len(r.Steps), r.Version, r.ChangeCount())
	if r.Passed() {
		return b.String()
	}
	for _, m := range r.Mismatches {
		fmt.Fprintf(&b, "  - %s\n", m)
	}
	for _, name := range sortedKeys(r.Dumps) {
		fmt.Fprintf(&b, "  root %s:\n", name)
		for _, line := range strings.Split(strings.TrimRight(r.Dumps[name], "\n"), "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	return b.String()
}

// JSON renders the result as a JSON document.
func (r *Result) JSON() ([]byte, error) {
	doc := []byte(`{}`)
	var err error
	set := func(path string, value any) {
		if err == nil {
			doc, err = sjson.SetBytes(doc, path, value)
		}
	}
	set("name", r.Name)
	set("source", r.Source)
	set("passed", r.Passed())
	set("version", r.Version)
	set("durationMs", r.Duration.Milliseconds())
	set("steps", []any{})
	for _, sr := range r.Steps {
		set("steps.-1", stepJSON(sr))
	}
	set("roots", map[string]any{})
	for _, name := range sortedKeys(r.Document) {
		set("roots."+escapePath(name), r.Document[name])
	}
	set("markers", map[string]any{})
	for _, name := range sortedKeys(r.Markers) {
		set("markers."+escapePath(name), r.Markers[name])
	}
	set("positions", map[string]any{})
	for _, name := range sortedKeys(r.Positions) {
		set("positions."+escapePath(name), r.Positions[name])
	}
	mismatches := r.Mismatches
	if mismatches == nil {
		mismatches = []string{}
	}
	set("mismatches", mismatches)
	return doc, err
}

func stepJSON(sr StepResult) map[string]any {
	out := map[string]any{
		"index": sr.Index + 1,
		"op":    sr.Op,
	}
	if sr.BatchID != "" {
		out["batch"] = sr.BatchID
	}
	if sr.Err != nil {
		out["error"] = sr.Err.Error()
	}
	if sr.Split != nil {
		out["split"] = map[string]any{"position": sr.Split.Position, "range": sr.Split.Range}
	}
	changes := []map[string]any{}
	var roots []map[string]any
	var markersToAdd, markersToRemove []differ.MarkerRange
	for _, ev := range sr.Events {
		for _, item := range ev.Changes {
			changes = append(changes, diffJSON(item))
		}
		for _, rc := range ev.ChangedRoots {
			roots = append(roots, rootChangeJSON(rc))
		}
		markersToAdd = append(markersToAdd, ev.MarkersToAdd...)
		markersToRemove = append(markersToRemove, ev.MarkersToRemove...)
	}
	out["changes"] = changes
	if len(roots) > 0 {
		out["changedRoots"] = roots
	}
	if len(markersToAdd) > 0 {
		out["markersToAdd"] = markerRangesJSON(markersToAdd)
	}
	if len(markersToRemove) > 0 {
		out["markersToRemove"] = markerRangesJSON(markersToRemove)
	}
	return out
}

func diffJSON(item differ.DiffItem) map[string]any {
	if item.Type == differ.Attribute {
		return map[string]any{
			"type":     string(item.Type),
			"range":    item.Range,
			"key":      item.AttributeKey,
			"oldValue": item.AttributeOldValue,
			"newValue": item.AttributeNewValue,
		}
	}
	out := map[string]any{
		"type":     string(item.Type),
		"name":     item.Name,
		"position": item.Position,
		"length":   item.Length,
	}
	if len(item.Attributes) > 0 {
		out["attributes"] = item.Attributes
	}
	return out
}

func rootChangeJSON(rc differ.RootChange) map[string]any {
	out := map[string]any{"name": rc.Name}
	if rc.State != "" {
		out["state"] = rc.State
	}
	if len(rc.Attributes) > 0 {
		attrs := map[string]any{}
		for key, change := range rc.Attributes {
			attrs[key] = map[string]any{"oldValue": change.OldValue, "newValue": change.NewValue}
		}
		out["attributes"] = attrs
	}
	return out
}

func markerRangesJSON(ranges []differ.MarkerRange) []map[string]any {
	out := make([]map[string]any, len(ranges))
	for i, mr := range ranges {
		out[i] = map[string]any{"name": mr.Name, "range": mr.Range}
	}
	return out
}

var pathEscaper = strings.NewReplacer(
	`\`, `\\`, `.`, `\.`, `*`, `\*`, `?`, `\?`, `|`, `\|`, `#`, `\#`, `@`, `\@`,
)

// escapePath quotes the characters sjson treats as path syntax.
func escapePath(key string) string {
	return pathEscaper.Replace(key)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
