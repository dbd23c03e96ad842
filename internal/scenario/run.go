package scenario

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dshills/treemodel/internal/config"
	"github.com/dshills/treemodel/internal/event"
	"github.com/dshills/treemodel/internal/model"
	"github.com/dshills/treemodel/internal/model/tree"
)

type runner struct {
	s      *Scenario
	m      *model.Model
	doc    *model.Document
	last   *model.Batch
	live   map[string]*model.LivePosition
	events []model.ChangeEvent
	result *Result
}

// Run executes s on a fresh model configured by cfg and the scenario's
// own options. Failing steps and unmet expectations are reported as
// mismatches of the result; the error is reserved for a scenario that
// cannot be set up and for cancellation of ctx.
func Run(ctx context.Context, s *Scenario, cfg config.ModelConfig) (*Result, error) {
	started := time.Now()
	if s.Options.TrackHistory != nil {
		cfg.TrackHistory = *s.Options.TrackHistory
	}
	if s.Options.IncludeGraveyardChanges != nil {
		cfg.IncludeGraveyardChanges = *s.Options.IncludeGraveyardChanges
	}
	m := model.New(cfg.Options()...)
	r := &runner{
		s:      s,
		m:      m,
		doc:    m.Document(),
		live:   map[string]*model.LivePosition{},
		result: &Result{Name: s.Name, Source: s.Source},
	}
	sub, err := r.doc.On(model.TopicChange+".**", r.collect)
	if err != nil {
		return nil, err
	}
	defer sub.Cancel()
	defer r.detach()

	if err := r.setup(); err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	tracer().Infof("scenario %q: %d steps", s.Name, len(s.Steps))
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return r.result, err
		}
		r.runStep(i, step)
	}
	r.snapshot()
	r.check()
	r.result.Duration = time.Since(started)
	return r.result, nil
}

// RunFile loads and runs the scenario at path.
func RunFile(ctx context.Context, path string, cfg config.ModelConfig) (*Result, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Run(ctx, s, cfg)
}

func (r *runner) collect(_ context.Context, ev event.Event) error {
	r.events = append(r.events, ev.Payload.(model.ChangeEvent))
	return nil
}

func (r *runner) detach() {
	for _, lp := range r.live {
		lp.Detach()
	}
}

// setup creates the roots in a batch that is not undoable.
func (r *runner) setup() error {
	for _, rs := range r.s.Roots {
		r.doc.CreateRoot(rs.Content.Name, rs.Name)
	}
	batch := model.NewBatch(model.BatchType{})
	err := r.m.EnqueueChange(batch, func(w *model.Writer) error {
		for _, rs := range r.s.Roots {
			root := r.doc.GetRoot(rs.Name)
			if len(rs.Content.Attributes) > 0 {
				w.SetNodeAttributes(rs.Content.Attributes, root)
			}
			for _, child := range rs.Content.Children {
				w.Append(tree.NodeFromJSON(child), root)
			}
		}
		return nil
	})
	r.events = nil
	return err
}

func (r *runner) runStep(i int, step Step) {
	r.events = nil
	sr := StepResult{Index: i, Op: step.Op}
	err := protect(func() error { return r.exec(step, &sr) })
	sr.Events = r.events
	if err != nil {
		sr.Err = &StepError{Index: i, Op: step.Op, Err: err}
	}
	tracer().Debugf("step %d %s: %d change events, err=%v", i+1, step.Op, len(sr.Events), err)

	switch {
	case step.ExpectError != "" && err == nil:
		r.mismatch("step %d (%s): expected error %q", i+1, step.Op, step.ExpectError)
	case step.ExpectError != "" && !containsFold(err.Error(), step.ExpectError):
		r.mismatch("step %d (%s): got error %q, want %q", i+1, step.Op, err, step.ExpectError)
	case step.ExpectError == "" && err != nil:
		r.mismatch("%v", sr.Err)
	}
	if step.ExpectChanges != nil && sr.ChangeCount() != *step.ExpectChanges {
		r.mismatch("step %d (%s): %d changes, want %d", i+1, step.Op, sr.ChangeCount(), *step.ExpectChanges)
	}
	r.result.Steps = append(r.result.Steps, sr)
}

func (r *runner) exec(step Step, sr *StepResult) error {
	switch step.Op {
	case OpUndo:
		if r.last == nil {
			return ErrNothingToUndo
		}
		undo, err := r.m.Undo(r.last)
		if err != nil {
			return err
		}
		if undo != nil {
			r.last = undo
			sr.BatchID = undo.ID()
		}
		return nil

	case OpLivePosition:
		if step.Name == "" {
			return fmt.Errorf("%w: name", ErrMissingField)
		}
		pos, err := r.position(step.At, "at")
		if err != nil {
			return err
		}
		lp, err := model.NewLivePosition(r.doc, pos)
		if err != nil {
			return err
		}
		if old := r.live[step.Name]; old != nil {
			old.Detach()
		}
		r.live[step.Name] = lp
		return nil
	}

	batch := model.NewBatch(model.DefaultBatchType())
	err := r.m.EnqueueChange(batch, func(w *model.Writer) error {
		if step.Op != OpChange {
			return r.write(w, step, sr)
		}
		for _, sub := range step.Steps {
			if err := r.write(w, sub, sr); err != nil {
				return err
			}
		}
		return nil
	})
	if len(batch.Operations()) > 0 {
		r.last = batch
		sr.BatchID = batch.ID()
	}
	return err
}

func (r *runner) mismatch(format string, args ...any) {
	r.result.Mismatches = append(r.result.Mismatches, fmt.Sprintf(format, args...))
}

// snapshot records the final state of the document.
func (r *runner) snapshot() {
	res := r.result
	res.Version = r.doc.Version()
	res.Roots = map[string]string{}
	res.Dumps = map[string]string{}
	res.Document = r.doc.ToJSON()
	for _, root := range r.doc.Roots(false) {
		res.Roots[root.RootName()] = root.String()
		res.Dumps[root.RootName()] = tree.Dump(root)
	}
	res.Graveyard = r.doc.Graveyard().String()
	res.Markers = map[string]tree.Range{}
	for _, marker := range r.doc.Markers().All() {
		res.Markers[marker.Name()] = marker.Range()
	}
	res.Positions = map[string]tree.Position{}
	for name, lp := range r.live {
		res.Positions[name] = lp.ToPosition()
	}
}

// check compares the snapshot with the expectations.
func (r *runner) check() {
	exp, res := r.s.Expect, r.result
	for _, name := range sortedKeys(exp.Roots) {
		got, ok := res.Roots[name]
		switch {
		case !ok:
			r.mismatch("root %s: not attached", name)
		case got != exp.Roots[name]:
			r.mismatch("root %s: got %s, want %s", name, got, exp.Roots[name])
		}
	}
	if exp.Graveyard != nil && res.Graveyard != *exp.Graveyard {
		r.mismatch("graveyard: got %s, want %s", res.Graveyard, *exp.Graveyard)
	}
	if exp.Version != nil && res.Version != *exp.Version {
		r.mismatch("version: got %d, want %d", res.Version, *exp.Version)
	}
	for _, name := range sortedKeys(exp.Markers) {
		want := exp.Markers[name]
		got, ok := res.Markers[name]
		switch {
		case want == nil && ok:
			r.mismatch("marker %s: got %s, want none", name, got)
		case want == nil:
		case !ok:
			r.mismatch("marker %s: missing", name)
		default:
			rng, err := tree.RangeFromJSON(*want, r.doc)
			if err != nil {
				r.mismatch("marker %s: %v", name, err)
			} else if !rng.IsEqual(got) {
				r.mismatch("marker %s: got %s, want %s", name, got, rng)
			}
		}
	}
	for _, name := range sortedKeys(exp.Positions) {
		got, ok := res.Positions[name]
		if !ok {
			r.mismatch("position %s: no live position", name)
			continue
		}
		pos, err := tree.PositionFromJSON(exp.Positions[name], r.doc)
		if err != nil {
			r.mismatch("position %s: %v", name, err)
		} else if !pos.IsEqual(got) {
			r.mismatch("position %s: got %s, want %s", name, got, pos)
		}
	}
	if exp.Changes != nil && res.ChangeCount() != *exp.Changes {
		r.mismatch("changes: got %d, want %d", res.ChangeCount(), *exp.Changes)
	}
}

// protect turns panics carrying an error into a returned error.
func protect(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			e, ok := rec.(error)
			if !ok {
				panic(rec)
			}
			err = e
		}
	}()
	return fn()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
