package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/standinlabs/standin/internal/table"
)

// Harness executes one scenario against a fresh store.
type Harness struct {
	def    *EntityDef
	store  *table.Store[Record]
	logger *slog.Logger
	seq    int64
}

// Option configures a scenario run.
type Option func(*runConfig)

type runConfig struct {
	rec table.Recorder
}

// WithRecorder journals every applied change of the run through rec.
func WithRecorder(rec table.Recorder) Option {
	return func(c *runConfig) {
		c.rec = rec
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh store for isolation. Malformed steps
// (rows that don't fit the entity, keys that don't normalize) abort the run
// with an error; expectation and assertion failures are collected on the
// result instead.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	sch, err := BuildSchema(&scenario.Entity)
	if err != nil {
		return nil, err
	}

	seeds := make([]*Record, 0, len(scenario.Seed))
	for i, row := range scenario.Seed {
		rec, err := buildRecord(&scenario.Entity, row)
		if err != nil {
			return nil, fmt.Errorf("seed[%d]: %w", i, err)
		}
		seeds = append(seeds, rec)
	}

	tableOpts := []table.Option[Record]{table.WithSeed(seeds...)}
	if cfg.rec != nil {
		tableOpts = append(tableOpts, table.WithRecorder[Record](cfg.rec))
	}
	st, err := table.New(sch, tableOpts...)
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	h := &Harness{
		def:    &scenario.Entity,
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(i, &step, result); err != nil {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Op, err)
		}
	}

	evaluateAssertions(h, scenario.Assertions, result)

	return result, nil
}

// nextSeq advances the logical step clock.
func (h *Harness) nextSeq() int64 {
	h.seq++
	return h.seq
}

// executeStep runs one step, appends its trace event, and checks its
// expectations.
func (h *Harness) executeStep(index int, step *Step, result *Result) error {
	switch step.Op {
	case OpAdd, OpUpdate, OpRemove:
		return h.executeWrite(step, result)
	case OpApply:
		return h.executeApply(index, step, result)
	case OpSnapshot:
		h.store.UpdateSnapshot()
		result.Trace = append(result.Trace, TraceEvent{Seq: h.nextSeq(), Op: OpSnapshot})
		return nil
	case OpMutate:
		return h.executeMutate(index, step, result)
	case OpFind:
		return h.executeFind(index, step, result)
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

func (h *Harness) executeWrite(step *Step, result *Result) error {
	rec, err := buildRecord(h.def, step.Row)
	if err != nil {
		return err
	}

	switch step.Op {
	case OpAdd:
		h.store.Add(rec)
	case OpUpdate:
		h.store.Update(rec)
	case OpRemove:
		h.store.Remove(rec)
	}

	result.Trace = append(result.Trace, TraceEvent{
		Seq: h.nextSeq(),
		Op:  step.Op,
		Row: rec.Values(),
	})

	h.logger.Info("buffered change", "op", step.Op, "pending", h.store.Pending())
	return nil
}

func (h *Harness) executeApply(index int, step *Step, result *Result) error {
	applied, err := h.store.ApplyChanges()
	result.AppliedTotal += applied

	event := TraceEvent{
		Seq:     h.nextSeq(),
		Op:      OpApply,
		Applied: &applied,
	}

	code := ""
	if err != nil {
		var se *table.StoreError
		if !errors.As(err, &se) {
			return fmt.Errorf("apply failed without a store error: %w", err)
		}
		code = string(se.Code)
		event.ErrorCode = code
	}
	result.Trace = append(result.Trace, event)

	if step.Expect != nil {
		if step.Expect.Applied != nil && *step.Expect.Applied != applied {
			result.AddError(fmt.Sprintf(
				"steps[%d] (apply): applied = %d, want %d", index, applied, *step.Expect.Applied))
		}
		if step.Expect.Error != code {
			result.AddError(fmt.Sprintf(
				"steps[%d] (apply): error code = %q, want %q", index, code, step.Expect.Error))
		}
	} else if err != nil {
		result.AddError(fmt.Sprintf("steps[%d] (apply): unexpected failure: %v", index, err))
	}

	h.logger.Info("applied changes", "applied", applied, "error_code", code)
	return nil
}

func (h *Harness) executeMutate(index int, step *Step, result *Result) error {
	parts, err := normalizeKeyParts(h.def, step.Key)
	if err != nil {
		return err
	}

	rec, ok, err := h.store.Find(parts...)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("mutate target %v is not committed", step.Key)
	}

	fieldType := ""
	for _, fd := range h.def.Fields {
		if fd.Name == step.Field {
			fieldType = fd.Type
		}
	}
	value, err := normalizeValue(fieldType, step.Value)
	if err != nil {
		return fmt.Errorf("field %q: %w", step.Field, err)
	}

	// In-place mutation of the stored instance; only the snapshot diff
	// observes it.
	rec.Set(step.Field, value)

	result.Trace = append(result.Trace, TraceEvent{
		Seq:   h.nextSeq(),
		Op:    OpMutate,
		Key:   parts,
		Field: step.Field,
		Value: value,
	})
	return nil
}

func (h *Harness) executeFind(index int, step *Step, result *Result) error {
	parts, err := normalizeKeyParts(h.def, step.Key)
	if err != nil {
		return err
	}

	rec, found, err := h.store.Find(parts...)
	if err != nil {
		return err
	}

	event := TraceEvent{
		Seq:   h.nextSeq(),
		Op:    OpFind,
		Key:   parts,
		Found: &found,
	}
	if found {
		event.Row = rec.Values()
	}
	result.Trace = append(result.Trace, event)

	if step.Expect != nil {
		if step.Expect.Found != nil && *step.Expect.Found != found {
			result.AddError(fmt.Sprintf(
				"steps[%d] (find): found = %v, want %v", index, found, *step.Expect.Found))
		}
		if step.Expect.Row != nil {
			if !found {
				result.AddError(fmt.Sprintf(
					"steps[%d] (find): expected row values but nothing was found", index))
			} else if msg := matchSubset(h.def, rec, step.Expect.Row); msg != "" {
				result.AddError(fmt.Sprintf("steps[%d] (find): %s", index, msg))
			}
		}
	}
	return nil
}

// matchSubset checks that every expected field matches the record's value.
// Returns a failure description, or "" on match.
func matchSubset(def *EntityDef, rec *Record, expect map[string]any) string {
	byName := make(map[string]string, len(def.Fields))
	for _, fd := range def.Fields {
		byName[fd.Name] = fd.Type
	}

	for name, raw := range expect {
		want, err := normalizeValue(byName[name], raw)
		if err != nil {
			return fmt.Sprintf("field %q: %v", name, err)
		}
		if got := rec.Get(name); got != want {
			return fmt.Sprintf("field %q = %v, want %v", name, got, want)
		}
	}
	return ""
}
