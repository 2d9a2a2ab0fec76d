package harness

import (
	"fmt"
	"reflect"
	"strings"
)

// AssertionError describes a failed assertion with enough context to debug
// it without re-running the scenario.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s", i+1, event.Op)
		if event.Row != nil {
			fmt.Fprintf(&buf, " %v", event.Row)
		}
		if event.Applied != nil {
			fmt.Fprintf(&buf, " applied=%d", *event.Applied)
		}
		if event.ErrorCode != "" {
			fmt.Fprintf(&buf, " error=%s", event.ErrorCode)
		}
		fmt.Fprintln(&buf)
	}

	return buf.String()
}

// evaluateAssertions checks every assertion against the finished store and
// collects failures on the result.
func evaluateAssertions(h *Harness, assertions []Assertion, result *Result) {
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertFinalState:
			err = assertFinalState(h, a, result.Trace)
		case AssertLiveCount:
			err = assertLiveCount(h, a, result.Trace)
		case AssertUpdatedEntities:
			err = assertUpdatedEntities(h, a, result.Trace)
		case AssertAppliedTotal:
			err = assertAppliedTotal(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			result.AddError(err.Error())
		}
	}
}

// assertFinalState finds a committed row by key and subset-matches the
// expected field values.
func assertFinalState(h *Harness, a Assertion, trace []TraceEvent) error {
	parts, err := normalizeKeyParts(h.def, a.Key)
	if err != nil {
		return err
	}

	rec, ok, err := h.store.Find(parts...)
	if err != nil {
		return err
	}
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("committed row with key %v", a.Key),
			Actual:   "not found",
			Trace:    trace,
		}
	}

	if msg := matchSubset(h.def, rec, a.Expect); msg != "" {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row %v matching %v", a.Key, a.Expect),
			Actual:   msg,
			Trace:    trace,
		}
	}
	return nil
}

// assertLiveCount checks the live view size.
func assertLiveCount(h *Harness, a Assertion, trace []TraceEvent) error {
	if got := h.store.Count(); got != a.Count {
		return &AssertionError{
			Type:     AssertLiveCount,
			Expected: fmt.Sprintf("%d entities in the live view", a.Count),
			Actual:   fmt.Sprintf("%d entities", got),
			Trace:    trace,
		}
	}
	return nil
}

// assertUpdatedEntities checks the dirty-field diff exactly: same entities
// in the same key order, same fields in the same order, same values.
func assertUpdatedEntities(h *Harness, a Assertion, trace []TraceEvent) error {
	updated := h.store.GetUpdatedEntities()

	if len(updated) != len(a.Updated) {
		return &AssertionError{
			Type:     AssertUpdatedEntities,
			Expected: fmt.Sprintf("%d updated entities", len(a.Updated)),
			Actual:   fmt.Sprintf("%d updated entities", len(updated)),
			Trace:    trace,
		}
	}

	for i, want := range a.Updated {
		parts, err := normalizeKeyParts(h.def, want.Key)
		if err != nil {
			return err
		}
		wantRec := NewRecord(nil)
		for j, kf := range h.def.Key {
			wantRec.Set(kf, parts[j])
		}

		got := updated[i]
		for _, kf := range h.def.Key {
			if got.Entity.Get(kf) != wantRec.Get(kf) {
				return &AssertionError{
					Type:     AssertUpdatedEntities,
					Expected: fmt.Sprintf("entry %d with key %v", i, want.Key),
					Actual:   fmt.Sprintf("entry %d has key fields %v", i, got.Entity.Values()),
					Trace:    trace,
				}
			}
		}

		if len(got.Changes) != len(want.Changes) {
			return &AssertionError{
				Type:     AssertUpdatedEntities,
				Expected: fmt.Sprintf("entry %d with %d changes", i, len(want.Changes)),
				Actual:   fmt.Sprintf("entry %d has %d changes", i, len(got.Changes)),
				Trace:    trace,
			}
		}

		for j, wc := range want.Changes {
			gc := got.Changes[j]
			if gc.Name != wc.Field {
				return &AssertionError{
					Type:     AssertUpdatedEntities,
					Expected: fmt.Sprintf("entry %d change %d on field %q", i, j, wc.Field),
					Actual:   fmt.Sprintf("field %q", gc.Name),
					Trace:    trace,
				}
			}
			ft := fieldTypeOf(h.def, wc.Field)
			wantOrig, err := normalizeValue(ft, wc.Original)
			if err != nil {
				return err
			}
			wantCur, err := normalizeValue(ft, wc.Current)
			if err != nil {
				return err
			}
			if !reflect.DeepEqual(gc.Original, wantOrig) || !reflect.DeepEqual(gc.Current, wantCur) {
				return &AssertionError{
					Type: AssertUpdatedEntities,
					Expected: fmt.Sprintf("entry %d field %q: %v -> %v",
						i, wc.Field, wantOrig, wantCur),
					Actual: fmt.Sprintf("%v -> %v", gc.Original, gc.Current),
					Trace:  trace,
				}
			}
		}
	}
	return nil
}

// assertAppliedTotal checks the sum of applied counts across apply steps.
func assertAppliedTotal(result *Result, a Assertion) error {
	if result.AppliedTotal != a.Count {
		return &AssertionError{
			Type:     AssertAppliedTotal,
			Expected: fmt.Sprintf("%d changes applied in total", a.Count),
			Actual:   fmt.Sprintf("%d changes applied", result.AppliedTotal),
			Trace:    result.Trace,
		}
	}
	return nil
}

func fieldTypeOf(def *EntityDef, name string) string {
	for _, fd := range def.Fields {
		if fd.Name == name {
			return fd.Type
		}
	}
	return ""
}
