// Package harness provides a scenario-driven conformance harness for the
// store.
//
// Scenarios are YAML files describing a store over a dynamic record entity:
// the entity's fields and key are declared in the scenario, rows are seeded,
// and a sequence of steps (add, update, remove, apply, snapshot, mutate,
// find) is executed with per-step expectations. Assertions validate the
// final state, the live view count, the dirty-field diff, and the total
// number of applied changes.
//
// Scenario structure is validated twice: against an embedded CUE schema
// (shape, enums, value types) before decoding, then semantically in Go
// (declared fields exist, key fields are declared, step payloads match the
// entity).
//
// Every run produces a trace: one event per step, in execution order, with a
// logical seq. RunWithGolden serializes the trace to canonical JSON and
// compares it against testdata/golden/<name>.golden via goldie, so a
// scenario's observable behavior is pinned byte-for-byte.
package harness
