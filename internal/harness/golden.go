package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/standinlabs/standin/internal/entity"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Session      string       `json:"session,omitempty"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any so it can run
// through the canonical JSON encoder, which only handles primitives, maps,
// and slices.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"seq": event.Seq,
			"op":  event.Op,
		}
		if event.Row != nil {
			eventMap["row"] = event.Row
		}
		if event.Key != nil {
			eventMap["key"] = event.Key
		}
		if event.Field != "" {
			eventMap["field"] = event.Field
		}
		if event.Value != nil {
			eventMap["value"] = event.Value
		}
		if event.Applied != nil {
			eventMap["applied"] = int64(*event.Applied)
		}
		if event.ErrorCode != "" {
			eventMap["error_code"] = event.ErrorCode
		}
		if event.Found != nil {
			eventMap["found"] = *event.Found
		}
		traceList[i] = eventMap
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
	if s.Session != "" {
		result["session"] = s.Session
	}
	return result
}

// Canonical serializes the snapshot to canonical JSON.
func (s *TraceSnapshot) Canonical() ([]byte, error) {
	return entity.MarshalCanonical(s.toCanonicalMap())
}

// Hash returns the domain-separated digest of the canonical snapshot.
func (s *TraceSnapshot) Hash() (string, error) {
	canonical, err := s.Canonical()
	if err != nil {
		return "", err
	}
	return entity.TraceHash(canonical), nil
}

// RunWithGolden executes a scenario and compares the trace against a golden
// file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files serve as the source of truth for expected trace behavior.
// Returns error if scenario execution fails; a trace mismatch fails the
// test via goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		Session:      scenario.Session,
		Trace:        result.Trace,
	}

	traceJSON, err := snapshot.Canonical()
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return result, nil
}

// AssertGolden compares an already-computed result's trace against a golden
// file, without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	}

	traceJSON, err := snapshot.Canonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
