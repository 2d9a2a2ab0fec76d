package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance scenario: a dynamic entity, seed rows, a
// sequence of store operations, and assertions over the final state.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Session is an optional fixed session token, recorded in the trace
	// snapshot for deterministic golden comparison.
	Session string `yaml:"session,omitempty"`

	// Entity declares the record shape the store runs over.
	Entity EntityDef `yaml:"entity"`

	// Seed rows are committed at store construction, before any step runs.
	Seed []map[string]any `yaml:"seed,omitempty"`

	// Steps is the operation sequence. Each step can carry expectations.
	Steps []Step `yaml:"steps"`

	// Assertions validate the store after all steps ran.
	// Supported types: final_state, live_count, updated_entities, applied_total
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// EntityDef declares the dynamic entity: its fields, ordered key, and
// whether the single key field is a store-assigned identity.
type EntityDef struct {
	Name     string     `yaml:"name"`
	Fields   []FieldDef `yaml:"fields"`
	Key      []string   `yaml:"key"`
	Identity bool       `yaml:"identity,omitempty"`
}

// FieldDef declares one field. Type is one of "int", "string", "bool".
type FieldDef struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Step is one store operation.
//
// Ops and their payloads:
//   - add, update, remove: Row
//   - apply: none
//   - snapshot: none
//   - mutate: Key, Field, Value (in-place mutation of a committed entity)
//   - find: Key
type Step struct {
	Op     string         `yaml:"op"`
	Row    map[string]any `yaml:"row,omitempty"`
	Key    []any          `yaml:"key,omitempty"`
	Field  string         `yaml:"field,omitempty"`
	Value  any            `yaml:"value,omitempty"`
	Expect *StepExpect    `yaml:"expect,omitempty"`
}

// StepExpect specifies the expected outcome of a step.
//
// Applied and Error apply to "apply" steps; Found and Row to "find" steps.
// Row is a subset match - only specified fields are validated.
type StepExpect struct {
	Applied *int           `yaml:"applied,omitempty"`
	Error   string         `yaml:"error,omitempty"`
	Found   *bool          `yaml:"found,omitempty"`
	Row     map[string]any `yaml:"row,omitempty"`
}

// Assertion validates the store after the step sequence.
type Assertion struct {
	// Type specifies the assertion type:
	// - "final_state": find a committed row and verify expected values
	// - "live_count": check the live view size
	// - "updated_entities": check the dirty-field diff exactly
	// - "applied_total": check the total applied across all apply steps
	Type string `yaml:"type"`

	// Key locates the row (used by final_state).
	Key []any `yaml:"key,omitempty"`

	// Expect contains expected field values (used by final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number (used by live_count, applied_total).
	Count int `yaml:"count,omitempty"`

	// Updated is the expected diff (used by updated_entities), in store
	// order: entities by key, fields in declaration order. Exact match.
	Updated []UpdatedExpect `yaml:"updated,omitempty"`
}

// UpdatedExpect is one expected entry of the dirty-field diff.
type UpdatedExpect struct {
	Key     []any          `yaml:"key"`
	Changes []ChangeExpect `yaml:"changes"`
}

// ChangeExpect is one expected field change.
type ChangeExpect struct {
	Field    string `yaml:"field"`
	Original any    `yaml:"original"`
	Current  any    `yaml:"current"`
}

// Step op constants.
const (
	OpAdd      = "add"
	OpUpdate   = "update"
	OpRemove   = "remove"
	OpApply    = "apply"
	OpSnapshot = "snapshot"
	OpMutate   = "mutate"
	OpFind     = "find"
)

// Assertion type constants.
const (
	AssertFinalState      = "final_state"
	AssertLiveCount       = "live_count"
	AssertUpdatedEntities = "updated_entities"
	AssertAppliedTotal    = "applied_total"
)

// LoadScenario reads, validates, and parses a scenario YAML file.
//
// Validation happens in three layers: the embedded CUE schema checks shape
// and enums, strict YAML decoding catches field typos, and validateScenario
// checks cross-field semantics (key fields declared, rows match the entity).
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	if err := ValidateScenarioYAML(path, data); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "step:" vs "steps:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks cross-field semantics the CUE schema cannot see.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if err := validateEntity(&s.Entity); err != nil {
		return err
	}

	declared := make(map[string]bool, len(s.Entity.Fields))
	for _, fd := range s.Entity.Fields {
		declared[fd.Name] = true
	}

	for i, row := range s.Seed {
		for name := range row {
			if !declared[name] {
				return fmt.Errorf("seed[%d]: field %q is not declared", i, name)
			}
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step, declared); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, declared); err != nil {
			return err
		}
	}

	return nil
}

func validateEntity(def *EntityDef) error {
	if def.Name == "" {
		return fmt.Errorf("entity: name is required")
	}
	if len(def.Fields) == 0 {
		return fmt.Errorf("entity: fields list is required and must be non-empty")
	}
	if len(def.Key) == 0 {
		return fmt.Errorf("entity: key list is required and must be non-empty")
	}

	byName := make(map[string]string, len(def.Fields))
	for i, fd := range def.Fields {
		if fd.Name == "" {
			return fmt.Errorf("entity.fields[%d]: name is required", i)
		}
		switch fd.Type {
		case FieldInt, FieldString, FieldBool:
		default:
			return fmt.Errorf("entity.fields[%d]: unknown type %q", i, fd.Type)
		}
		if _, dup := byName[fd.Name]; dup {
			return fmt.Errorf("entity.fields[%d]: duplicate field %q", i, fd.Name)
		}
		byName[fd.Name] = fd.Type
	}

	for _, k := range def.Key {
		if _, ok := byName[k]; !ok {
			return fmt.Errorf("entity: key field %q is not declared", k)
		}
	}

	if def.Identity {
		if len(def.Key) != 1 {
			return fmt.Errorf("entity: identity requires exactly one key field, got %d", len(def.Key))
		}
		if byName[def.Key[0]] != FieldInt {
			return fmt.Errorf("entity: identity key field %q must be int", def.Key[0])
		}
	}

	return nil
}

func validateStep(index int, step *Step, declared map[string]bool) error {
	switch step.Op {
	case OpAdd, OpUpdate, OpRemove:
		if step.Row == nil {
			return fmt.Errorf("steps[%d]: row is required for %s", index, step.Op)
		}
		for name := range step.Row {
			if !declared[name] {
				return fmt.Errorf("steps[%d]: row field %q is not declared", index, name)
			}
		}
	case OpApply, OpSnapshot:
		// No payload.
	case OpMutate:
		if len(step.Key) == 0 {
			return fmt.Errorf("steps[%d]: key is required for mutate", index)
		}
		if step.Field == "" {
			return fmt.Errorf("steps[%d]: field is required for mutate", index)
		}
		if !declared[step.Field] {
			return fmt.Errorf("steps[%d]: field %q is not declared", index, step.Field)
		}
		if step.Value == nil {
			return fmt.Errorf("steps[%d]: value is required for mutate", index)
		}
	case OpFind:
		if len(step.Key) == 0 {
			return fmt.Errorf("steps[%d]: key is required for find", index)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}

	if step.Expect != nil {
		if (step.Expect.Applied != nil || step.Expect.Error != "") && step.Op != OpApply {
			return fmt.Errorf("steps[%d]: applied/error expectations only apply to apply steps", index)
		}
		if (step.Expect.Found != nil || step.Expect.Row != nil) && step.Op != OpFind {
			return fmt.Errorf("steps[%d]: found/row expectations only apply to find steps", index)
		}
	}

	return nil
}

func validateAssertion(index int, a *Assertion, declared map[string]bool) error {
	switch a.Type {
	case AssertFinalState:
		if len(a.Key) == 0 {
			return fmt.Errorf("assertions[%d]: key is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
		for name := range a.Expect {
			if !declared[name] {
				return fmt.Errorf("assertions[%d]: expect field %q is not declared", index, name)
			}
		}
	case AssertLiveCount, AssertAppliedTotal:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertUpdatedEntities:
		for i, u := range a.Updated {
			if len(u.Key) == 0 {
				return fmt.Errorf("assertions[%d].updated[%d]: key is required", index, i)
			}
			for j, ch := range u.Changes {
				if ch.Field == "" {
					return fmt.Errorf("assertions[%d].updated[%d].changes[%d]: field is required", index, i, j)
				}
				if !declared[ch.Field] {
					return fmt.Errorf("assertions[%d].updated[%d].changes[%d]: field %q is not declared", index, i, j, ch.Field)
				}
			}
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
