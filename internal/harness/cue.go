package harness

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

// scenarioSchema is the CUE definition scenario files must satisfy.
// Definitions are closed, so unknown fields are rejected at this layer
// before strict YAML decoding ever runs.
const scenarioSchema = `
#Value: int | string | bool

#Row: {[string]: #Value}

#Field: {
	name: string & !=""
	type: "int" | "string" | "bool"
}

#Entity: {
	name:      string & !=""
	fields:    [...#Field] & [_, ...]
	key:       [...string] & [_, ...]
	identity?: bool
}

#StepExpect: {
	applied?: int & >=0
	error?:   "CONFIG_ERROR" | "DUPLICATE_KEY" | "MISSING_ROW" | "CONCURRENCY_VIOLATION"
	found?:   bool
	row?:     #Row
}

#Step: {
	op:      "add" | "update" | "remove" | "apply" | "snapshot" | "mutate" | "find"
	row?:    #Row
	key?:    [...#Value] & [_, ...]
	field?:  string & !=""
	value?:  #Value
	expect?: #StepExpect
}

#Change: {
	field:    string & !=""
	original: #Value
	current:  #Value
}

#Updated: {
	key:     [...#Value] & [_, ...]
	changes: [...#Change]
}

#Assertion: {
	type:     "final_state" | "live_count" | "updated_entities" | "applied_total"
	key?:     [...#Value] & [_, ...]
	expect?:  #Row
	count?:   int & >=0
	updated?: [...#Updated]
}

#Scenario: {
	name:        string & !=""
	description: string & !=""
	session?:    string & !=""
	entity:      #Entity
	seed?:       [...#Row]
	steps:       [...#Step] & [_, ...]
	assertions?: [...#Assertion]
}
`

var (
	schemaOnce  sync.Once
	schemaValue cue.Value
	schemaErr   error
)

// compiledSchema compiles the scenario schema once per process.
func compiledSchema() (cue.Value, error) {
	schemaOnce.Do(func() {
		ctx := cuecontext.New()
		v := ctx.CompileString(scenarioSchema)
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compile scenario schema: %w", err)
			return
		}
		schemaValue = v.LookupPath(cue.ParsePath("#Scenario"))
		if err := schemaValue.Err(); err != nil {
			schemaErr = fmt.Errorf("lookup #Scenario: %w", err)
		}
	})
	return schemaValue, schemaErr
}

// ValidateScenarioYAML checks raw scenario YAML against the embedded CUE
// schema. The filename is used only for error positions.
func ValidateScenarioYAML(filename string, data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return fmt.Errorf("parse YAML: %w", err)
	}

	// Build in the schema's context so the values can unify.
	doc := schema.Context().BuildFile(file)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("build scenario value: %s", cueerrors.Details(err, nil))
	}

	unified := doc.Unify(schema)
	if err := unified.Err(); err != nil {
		return fmt.Errorf("schema mismatch: %s", cueerrors.Details(err, nil))
	}
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema mismatch: %s", cueerrors.Details(err, nil))
	}

	return nil
}
