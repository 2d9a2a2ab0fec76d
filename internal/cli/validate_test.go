package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidScenario(t *testing.T) {
	path := writeCLIScenario(t, passingScenario)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ Scenario valid: cli-pass")
	assert.Contains(t, output, "Entity: counter (2 fields)")
	assert.Contains(t, output, "Steps: 2, Assertions: 1")
}

func TestValidateValidScenarioJSON(t *testing.T) {
	path := writeCLIScenario(t, passingScenario)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, "cli-pass", data["scenario"])
}

func TestValidateNonExistentFile(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/scenario.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "not found")
}

func TestValidateUnknownOp(t *testing.T) {
	scenario := `name: cli-bad-op
description: Uses an op the schema does not know.
entity:
  name: counter
  fields:
    - name: name
      type: string
  key: [name]
steps:
  - op: upsert
    row: {name: hits}
`
	path := writeCLIScenario(t, scenario)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "Validation failed")
}

func TestValidateUndeclaredKeyField(t *testing.T) {
	scenario := `name: cli-bad-key
description: Key names a field the entity does not declare.
entity:
  name: counter
  fields:
    - name: name
      type: string
  key: [id]
steps:
  - op: add
    row: {name: hits}
`
	path := writeCLIScenario(t, scenario)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestValidateInvalidScenarioJSON(t *testing.T) {
	path := writeCLIScenario(t, "name: broken\nsteps: []\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_SCENARIO", resp.Error.Code)
}

func TestValidateCheckedInScenarios(t *testing.T) {
	paths := []string{
		"../harness/testdata/scenarios/buffered-commit-lifecycle.yaml",
		"../harness/testdata/scenarios/partial-batch-failure.yaml",
		"../harness/testdata/scenarios/snapshot-dirty-diff.yaml",
		"../harness/testdata/scenarios/remove-lifecycle.yaml",
		"../harness/testdata/scenarios/update-missing-row.yaml",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			buf := &bytes.Buffer{}
			rootOpts := &RootOptions{Format: "text"}
			cmd := NewValidateCommand(rootOpts)
			cmd.SetOut(buf)
			cmd.SetArgs([]string{path})

			require.NoError(t, cmd.Execute())
			assert.Contains(t, buf.String(), "✓ Scenario valid")
		})
	}
}
