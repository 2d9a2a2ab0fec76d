package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/standinlabs/standin/internal/harness"
)

// ValidationResult holds validation results for a scenario file.
type ValidationResult struct {
	Valid      bool   `json:"valid"`
	Scenario   string `json:"scenario,omitempty"`
	Entity     string `json:"entity,omitempty"`
	Steps      int    `json:"steps,omitempty"`
	Assertions int    `json:"assertions,omitempty"`
	Error      string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml>",
		Short: "Validate a scenario file without running it",
		Long: `Validate a scenario file without executing any steps.

Checks the embedded schema (shape, op and error-code enums), strict YAML
field names, and cross-field semantics such as key fields being declared
on the entity. Faster than run for editing feedback.

Exit codes:
  0 - Scenario is valid
  1 - Scenario is invalid
  2 - Command error (file not found)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(path); err != nil {
		_ = formatter.Error("E_NOT_FOUND", fmt.Sprintf("scenario file not found: %s", path), nil)
		return WrapExitError(ExitCommandError, "scenario file not found", err)
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return outputValidateFailure(formatter, err)
	}

	formatter.VerboseLog("Scenario %q declares entity %q with %d field(s)",
		scenario.Name, scenario.Entity.Name, len(scenario.Entity.Fields))

	return outputValidateSuccess(formatter, scenario)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, scenario *harness.Scenario) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:      true,
			Scenario:   scenario.Name,
			Entity:     scenario.Entity.Name,
			Steps:      len(scenario.Steps),
			Assertions: len(scenario.Assertions),
		}
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Scenario valid: %s\n", scenario.Name)
	fmt.Fprintf(formatter.Writer, "  Entity: %s (%d fields)\n", scenario.Entity.Name, len(scenario.Entity.Fields))
	fmt.Fprintf(formatter.Writer, "  Steps: %d, Assertions: %d\n", len(scenario.Steps), len(scenario.Assertions))
	return nil
}

// outputValidateFailure outputs a validation failure.
// Validation failures exit with code 1; the file existed but is not a
// well-formed scenario.
func outputValidateFailure(formatter *OutputFormatter, err error) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid: false,
			Error: err.Error(),
		}
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    "E_SCENARIO",
				Message: err.Error(),
			},
		}
		if encErr := encodeIndented(formatter.Writer, response); encErr != nil {
			return encErr
		}
		return NewExitError(ExitFailure, "validation failed")
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	fmt.Fprintf(formatter.Writer, "  %s\n", err.Error())
	return NewExitError(ExitFailure, "validation failed")
}
