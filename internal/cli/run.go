package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/standinlabs/standin/internal/harness"
	"github.com/standinlabs/standin/internal/journal"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Journal string // optional - journal applied changes into this SQLite db
}

// RunResult holds the outcome of a single scenario run.
type RunResult struct {
	Scenario     string   `json:"scenario"`
	Session      string   `json:"session,omitempty"`
	Pass         bool     `json:"pass"`
	Steps        int      `json:"steps"`
	AppliedTotal int      `json:"applied_total"`
	TraceHash    string   `json:"trace_hash"`
	Errors       []string `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario against a fresh store",
		Long: `Run a scenario file against a fresh in-memory store.

The scenario is validated, executed step by step, and its assertions are
evaluated against the final store state. The trace hash printed on success
is the digest of the canonical trace and is stable across runs.

With --journal, every applied change is recorded into the given SQLite
journal under a session token. The scenario's session field is used as the
token when set; otherwise a fresh UUIDv7 is minted. Journaled runs can be
inspected afterwards with the replay and trace commands.

Exit codes:
  0 - Scenario passed
  1 - Scenario failed (expectation or assertion mismatch)
  2 - Command error (file not found, malformed scenario)

Examples:
  standin run ./scenarios/buffered-commit-lifecycle.yaml
  standin run ./scenarios/partial-batch-failure.yaml --format json
  standin run ./scenarios/snapshot-dirty-diff.yaml --journal ./standin.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "journal applied changes into this SQLite db")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error("E_SCENARIO", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	formatter.VerboseLog("Loaded scenario %q (%d steps, %d assertions)",
		scenario.Name, len(scenario.Steps), len(scenario.Assertions))

	session := scenario.Session
	var runOpts []harness.Option
	if opts.Journal != "" {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		j, err := journal.Open(opts.Journal)
		if err != nil {
			_ = formatter.Error("E_JOURNAL", err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer j.Close()

		if session == "" {
			session = journal.UUIDv7Generator{}.Generate()
		}
		runOpts = append(runOpts, harness.WithRecorder(j.Session(ctx, session)))
		formatter.VerboseLog("Journaling applied changes to %s under session %s", opts.Journal, session)
	}

	result, err := harness.Run(scenario, runOpts...)
	if err != nil {
		_ = formatter.Error("E_RUN", err.Error(), nil)
		return WrapExitError(ExitCommandError, "scenario run aborted", err)
	}

	snapshot := &harness.TraceSnapshot{
		ScenarioName: scenario.Name,
		Session:      scenario.Session,
		Trace:        result.Trace,
	}
	hash, err := snapshot.Hash()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash trace", err)
	}

	runResult := RunResult{
		Scenario:     scenario.Name,
		Session:      session,
		Pass:         result.Pass,
		Steps:        len(result.Trace),
		AppliedTotal: result.AppliedTotal,
		TraceHash:    hash,
		Errors:       result.Errors,
	}

	if opts.Format == "json" {
		if err := outputRunJSON(formatter, runResult); err != nil {
			return err
		}
	} else {
		outputRunText(formatter, runResult)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %q failed with %d error(s)", scenario.Name, len(result.Errors)))
	}
	return nil
}

// outputRunJSON outputs the run result as JSON.
func outputRunJSON(formatter *OutputFormatter, result RunResult) error {
	if result.Pass {
		return formatter.Success(result)
	}

	response := CLIResponse{
		Status: "error",
		Data:   result,
		Error: &CLIError{
			Code:    "E_ASSERT",
			Message: fmt.Sprintf("%d error(s)", len(result.Errors)),
		},
	}
	return encodeIndented(formatter.Writer, response)
}

// outputRunText outputs the run result as text.
func outputRunText(formatter *OutputFormatter, result RunResult) {
	w := formatter.Writer

	if result.Pass {
		fmt.Fprintf(w, "✓ Scenario passed: %s\n", result.Scenario)
	} else {
		fmt.Fprintf(w, "✗ Scenario failed: %s\n", result.Scenario)
	}
	fmt.Fprintf(w, "  Steps: %d\n", result.Steps)
	fmt.Fprintf(w, "  Applied: %d\n", result.AppliedTotal)
	fmt.Fprintf(w, "  Trace hash: %s\n", result.TraceHash)
	if result.Session != "" {
		fmt.Fprintf(w, "  Session: %s\n", result.Session)
	}

	if len(result.Errors) > 0 {
		fmt.Fprintln(w)
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  error: %s\n", e)
		}
	}
}
