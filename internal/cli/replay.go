package cli

import (
	"context"
	"fmt"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/standinlabs/standin/internal/journal"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Journal string
	Session string // optional - specific session only
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	Session       string `json:"session"`
	Changes       int    `json:"changes"`
	Adds          int    `json:"adds"`
	Updates       int    `json:"updates"`
	Removes       int    `json:"removes"`
	LiveRows      int    `json:"live_rows"`
	Deterministic bool   `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the change journal and verify determinism",
		Long: `Replay the change journal and verify deterministic ordering.

Each session's changes are read twice in journal order and compared.
The folded per-session summary counts adds, updates, and removes, and
reports how many rows survive after removes are applied.

Exit codes:
  0 - All sessions replay deterministically
  1 - Determinism verification failed (differences detected)
  2 - Command error (journal not found, etc.)

Examples:
  standin replay --journal ./standin.db
  standin replay --journal ./standin.db --session 0198f1e2-4c3a-7000-8000-000000000001
  standin replay --journal ./standin.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("journal")
	cmd.Flags().StringVar(&opts.Session, "session", "", "replay specific session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	j, err := journal.Open(opts.Journal)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	// Get session tokens to process
	var sessions []string
	if opts.Session != "" {
		sessions = []string{opts.Session}
	} else {
		sessions, err = j.Sessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
	}

	if len(sessions) == 0 {
		if opts.Format == "json" {
			result := ReplayResult{
				Sessions:         []ReplaySessionResult{},
				TotalSessions:    0,
				AllDeterministic: true,
			}
			return outputReplayJSON(cmd, result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions found in journal.")
		return nil
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(sessions)),
		TotalSessions:    len(sessions),
		AllDeterministic: true,
	}

	for _, session := range sessions {
		sessionResult, err := replayAndVerifySession(ctx, j, session)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", session), err)
		}

		result.Sessions = append(result.Sessions, sessionResult)
		if !sessionResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}

	return outputReplayText(cmd, result, opts.Verbose)
}

// replayAndVerifySession reads a session twice and verifies determinism.
func replayAndVerifySession(ctx context.Context, j *journal.Journal, session string) (ReplaySessionResult, error) {
	changes1, err := j.ReadSession(ctx, session)
	if err != nil {
		return ReplaySessionResult{}, fmt.Errorf("first read failed: %w", err)
	}

	changes2, err := j.ReadSession(ctx, session)
	if err != nil {
		return ReplaySessionResult{}, fmt.Errorf("second read failed: %w", err)
	}

	deterministic := reflect.DeepEqual(changes1, changes2)

	result := ReplaySessionResult{
		Session:       session,
		Changes:       len(changes1),
		Deterministic: deterministic,
	}

	// Fold changes in order: the last change per key decides whether the
	// row is live at the end of the session.
	live := make(map[string]bool)
	for _, ch := range changes1 {
		switch ch.Kind {
		case "add":
			result.Adds++
			live[ch.KeyHash] = true
		case "update":
			result.Updates++
			live[ch.KeyHash] = true
		case "remove":
			result.Removes++
			delete(live, ch.KeyHash)
		}
	}
	result.LiveRows = len(live)

	return result, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	if err := encodeIndented(cmd.OutOrStdout(), response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		// Determinism failure = exit code 1
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, session := range result.Sessions {
		status := "✓"
		if !session.Deterministic {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Session: %s\n", status, session.Session)

		if verbose {
			fmt.Fprintf(w, "  Adds: %d\n", session.Adds)
			fmt.Fprintf(w, "  Updates: %d\n", session.Updates)
			fmt.Fprintf(w, "  Removes: %d\n", session.Removes)
			fmt.Fprintf(w, "  Live rows: %d\n", session.LiveRows)
		} else {
			fmt.Fprintf(w, "  Changes: %d (%d live row(s) after replay)\n", session.Changes, session.LiveRows)
		}

		if !session.Deterministic {
			fmt.Fprintln(w, "  Warning: Non-deterministic replay detected!")
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All sessions verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	// Determinism failure = exit code 1
	return NewExitError(ExitFailure, "determinism verification failed")
}
