package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/standinlabs/standin/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Journal string
	Session string // optional - filter to one session
	KeyHash string // optional - filter to one entity key
}

// TraceChange represents a single journaled change in the trace output.
type TraceChange struct {
	Seq        int64          `json:"seq"`
	Session    string         `json:"session"`
	Kind       string         `json:"kind"`
	EntityType string         `json:"entity_type"`
	Key        string         `json:"key"`
	KeyHash    string         `json:"key_hash"`
	Entity     map[string]any `json:"entity,omitempty"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalChanges int `json:"total_changes"`
	Adds         int `json:"adds"`
	Updates      int `json:"updates"`
	Removes      int `json:"removes"`
	Sessions     int `json:"sessions"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Journal  string        `json:"journal"`
	Session  string        `json:"session,omitempty"`
	KeyHash  string        `json:"key_hash,omitempty"`
	Timeline []TraceChange `json:"timeline"`
	Stats    TraceStats    `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show journaled changes in commit order",
		Long: `Show the journaled change timeline in commit order.

Lists every recorded add, update, and remove with its canonical key and
entity body. Filter to one session with --session, or follow a single
row's history across sessions with --key-hash.

Examples:
  standin trace --journal ./standin.db
  standin trace --journal ./standin.db --session 0198f1e2-4c3a-7000-8000-000000000001
  standin trace --journal ./standin.db --key-hash 7f9c2ba4... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("journal")
	cmd.Flags().StringVar(&opts.Session, "session", "", "filter to one session token")
	cmd.Flags().StringVar(&opts.KeyHash, "key-hash", "", "filter to one entity key hash")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	j, err := journal.Open(opts.Journal)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	var changes []journal.Change
	switch {
	case opts.KeyHash != "":
		changes, err = j.ReadKeyHistory(ctx, opts.KeyHash)
	case opts.Session != "":
		changes, err = j.ReadSession(ctx, opts.Session)
	default:
		changes, err = j.ReadAll(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	// Session filter on top of key history
	if opts.KeyHash != "" && opts.Session != "" {
		filtered := changes[:0]
		for _, ch := range changes {
			if ch.Session == opts.Session {
				filtered = append(filtered, ch)
			}
		}
		changes = filtered
	}

	result := buildTraceResult(opts, changes)

	if opts.Format == "json" {
		return encodeIndented(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}

	return outputTraceText(cmd, result, opts.Verbose)
}

// buildTraceResult converts journal changes to the trace output shape.
func buildTraceResult(opts *TraceOptions, changes []journal.Change) TraceResult {
	result := TraceResult{
		Journal:  opts.Journal,
		Session:  opts.Session,
		KeyHash:  opts.KeyHash,
		Timeline: make([]TraceChange, 0, len(changes)),
	}

	sessions := make(map[string]bool)
	for _, ch := range changes {
		tc := TraceChange{
			Seq:        ch.Seq,
			Session:    ch.Session,
			Kind:       ch.Kind,
			EntityType: ch.EntityType,
			Key:        ch.Key,
			KeyHash:    ch.KeyHash,
		}
		// Entity bodies are stored as JSON; a body that fails to decode is
		// left out of the timeline entry rather than aborting the trace.
		var body map[string]any
		if err := json.Unmarshal([]byte(ch.Entity), &body); err == nil {
			tc.Entity = body
		}

		result.Timeline = append(result.Timeline, tc)
		sessions[ch.Session] = true

		switch ch.Kind {
		case "add":
			result.Stats.Adds++
		case "update":
			result.Stats.Updates++
		case "remove":
			result.Stats.Removes++
		}
	}

	result.Stats.TotalChanges = len(result.Timeline)
	result.Stats.Sessions = len(sessions)
	return result
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Trace for journal: %s\n", result.Journal)
	if result.Session != "" {
		fmt.Fprintf(w, "Session: %s\n", result.Session)
	}
	if result.KeyHash != "" {
		fmt.Fprintf(w, "Key hash: %s\n", result.KeyHash)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no changes)")
	} else {
		for _, ch := range result.Timeline {
			formatTraceChange(w, ch, verbose)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Changes: %d\n", result.Stats.TotalChanges)
	fmt.Fprintf(w, "  Adds:     %d\n", result.Stats.Adds)
	fmt.Fprintf(w, "  Updates:  %d\n", result.Stats.Updates)
	fmt.Fprintf(w, "  Removes:  %d\n", result.Stats.Removes)
	fmt.Fprintf(w, "  Sessions: %d\n", result.Stats.Sessions)

	return nil
}

// formatTraceChange formats a single timeline entry for text output.
func formatTraceChange(w io.Writer, ch TraceChange, verbose bool) {
	fmt.Fprintf(w, "  [%d] %s %s %s\n", ch.Seq, strings.ToUpper(ch.Kind), ch.EntityType, ch.Key)
	if verbose {
		fmt.Fprintf(w, "       Session: %s\n", ch.Session)
		fmt.Fprintf(w, "       Key hash: %s\n", truncateHash(ch.KeyHash))
		if len(ch.Entity) > 0 {
			fmt.Fprintf(w, "       Entity: %s\n", formatEntity(ch.Entity))
		}
	}
}

// formatEntity formats an entity body for display with sorted keys.
func formatEntity(body map[string]any) string {
	data, err := json.Marshal(body)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// truncateHash truncates a long hash for display.
func truncateHash(h string) string {
	if len(h) <= 16 {
		return h
	}
	return h[:8] + "..." + h[len(h)-8:]
}
