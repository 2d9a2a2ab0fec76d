package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standinlabs/standin/internal/journal"
)

// seedJournal creates a journal with two sessions:
// session-a adds, updates, and removes one account; session-b adds two.
func seedJournal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := journal.Open(path)
	require.NoError(t, err)
	defer j.Close()

	ctx := t.Context()
	changes := []journal.Change{
		{Session: "session-a", Seq: 1, Kind: "add", EntityType: "account", Key: `[1]`, KeyHash: "hash-1", Entity: `{"id":1,"name":"alice"}`},
		{Session: "session-a", Seq: 2, Kind: "update", EntityType: "account", Key: `[1]`, KeyHash: "hash-1", Entity: `{"id":1,"name":"alicia"}`},
		{Session: "session-a", Seq: 3, Kind: "remove", EntityType: "account", Key: `[1]`, KeyHash: "hash-1", Entity: `{"id":1,"name":"alicia"}`},
		{Session: "session-b", Seq: 1, Kind: "add", EntityType: "account", Key: `[2]`, KeyHash: "hash-2", Entity: `{"id":2,"name":"bob"}`},
		{Session: "session-b", Seq: 2, Kind: "add", EntityType: "account", Key: `[3]`, KeyHash: "hash-3", Entity: `{"id":3,"name":"carol"}`},
	}
	for _, ch := range changes {
		require.NoError(t, j.WriteChange(ctx, ch))
	}

	return path
}

func TestReplayAllSessions(t *testing.T) {
	path := seedJournal(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewReplayCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--journal", path})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Replay Summary: 2 session(s)")
	assert.Contains(t, output, "✓ Session: session-a")
	assert.Contains(t, output, "✓ Session: session-b")
	assert.Contains(t, output, "✓ All sessions verified deterministic")
}

func TestReplaySingleSession(t *testing.T) {
	path := seedJournal(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Verbose: true}
	cmd := NewReplayCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--journal", path, "--session", "session-a"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Replay Summary: 1 session(s)")
	assert.Contains(t, output, "Adds: 1")
	assert.Contains(t, output, "Updates: 1")
	assert.Contains(t, output, "Removes: 1")
	assert.Contains(t, output, "Live rows: 0")
	assert.NotContains(t, output, "session-b")
}

func TestReplayJSON(t *testing.T) {
	path := seedJournal(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewReplayCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--journal", path})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), data["total_sessions"])
	assert.Equal(t, true, data["all_deterministic"])

	sessions, ok := data["sessions"].([]any)
	require.True(t, ok)
	require.Len(t, sessions, 2)

	first := sessions[0].(map[string]any)
	assert.Equal(t, "session-a", first["session"])
	assert.Equal(t, float64(3), first["changes"])
	assert.Equal(t, float64(0), first["live_rows"])

	second := sessions[1].(map[string]any)
	assert.Equal(t, "session-b", second["session"])
	assert.Equal(t, float64(2), second["live_rows"])
}

func TestReplayEmptyJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	j, err := journal.Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewReplayCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--journal", path})

	err = cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No sessions found in journal.")
}

func TestReplayEmptyJournalJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	j, err := journal.Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewReplayCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--journal", path})

	err = cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestReplayUnknownSessionIsEmpty(t *testing.T) {
	path := seedJournal(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewReplayCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--journal", path, "--session", "session-missing"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Changes: 0 (0 live row(s) after replay)")
}
