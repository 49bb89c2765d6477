package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gridsync/internal/game"
	"github.com/roach88/gridsync/internal/localstore"
	"github.com/roach88/gridsync/internal/puzzle"
)

func seedReplica(t *testing.T, path string) (inProgress, completed *game.Record) {
	t.Helper()
	store, err := localstore.Open(path)
	require.NoError(t, err)
	defer store.Close()

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	solution, initial := puzzle.Generate(30, 1)

	inProgress = game.NewRecord(game.DifficultyMedium, solution, initial, now)
	require.NoError(t, store.UpsertGame(context.Background(), inProgress))

	solution2, initial2 := puzzle.Generate(30, 2)
	completed = game.NewRecord(game.DifficultyHard, solution2, initial2, now.Add(-time.Hour))
	completed.Complete(now.Add(-30 * time.Minute))
	require.NoError(t, store.UpsertGame(context.Background(), completed))
	return inProgress, completed
}

func TestRecordsCommand_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replica.db")
	inProgress, completed := seedReplica(t, path)

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"records", "--db", path})
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, inProgress.ID)
	assert.Contains(t, out, "playing")
	assert.NotContains(t, out, completed.ID, "default listing shows in-progress games only")
}

func TestRecordsCommand_CompletedAndAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replica.db")
	inProgress, completed := seedReplica(t, path)

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"records", "--db", path, "--completed"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), completed.ID)
	assert.Contains(t, buf.String(), "done")

	buf.Reset()
	cmd = NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"records", "--db", path, "--all"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), inProgress.ID)
	assert.Contains(t, buf.String(), completed.ID)
}

func TestRecordsCommand_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replica.db")
	inProgress, _ := seedReplica(t, path)

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"records", "--db", path, "--format", "json"})
	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var summaries []RecordSummary
	require.NoError(t, json.Unmarshal(raw, &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, inProgress.ID, summaries[0].ID)
	assert.Equal(t, "medium", summaries[0].Difficulty)
	assert.False(t, summaries[0].Completed)
}

func TestRecordsCommand_MissingDatabaseDir(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"records", "--db", filepath.Join(t.TempDir(), "missing", "replica.db")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHashTokenCommand(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"hash-token", "secret"})
	require.NoError(t, cmd.Execute())
	assert.NotEmpty(t, bytes.TrimSpace(buf.Bytes()))
}
