package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/gridsync/internal/game"
	"github.com/roach88/gridsync/internal/puzzle"
)

func TestBuildPack_Deterministic(t *testing.T) {
	a := BuildPack(game.DifficultyMedium, 42, 3)
	b := BuildPack(game.DifficultyMedium, 42, 3)
	assert.Equal(t, a, b)

	c := BuildPack(game.DifficultyMedium, 43, 3)
	assert.NotEqual(t, a.Puzzles[0].Puzzle, c.Puzzles[0].Puzzle)
}

func TestBuildPack_PuzzlesAreSound(t *testing.T) {
	pack := BuildPack(game.DifficultyHard, 7, 2)
	require.Len(t, pack.Puzzles, 2)
	assert.Equal(t, "hard", pack.Difficulty)

	for _, p := range pack.Puzzles {
		grid, err := puzzle.ParseGrid(p.Puzzle)
		require.NoError(t, err)
		solution, err := puzzle.ParseGrid(p.Solution)
		require.NoError(t, err)

		assert.Equal(t, 81-grid.Empties(), p.Givens)
		assert.True(t, puzzle.Unique(grid))

		solved, ok := puzzle.Solve(grid)
		require.True(t, ok)
		assert.Equal(t, solution, solved)
	}
}

func TestGenCommand_WritesYAMLFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "pack.yaml")

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"gen", "--seed", "42", "--difficulty", "medium", "--count", "2", "-o", out})
	require.NoError(t, cmd.Execute())

	raw, err := os.ReadFile(out)
	require.NoError(t, err)

	var pack PuzzlePack
	require.NoError(t, yaml.Unmarshal(raw, &pack))
	assert.Equal(t, BuildPack(game.DifficultyMedium, 42, 2), pack)
}

func TestGenCommand_StdoutAndErrors(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"gen", "--seed", "7", "--difficulty", "easy"})
	require.NoError(t, cmd.Execute())

	var pack PuzzlePack
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &pack))
	require.Len(t, pack.Puzzles, 1)
	assert.Equal(t, uint64(7), pack.Puzzles[0].Seed)

	cmd = NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"gen", "--difficulty", "impossible"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	cmd = NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"gen", "--count", "0"})
	err = cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
