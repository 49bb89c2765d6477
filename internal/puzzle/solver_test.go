package puzzle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A well-known puzzle with exactly one solution.
const knownPuzzle = "" +
	"530070000" +
	"600195000" +
	"098000060" +
	"800060003" +
	"400803001" +
	"700020006" +
	"060000280" +
	"000419005" +
	"000080079"

const knownSolution = "" +
	"534678912" +
	"672195348" +
	"198342567" +
	"859761423" +
	"426853791" +
	"713924856" +
	"961537284" +
	"287419635" +
	"345286179"

func TestSolve_KnownPuzzle(t *testing.T) {
	g, err := ParseGrid(knownPuzzle)
	require.NoError(t, err)

	solved, ok := Solve(g)
	require.True(t, ok)
	assert.Equal(t, knownSolution, solved.Pack())
}

func TestSolve_Unsolvable(t *testing.T) {
	g, err := ParseGrid(knownPuzzle)
	require.NoError(t, err)
	// Two fives in the first row cannot be completed.
	g[0][1] = 5

	_, ok := Solve(g)
	assert.False(t, ok)
}

func TestUnique_KnownPuzzle(t *testing.T) {
	g, err := ParseGrid(knownPuzzle)
	require.NoError(t, err)
	assert.True(t, Unique(g))
}

func TestUnique_EmptyGrid(t *testing.T) {
	var g Grid
	assert.False(t, Unique(g), "the empty grid has many solutions")
}

func TestUnique_CompleteGrid(t *testing.T) {
	g, err := ParseGrid(knownSolution)
	require.NoError(t, err)
	assert.True(t, Unique(g), "a complete grid has exactly one (trivial) solution")
}

func TestValid(t *testing.T) {
	g, err := ParseGrid(knownPuzzle)
	require.NoError(t, err)

	tests := []struct {
		name    string
		r, c    int
		v       uint8
		allowed bool
	}{
		{"row conflict", 0, 2, 5, false},
		{"column conflict", 2, 0, 6, false},
		{"box conflict", 1, 1, 9, false},
		{"open placement", 0, 2, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, Valid(&g, tt.r, tt.c, tt.v))
		})
	}
}

func TestParseGrid_Errors(t *testing.T) {
	_, err := ParseGrid("123")
	assert.Error(t, err)

	bad := knownPuzzle[:80] + "x"
	_, err = ParseGrid(bad)
	assert.Error(t, err)
}

func TestPackParse_RoundTrip(t *testing.T) {
	g, err := ParseGrid(knownPuzzle)
	require.NoError(t, err)
	assert.Equal(t, knownPuzzle, g.Pack())
}

func TestLCG_Deterministic(t *testing.T) {
	a, b := NewLCG(9), NewLCG(9)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Intn(81), b.Intn(81))
	}
}

func TestLCG_IntnBounds(t *testing.T) {
	rng := NewLCG(17)
	for i := 0; i < 1000; i++ {
		n := rng.Intn(9)
		require.GreaterOrEqual(t, n, 0)
		require.Less(t, n, 9)
	}
}
