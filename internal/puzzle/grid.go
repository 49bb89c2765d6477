package puzzle

import (
	"fmt"
	"strings"
)

// Grid is a 9x9 board. Zero means empty, 1-9 a placed value.
//
// Grid is a value type: assignment copies the whole board, which keeps the
// backtracking code free of aliasing surprises. Functions that mutate take
// *Grid explicitly.
type Grid [9][9]uint8

// Valid reports whether v can be placed at (r, c) without conflicting with
// the row, the column, or the containing 3x3 box.
//
// Called deep inside the backtracking recursion, so it must stay
// allocation-free.
func Valid(g *Grid, r, c int, v uint8) bool {
	for i := 0; i < 9; i++ {
		if g[r][i] == v || g[i][c] == v {
			return false
		}
	}
	br, bc := (r/3)*3, (c/3)*3
	for dr := 0; dr < 3; dr++ {
		for dc := 0; dc < 3; dc++ {
			if g[br+dr][bc+dc] == v {
				return false
			}
		}
	}
	return true
}

// firstEmpty returns the first empty cell in row-major order.
func firstEmpty(g *Grid) (int, int, bool) {
	for r := 0; r < 9; r++ {
		for c := 0; c < 9; c++ {
			if g[r][c] == 0 {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

// Empties returns the number of empty cells.
func (g *Grid) Empties() int {
	n := 0
	for r := 0; r < 9; r++ {
		for c := 0; c < 9; c++ {
			if g[r][c] == 0 {
				n++
			}
		}
	}
	return n
}

// Pack serializes the grid as an 81-character digit string in row-major
// order, '0' for empty. This is the storage and wire form of a grid.
func (g Grid) Pack() string {
	var b strings.Builder
	b.Grow(81)
	for r := 0; r < 9; r++ {
		for c := 0; c < 9; c++ {
			b.WriteByte('0' + g[r][c])
		}
	}
	return b.String()
}

// ParseGrid is the inverse of Pack. It rejects strings of the wrong length
// or containing non-digit characters.
func ParseGrid(s string) (Grid, error) {
	var g Grid
	if len(s) != 81 {
		return g, fmt.Errorf("parse grid: want 81 characters, got %d", len(s))
	}
	for i := 0; i < 81; i++ {
		ch := s[i]
		if ch < '0' || ch > '9' {
			return g, fmt.Errorf("parse grid: invalid character %q at index %d", ch, i)
		}
		g[i/9][i%9] = ch - '0'
	}
	return g, nil
}
