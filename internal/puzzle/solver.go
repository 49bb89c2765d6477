package puzzle

// Solve fills the empty cells of g and returns the completed grid. The
// second result is false when the puzzle has no solution. g is not
// modified.
func Solve(g Grid) (Grid, bool) {
	if solve(&g) {
		return g, true
	}
	return g, false
}

func solve(g *Grid) bool {
	r, c, ok := firstEmpty(g)
	if !ok {
		return true
	}
	for v := uint8(1); v <= 9; v++ {
		if Valid(g, r, c, v) {
			g[r][c] = v
			if solve(g) {
				return true
			}
			g[r][c] = 0
		}
	}
	return false
}

// Unique reports whether g has exactly one solution.
func Unique(g Grid) bool {
	return countSolutions(&g, 2) == 1
}

// countSolutions counts solutions of g by exhaustive backtracking, stopping
// as soon as cap solutions are found. Counting every solution of a sparse
// grid is combinatorially explosive; capping at 2 bounds the work while
// still answering the uniqueness question.
func countSolutions(g *Grid, cap int) int {
	count := 0
	var dfs func() bool
	dfs = func() bool {
		r, c, ok := firstEmpty(g)
		if !ok {
			count++
			return count >= cap
		}
		for v := uint8(1); v <= 9; v++ {
			if Valid(g, r, c, v) {
				g[r][c] = v
				if dfs() {
					return true
				}
				g[r][c] = 0
			}
		}
		return false
	}
	dfs()
	return count
}
