package puzzle

// maxReducePasses bounds the reducer loop. A single shuffled removal pass
// can get stuck short of the target when a removal only becomes safe after
// an earlier tentative removal is reverted; repeating passes with fresh
// shuffles escapes those local optima. Five passes is enough in practice
// for every reachable target.
const maxReducePasses = 5

// Generate produces a complete solution grid and a puzzle derived from it
// by removing up to removals cells while preserving solution uniqueness.
// The same seed always yields the identical (solution, puzzle) pair.
//
// Generation is best-effort: if removals cells cannot be removed without
// losing uniqueness, the puzzle simply ends up with fewer empty cells than
// requested. There is no error path.
func Generate(removals int, seed uint64) (solution, grid Grid) {
	rng := NewLCG(seed)
	solution = fillSolution(rng)
	grid = Reduce(solution, removals, rng)
	return solution, grid
}

// fillSolution builds one valid complete grid by backtracking, trying a
// shuffled candidate permutation at each empty cell.
func fillSolution(rng *LCG) Grid {
	var g Grid
	fill(&g, rng)
	return g
}

func fill(g *Grid, rng *LCG) bool {
	r, c, ok := firstEmpty(g)
	if !ok {
		return true
	}
	var candidates [9]uint8
	for i := range candidates {
		candidates[i] = uint8(i + 1)
	}
	rng.Shuffle(9, func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	for _, v := range candidates {
		if Valid(g, r, c, v) {
			g[r][c] = v
			if fill(g, rng) {
				return true
			}
			g[r][c] = 0
		}
	}
	return false
}

// Reduce removes up to target cells from solution while keeping the puzzle
// uniquely solvable. Each pass shuffles the currently filled coordinates
// and tries them in order: a removal is kept only if the grid still has
// exactly one solution. A pass that removes nothing terminates the loop
// early since no further progress is possible.
func Reduce(solution Grid, target int, rng *LCG) Grid {
	g := solution
	removed := 0
	for pass := 0; pass < maxReducePasses && removed < target; pass++ {
		coords := filledCoords(&g)
		rng.Shuffle(len(coords), func(i, j int) {
			coords[i], coords[j] = coords[j], coords[i]
		})
		removedThisPass := 0
		for _, rc := range coords {
			if removed >= target {
				break
			}
			r, c := rc[0], rc[1]
			old := g[r][c]
			g[r][c] = 0
			if Unique(g) {
				removed++
				removedThisPass++
			} else {
				g[r][c] = old
			}
		}
		if removedThisPass == 0 {
			break
		}
	}
	return g
}

func filledCoords(g *Grid) [][2]int {
	coords := make([][2]int, 0, 81)
	for r := 0; r < 9; r++ {
		for c := 0; c < 9; c++ {
			if g[r][c] != 0 {
				coords = append(coords, [2]int{r, c})
			}
		}
	}
	return coords
}
