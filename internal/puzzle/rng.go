package puzzle

// LCG is a small linear-congruential generator.
//
// Generation must be reproducible across devices and platforms given the
// same seed (a daily-challenge key hashes to a seed, and every player has
// to see the identical puzzle), so the generator cannot depend on
// math/rand's unspecified stream stability. The multiplier/increment pair
// is Knuth's MMIX constants.
type LCG struct {
	state uint64
}

// NewLCG returns a generator seeded with seed. Seed zero is valid.
func NewLCG(seed uint64) *LCG {
	return &LCG{state: seed}
}

func (l *LCG) next() uint64 {
	l.state = l.state*6364136223846793005 + 1442695040888963407
	return l.state
}

// Intn returns a value in [0, n). Panics if n <= 0.
func (l *LCG) Intn(n int) int {
	if n <= 0 {
		panic("puzzle: Intn with non-positive n")
	}
	// Use the high bits; the low bits of an LCG have short periods.
	return int((l.next() >> 11) % uint64(n))
}

// Shuffle performs a Fisher-Yates shuffle of n elements using swap.
func (l *LCG) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := l.Intn(i + 1)
		swap(i, j)
	}
}
