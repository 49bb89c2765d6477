package game

import "fmt"

// Difficulty is the puzzle tier. It is immutable for a record's lifetime.
type Difficulty int

const (
	DifficultyEasy Difficulty = iota
	DifficultyMedium
	DifficultyHard
	DifficultyExpert
)

var difficultyNames = map[Difficulty]string{
	DifficultyEasy:   "easy",
	DifficultyMedium: "medium",
	DifficultyHard:   "hard",
	DifficultyExpert: "expert",
}

func (d Difficulty) String() string {
	if name, ok := difficultyNames[d]; ok {
		return name
	}
	return fmt.Sprintf("difficulty(%d)", int(d))
}

// Removals returns how many cells the generator should try to empty for
// this tier. The reducer treats this as a target, not a guarantee.
func (d Difficulty) Removals() int {
	switch d {
	case DifficultyEasy:
		return 41
	case DifficultyMedium:
		return 47
	case DifficultyHard:
		return 53
	default:
		return 57
	}
}

// ParseDifficulty parses the textual form produced by String.
func ParseDifficulty(s string) (Difficulty, error) {
	for d, name := range difficultyNames {
		if name == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown difficulty %q", s)
}
