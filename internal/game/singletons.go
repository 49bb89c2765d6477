package game

import "time"

// Fixed keys for the two singleton records. Each device reads and writes
// the same remote row; reconciliation is the same LWW rule used for games.
const (
	SettingsKey   = "settings"
	StatisticsKey = "statistics"
)

// Settings is the per-player preference record, a remote singleton.
type Settings struct {
	SoundEnabled   bool
	HapticsEnabled bool
	ShowMistakes   bool
	HighlightPeers bool
	AutoClearNotes bool
	Theme          string

	// DailyCompleted maps a difficulty name to the key of the last daily
	// challenge completed at that tier.
	DailyCompleted map[string]string

	LastModifiedAt time.Time
}

// DefaultSettings returns the settings a fresh install starts with.
func DefaultSettings() *Settings {
	return &Settings{
		SoundEnabled:   true,
		HapticsEnabled: true,
		ShowMistakes:   true,
		HighlightPeers: true,
		Theme:          "system",
		DailyCompleted: map[string]string{},
	}
}

// DifficultyStats aggregates counters for one difficulty tier.
type DifficultyStats struct {
	GamesStarted   int `json:"started"`
	GamesCompleted int `json:"completed"`
	TotalSeconds   int `json:"totalSeconds"`
	BestSeconds    int `json:"bestSeconds"` // 0 until first completion
	Hints          int `json:"hints"`
	Mistakes       int `json:"mistakes"`
}

// Statistics is the per-player counter record, a remote singleton.
type Statistics struct {
	PerDifficulty map[string]DifficultyStats

	CurrentStreak    int
	BestStreak       int
	LastCompletedDay string

	LastModifiedAt time.Time
}

// DefaultStatistics returns an empty statistics record.
func DefaultStatistics() *Statistics {
	return &Statistics{PerDifficulty: map[string]DifficultyStats{}}
}

// RecordCompletion folds one finished game into the counters.
func (s *Statistics) RecordCompletion(r *Record, dayKey string) {
	key := r.Difficulty.String()
	ds := s.PerDifficulty[key]
	ds.GamesCompleted++
	ds.TotalSeconds += r.ElapsedSeconds
	ds.Hints += r.HintCount()
	ds.Mistakes += r.MistakeCount
	if ds.BestSeconds == 0 || r.ElapsedSeconds < ds.BestSeconds {
		ds.BestSeconds = r.ElapsedSeconds
	}
	s.PerDifficulty[key] = ds

	if dayKey != s.LastCompletedDay {
		s.CurrentStreak++
		s.LastCompletedDay = dayKey
		if s.CurrentStreak > s.BestStreak {
			s.BestStreak = s.CurrentStreak
		}
	}
}

// RecordStart counts a newly generated game.
func (s *Statistics) RecordStart(d Difficulty) {
	key := d.String()
	ds := s.PerDifficulty[key]
	ds.GamesStarted++
	s.PerDifficulty[key] = ds
}
