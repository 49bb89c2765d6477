package game

import (
	"encoding/json"
	"time"
)

// SettingsFields is the wire form of the Settings singleton. Scalar
// preference fields plus one JSON-encoded map, same flat-schema rules as
// RecordFields.
type SettingsFields struct {
	SoundEnabled   int    `json:"soundEnabled"`
	HapticsEnabled int    `json:"hapticsEnabled"`
	ShowMistakes   int    `json:"showMistakes"`
	HighlightPeers int    `json:"highlightPeers"`
	AutoClearNotes int    `json:"autoClearNotes"`
	Theme          string `json:"theme"`
	DailyCompleted string `json:"dailyCompleted"`
	LastModifiedAt int64  `json:"lastModifiedAt"`
}

func EncodeSettings(s *Settings) SettingsFields {
	daily, _ := json.Marshal(s.DailyCompleted)
	return SettingsFields{
		SoundEnabled:   encodeBool(s.SoundEnabled),
		HapticsEnabled: encodeBool(s.HapticsEnabled),
		ShowMistakes:   encodeBool(s.ShowMistakes),
		HighlightPeers: encodeBool(s.HighlightPeers),
		AutoClearNotes: encodeBool(s.AutoClearNotes),
		Theme:          s.Theme,
		DailyCompleted: string(daily),
		LastModifiedAt: s.LastModifiedAt.UnixMilli(),
	}
}

func DecodeSettings(f SettingsFields) *Settings {
	s := &Settings{
		SoundEnabled:   f.SoundEnabled != 0,
		HapticsEnabled: f.HapticsEnabled != 0,
		ShowMistakes:   f.ShowMistakes != 0,
		HighlightPeers: f.HighlightPeers != 0,
		AutoClearNotes: f.AutoClearNotes != 0,
		Theme:          f.Theme,
		DailyCompleted: map[string]string{},
		LastModifiedAt: time.UnixMilli(f.LastModifiedAt).UTC(),
	}
	if err := json.Unmarshal([]byte(f.DailyCompleted), &s.DailyCompleted); err != nil {
		s.DailyCompleted = map[string]string{}
	}
	return s
}

// StatisticsFields is the wire form of the Statistics singleton. The
// per-difficulty counters travel as an opaque JSON blob; streak and date
// fields stay scalar so the remote store can show them without decoding.
type StatisticsFields struct {
	PerDifficulty    string `json:"perDifficulty"`
	CurrentStreak    int    `json:"currentStreak"`
	BestStreak       int    `json:"bestStreak"`
	LastCompletedDay string `json:"lastCompletedDay"`
	LastModifiedAt   int64  `json:"lastModifiedAt"`
}

func EncodeStatistics(s *Statistics) StatisticsFields {
	blob, _ := json.Marshal(s.PerDifficulty)
	return StatisticsFields{
		PerDifficulty:    string(blob),
		CurrentStreak:    s.CurrentStreak,
		BestStreak:       s.BestStreak,
		LastCompletedDay: s.LastCompletedDay,
		LastModifiedAt:   s.LastModifiedAt.UnixMilli(),
	}
}

func DecodeStatistics(f StatisticsFields) *Statistics {
	s := &Statistics{
		PerDifficulty:    map[string]DifficultyStats{},
		CurrentStreak:    f.CurrentStreak,
		BestStreak:       f.BestStreak,
		LastCompletedDay: f.LastCompletedDay,
		LastModifiedAt:   time.UnixMilli(f.LastModifiedAt).UTC(),
	}
	if err := json.Unmarshal([]byte(f.PerDifficulty), &s.PerDifficulty); err != nil {
		s.PerDifficulty = map[string]DifficultyStats{}
	}
	return s
}
