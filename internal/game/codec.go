package game

import (
	"encoding/json"
	"time"

	"github.com/roach88/gridsync/internal/puzzle"
)

// RecordFields is the flat wire and storage form of a Record. The remote
// schema only supports primitive field types, so grids travel as 81-digit
// strings, structured fields as JSON strings, booleans as 0/1 integers,
// and nullable values as sentinels. The sentinel conventions live only in
// this file; domain code never sees them.
//
// Sentinel contracts:
//   - SelectedRow / SelectedCol: -1 means no cell is selected.
//   - Highlighted: 0 means no value highlight.
//   - CompletedAt: 0 means the game is not completed.
//
// Timestamps are unix milliseconds so that the value a device writes
// remotely compares exactly equal to the value it wrote locally.
type RecordFields struct {
	ID                string `json:"id"`
	Difficulty        string `json:"difficulty"`
	InitialBoard      string `json:"initialBoard"`
	Solution          string `json:"solution"`
	CurrentBoard      string `json:"currentBoard"`
	Notes             string `json:"notes"`
	HintMask          string `json:"hintMask"`
	MistakeCount      int    `json:"mistakeCount"`
	ElapsedSeconds    int    `json:"elapsedSeconds"`
	StartedAt         int64  `json:"startedAt"`
	CompletedAt       int64  `json:"completedAt"`
	IsCompleted       int    `json:"isCompleted"`
	LastModifiedAt    int64  `json:"lastModifiedAt"`
	IsDailyChallenge  int    `json:"isDailyChallenge"`
	DailyChallengeKey string `json:"dailyChallengeKey"`
	SelectedRow       int    `json:"selectedRow"`
	SelectedCol       int    `json:"selectedCol"`
	Highlighted       int    `json:"highlighted"`
	PencilMode        int    `json:"pencilMode"`
	WasPaused         int    `json:"wasPaused"`
	UndoStack         string `json:"undoStack"`
	RedoStack         string `json:"redoStack"`
}

// EncodeRecord converts a Record to its wire form.
func EncodeRecord(r *Record) RecordFields {
	f := RecordFields{
		ID:                r.ID,
		Difficulty:        r.Difficulty.String(),
		InitialBoard:      r.InitialBoard.Pack(),
		Solution:          r.Solution.Pack(),
		CurrentBoard:      r.CurrentBoard.Pack(),
		Notes:             encodeNotes(&r.Notes),
		HintMask:          encodeMask(&r.HintMask),
		MistakeCount:      r.MistakeCount,
		ElapsedSeconds:    r.ElapsedSeconds,
		StartedAt:         r.StartedAt.UnixMilli(),
		LastModifiedAt:    r.LastModifiedAt.UnixMilli(),
		IsCompleted:       encodeBool(r.IsCompleted),
		IsDailyChallenge:  encodeBool(r.IsDailyChallenge),
		DailyChallengeKey: r.DailyChallengeKey,
		SelectedRow:       -1,
		SelectedCol:       -1,
		Highlighted:       int(r.HighlightedValue),
		PencilMode:        encodeBool(r.PencilMode),
		WasPaused:         encodeBool(r.WasPaused),
		UndoStack:         encodeMoves(r.UndoStack),
		RedoStack:         encodeMoves(r.RedoStack),
	}
	if r.CompletedAt != nil {
		f.CompletedAt = r.CompletedAt.UnixMilli()
	}
	if r.Selected != nil {
		f.SelectedRow = r.Selected.Row
		f.SelectedCol = r.Selected.Col
	}
	return f
}

// DecodeRecord converts the wire form back into a Record. Decoding never
// fails: a malformed field falls back to that field's empty value so one
// corrupt column cannot brick the whole record.
func DecodeRecord(f RecordFields) *Record {
	r := &Record{
		ID:                f.ID,
		InitialBoard:      decodeGrid(f.InitialBoard),
		Solution:          decodeGrid(f.Solution),
		CurrentBoard:      decodeGrid(f.CurrentBoard),
		Notes:             decodeNotes(f.Notes),
		HintMask:          decodeMask(f.HintMask),
		MistakeCount:      f.MistakeCount,
		ElapsedSeconds:    f.ElapsedSeconds,
		StartedAt:         time.UnixMilli(f.StartedAt).UTC(),
		IsCompleted:       f.IsCompleted != 0,
		LastModifiedAt:    time.UnixMilli(f.LastModifiedAt).UTC(),
		IsDailyChallenge:  f.IsDailyChallenge != 0,
		DailyChallengeKey: f.DailyChallengeKey,
		PencilMode:        f.PencilMode != 0,
		WasPaused:         f.WasPaused != 0,
		UndoStack:         decodeMoves(f.UndoStack),
		RedoStack:         decodeMoves(f.RedoStack),
	}
	if d, err := ParseDifficulty(f.Difficulty); err == nil {
		r.Difficulty = d
	}
	if f.CompletedAt != 0 {
		t := time.UnixMilli(f.CompletedAt).UTC()
		r.CompletedAt = &t
	}
	if f.SelectedRow >= 0 && f.SelectedRow < 9 && f.SelectedCol >= 0 && f.SelectedCol < 9 {
		r.Selected = &CellRef{Row: f.SelectedRow, Col: f.SelectedCol}
	}
	if f.Highlighted >= 1 && f.Highlighted <= 9 {
		r.HighlightedValue = uint8(f.Highlighted)
	}
	return r
}

func encodeBool(b bool) int {
	if b {
		return 1
	}
	return 0
}

func decodeGrid(s string) puzzle.Grid {
	g, err := puzzle.ParseGrid(s)
	if err != nil {
		return puzzle.Grid{}
	}
	return g
}

func encodeNotes(n *NoteGrid) string {
	flat := make([]uint16, 0, 81)
	for r := 0; r < 9; r++ {
		for c := 0; c < 9; c++ {
			flat = append(flat, n[r][c])
		}
	}
	b, _ := json.Marshal(flat)
	return string(b)
}

func decodeNotes(s string) NoteGrid {
	var n NoteGrid
	var flat []uint16
	if err := json.Unmarshal([]byte(s), &flat); err != nil || len(flat) != 81 {
		return NoteGrid{}
	}
	for i, mask := range flat {
		n[i/9][i%9] = mask
	}
	return n
}

func encodeMask(m *[9][9]bool) string {
	buf := make([]byte, 0, 81)
	for r := 0; r < 9; r++ {
		for c := 0; c < 9; c++ {
			if m[r][c] {
				buf = append(buf, '1')
			} else {
				buf = append(buf, '0')
			}
		}
	}
	return string(buf)
}

func decodeMask(s string) [9][9]bool {
	var m [9][9]bool
	if len(s) != 81 {
		return m
	}
	for i := 0; i < 81; i++ {
		m[i/9][i%9] = s[i] == '1'
	}
	return m
}

func encodeMoves(moves []Move) string {
	if len(moves) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(moves)
	return string(b)
}

func decodeMoves(s string) []Move {
	var moves []Move
	if err := json.Unmarshal([]byte(s), &moves); err != nil {
		return nil
	}
	if len(moves) == 0 {
		return nil
	}
	return moves
}
