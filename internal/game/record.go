package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/roach88/gridsync/internal/puzzle"
)

// Record is the sole persisted and synced entity for puzzle state. One
// record represents one logical puzzle instance across every device, in
// both of its lifecycle phases: the ID never changes, and completion flips
// IsCompleted on the existing record rather than creating a new one. That
// stable identity is what makes timestamp reconciliation tractable.
type Record struct {
	ID         string
	Difficulty Difficulty

	// InitialBoard and Solution are immutable once set; CurrentBoard
	// mutates with play.
	InitialBoard puzzle.Grid
	Solution     puzzle.Grid
	CurrentBoard puzzle.Grid

	// Notes holds pencil-mark candidates per cell. Cleared on completion.
	Notes NoteGrid

	// HintMask marks cells that were filled by a hint. Never reset.
	HintMask [9][9]bool

	MistakeCount   int
	ElapsedSeconds int

	StartedAt   time.Time
	CompletedAt *time.Time
	IsCompleted bool

	// LastModifiedAt is the authoritative "which copy is newer" signal.
	// Every reconciliation decision compares this field and nothing else.
	LastModifiedAt time.Time

	IsDailyChallenge  bool
	DailyChallengeKey string

	// UI-resume state, meaningful only while in progress. Carried through
	// sync so a game resumes seamlessly on another device.
	Selected         *CellRef
	HighlightedValue uint8 // 0 means no highlight
	PencilMode       bool
	WasPaused        bool
	UndoStack        []Move
	RedoStack        []Move
}

// CellRef addresses one cell of the board.
type CellRef struct {
	Row int `json:"r"`
	Col int `json:"c"`
}

// Move records one reversible board edit for the undo/redo stacks.
type Move struct {
	Row       int    `json:"r"`
	Col       int    `json:"c"`
	Prev      uint8  `json:"p"`
	Next      uint8  `json:"n"`
	PrevNotes uint16 `json:"pn"`
	NextNotes uint16 `json:"nn"`
}

// NewRecord creates a fresh in-progress record with a new unique ID.
func NewRecord(d Difficulty, solution, initial puzzle.Grid, now time.Time) *Record {
	return &Record{
		ID:             uuid.NewString(),
		Difficulty:     d,
		InitialBoard:   initial,
		Solution:       solution,
		CurrentBoard:   initial,
		StartedAt:      now.UTC(),
		LastModifiedAt: now.UTC(),
	}
}

// Touch bumps LastModifiedAt. Callers must pass the same instant they use
// for any paired remote write, so that later reconciliation sees equality
// rather than a false mismatch from two clock reads.
func (r *Record) Touch(now time.Time) {
	r.LastModifiedAt = now.UTC()
}

// Solved reports whether the current board matches the solution.
func (r *Record) Solved() bool {
	return r.CurrentBoard == r.Solution
}

// Complete transitions the record to its terminal state. The elapsed time
// freezes at its current value, notes and UI-resume state are cleared, and
// CompletedAt is set exactly once. Calling Complete on an already completed
// record is a no-op.
func (r *Record) Complete(now time.Time) {
	if r.IsCompleted {
		return
	}
	t := now.UTC()
	r.IsCompleted = true
	r.CompletedAt = &t
	r.ClearResumeState()
	r.Touch(now)
}

// ClearResumeState drops notes and every transient UI field. Used on
// completion and when a remote completed copy overwrites a local
// in-progress one.
func (r *Record) ClearResumeState() {
	r.Notes = NoteGrid{}
	r.Selected = nil
	r.HighlightedValue = 0
	r.PencilMode = false
	r.WasPaused = false
	r.UndoStack = nil
	r.RedoStack = nil
}

// HintCount returns the number of cells that received a hint.
func (r *Record) HintCount() int {
	n := 0
	for row := 0; row < 9; row++ {
		for col := 0; col < 9; col++ {
			if r.HintMask[row][col] {
				n++
			}
		}
	}
	return n
}

// NoteGrid stores candidate pencil marks as one bitmask per cell: bit v-1
// set means value v is marked.
type NoteGrid [9][9]uint16

// Has reports whether value v is marked at (r, c).
func (n *NoteGrid) Has(r, c int, v uint8) bool {
	return n[r][c]&(1<<(v-1)) != 0
}

// Toggle flips the mark for value v at (r, c).
func (n *NoteGrid) Toggle(r, c int, v uint8) {
	n[r][c] ^= 1 << (v - 1)
}

// Set replaces the whole mask at (r, c).
func (n *NoteGrid) Set(r, c int, mask uint16) {
	n[r][c] = mask
}

// Clear removes all marks at (r, c).
func (n *NoteGrid) Clear(r, c int) {
	n[r][c] = 0
}
