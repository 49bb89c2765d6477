// Package controller orchestrates one device's play session: puzzle
// generation, user edits, undo/redo, pause/resume, the debounced autosave
// pipeline, and sync at lifecycle points.
//
// UI-facing methods are expected to be called from one goroutine. The
// internal mutex only serializes those calls against the debounce timer
// callback and background uploads; it is never held across I/O waits on
// the edit path.
package controller

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/gridsync/internal/engine"
	"github.com/roach88/gridsync/internal/game"
	"github.com/roach88/gridsync/internal/localstore"
	"github.com/roach88/gridsync/internal/puzzle"
	"github.com/roach88/gridsync/internal/remote"
)

// Options holds the controller tunables.
type Options struct {
	// DebounceWindow is the quiescence period after the last edit before
	// the autosave fires.
	DebounceWindow time.Duration

	// UploadTimeout bounds one background remote upload.
	UploadTimeout time.Duration
}

// DefaultOptions returns the production tunables.
func DefaultOptions() Options {
	return Options{
		DebounceWindow: 3 * time.Second,
		UploadTimeout:  15 * time.Second,
	}
}

// Controller owns the current game record and the tracked-game slot.
type Controller struct {
	local  *localstore.Store
	remote remote.Client
	coord  *engine.Coordinator
	clock  engine.Clock
	opts   Options

	mu      sync.Mutex
	current *game.Record
	tracked engine.Tracked
	timer   engine.Timer
	armed   bool

	// runningSince is the instant the in-progress timer last started;
	// zero while paused or completed. Elapsed time folds in on save.
	runningSince time.Time

	uploads sync.WaitGroup
}

// New creates a controller.
func New(local *localstore.Store, rc remote.Client, coord *engine.Coordinator, clock engine.Clock, opts Options) *Controller {
	def := DefaultOptions()
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = def.DebounceWindow
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = def.UploadTimeout
	}
	return &Controller{
		local:  local,
		remote: rc,
		coord:  coord,
		clock:  clock,
		opts:   opts,
	}
}

// Current returns the record being played, or nil. The returned pointer is
// the live record; treat it as read-only.
func (c *Controller) Current() *game.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Tracked returns the current tracked-game slot.
func (c *Controller) Tracked() engine.Tracked {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracked
}

// NewGame generates a fresh puzzle at the given difficulty and makes it
// the tracked game. Generation runs on a worker goroutine so a slow
// backtracking search never blocks the caller past ctx.
func (c *Controller) NewGame(ctx context.Context, d game.Difficulty) (*game.Record, error) {
	seed := uint64(c.clock.Now().UnixNano())
	return c.startGame(ctx, d, seed, "", false)
}

// NewDailyChallenge generates the deterministic daily puzzle for dateKey
// (e.g. "2026-03-14"). Every device derives the same seed from the key,
// so all players get the identical board.
func (c *Controller) NewDailyChallenge(ctx context.Context, d game.Difficulty, dateKey string) (*game.Record, error) {
	return c.startGame(ctx, d, dailySeed(dateKey, d), dateKey, true)
}

func dailySeed(dateKey string, d game.Difficulty) uint64 {
	h := fnv.New64a()
	h.Write([]byte("daily:" + dateKey + ":" + d.String()))
	return h.Sum64()
}

type genResult struct {
	solution puzzle.Grid
	grid     puzzle.Grid
}

func (c *Controller) startGame(ctx context.Context, d game.Difficulty, seed uint64, dailyKey string, daily bool) (*game.Record, error) {
	done := make(chan genResult, 1)
	go func() {
		solution, grid := puzzle.Generate(d.Removals(), seed)
		done <- genResult{solution: solution, grid: grid}
	}()

	var res genResult
	select {
	case res = <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	now := c.clock.Now()
	rec := game.NewRecord(d, res.solution, res.grid, now)
	rec.IsDailyChallenge = daily
	rec.DailyChallengeKey = dailyKey

	c.mu.Lock()
	c.cancelDebounceLocked()
	c.current = rec
	c.tracked = engine.Track(rec.ID)
	c.runningSince = now
	c.mu.Unlock()

	c.bumpStartStatistics(ctx, d)
	// Upload synchronously: a sync pass right after a new game must find
	// it remotely rather than clearing the fresh slot as "absent".
	c.flushSync(ctx)
	return rec, nil
}

func (c *Controller) bumpStartStatistics(ctx context.Context, d game.Difficulty) {
	stats, err := c.local.Statistics(ctx)
	if errors.Is(err, localstore.ErrNotFound) {
		stats = game.DefaultStatistics()
	} else if err != nil {
		slog.Error("loading statistics failed", "error", err)
		return
	}
	stats.RecordStart(d)
	stats.LastModifiedAt = c.clock.Now().UTC()
	c.saveStatistics(ctx, stats)
}

var (
	// ErrNoGame is returned by edit operations when nothing is being played.
	ErrNoGame = errors.New("controller: no game in progress")

	// ErrCompleted is returned by edit operations on a finished game.
	ErrCompleted = errors.New("controller: game already completed")

	// ErrFixedCell is returned when an edit targets a given (initial) cell.
	ErrFixedCell = errors.New("controller: cell is part of the initial board")
)

func (c *Controller) editableCell(r, col int) (*game.Record, error) {
	rec := c.current
	if rec == nil {
		return nil, ErrNoGame
	}
	if rec.IsCompleted {
		return nil, ErrCompleted
	}
	if r < 0 || r > 8 || col < 0 || col > 8 {
		return nil, fmt.Errorf("controller: cell (%d,%d) out of range", r, col)
	}
	if rec.InitialBoard[r][col] != 0 {
		return nil, ErrFixedCell
	}
	return rec, nil
}

// SetCell places v (0 clears) at (r, col), records the move for undo,
// counts a mistake for a wrong placement, and schedules a debounced save.
// Filling the last cell correctly completes the game immediately.
func (c *Controller) SetCell(ctx context.Context, r, col int, v uint8) error {
	c.mu.Lock()
	rec, err := c.editableCell(r, col)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if v > 9 {
		c.mu.Unlock()
		return fmt.Errorf("controller: value %d out of range", v)
	}

	prev := rec.CurrentBoard[r][col]
	prevNotes := rec.Notes[r][col]
	if prev == v {
		c.mu.Unlock()
		return nil
	}

	rec.CurrentBoard[r][col] = v
	rec.Notes.Clear(r, col)
	rec.UndoStack = append(rec.UndoStack, game.Move{
		Row: r, Col: col, Prev: prev, Next: v, PrevNotes: prevNotes,
	})
	rec.RedoStack = nil
	if v != 0 && v != rec.Solution[r][col] {
		rec.MistakeCount++
	}

	if rec.Solved() {
		c.completeLocked(ctx)
		c.mu.Unlock()
		return nil
	}
	c.scheduleSaveLocked()
	c.mu.Unlock()
	return nil
}

// ToggleNote flips the pencil mark v at (r, col) and schedules a save.
func (c *Controller) ToggleNote(_ context.Context, r, col int, v uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, err := c.editableCell(r, col)
	if err != nil {
		return err
	}
	if v < 1 || v > 9 {
		return fmt.Errorf("controller: note value %d out of range", v)
	}
	rec.Notes.Toggle(r, col, v)
	c.scheduleSaveLocked()
	return nil
}

// Hint fills the selected cell (or the first open cell) with the solution
// value and marks it in the hint mask. Hinting the last open cell
// completes the game.
func (c *Controller) Hint(ctx context.Context) error {
	c.mu.Lock()
	rec := c.current
	if rec == nil {
		c.mu.Unlock()
		return ErrNoGame
	}
	if rec.IsCompleted {
		c.mu.Unlock()
		return ErrCompleted
	}

	r, col, ok := c.hintTargetLocked(rec)
	if !ok {
		c.mu.Unlock()
		return nil
	}

	prev := rec.CurrentBoard[r][col]
	prevNotes := rec.Notes[r][col]
	rec.CurrentBoard[r][col] = rec.Solution[r][col]
	rec.Notes.Clear(r, col)
	rec.HintMask[r][col] = true
	rec.UndoStack = append(rec.UndoStack, game.Move{
		Row: r, Col: col, Prev: prev, Next: rec.Solution[r][col], PrevNotes: prevNotes,
	})
	rec.RedoStack = nil

	if rec.Solved() {
		c.completeLocked(ctx)
		c.mu.Unlock()
		return nil
	}
	c.scheduleSaveLocked()
	c.mu.Unlock()
	return nil
}

// hintTargetLocked prefers the selected cell when it is open or wrong,
// falling back to the first such cell.
func (c *Controller) hintTargetLocked(rec *game.Record) (int, int, bool) {
	if sel := rec.Selected; sel != nil &&
		rec.InitialBoard[sel.Row][sel.Col] == 0 &&
		rec.CurrentBoard[sel.Row][sel.Col] != rec.Solution[sel.Row][sel.Col] {
		return sel.Row, sel.Col, true
	}
	for r := 0; r < 9; r++ {
		for col := 0; col < 9; col++ {
			if rec.InitialBoard[r][col] == 0 && rec.CurrentBoard[r][col] != rec.Solution[r][col] {
				return r, col, true
			}
		}
	}
	return 0, 0, false
}

// Undo reverts the most recent move and schedules a save.
func (c *Controller) Undo(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.current
	if rec == nil {
		return ErrNoGame
	}
	if rec.IsCompleted {
		return ErrCompleted
	}
	n := len(rec.UndoStack)
	if n == 0 {
		return nil
	}
	m := rec.UndoStack[n-1]
	rec.UndoStack = rec.UndoStack[:n-1]
	m.NextNotes = rec.Notes[m.Row][m.Col]
	rec.CurrentBoard[m.Row][m.Col] = m.Prev
	rec.Notes.Set(m.Row, m.Col, m.PrevNotes)
	rec.RedoStack = append(rec.RedoStack, m)
	c.scheduleSaveLocked()
	return nil
}

// Redo re-applies the most recently undone move.
func (c *Controller) Redo(ctx context.Context) error {
	c.mu.Lock()
	rec := c.current
	if rec == nil {
		c.mu.Unlock()
		return ErrNoGame
	}
	if rec.IsCompleted {
		c.mu.Unlock()
		return ErrCompleted
	}
	n := len(rec.RedoStack)
	if n == 0 {
		c.mu.Unlock()
		return nil
	}
	m := rec.RedoStack[n-1]
	rec.RedoStack = rec.RedoStack[:n-1]
	rec.CurrentBoard[m.Row][m.Col] = m.Next
	rec.Notes.Set(m.Row, m.Col, m.NextNotes)
	rec.UndoStack = append(rec.UndoStack, m)

	if rec.Solved() {
		c.completeLocked(ctx)
		c.mu.Unlock()
		return nil
	}
	c.scheduleSaveLocked()
	c.mu.Unlock()
	return nil
}

// Select remembers the focused cell for cross-device resume.
func (c *Controller) Select(_ context.Context, r, col int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.current
	if rec == nil {
		return ErrNoGame
	}
	if r < 0 || r > 8 || col < 0 || col > 8 {
		return fmt.Errorf("controller: cell (%d,%d) out of range", r, col)
	}
	rec.Selected = &game.CellRef{Row: r, Col: col}
	c.scheduleSaveLocked()
	return nil
}

// SetPencilMode toggles pencil entry and schedules a save.
func (c *Controller) SetPencilMode(_ context.Context, on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.current
	if rec == nil {
		return ErrNoGame
	}
	rec.PencilMode = on
	c.scheduleSaveLocked()
	return nil
}

// Pause stops the elapsed timer and saves immediately. The paused flag
// must not be lost to a race with the next sync, so this bypasses the
// debounce.
func (c *Controller) Pause(ctx context.Context) error {
	c.mu.Lock()
	rec := c.current
	if rec == nil || rec.IsCompleted {
		c.mu.Unlock()
		if rec == nil {
			return ErrNoGame
		}
		return ErrCompleted
	}
	rec.WasPaused = true
	c.foldElapsedLocked()
	c.mu.Unlock()
	c.flush(ctx)
	return nil
}

// Resume restarts the elapsed timer and saves immediately.
func (c *Controller) Resume(ctx context.Context) error {
	c.mu.Lock()
	rec := c.current
	if rec == nil || rec.IsCompleted {
		c.mu.Unlock()
		if rec == nil {
			return ErrNoGame
		}
		return ErrCompleted
	}
	rec.WasPaused = false
	if c.runningSince.IsZero() {
		c.runningSince = c.clock.Now()
	}
	c.mu.Unlock()
	c.flush(ctx)
	return nil
}

// foldElapsedLocked accumulates running wall time into ElapsedSeconds and
// stops the running window.
func (c *Controller) foldElapsedLocked() {
	if c.current == nil || c.runningSince.IsZero() {
		return
	}
	c.current.ElapsedSeconds += int(c.clock.Now().Sub(c.runningSince) / time.Second)
	c.runningSince = time.Time{}
}

// completeLocked runs the terminal transition: freeze the record, flush
// immediately, fold the result into statistics, then sync
// opportunistically so other devices learn about it (and we learn about
// any game they already started).
func (c *Controller) completeLocked(ctx context.Context) {
	rec := c.current
	c.foldElapsedLocked()
	rec.Complete(c.clock.Now())
	c.cancelDebounceLocked()

	c.mu.Unlock()
	c.flushSync(ctx)
	c.bumpCompletionStatistics(ctx, rec)
	if _, _, err := c.SyncNow(ctx); err != nil {
		slog.Warn("post-completion sync failed", "error", err)
	}
	c.mu.Lock()
}

func (c *Controller) bumpCompletionStatistics(ctx context.Context, rec *game.Record) {
	stats, err := c.local.Statistics(ctx)
	if errors.Is(err, localstore.ErrNotFound) {
		stats = game.DefaultStatistics()
	} else if err != nil {
		slog.Error("loading statistics failed", "error", err)
		return
	}
	stats.RecordCompletion(rec, dayKey(c.clock.Now()))
	stats.LastModifiedAt = c.clock.Now().UTC()
	c.saveStatistics(ctx, stats)
}

func (c *Controller) saveStatistics(ctx context.Context, stats *game.Statistics) {
	if err := c.local.PutStatistics(ctx, stats); err != nil {
		slog.Error("storing statistics failed", "error", err)
		return
	}
	c.uploads.Add(1)
	go func() {
		defer c.uploads.Done()
		uctx, cancel := context.WithTimeout(context.Background(), c.opts.UploadTimeout)
		defer cancel()
		if err := c.remote.UploadStatistics(uctx, stats); err != nil {
			slog.Warn("statistics upload failed", "error", err)
		}
	}()
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
