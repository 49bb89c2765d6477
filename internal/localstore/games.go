package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/gridsync/internal/game"
)

// dbGame mirrors game.RecordFields with sqlx column tags. Conversion is a
// plain field copy; all sentinel/packing rules live in the game codec.
type dbGame struct {
	ID             string `db:"id"`
	Difficulty     string `db:"difficulty"`
	InitialBoard   string `db:"initial_board"`
	Solution       string `db:"solution"`
	CurrentBoard   string `db:"current_board"`
	Notes          string `db:"notes"`
	HintMask       string `db:"hint_mask"`
	MistakeCount   int    `db:"mistake_count"`
	ElapsedSeconds int    `db:"elapsed_seconds"`
	StartedAt      int64  `db:"started_at"`
	CompletedAt    int64  `db:"completed_at"`
	IsCompleted    int    `db:"is_completed"`
	LastModifiedAt int64  `db:"last_modified_at"`
	IsDaily        int    `db:"is_daily"`
	DailyKey       string `db:"daily_key"`
	SelectedRow    int    `db:"selected_row"`
	SelectedCol    int    `db:"selected_col"`
	Highlighted    int    `db:"highlighted"`
	PencilMode     int    `db:"pencil_mode"`
	WasPaused      int    `db:"was_paused"`
	UndoStack      string `db:"undo_stack"`
	RedoStack      string `db:"redo_stack"`
}

func toDB(f game.RecordFields) dbGame {
	return dbGame{
		ID:             f.ID,
		Difficulty:     f.Difficulty,
		InitialBoard:   f.InitialBoard,
		Solution:       f.Solution,
		CurrentBoard:   f.CurrentBoard,
		Notes:          f.Notes,
		HintMask:       f.HintMask,
		MistakeCount:   f.MistakeCount,
		ElapsedSeconds: f.ElapsedSeconds,
		StartedAt:      f.StartedAt,
		CompletedAt:    f.CompletedAt,
		IsCompleted:    f.IsCompleted,
		LastModifiedAt: f.LastModifiedAt,
		IsDaily:        f.IsDailyChallenge,
		DailyKey:       f.DailyChallengeKey,
		SelectedRow:    f.SelectedRow,
		SelectedCol:    f.SelectedCol,
		Highlighted:    f.Highlighted,
		PencilMode:     f.PencilMode,
		WasPaused:      f.WasPaused,
		UndoStack:      f.UndoStack,
		RedoStack:      f.RedoStack,
	}
}

func (g dbGame) fields() game.RecordFields {
	return game.RecordFields{
		ID:                g.ID,
		Difficulty:        g.Difficulty,
		InitialBoard:      g.InitialBoard,
		Solution:          g.Solution,
		CurrentBoard:      g.CurrentBoard,
		Notes:             g.Notes,
		HintMask:          g.HintMask,
		MistakeCount:      g.MistakeCount,
		ElapsedSeconds:    g.ElapsedSeconds,
		StartedAt:         g.StartedAt,
		CompletedAt:       g.CompletedAt,
		IsCompleted:       g.IsCompleted,
		LastModifiedAt:    g.LastModifiedAt,
		IsDailyChallenge:  g.IsDaily,
		DailyChallengeKey: g.DailyKey,
		SelectedRow:       g.SelectedRow,
		SelectedCol:       g.SelectedCol,
		Highlighted:       g.Highlighted,
		PencilMode:        g.PencilMode,
		WasPaused:         g.WasPaused,
		UndoStack:         g.UndoStack,
		RedoStack:         g.RedoStack,
	}
}

// Filter selects games by completion state. A nil Completed matches all.
type Filter struct {
	Completed *bool
}

// UpsertGame writes the full record keyed by its ID: update in place when
// the ID exists, insert otherwise. Saving the same ID twice leaves exactly
// one row holding the second payload.
func (s *Store) UpsertGame(ctx context.Context, r *game.Record) error {
	row := toDB(game.EncodeRecord(r))
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO games
		(id, difficulty, initial_board, solution, current_board, notes, hint_mask,
		 mistake_count, elapsed_seconds, started_at, completed_at, is_completed,
		 last_modified_at, is_daily, daily_key, selected_row, selected_col,
		 highlighted, pencil_mode, was_paused, undo_stack, redo_stack)
		VALUES
		(:id, :difficulty, :initial_board, :solution, :current_board, :notes, :hint_mask,
		 :mistake_count, :elapsed_seconds, :started_at, :completed_at, :is_completed,
		 :last_modified_at, :is_daily, :daily_key, :selected_row, :selected_col,
		 :highlighted, :pencil_mode, :was_paused, :undo_stack, :redo_stack)
		ON CONFLICT(id) DO UPDATE SET
		 difficulty = excluded.difficulty,
		 initial_board = excluded.initial_board,
		 solution = excluded.solution,
		 started_at = excluded.started_at,
		 is_daily = excluded.is_daily,
		 daily_key = excluded.daily_key,
		 current_board = excluded.current_board,
		 notes = excluded.notes,
		 hint_mask = excluded.hint_mask,
		 mistake_count = excluded.mistake_count,
		 elapsed_seconds = excluded.elapsed_seconds,
		 completed_at = excluded.completed_at,
		 is_completed = excluded.is_completed,
		 last_modified_at = excluded.last_modified_at,
		 selected_row = excluded.selected_row,
		 selected_col = excluded.selected_col,
		 highlighted = excluded.highlighted,
		 pencil_mode = excluded.pencil_mode,
		 was_paused = excluded.was_paused,
		 undo_stack = excluded.undo_stack,
		 redo_stack = excluded.redo_stack
	`, row)
	if err != nil {
		return fmt.Errorf("upsert game %s: %w", r.ID, err)
	}
	return nil
}

// FetchGame returns the record with the given ID, or ErrNotFound.
func (s *Store) FetchGame(ctx context.Context, id string) (*game.Record, error) {
	var row dbGame
	err := s.db.GetContext(ctx, &row, `SELECT * FROM games WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch game %s: %w", id, err)
	}
	return game.DecodeRecord(row.fields()), nil
}

// FetchGames returns matching records ordered by last modification,
// newest first. Returns an empty slice, never nil.
func (s *Store) FetchGames(ctx context.Context, f Filter) ([]*game.Record, error) {
	query := `SELECT * FROM games`
	args := []any{}
	if f.Completed != nil {
		query += ` WHERE is_completed = ?`
		args = append(args, boolToInt(*f.Completed))
	}
	query += ` ORDER BY last_modified_at DESC`

	var rows []dbGame
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("fetch games: %w", err)
	}

	records := make([]*game.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, game.DecodeRecord(row.fields()))
	}
	return records, nil
}

// DeleteGame removes the record with the given ID. Deleting an absent ID
// is not an error.
func (s *Store) DeleteGame(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete game %s: %w", id, err)
	}
	return nil
}

// CountGames returns the number of records matching the filter.
func (s *Store) CountGames(ctx context.Context, f Filter) (int, error) {
	query := `SELECT COUNT(*) FROM games`
	args := []any{}
	if f.Completed != nil {
		query += ` WHERE is_completed = ?`
		args = append(args, boolToInt(*f.Completed))
	}
	var n int
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count games: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
