package localstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gridsync/internal/game"
	"github.com/roach88/gridsync/internal/puzzle"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "replica.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(t *testing.T, seed uint64, now time.Time) *game.Record {
	t.Helper()
	solution, initial := puzzle.Generate(30, seed)
	return game.NewRecord(game.DifficultyMedium, solution, initial, now)
}

func TestOpen_CreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replica.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replica.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "open iteration %d", i)
		s.Close()
	}
}

func TestUpsertGame_InsertThenFetch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	r := testRecord(t, 1, now)
	r.Notes.Toggle(0, 1, 4)
	r.Selected = &game.CellRef{Row: 1, Col: 1}
	require.NoError(t, s.UpsertGame(ctx, r))

	got, err := s.FetchGame(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

// Saving the same ID twice must leave exactly one row holding the second
// payload.
func TestUpsertGame_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	r := testRecord(t, 2, now)
	require.NoError(t, s.UpsertGame(ctx, r))

	r.MistakeCount = 3
	r.ElapsedSeconds = 90
	r.Touch(now.Add(time.Minute))
	require.NoError(t, s.UpsertGame(ctx, r))

	n, err := s.CountGames(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.FetchGame(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.MistakeCount)
	assert.Equal(t, 90, got.ElapsedSeconds)
	assert.Equal(t, now.Add(time.Minute), got.LastModifiedAt)
}

func TestFetchGame_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.FetchGame(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchGames_FilterAndOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	older := testRecord(t, 3, base)
	newer := testRecord(t, 4, base.Add(time.Hour))
	finished := testRecord(t, 5, base)
	finished.CurrentBoard = finished.Solution
	finished.Complete(base.Add(2 * time.Hour))

	for _, r := range []*game.Record{older, newer, finished} {
		require.NoError(t, s.UpsertGame(ctx, r))
	}

	inProgress := false
	got, err := s.FetchGames(ctx, Filter{Completed: &inProgress})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID, "newest first")
	assert.Equal(t, older.ID, got[1].ID)

	completed := true
	got, err = s.FetchGames(ctx, Filter{Completed: &completed})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, finished.ID, got[0].ID)

	all, err := s.FetchGames(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDeleteGame(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := testRecord(t, 6, time.Now().UTC().Truncate(time.Millisecond))
	require.NoError(t, s.UpsertGame(ctx, r))
	require.NoError(t, s.DeleteGame(ctx, r.ID))

	_, err := s.FetchGame(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.DeleteGame(ctx, r.ID), "deleting an absent ID is not an error")
}

func TestSingletons_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Settings(ctx)
	assert.ErrorIs(t, err, ErrNotFound, "fresh replica has no settings")

	settings := game.DefaultSettings()
	settings.Theme = "dark"
	settings.LastModifiedAt = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.PutSettings(ctx, settings))

	got, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings, got)

	stats := game.DefaultStatistics()
	stats.CurrentStreak = 2
	stats.LastModifiedAt = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.PutStatistics(ctx, stats))

	gotStats, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, stats, gotStats)
}

func TestSingletons_Overwrite(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := game.DefaultSettings()
	a.LastModifiedAt = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.PutSettings(ctx, a))

	b := game.DefaultSettings()
	b.Theme = "dark"
	b.LastModifiedAt = a.LastModifiedAt.Add(time.Minute)
	require.NoError(t, s.PutSettings(ctx, b))

	got, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dark", got.Theme)
}
