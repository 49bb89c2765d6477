package engine_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gridsync/internal/engine"
	"github.com/roach88/gridsync/internal/game"
	"github.com/roach88/gridsync/internal/localstore"
	"github.com/roach88/gridsync/internal/puzzle"
	"github.com/roach88/gridsync/internal/testutil"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type fixture struct {
	local  *localstore.Store
	remote *testutil.FakeRemote
	clock  *testutil.ManualClock
	coord  *engine.Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	local, err := localstore.Open(filepath.Join(t.TempDir(), "replica.db"))
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })

	fake := testutil.NewFakeRemote()
	clock := testutil.NewManualClock(t0)
	coord := engine.New(local, fake, clock, engine.Options{
		SyncTimeout:     10 * time.Second,
		GraceWindow:     10 * time.Second,
		GraceRetryDelay: 2 * time.Second,
		DiscoveryLimit:  10,
	})
	return &fixture{local: local, remote: fake, clock: clock, coord: coord}
}

func newGame(t *testing.T, seed uint64, modified time.Time) *game.Record {
	t.Helper()
	solution, initial := puzzle.Generate(30, seed)
	r := game.NewRecord(game.DifficultyMedium, solution, initial, t0)
	r.Touch(modified)
	return r
}

func TestSync_LocalNewerKept(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	local := newGame(t, 1, t0.Add(2*time.Minute))
	local.MistakeCount = 1
	require.NoError(t, fx.local.UpsertGame(ctx, local))

	stale := *local
	stale.MistakeCount = 9
	stale.Touch(t0.Add(time.Minute))
	fx.remote.Seed(&stale)

	tracked, out, err := fx.coord.Sync(ctx, engine.Track(local.ID))
	require.NoError(t, err)
	assert.Equal(t, local.ID, tracked.ID)
	assert.False(t, out.RemoteNewer)

	got, err := fx.local.FetchGame(ctx, local.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MistakeCount, "older remote copy must not replace newer local state")
	assert.Equal(t, t0.Add(2*time.Minute), got.LastModifiedAt)
}

func TestSync_RemoteNewerWinsWholeRecord(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	local := newGame(t, 2, t0.Add(time.Minute))
	local.MistakeCount = 1
	local.Notes.Toggle(0, 0, 3)
	require.NoError(t, fx.local.UpsertGame(ctx, local))

	newer := *local
	newer.MistakeCount = 2
	newer.ElapsedSeconds = 200
	newer.Notes = game.NoteGrid{}
	newer.Notes.Toggle(5, 5, 9)
	newer.Touch(t0.Add(3 * time.Minute))
	fx.remote.Seed(&newer)

	tracked, out, err := fx.coord.Sync(ctx, engine.Track(local.ID))
	require.NoError(t, err)
	assert.Equal(t, local.ID, tracked.ID)
	assert.True(t, out.RemoteNewer)

	got, err := fx.local.FetchGame(ctx, local.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MistakeCount)
	assert.Equal(t, 200, got.ElapsedSeconds)
	assert.True(t, got.Notes.Has(5, 5, 9))
	assert.False(t, got.Notes.Has(0, 0, 3), "whole-record LWW replaces notes too")
}

func TestSync_EqualTimestampsNoOp(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	local := newGame(t, 3, t0.Add(time.Minute))
	local.MistakeCount = 1
	require.NoError(t, fx.local.UpsertGame(ctx, local))

	divergent := *local
	divergent.MistakeCount = 7
	fx.remote.Seed(&divergent)

	_, out, err := fx.coord.Sync(ctx, engine.Track(local.ID))
	require.NoError(t, err)
	assert.False(t, out.RemoteNewer)

	got, err := fx.local.FetchGame(ctx, local.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MistakeCount, "equal timestamps are treated as in sync")
}

// Device A completes G1; device B still tracks it in progress. B's sync
// must flip its copy terminal with resume state cleared, and immediately
// follow up with a discovery query.
func TestSync_CrossDeviceCompletion(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	local := newGame(t, 4, t0.Add(time.Minute))
	local.Notes.Toggle(1, 1, 2)
	local.Selected = &game.CellRef{Row: 1, Col: 1}
	require.NoError(t, fx.local.UpsertGame(ctx, local))

	finished := *local
	finished.CurrentBoard = finished.Solution
	finished.Complete(t0.Add(5 * time.Minute))
	fx.remote.Seed(&finished)

	tracked, out, err := fx.coord.Sync(ctx, engine.Track(local.ID))
	require.NoError(t, err)
	assert.True(t, out.CompletedRemotely)
	assert.Equal(t, local.ID, tracked.ID, "completion keeps the same ID")

	got, err := fx.local.FetchGame(ctx, local.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, game.NoteGrid{}, got.Notes)
	assert.Nil(t, got.Selected)

	calls := fx.remote.Calls()
	require.GreaterOrEqual(t, len(calls), 2)
	assert.Equal(t, "FetchGame", calls[0])
	assert.Equal(t, "QueryGames", calls[1], "discovery must run immediately after a remote completion")
}

// Device A completes G1 and starts G2 before B syncs. B's single pass on
// G1 must detect the completion and come out tracking G2.
func TestSync_SimultaneousNewGame(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	g1 := newGame(t, 5, t0.Add(time.Minute))
	require.NoError(t, fx.local.UpsertGame(ctx, g1))

	finished := *g1
	finished.CurrentBoard = finished.Solution
	finished.Complete(t0.Add(10 * time.Minute))
	fx.remote.Seed(&finished)

	g2 := newGame(t, 6, t0.Add(11*time.Minute))
	fx.remote.Seed(g2)

	tracked, out, err := fx.coord.Sync(ctx, engine.Track(g1.ID))
	require.NoError(t, err)
	assert.True(t, out.CompletedRemotely)
	assert.True(t, out.Adopted)
	assert.Equal(t, g2.ID, tracked.ID)

	gotG1, err := fx.local.FetchGame(ctx, g1.ID)
	require.NoError(t, err)
	assert.True(t, gotG1.IsCompleted, "completed G1 stays as history")

	gotG2, err := fx.local.FetchGame(ctx, g2.ID)
	require.NoError(t, err)
	assert.False(t, gotG2.IsCompleted)
}

func TestSync_DiscoveryAdoptsNewest(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	older := newGame(t, 7, t0.Add(time.Minute))
	newer := newGame(t, 8, t0.Add(2*time.Minute))
	fx.remote.Seed(older)
	fx.remote.Seed(newer)

	tracked, out, err := fx.coord.Sync(ctx, engine.Tracked{})
	require.NoError(t, err)
	assert.True(t, out.Adopted)
	assert.Equal(t, newer.ID, tracked.ID, "discovery adopts the most recently modified game")

	_, err = fx.local.FetchGame(ctx, newer.ID)
	assert.NoError(t, err)
}

func TestSync_DiscoveryFindsNothing(t *testing.T) {
	fx := newFixture(t)

	tracked, out, err := fx.coord.Sync(context.Background(), engine.Tracked{})
	require.NoError(t, err)
	assert.True(t, tracked.None())
	assert.False(t, out.Adopted)
}

func TestSync_TrackedAbsentRemotely(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	local := newGame(t, 9, t0.Add(time.Minute))
	require.NoError(t, fx.local.UpsertGame(ctx, local))

	tracked, out, err := fx.coord.Sync(ctx, engine.Track(local.ID))
	require.NoError(t, err)
	assert.True(t, out.TrackingCleared)
	assert.True(t, tracked.None())
}

// A cleared slot followed by discovery of a different game retires the
// superseded local in-progress record; completed history is untouched.
func TestSync_SupersededInProgressDeleted(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	stale := newGame(t, 10, t0.Add(time.Minute))
	require.NoError(t, fx.local.UpsertGame(ctx, stale))

	replacement := newGame(t, 11, t0.Add(2*time.Minute))
	fx.remote.Seed(replacement)

	tracked, out, err := fx.coord.Sync(ctx, engine.Track(stale.ID))
	require.NoError(t, err)
	assert.True(t, out.TrackingCleared)
	assert.True(t, out.Adopted)
	assert.Equal(t, replacement.ID, tracked.ID)

	_, err = fx.local.FetchGame(ctx, stale.ID)
	assert.ErrorIs(t, err, localstore.ErrNotFound, "superseded in-progress record is deleted")
}

func TestSync_TransientFailureKeepsLocal(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	local := newGame(t, 12, t0.Add(time.Minute))
	local.MistakeCount = 1
	require.NoError(t, fx.local.UpsertGame(ctx, local))
	fx.remote.FailWith("FetchGame", errors.New("network down"))

	tracked, out, err := fx.coord.Sync(ctx, engine.Track(local.ID))
	require.NoError(t, err, "transient remote failures never propagate")
	assert.Equal(t, local.ID, tracked.ID)
	assert.False(t, out.TrackingCleared)

	got, err := fx.local.FetchGame(ctx, local.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MistakeCount)
}

func TestSync_BackfillCompletedHistory(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	history := newGame(t, 13, t0.Add(time.Minute))
	history.CurrentBoard = history.Solution
	history.Complete(t0.Add(2 * time.Minute))
	fx.remote.Seed(history)

	_, _, err := fx.coord.Sync(ctx, engine.Tracked{})
	require.NoError(t, err)

	got, err := fx.local.FetchGame(ctx, history.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)

	// A second pass is additive and idempotent.
	_, _, err = fx.coord.Sync(ctx, engine.Tracked{})
	require.NoError(t, err)
	completed := true
	n, err := fx.local.CountGames(ctx, localstore.Filter{Completed: &completed})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
