// Package engine reconciles the local replica with the shared remote
// store. The protocol is last-write-wins over whole records keyed by a
// stable game ID: strictly newer LastModifiedAt replaces the entire
// mutable payload, equal timestamps mean already in sync. There is no
// per-field merge; that is a deliberate trade against complexity, and the
// engine must not grow one.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/roach88/gridsync/internal/localstore"
	"github.com/roach88/gridsync/internal/remote"
)

// Options holds the coordinator's tunables. GraceWindow and
// GraceRetryDelay compensate for remote replication lag when a singleton
// looks locally newer; the mechanism matters, the exact constants do not.
type Options struct {
	// SyncTimeout bounds one whole Sync pass. On expiry the device
	// proceeds offline with local state.
	SyncTimeout time.Duration

	// GraceWindow: when local singleton state is newer by less than this,
	// re-fetch once before trusting "local is newer".
	GraceWindow time.Duration

	// GraceRetryDelay is the pause before that re-fetch.
	GraceRetryDelay time.Duration

	// DiscoveryLimit caps the discovery query result set.
	DiscoveryLimit int
}

// DefaultOptions returns the production tunables.
func DefaultOptions() Options {
	return Options{
		SyncTimeout:     10 * time.Second,
		GraceWindow:     10 * time.Second,
		GraceRetryDelay: 2 * time.Second,
		DiscoveryLimit:  10,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.SyncTimeout <= 0 {
		o.SyncTimeout = def.SyncTimeout
	}
	if o.GraceWindow <= 0 {
		o.GraceWindow = def.GraceWindow
	}
	if o.GraceRetryDelay <= 0 {
		o.GraceRetryDelay = def.GraceRetryDelay
	}
	if o.DiscoveryLimit <= 0 {
		o.DiscoveryLimit = def.DiscoveryLimit
	}
	return o
}

// Outcome summarizes what one Sync pass did, for the UI layer and tests.
// The sync layer never propagates remote failures upward; callers observe
// resulting state instead.
type Outcome struct {
	// CompletedRemotely: the tracked game was finished on another device
	// and the local copy was flipped to its terminal state.
	CompletedRemotely bool

	// RemoteNewer: an in-progress remote copy replaced the local one.
	RemoteNewer bool

	// Adopted: discovery found an in-progress remote game and began
	// tracking it.
	Adopted bool

	// TrackingCleared: the tracked ID was absent remotely and the slot
	// was emptied.
	TrackingCleared bool
}

// Coordinator drives reconciliation between the local store and the
// remote store. It holds no mutable state of its own; the tracked slot is
// passed through every call.
type Coordinator struct {
	local  *localstore.Store
	remote remote.Client
	clock  Clock
	opts   Options
}

// New creates a coordinator.
func New(local *localstore.Store, rc remote.Client, clock Clock, opts Options) *Coordinator {
	return &Coordinator{
		local:  local,
		remote: rc,
		clock:  clock,
		opts:   opts.withDefaults(),
	}
}

// Sync runs one full reconciliation pass: the tracked-game protocol, then
// discovery when nothing (or nothing in-progress) is tracked, then the
// settings and statistics singletons, then the completed-history backfill.
//
// Remote failures degrade to keeping local state and are logged, never
// returned; the only error out of Sync is the context ending, which
// callers treat as "proceed offline".
func (c *Coordinator) Sync(ctx context.Context, tracked Tracked) (Tracked, Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.SyncTimeout)
	defer cancel()

	var out Outcome
	prev := tracked.ID

	if !tracked.None() {
		tracked = c.syncTracked(ctx, tracked, &out)
	}

	// Discovery runs when nothing is tracked, and also right after a
	// remote completion: the device that finished the puzzle commonly
	// starts a new one before we reconnect, and without this follow-up
	// query we would sit on the finished board indefinitely.
	if tracked.None() || out.CompletedRemotely {
		tracked = c.discover(ctx, tracked, prev, &out)
	}

	c.syncSettings(ctx)
	c.syncStatistics(ctx)
	c.backfillCompleted(ctx)

	if err := ctx.Err(); err != nil {
		return tracked, out, err
	}
	return tracked, out, nil
}

// syncTracked reconciles the one tracked game by direct key fetch. The
// read path never writes to the remote store; uploads happen only from
// the local-mutation path.
func (c *Coordinator) syncTracked(ctx context.Context, tracked Tracked, out *Outcome) Tracked {
	remoteRec, err := c.remote.FetchGame(ctx, tracked.ID)
	if errors.Is(err, remote.ErrNotFound) {
		// Never uploaded or removed remotely. Stop tracking it.
		slog.Info("tracked game absent remotely, clearing slot", "id", tracked.ID)
		out.TrackingCleared = true
		return Tracked{}
	}
	if err != nil {
		slog.Warn("remote fetch failed, keeping local state", "id", tracked.ID, "error", err)
		return tracked
	}

	localRec, err := c.local.FetchGame(ctx, tracked.ID)
	if errors.Is(err, localstore.ErrNotFound) {
		// Tracked but missing locally (e.g. wiped replica): adopt remote.
		if err := c.local.UpsertGame(ctx, remoteRec); err != nil {
			slog.Error("storing remote game locally failed", "id", tracked.ID, "error", err)
		}
		if remoteRec.IsCompleted {
			out.CompletedRemotely = true
		}
		return tracked
	}
	if err != nil {
		slog.Error("local fetch failed", "id", tracked.ID, "error", err)
		return tracked
	}

	if remoteRec.IsCompleted {
		// Finished on another device. Completion is an update to the same
		// ID, so overwrite in place: terminal flag, frozen time, cleared
		// notes and resume state all come from the remote copy.
		remoteRec.ClearResumeState()
		if err := c.local.UpsertGame(ctx, remoteRec); err != nil {
			slog.Error("applying remote completion failed", "id", tracked.ID, "error", err)
			return tracked
		}
		slog.Info("game completed remotely", "id", tracked.ID)
		out.CompletedRemotely = true
		return tracked
	}

	// Ordinary progress sync: strictly newer wins the whole record.
	switch {
	case remoteRec.LastModifiedAt.After(localRec.LastModifiedAt):
		if err := c.local.UpsertGame(ctx, remoteRec); err != nil {
			slog.Error("applying remote progress failed", "id", tracked.ID, "error", err)
			return tracked
		}
		out.RemoteNewer = true
	default:
		// Local newer or equal: local is authoritative, nothing to do.
	}
	return tracked
}

// discover looks for the most recently touched in-progress game anywhere
// and adopts it. prev is the previously tracked ID, used to retire a
// superseded local in-progress record.
func (c *Coordinator) discover(ctx context.Context, tracked Tracked, prev string, out *Outcome) Tracked {
	candidates, err := c.remote.QueryGames(ctx, false, c.opts.DiscoveryLimit)
	if err != nil {
		slog.Warn("discovery query failed", "error", err)
		return tracked
	}
	if len(candidates) == 0 {
		// No in-progress game anywhere.
		return tracked
	}

	adopted := candidates[0]
	if adopted.ID == tracked.ID {
		return tracked
	}

	if err := c.local.UpsertGame(ctx, adopted); err != nil {
		slog.Error("storing discovered game failed", "id", adopted.ID, "error", err)
		return tracked
	}

	// A superseded local in-progress record is deleted; completed records
	// are history and always stay.
	if prev != "" && prev != adopted.ID {
		if old, err := c.local.FetchGame(ctx, prev); err == nil && !old.IsCompleted {
			if err := c.local.DeleteGame(ctx, prev); err != nil {
				slog.Error("retiring superseded game failed", "id", prev, "error", err)
			}
		}
	}

	slog.Info("adopted remote game", "id", adopted.ID)
	out.Adopted = true
	return Track(adopted.ID)
}

// backfillCompleted merges remotely completed games the local history does
// not have yet. Additive only: sync never prunes local history.
func (c *Coordinator) backfillCompleted(ctx context.Context) {
	completed, err := c.remote.QueryGames(ctx, true, 0)
	if err != nil {
		slog.Warn("completed-history query failed", "error", err)
		return
	}
	for _, rec := range completed {
		_, err := c.local.FetchGame(ctx, rec.ID)
		if errors.Is(err, localstore.ErrNotFound) {
			if err := c.local.UpsertGame(ctx, rec); err != nil {
				slog.Error("backfill store failed", "id", rec.ID, "error", err)
			}
			continue
		}
		if err != nil {
			slog.Error("backfill local check failed", "id", rec.ID, "error", err)
		}
	}
}
