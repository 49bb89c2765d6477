package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/roach88/gridsync/internal/game"
	"github.com/roach88/gridsync/internal/localstore"
	"github.com/roach88/gridsync/internal/remote"
)

// syncSettings and syncStatistics reconcile the two singleton records by
// the same timestamp rule as games: remote wins if strictly newer, local
// is otherwise authoritative. One refinement: remote replication is not
// instantaneous, so when local looks newer by less than the grace window a
// just-written concurrent change may simply not have landed yet; re-fetch
// once after a short delay before trusting "local is newer".

func (c *Coordinator) syncSettings(ctx context.Context) {
	reconcileSingleton(c, ctx, "settings",
		c.remote.FetchSettings,
		c.local.Settings,
		c.local.PutSettings,
		c.remote.UploadSettings,
		func(s *game.Settings) time.Time { return s.LastModifiedAt },
	)
}

func (c *Coordinator) syncStatistics(ctx context.Context) {
	reconcileSingleton(c, ctx, "statistics",
		c.remote.FetchStatistics,
		c.local.Statistics,
		c.local.PutStatistics,
		c.remote.UploadStatistics,
		func(s *game.Statistics) time.Time { return s.LastModifiedAt },
	)
}

func reconcileSingleton[T any](
	c *Coordinator,
	ctx context.Context,
	name string,
	fetchRemote func(context.Context) (T, error),
	fetchLocal func(context.Context) (T, error),
	putLocal func(context.Context, T) error,
	uploadRemote func(context.Context, T) error,
	modifiedAt func(T) time.Time,
) {
	remoteVal, err := fetchRemote(ctx)
	if errors.Is(err, remote.ErrNotFound) {
		// First device to sync seeds the remote singleton.
		local, lerr := fetchLocal(ctx)
		if lerr != nil {
			return
		}
		if uerr := uploadRemote(ctx, local); uerr != nil {
			slog.Warn("seeding remote singleton failed", "name", name, "error", uerr)
		}
		return
	}
	if err != nil {
		slog.Warn("remote singleton fetch failed, keeping local", "name", name, "error", err)
		return
	}

	local, err := fetchLocal(ctx)
	if errors.Is(err, localstore.ErrNotFound) {
		if perr := putLocal(ctx, remoteVal); perr != nil {
			slog.Error("storing remote singleton failed", "name", name, "error", perr)
		}
		return
	}
	if err != nil {
		slog.Error("local singleton fetch failed", "name", name, "error", err)
		return
	}

	localTS, remoteTS := modifiedAt(local), modifiedAt(remoteVal)
	switch {
	case remoteTS.After(localTS):
		if perr := putLocal(ctx, remoteVal); perr != nil {
			slog.Error("applying remote singleton failed", "name", name, "error", perr)
		}
	case localTS.After(remoteTS):
		if localTS.Sub(remoteTS) < c.opts.GraceWindow {
			if c.clock.Sleep(ctx, c.opts.GraceRetryDelay) != nil {
				return
			}
			retry, rerr := fetchRemote(ctx)
			if rerr == nil && modifiedAt(retry).After(localTS) {
				if perr := putLocal(ctx, retry); perr != nil {
					slog.Error("applying remote singleton after grace retry failed", "name", name, "error", perr)
				}
				return
			}
		}
		// Local is genuinely newer; the mutation path owns the upload.
	default:
		// Equal timestamps: already in sync.
	}
}
