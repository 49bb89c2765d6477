package controller

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/gridsync/internal/engine"
	"github.com/roach88/gridsync/internal/game"
)

// scheduleSaveLocked arms (or re-arms) the debounce timer. Every new edit
// restarts the quiescence window, so a burst of moves produces one save.
func (c *Controller) scheduleSaveLocked() {
	if c.timer == nil {
		c.timer = c.clock.AfterFunc(c.opts.DebounceWindow, c.debounceFired)
		c.armed = true
		return
	}
	c.timer.Reset(c.opts.DebounceWindow)
	c.armed = true
}

// cancelDebounceLocked disarms any pending autosave. Higher-priority
// saves (completion, pause) and sync passes call this first so a stale
// queued autosave can never stomp their result.
func (c *Controller) cancelDebounceLocked() {
	if c.timer != nil && c.armed {
		c.timer.Stop()
		c.armed = false
	}
}

func (c *Controller) debounceFired() {
	c.mu.Lock()
	c.armed = false
	c.mu.Unlock()
	c.flush(context.Background())
}

// flush persists the current record now: one timestamp is stamped once
// and used for both the local write and the paired remote upload, so a
// later reconciliation of our own write compares equal instead of seeing
// a phantom mismatch. The local write is synchronous; the upload runs in
// the background with its own timeout.
func (c *Controller) flush(ctx context.Context) {
	c.flushWith(ctx, false)
}

// flushSync additionally waits for the remote upload. The completion path
// uses it so the follow-up sync pass is guaranteed to see the terminal
// record remotely.
func (c *Controller) flushSync(ctx context.Context) {
	c.flushWith(ctx, true)
}

func (c *Controller) flushWith(ctx context.Context, wait bool) {
	c.mu.Lock()
	rec := c.current
	if rec == nil {
		c.mu.Unlock()
		return
	}
	c.cancelDebounceLocked()

	now := c.clock.Now()
	if !c.runningSince.IsZero() && !rec.IsCompleted {
		rec.ElapsedSeconds += int(now.Sub(c.runningSince) / time.Second)
		c.runningSince = now
	}
	rec.Touch(now)

	// Detach a snapshot through the codec so background upload never
	// races live edits.
	snapshot := game.DecodeRecord(game.EncodeRecord(rec))
	c.mu.Unlock()

	if err := c.local.UpsertGame(ctx, snapshot); err != nil {
		// In-memory state stays authoritative; the next save retries.
		slog.Error("local save failed", "id", snapshot.ID, "error", err)
	}

	upload := func() {
		uctx, cancel := context.WithTimeout(context.Background(), c.opts.UploadTimeout)
		defer cancel()
		if err := c.remote.UploadGame(uctx, snapshot); err != nil {
			slog.Warn("game upload failed", "id", snapshot.ID, "error", err)
		}
	}
	if wait {
		upload()
		return
	}
	c.uploads.Add(1)
	go func() {
		defer c.uploads.Done()
		upload()
	}()
}

// SyncNow runs one coordinator pass and reloads the controller's view of
// the tracked game from the local store. Pending debounced edits are
// flushed first.
func (c *Controller) SyncNow(ctx context.Context) (engine.Tracked, engine.Outcome, error) {
	c.mu.Lock()
	pending := c.armed
	tracked := c.tracked
	c.mu.Unlock()

	if pending {
		c.flush(ctx)
	}

	tracked, out, err := c.coord.Sync(ctx, tracked)

	c.mu.Lock()
	c.tracked = tracked
	c.mu.Unlock()

	if tracked.None() {
		c.mu.Lock()
		c.current = nil
		c.runningSince = time.Time{}
		c.mu.Unlock()
		return tracked, out, err
	}

	rec, lerr := c.local.FetchGame(ctx, tracked.ID)
	if lerr != nil {
		slog.Error("reload after sync failed", "id", tracked.ID, "error", lerr)
		return tracked, out, err
	}
	c.mu.Lock()
	c.current = rec
	switch {
	case rec.IsCompleted:
		c.runningSince = time.Time{}
	case rec.WasPaused:
		c.runningSince = time.Time{}
	case c.runningSince.IsZero():
		c.runningSince = c.clock.Now()
	}
	c.mu.Unlock()
	return tracked, out, err
}

// OnLaunch runs the launch-time sync and resume.
func (c *Controller) OnLaunch(ctx context.Context) (engine.Outcome, error) {
	_, out, err := c.SyncNow(ctx)
	return out, err
}

// OnForeground re-syncs when the app returns to the foreground.
func (c *Controller) OnForeground(ctx context.Context) (engine.Outcome, error) {
	_, out, err := c.SyncNow(ctx)
	return out, err
}

// OnBackground flushes state immediately; the process may be suspended at
// any moment afterwards.
func (c *Controller) OnBackground(ctx context.Context) {
	c.flush(ctx)
}

// Close flushes pending state and waits for background uploads to drain.
func (c *Controller) Close(ctx context.Context) {
	c.mu.Lock()
	pending := c.armed
	c.mu.Unlock()
	if pending {
		c.flush(ctx)
	}
	c.uploads.Wait()
}

// WaitUploads blocks until in-flight background uploads finish. Tests use
// it to observe the remote store deterministically.
func (c *Controller) WaitUploads() {
	c.uploads.Wait()
}
