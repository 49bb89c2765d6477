package engine

import (
	"context"
	"time"
)

// Clock abstracts time for the sync engine and the autosave debouncer.
// Production code uses WallClock; tests drive a manual clock so debounce
// windows and the replication-lag grace retry run deterministically
// without real sleeps.
type Clock interface {
	// Now returns the current instant. Save paths read it once and use
	// the same value for the local write and the paired remote upload.
	Now() time.Time

	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error

	// AfterFunc schedules fn to run after d. The returned Timer can be
	// stopped or reset; fn runs at most once per scheduling.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop cancels the pending callback. Reports whether it was still
	// pending.
	Stop() bool

	// Reset re-arms the timer for a new duration, restarting the
	// quiescence window.
	Reset(d time.Duration)
}

// WallClock is the real-time Clock.
type WallClock struct{}

func (WallClock) Now() time.Time { return time.Now() }

func (WallClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (WallClock) AfterFunc(d time.Duration, fn func()) Timer {
	return wallTimer{time.AfterFunc(d, fn)}
}

type wallTimer struct {
	t *time.Timer
}

func (w wallTimer) Stop() bool            { return w.t.Stop() }
func (w wallTimer) Reset(d time.Duration) { w.t.Reset(d) }
