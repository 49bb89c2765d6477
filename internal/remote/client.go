// Package remote talks to the shared remote store. Every call is stateless
// and can fail transiently; callers own retry policy. Absence of a record
// is a first-class outcome (ErrNotFound), not a failure.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/gridsync/internal/game"
)

// ErrNotFound reports that the requested key does not exist remotely.
// Distinct from transport failures: reconciliation treats it as a valid
// "absent" signal and branches on it with errors.Is.
var ErrNotFound = errors.New("remote: record not found")

// Client is the capability surface the sync layer requires of the remote
// store: upsert-by-key, fetch-by-key, filtered query sorted by recency,
// and delete-by-key, plus the two singleton records.
type Client interface {
	// UploadGame creates or overwrites the remote record keyed by the
	// record's ID (upsert semantics).
	UploadGame(ctx context.Context, r *game.Record) error

	// FetchGame returns the record with the given ID, or ErrNotFound.
	FetchGame(ctx context.Context, id string) (*game.Record, error)

	// QueryGames returns records matching the completion state, sorted by
	// last modification descending. limit <= 0 means no limit.
	QueryGames(ctx context.Context, completed bool, limit int) ([]*game.Record, error)

	// DeleteGame removes the record with the given ID. Deleting an absent
	// key is not an error.
	DeleteGame(ctx context.Context, id string) error

	FetchSettings(ctx context.Context) (*game.Settings, error)
	UploadSettings(ctx context.Context, s *game.Settings) error

	FetchStatistics(ctx context.Context) (*game.Statistics, error)
	UploadStatistics(ctx context.Context, s *game.Statistics) error
}

// StatusError is a non-2xx response from the remote store that is not a
// plain not-found.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote: unexpected status %d: %s", e.Status, e.Body)
}
