package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/roach88/gridsync/internal/game"
	"github.com/roach88/gridsync/internal/remote"
)

// FakeRemote is an in-memory remote.Client. Records pass through the wire
// codec on the way in and out, so tests exercise the same serialization
// path as the HTTP client. Failures are injectable per method and every
// call is logged for order assertions.
type FakeRemote struct {
	mu       sync.Mutex
	games    map[string]game.RecordFields
	settings *game.SettingsFields
	stats    *game.StatisticsFields

	errs  map[string]error
	calls []string

	// AfterCall, when set, runs after every logged call. Tests use it to
	// mutate the store mid-sync, e.g. to model replication lag.
	AfterCall func(method string)
}

var _ remote.Client = (*FakeRemote)(nil)

// NewFakeRemote returns an empty remote store.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		games: map[string]game.RecordFields{},
		errs:  map[string]error{},
	}
}

// FailWith makes every subsequent call to the named method return err.
// Pass nil to clear.
func (f *FakeRemote) FailWith(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, method)
		return
	}
	f.errs[method] = err
}

// Calls returns the method invocation log, oldest first.
func (f *FakeRemote) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// Seed stores a record without logging a call, for test setup.
func (f *FakeRemote) Seed(r *game.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.games[r.ID] = game.EncodeRecord(r)
}

// Game returns the stored copy of id, or nil.
func (f *FakeRemote) Game(id string) *game.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	fields, ok := f.games[id]
	if !ok {
		return nil
	}
	return game.DecodeRecord(fields)
}

func (f *FakeRemote) begin(call string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	err := f.errs[call]
	hook := f.AfterCall
	f.mu.Unlock()
	if hook != nil {
		hook(call)
	}
	return err
}

func (f *FakeRemote) UploadGame(_ context.Context, r *game.Record) error {
	if err := f.begin("UploadGame"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.games[r.ID] = game.EncodeRecord(r)
	return nil
}

func (f *FakeRemote) FetchGame(_ context.Context, id string) (*game.Record, error) {
	if err := f.begin("FetchGame"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fields, ok := f.games[id]
	if !ok {
		return nil, remote.ErrNotFound
	}
	return game.DecodeRecord(fields), nil
}

func (f *FakeRemote) QueryGames(_ context.Context, completed bool, limit int) ([]*game.Record, error) {
	if err := f.begin("QueryGames"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	want := 0
	if completed {
		want = 1
	}
	var records []*game.Record
	for _, fields := range f.games {
		if fields.IsCompleted == want {
			records = append(records, game.DecodeRecord(fields))
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].LastModifiedAt.After(records[j].LastModifiedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (f *FakeRemote) DeleteGame(_ context.Context, id string) error {
	if err := f.begin("DeleteGame"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.games, id)
	return nil
}

func (f *FakeRemote) FetchSettings(_ context.Context) (*game.Settings, error) {
	if err := f.begin("FetchSettings"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settings == nil {
		return nil, remote.ErrNotFound
	}
	return game.DecodeSettings(*f.settings), nil
}

func (f *FakeRemote) UploadSettings(_ context.Context, s *game.Settings) error {
	if err := f.begin("UploadSettings"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fields := game.EncodeSettings(s)
	f.settings = &fields
	return nil
}

// SeedSettings stores settings without logging a call.
func (f *FakeRemote) SeedSettings(s *game.Settings) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fields := game.EncodeSettings(s)
	f.settings = &fields
}

func (f *FakeRemote) FetchStatistics(_ context.Context) (*game.Statistics, error) {
	if err := f.begin("FetchStatistics"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stats == nil {
		return nil, remote.ErrNotFound
	}
	return game.DecodeStatistics(*f.stats), nil
}

func (f *FakeRemote) UploadStatistics(_ context.Context, s *game.Statistics) error {
	if err := f.begin("UploadStatistics"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fields := game.EncodeStatistics(s)
	f.stats = &fields
	return nil
}

// SeedStatistics stores statistics without logging a call.
func (f *FakeRemote) SeedStatistics(s *game.Statistics) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fields := game.EncodeStatistics(s)
	f.stats = &fields
}
