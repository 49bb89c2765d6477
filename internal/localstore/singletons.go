package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/gridsync/internal/game"
)

// Settings returns the stored settings singleton, or ErrNotFound on a
// fresh replica.
func (s *Store) Settings(ctx context.Context) (*game.Settings, error) {
	var f game.SettingsFields
	if err := s.getSingleton(ctx, game.SettingsKey, &f); err != nil {
		return nil, err
	}
	return game.DecodeSettings(f), nil
}

// PutSettings stores the settings singleton.
func (s *Store) PutSettings(ctx context.Context, settings *game.Settings) error {
	return s.putSingleton(ctx, game.SettingsKey, game.EncodeSettings(settings))
}

// Statistics returns the stored statistics singleton, or ErrNotFound on a
// fresh replica.
func (s *Store) Statistics(ctx context.Context) (*game.Statistics, error) {
	var f game.StatisticsFields
	if err := s.getSingleton(ctx, game.StatisticsKey, &f); err != nil {
		return nil, err
	}
	return game.DecodeStatistics(f), nil
}

// PutStatistics stores the statistics singleton.
func (s *Store) PutStatistics(ctx context.Context, stats *game.Statistics) error {
	return s.putSingleton(ctx, game.StatisticsKey, game.EncodeStatistics(stats))
}

func (s *Store) getSingleton(ctx context.Context, key string, out any) error {
	var payload string
	err := s.db.GetContext(ctx, &payload, `SELECT payload FROM singletons WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("fetch singleton %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		// A corrupt payload reads as absent rather than wedging the caller.
		return ErrNotFound
	}
	return nil
}

func (s *Store) putSingleton(ctx context.Context, key string, fields any) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode singleton %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO singletons (key, payload) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload
	`, key, string(payload))
	if err != nil {
		return fmt.Errorf("upsert singleton %s: %w", key, err)
	}
	return nil
}
