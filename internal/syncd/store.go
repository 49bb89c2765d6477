package syncd

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/gridsync/internal/game"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema (games + singletons)
const currentSchemaVersion = 1

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("syncd: record not found")

// Store is the server-side record store shared by every device. It keeps
// records in their wire form: the server never interprets game state, it
// only filters and orders on the two indexed columns.
type Store struct {
	db *sqlx.DB
}

// OpenStore creates or opens the server database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open syncd store: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("open syncd store: execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("open syncd store: apply schema: %w", err)
	}
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		db.Close()
		return nil, fmt.Errorf("open syncd store: get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			db.Close()
			return nil, fmt.Errorf("open syncd store: set user_version: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// PutGame stores or replaces the record payload under its ID.
func (s *Store) PutGame(ctx context.Context, fields game.RecordFields) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("put game %s: %w", fields.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO games (id, is_completed, last_modified_at, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			is_completed     = excluded.is_completed,
			last_modified_at = excluded.last_modified_at,
			payload          = excluded.payload`,
		fields.ID, fields.IsCompleted, fields.LastModifiedAt, string(payload))
	if err != nil {
		return fmt.Errorf("put game %s: %w", fields.ID, err)
	}
	return nil
}

// GetGame returns the stored payload for id.
func (s *Store) GetGame(ctx context.Context, id string) (game.RecordFields, error) {
	var payload string
	err := s.db.GetContext(ctx, &payload, "SELECT payload FROM games WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return game.RecordFields{}, ErrNotFound
	}
	if err != nil {
		return game.RecordFields{}, fmt.Errorf("get game %s: %w", id, err)
	}
	var fields game.RecordFields
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return game.RecordFields{}, fmt.Errorf("get game %s: decode payload: %w", id, err)
	}
	return fields, nil
}

// ListGames returns records filtered on the completed flag, newest
// modification first. limit <= 0 means no limit.
func (s *Store) ListGames(ctx context.Context, completed bool, limit int) ([]game.RecordFields, error) {
	want := 0
	if completed {
		want = 1
	}
	query := "SELECT payload FROM games WHERE is_completed = ? ORDER BY last_modified_at DESC"
	args := []any{want}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var payloads []string
	if err := s.db.SelectContext(ctx, &payloads, query, args...); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	out := make([]game.RecordFields, 0, len(payloads))
	for _, payload := range payloads {
		var fields game.RecordFields
		if err := json.Unmarshal([]byte(payload), &fields); err != nil {
			return nil, fmt.Errorf("list games: decode payload: %w", err)
		}
		out = append(out, fields)
	}
	return out, nil
}

// DeleteGame removes id. Deleting an absent record returns ErrNotFound.
func (s *Store) DeleteGame(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM games WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete game %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete game %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetSingleton returns the raw payload stored under key.
func (s *Store) GetSingleton(ctx context.Context, key string) (json.RawMessage, error) {
	var payload string
	err := s.db.GetContext(ctx, &payload, "SELECT payload FROM singletons WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get singleton %s: %w", key, err)
	}
	return json.RawMessage(payload), nil
}

// PutSingleton stores or replaces the payload under key.
func (s *Store) PutSingleton(ctx context.Context, key string, payload json.RawMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO singletons (key, payload) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload`,
		key, string(payload))
	if err != nil {
		return fmt.Errorf("put singleton %s: %w", key, err)
	}
	return nil
}
