package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

type sqliteStorage struct {
	logger zerolog.Logger
	db     *sql.DB
}

// NewSQLiteStorage opens (or creates) the database file at path. A leading
// ~ expands to the user's home directory.
func NewSQLiteStorage(logger zerolog.Logger, path string) (Storage, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, path[1:])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	s := &sqliteStorage{
		logger: logger,
		db:     db,
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info().
		Str("path", path).
		Msg("opened sqlite storage")
	return s, nil
}

func (s *sqliteStorage) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS client_state (
    key        TEXT PRIMARY KEY,
    value      BLOB     NOT NULL,
    updated_at DATETIME NOT NULL
)
`
	_, err := s.db.Exec(schema)
	return err
}

func (s *sqliteStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(
		ctx,
		`SELECT value FROM client_state WHERE key = ?`,
		key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		s.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to select client state")
		return nil, err
	}
	return value, nil
}

func (s *sqliteStorage) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO client_state (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key,
		value,
		time.Now(),
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to upsert client state")
		return err
	}
	return nil
}

func (s *sqliteStorage) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM client_state WHERE key = ?`, key)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to delete client state")
		return err
	}
	return nil
}

func (s *sqliteStorage) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM client_state`)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to clear client state")
		return err
	}
	return nil
}

func (s *sqliteStorage) Close() error {
	return s.db.Close()
}
