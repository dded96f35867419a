package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type postgresStorage struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

// NewPostgresStorage stores keys in the client_state table. The pool stays
// owned by the caller; Close does not close it.
func NewPostgresStorage(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) Storage {
	return &postgresStorage{
		logger: logger,
		pgPool: pgPool,
	}
}

// MigratePostgres creates the client_state table if it does not exist.
func MigratePostgres(ctx context.Context, pgPool *pgxpool.Pool) error {
	const createTableQuery = `
CREATE TABLE IF NOT EXISTS client_state (
    key        TEXT PRIMARY KEY,
    value      BYTEA       NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)
`
	_, err := pgPool.Exec(ctx, createTableQuery)
	return err
}

func (s *postgresStorage) Get(ctx context.Context, key string) ([]byte, error) {
	const selectValueQuery = `
SELECT value
FROM client_state
WHERE key = $1
`
	var value []byte
	err := s.pgPool.QueryRow(
		ctx,
		selectValueQuery,
		key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Debug().
				Str("key", key).
				Msg("client state key not found")
			return nil, ErrNotFound
		}

		s.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to select client state")
		return nil, mapPgError(err)
	}
	s.logger.Debug().
		Str("key", key).
		Int("size", len(value)).
		Msg("selected client state")
	return value, nil
}

func (s *postgresStorage) Set(ctx context.Context, key string, value []byte) error {
	const upsertValueQuery = `
INSERT INTO client_state (key,
                          value,
                          updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value,
    updated_at = EXCLUDED.updated_at
`
	_, err := s.pgPool.Exec(
		ctx,
		upsertValueQuery,
		key,
		value,
		time.Now(),
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to upsert client state")
		return mapPgError(err)
	}
	s.logger.Debug().
		Str("key", key).
		Msg("stored client state")
	return nil
}

func (s *postgresStorage) Delete(ctx context.Context, key string) error {
	const deleteValueQuery = `
DELETE FROM client_state
WHERE key = $1
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteValueQuery,
		key,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to delete client state")
		return mapPgError(err)
	}
	s.logger.Debug().
		Str("key", key).
		Int64("affected", tag.RowsAffected()).
		Msg("deleted client state")
	return nil
}

func (s *postgresStorage) Clear(ctx context.Context) error {
	const deleteAllQuery = `
DELETE FROM client_state
`
	tag, err := s.pgPool.Exec(ctx, deleteAllQuery)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to clear client state")
		return mapPgError(err)
	}
	s.logger.Info().
		Int64("affected", tag.RowsAffected()).
		Msg("cleared client state")
	return nil
}

func (s *postgresStorage) Close() error {
	return nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
		return ErrNotInitialized
	}
	return err
}
