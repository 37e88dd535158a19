package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type stateRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewStateRepository creates a repository for per-user client state documents.
func NewStateRepository(pool *pgxpool.Pool, logger zerolog.Logger) StateRepository {
	return &stateRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "state").Logger(),
	}
}

func (r *stateRepository) Get(ctx context.Context, userID uuid.UUID, key string) ([]byte, error) {
	var data []byte
	err := r.pool.QueryRow(ctx,
		`SELECT data FROM user_state WHERE user_id = $1 AND key = $2`,
		userID, key,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).
			Str("user_id", userID.String()).
			Str("key", key).
			Msg("failed to query client state")
		return nil, fmt.Errorf("failed to query client state: %w", err)
	}
	return data, nil
}

const upsertStateQuery = `
	INSERT INTO user_state (user_id, key, data, updated_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (user_id, key) DO UPDATE
	SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
`

func (r *stateRepository) Put(ctx context.Context, userID uuid.UUID, key string, data []byte) error {
	if _, err := r.pool.Exec(ctx, upsertStateQuery, userID, key, data); err != nil {
		r.logger.Error().Err(err).
			Str("user_id", userID.String()).
			Str("key", key).
			Msg("failed to store client state")
		return fmt.Errorf("failed to store client state: %w", err)
	}
	return nil
}

// Modify holds a transaction-scoped advisory lock on (user, key) so the
// read and the write cannot interleave with another Modify. The lock also
// covers documents that do not exist yet, which a row lock cannot.
func (r *stateRepository) Modify(ctx context.Context, userID uuid.UUID, key string, fn func(current []byte) ([]byte, error)) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				r.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if _, err = tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1 || '/' || $2, 0))`,
		userID.String(), key,
	); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Str("key", key).Msg("failed to lock client state")
		return fmt.Errorf("failed to lock client state: %w", err)
	}

	var current []byte
	err = tx.QueryRow(ctx,
		`SELECT data FROM user_state WHERE user_id = $1 AND key = $2`,
		userID, key,
	).Scan(&current)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Str("key", key).Msg("failed to query client state")
		return fmt.Errorf("failed to query client state: %w", err)
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	if _, err = tx.Exec(ctx, upsertStateQuery, userID, key, next); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Str("key", key).Msg("failed to store client state")
		return fmt.Errorf("failed to store client state: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit client state: %w", err)
	}
	return nil
}
