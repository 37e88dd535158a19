package repository

import (
	"context"
	"errors"
	"fmt"

	"agrigenie/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type profileRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProfileRepository creates a new PostgreSQL-backed profile repository.
func NewProfileRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProfileRepository {
	return &profileRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "profile").Logger(),
	}
}

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	query := `
		SELECT id, full_name, role, phone, location, avatar_url, bio, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`

	var p model.Profile
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.FullName,
		&p.Role,
		&p.Phone,
		&p.Location,
		&p.AvatarURL,
		&p.Bio,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to query profile")
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return &p, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *model.Profile) error {
	query := `
		INSERT INTO profiles (id, full_name, role, phone, location, avatar_url, bio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET full_name = EXCLUDED.full_name,
			role = EXCLUDED.role,
			phone = EXCLUDED.phone,
			location = EXCLUDED.location,
			avatar_url = EXCLUDED.avatar_url,
			bio = EXCLUDED.bio,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		profile.ID,
		profile.FullName,
		string(profile.Role),
		profile.Phone,
		profile.Location,
		profile.AvatarURL,
		profile.Bio,
		profile.CreatedAt,
		profile.UpdatedAt,
	).Scan(&profile.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", profile.ID.String()).Msg("failed to upsert profile")
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}
