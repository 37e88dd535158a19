package service

import (
	"context"
	"fmt"
	"time"

	"agrigenie/internal/model"
	"agrigenie/internal/repository"
	"agrigenie/internal/validation"

	"github.com/rs/zerolog"
)

type profileService struct {
	profileRepo repository.ProfileRepository
	logger      zerolog.Logger
}

// NewProfileService creates a profile service.
func NewProfileService(profileRepo repository.ProfileRepository, logger zerolog.Logger) ProfileService {
	return &profileService{
		profileRepo: profileRepo,
		logger:      logger.With().Str("service", "profile").Logger(),
	}
}

func (s *profileService) Get(ctx context.Context, actor model.Actor) (*model.Profile, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, model.ErrProfileNotFound
	}
	return profile, nil
}

// Update applies the present fields, creating the profile on first write.
// The role always follows the asserted identity.
func (s *profileService) Update(ctx context.Context, actor model.Actor, update model.ProfileUpdate) (*model.Profile, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	fields, err := validation.ValidateProfile(update)
	if err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	now := time.Now().UTC()
	if profile == nil {
		profile = &model.Profile{ID: actor.ID, CreatedAt: now}
	}
	profile.Role = actor.Role
	profile.UpdatedAt = now

	if fields.FullName != nil {
		profile.FullName = *fields.FullName
	}
	setOptional(&profile.Phone, fields.Phone)
	setOptional(&profile.Location, fields.Location)
	setOptional(&profile.AvatarURL, fields.AvatarURL)
	setOptional(&profile.Bio, fields.Bio)

	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Info().Str("user_id", actor.ID.String()).Msg("profile updated")
	return profile, nil
}

// setOptional copies v into dst when present; an empty value clears dst.
func setOptional(dst **string, v *string) {
	if v == nil {
		return
	}
	if *v == "" {
		*dst = nil
		return
	}
	s := *v
	*dst = &s
}
