package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agrigenie/internal/model"
	"agrigenie/internal/repository"
	"agrigenie/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultListingLimit = 50
	maxListingLimit     = 100
)

// listingService implements ListingService.
type listingService struct {
	listingRepo repository.ListingRepository
	logger      zerolog.Logger
}

// NewListingService creates a new listing service.
func NewListingService(listingRepo repository.ListingRepository, logger zerolog.Logger) ListingService {
	return &listingService{
		listingRepo: listingRepo,
		logger:      logger.With().Str("service", "listing").Logger(),
	}
}

// Create publishes a new listing owned by the acting farmer.
func (s *listingService) Create(ctx context.Context, actor model.Actor, input model.ListingInput) (*model.Listing, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsFarmer() {
		return nil, model.ErrFarmerOnly
	}

	fields, err := validation.ValidateListing(input, validation.ModeCreate)
	if err != nil {
		s.logger.Debug().Err(err).Str("farmer_id", actor.ID.String()).Msg("listing rejected by validation")
		return nil, err
	}

	now := time.Now().UTC()
	listing := &model.Listing{
		ID:        uuid.New(),
		FarmerID:  actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	fields.Apply(listing)
	listing.Available = true

	if err := s.listingRepo.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	s.logger.Info().
		Str("listing_id", listing.ID.String()).
		Str("farmer_id", actor.ID.String()).
		Str("crop_name", listing.CropName).
		Msg("listing created")

	return listing, nil
}

// List retrieves listings matching the query, newest first.
func (s *listingService) List(ctx context.Context, actor model.Actor, query ListingQuery) ([]model.Listing, error) {
	filter := model.ListingFilter{
		AvailableOnly: query.AvailableOnly,
		CropName:      query.CropName,
		Limit:         query.Limit,
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListingLimit
	}
	if filter.Limit > maxListingLimit {
		filter.Limit = maxListingLimit
	}

	if query.FarmerOnly {
		if err := requireActor(actor); err != nil {
			return nil, err
		}
		if !actor.IsFarmer() {
			return nil, model.ErrFarmerOnly
		}
		filter.FarmerID = &actor.ID
	}

	listings, err := s.listingRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	return listings, nil
}

// MyListings retrieves every listing owned by the acting farmer.
func (s *listingService) MyListings(ctx context.Context, actor model.Actor) ([]model.Listing, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsFarmer() {
		return nil, model.ErrFarmerOnly
	}

	listings, err := s.listingRepo.List(ctx, model.ListingFilter{FarmerID: &actor.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to list farmer listings: %w", err)
	}
	return listings, nil
}

// Get retrieves a single listing.
func (s *listingService) Get(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	listing, err := s.listingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	if listing == nil {
		return nil, model.ErrListingNotFound
	}
	return listing, nil
}

// owned loads a listing and checks that actor owns it. Not-found is
// reported before ownership.
func (s *listingService) owned(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Listing, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	listing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if listing.FarmerID != actor.ID {
		s.logger.Warn().
			Str("listing_id", id.String()).
			Str("actor_id", actor.ID.String()).
			Msg("non-owner attempted to modify listing")
		return nil, model.ErrNotListingOwner
	}
	return listing, nil
}

// Update changes the fields present in input.
func (s *listingService) Update(ctx context.Context, actor model.Actor, id uuid.UUID, input model.ListingInput) (*model.Listing, error) {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return nil, err
	}

	fields, err := validation.ValidateListing(input, validation.ModeUpdate)
	if err != nil {
		return nil, err
	}

	listing, err := s.listingRepo.Update(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	if listing == nil {
		return nil, model.ErrListingNotFound
	}

	s.logger.Info().Str("listing_id", id.String()).Msg("listing updated")
	return listing, nil
}

// ToggleAvailability flips the listing's availability.
func (s *listingService) ToggleAvailability(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Listing, error) {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return nil, err
	}

	listing, err := s.listingRepo.ToggleAvailability(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle listing: %w", err)
	}
	if listing == nil {
		return nil, model.ErrListingNotFound
	}

	s.logger.Info().
		Str("listing_id", id.String()).
		Bool("available", listing.Available).
		Msg("listing availability toggled")
	return listing, nil
}

// Delete removes the listing. Listings referenced by orders are kept for
// order history and closed instead.
func (s *listingService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.DeleteListingResult, error) {
	listing, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	hasOrders, err := s.listingRepo.HasOrders(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete listing: %w", err)
	}
	if hasOrders {
		return s.close(ctx, listing)
	}

	if err := s.listingRepo.Delete(ctx, id); err != nil {
		// An order placed since the check above still blocks the delete.
		if errors.Is(err, repository.ErrListingReferenced) {
			return s.close(ctx, listing)
		}
		return nil, fmt.Errorf("failed to delete listing: %w", err)
	}

	s.logger.Info().Str("listing_id", id.String()).Msg("listing deleted")
	return &model.DeleteListingResult{
		ID:      id,
		Deleted: true,
		Message: "Listing deleted successfully",
	}, nil
}

// close withdraws a listing from sale without touching its stock.
func (s *listingService) close(ctx context.Context, listing *model.Listing) (*model.DeleteListingResult, error) {
	if listing.Available {
		unavailable := false
		if _, err := s.listingRepo.Update(ctx, listing.ID, model.ListingFields{Available: &unavailable}); err != nil {
			return nil, fmt.Errorf("failed to close listing: %w", err)
		}
	}

	s.logger.Info().Str("listing_id", listing.ID.String()).Msg("listing has orders, marked unavailable")
	return &model.DeleteListingResult{
		ID:      listing.ID,
		Deleted: false,
		Message: "Listing has existing orders and was marked as unavailable instead",
	}, nil
}
