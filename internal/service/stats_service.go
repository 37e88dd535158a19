package service

import (
	"context"
	"fmt"

	"agrigenie/internal/model"
	"agrigenie/internal/repository"

	"github.com/rs/zerolog"
)

type statsService struct {
	statsRepo repository.StatsRepository
	logger    zerolog.Logger
}

// NewStatsService creates a stats service.
func NewStatsService(statsRepo repository.StatsRepository, logger zerolog.Logger) StatsService {
	return &statsService{
		statsRepo: statsRepo,
		logger:    logger.With().Str("service", "stats").Logger(),
	}
}

func (s *statsService) Get(ctx context.Context, actor model.Actor) (*model.MarketplaceStats, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var (
		stats *model.MarketplaceStats
		err   error
	)
	if actor.IsFarmer() {
		stats, err = s.statsRepo.FarmerStats(ctx, actor.ID)
	} else {
		stats, err = s.statsRepo.BuyerStats(ctx, actor.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get marketplace stats: %w", err)
	}
	return stats, nil
}
