package repository

import (
	"context"
	"fmt"

	"agrigenie/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type statsRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewStatsRepository creates a stats repository over the marketplace tables.
func NewStatsRepository(pool *pgxpool.Pool, logger zerolog.Logger) StatsRepository {
	return &statsRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "stats").Logger(),
	}
}

// FarmerStats counts a farmer's listings and the orders placed against them.
// Earnings include accepted and completed orders.
func (r *statsRepository) FarmerStats(ctx context.Context, farmerID uuid.UUID) (*model.MarketplaceStats, error) {
	var totalListings, activeListings int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE available)
		FROM marketplace_listings
		WHERE farmer_id = $1
	`, farmerID).Scan(&totalListings, &activeListings)
	if err != nil {
		r.logger.Error().Err(err).Str("farmer_id", farmerID.String()).Msg("failed to count listings")
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}

	stats := &model.MarketplaceStats{
		Role:           model.RoleFarmer,
		TotalListings:  &totalListings,
		ActiveListings: &activeListings,
	}

	var earnings decimal.Decimal
	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COALESCE(SUM(total_price) FILTER (WHERE status IN ('accepted', 'completed')), 0)
		FROM marketplace_orders
		WHERE farmer_id = $1
	`, farmerID).Scan(&stats.TotalOrders, &stats.PendingOrders, &earnings)
	if err != nil {
		r.logger.Error().Err(err).Str("farmer_id", farmerID.String()).Msg("failed to aggregate farmer orders")
		return nil, fmt.Errorf("failed to aggregate farmer orders: %w", err)
	}
	stats.TotalEarnings = &earnings

	return stats, nil
}

// BuyerStats aggregates a buyer's orders. Spend excludes rejected and
// cancelled orders.
func (r *statsRepository) BuyerStats(ctx context.Context, buyerID uuid.UUID) (*model.MarketplaceStats, error) {
	stats := &model.MarketplaceStats{Role: model.RoleBuyer}

	var spent decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COALESCE(SUM(total_price) FILTER (WHERE status NOT IN ('rejected', 'cancelled')), 0)
		FROM marketplace_orders
		WHERE buyer_id = $1
	`, buyerID).Scan(&stats.TotalOrders, &stats.PendingOrders, &spent)
	if err != nil {
		r.logger.Error().Err(err).Str("buyer_id", buyerID.String()).Msg("failed to aggregate buyer orders")
		return nil, fmt.Errorf("failed to aggregate buyer orders: %w", err)
	}
	stats.TotalSpent = &spent

	return stats, nil
}
