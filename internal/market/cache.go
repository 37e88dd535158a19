package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"agrigenie/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultCacheTTL bounds how stale a cached series may be.
const DefaultCacheTTL = 5 * time.Minute

// Cache stores fetched price series.
type Cache interface {
	// Get returns the cached series and whether it was present.
	Get(ctx context.Context, state, commodity string) ([]model.PriceObservation, bool, error)

	// Set stores a series.
	Set(ctx context.Context, state, commodity string, series []model.PriceObservation) error

	// GetList returns a cached lookup list and whether it was present.
	GetList(ctx context.Context, name string) ([]string, bool, error)

	// SetList stores a lookup list.
	SetList(ctx context.Context, name string, values []string) error
}

type redisCache struct {
	client    redis.Cmdable
	keyPrefix string
	ttl       time.Duration
	logger    zerolog.Logger
}

// NewRedisCache creates a Redis-backed series cache.
func NewRedisCache(client redis.Cmdable, keyPrefix string, ttl time.Duration, logger zerolog.Logger) Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &redisCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		logger:    logger.With().Str("component", "market-cache").Logger(),
	}
}

func (c *redisCache) key(state, commodity string) string {
	return c.keyPrefix + "crop-data:" +
		strings.ToLower(strings.TrimSpace(state)) + ":" +
		strings.ToLower(strings.TrimSpace(commodity))
}

func (c *redisCache) Get(ctx context.Context, state, commodity string) ([]model.PriceObservation, bool, error) {
	data, err := c.client.Get(ctx, c.key(state, commodity)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read crop data cache: %w", err)
	}

	var series []model.PriceObservation
	if err := json.Unmarshal(data, &series); err != nil {
		c.logger.Warn().Err(err).Str("state", state).Str("commodity", commodity).Msg("discarding corrupt cache entry")
		return nil, false, nil
	}
	return series, true, nil
}

func (c *redisCache) Set(ctx context.Context, state, commodity string, series []model.PriceObservation) error {
	data, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("failed to encode crop data: %w", err)
	}
	if err := c.client.Set(ctx, c.key(state, commodity), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write crop data cache: %w", err)
	}
	return nil
}

func (c *redisCache) listKey(name string) string {
	return c.keyPrefix + "lookup:" + name
}

func (c *redisCache) GetList(ctx context.Context, name string) ([]string, bool, error) {
	data, err := c.client.Get(ctx, c.listKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read lookup cache: %w", err)
	}

	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		c.logger.Warn().Err(err).Str("lookup", name).Msg("discarding corrupt cache entry")
		return nil, false, nil
	}
	return values, true, nil
}

func (c *redisCache) SetList(ctx context.Context, name string, values []string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode lookup: %w", err)
	}
	if err := c.client.Set(ctx, c.listKey(name), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write lookup cache: %w", err)
	}
	return nil
}
