package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agrigenie/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Store persists carts and wishlists per buyer.
type Store interface {
	// LoadCart returns the buyer's cart, or an empty cart when none is stored.
	LoadCart(ctx context.Context, buyerID uuid.UUID) (*Cart, error)

	// SaveCart writes the cart and refreshes its expiry.
	SaveCart(ctx context.Context, c *Cart) error

	// DeleteCart removes the buyer's cart.
	DeleteCart(ctx context.Context, buyerID uuid.UUID) error

	// LoadWishlist returns the buyer's wishlist, or an empty one.
	LoadWishlist(ctx context.Context, buyerID uuid.UUID) (*Wishlist, error)

	// SaveWishlist writes the wishlist.
	SaveWishlist(ctx context.Context, w *Wishlist) error
}

// redisStore implements Store with one JSON document per key.
type redisStore struct {
	client    redis.Cmdable
	keyPrefix string
	ttl       time.Duration
	logger    zerolog.Logger
}

// NewRedisStore creates a Redis-backed store. A zero ttl keeps entries
// until they are deleted.
func NewRedisStore(client redis.Cmdable, keyPrefix string, ttl time.Duration, logger zerolog.Logger) Store {
	return &redisStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		logger:    logger.With().Str("component", "cart-store").Logger(),
	}
}

func (s *redisStore) cartKey(buyerID uuid.UUID) string {
	return s.keyPrefix + "cart:" + buyerID.String()
}

func (s *redisStore) wishlistKey(buyerID uuid.UUID) string {
	return s.keyPrefix + "wishlist:" + buyerID.String()
}

func (s *redisStore) LoadCart(ctx context.Context, buyerID uuid.UUID) (*Cart, error) {
	c := New(buyerID)
	if err := s.load(ctx, s.cartKey(buyerID), c); err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if c.Items == nil {
		c.Items = []model.CartItem{}
	}
	return c, nil
}

func (s *redisStore) SaveCart(ctx context.Context, c *Cart) error {
	if err := s.save(ctx, s.cartKey(c.BuyerID), c); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (s *redisStore) DeleteCart(ctx context.Context, buyerID uuid.UUID) error {
	if err := s.client.Del(ctx, s.cartKey(buyerID)).Err(); err != nil {
		s.logger.Error().Err(err).Str("buyer_id", buyerID.String()).Msg("failed to delete cart")
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

func (s *redisStore) LoadWishlist(ctx context.Context, buyerID uuid.UUID) (*Wishlist, error) {
	w := NewWishlist(buyerID)
	if err := s.load(ctx, s.wishlistKey(buyerID), w); err != nil {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}
	if w.Items == nil {
		w.Items = []model.WishlistItem{}
	}
	return w, nil
}

func (s *redisStore) SaveWishlist(ctx context.Context, w *Wishlist) error {
	if err := s.save(ctx, s.wishlistKey(w.BuyerID), w); err != nil {
		return fmt.Errorf("failed to save wishlist: %w", err)
	}
	return nil
}

// load decodes key into dst. A missing key leaves dst untouched.
func (s *redisStore) load(ctx context.Context, key string, dst any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		s.logger.Error().Err(err).Str("key", key).Msg("redis get failed")
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("corrupt document in redis")
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (s *redisStore) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("redis set failed")
		return err
	}
	return nil
}
