package service

import (
	"context"
	"fmt"
	"time"

	"agrigenie/internal/events"
	"agrigenie/internal/model"
	"agrigenie/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	listingRepo repository.ListingRepository
	publisher   events.Publisher
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	listingRepo repository.ListingRepository,
	publisher events.Publisher,
	logger zerolog.Logger,
) OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &orderService{
		orderRepo:   orderRepo,
		listingRepo: listingRepo,
		publisher:   publisher,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// Place creates a pending order for a single listing. Every precondition is
// checked before the transaction starts; the conditional decrement inside
// it guards against concurrent buyers.
func (s *orderService) Place(ctx context.Context, actor model.Actor, req model.PlaceOrderRequest) (*model.Order, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsBuyer() {
		return nil, model.ErrBuyerOnly
	}
	if !req.Quantity.IsPositive() {
		s.logger.Warn().
			Str("listing_id", req.ListingID.String()).
			Str("quantity", req.Quantity.String()).
			Msg("invalid quantity")
		return nil, model.ErrInvalidQuantity
	}

	listing, err := s.listingRepo.GetByID(ctx, req.ListingID)
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	if listing == nil {
		return nil, model.ErrListingNotFound
	}
	if !listing.Available {
		return nil, model.ErrListingUnavailable
	}
	if req.Quantity.GreaterThan(listing.Quantity) {
		s.logger.Warn().
			Str("listing_id", listing.ID.String()).
			Str("requested", req.Quantity.String()).
			Str("available", listing.Quantity.String()).
			Msg("order exceeds listing quantity")
		return nil, model.ErrInsufficientStock
	}

	total := ComputeTotal(req.Quantity, listing.PricePerUnit)
	now := time.Now().UTC()
	order := &model.Order{
		ID:          uuid.New(),
		BuyerID:     actor.ID,
		FarmerID:    listing.FarmerID,
		Status:      model.OrderStatusPending,
		Subtotal:    total,
		ShippingFee: decimal.Zero,
		TotalPrice:  total,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	order.Items = []model.OrderItem{{
		ID:        uuid.New(),
		OrderID:   order.ID,
		ListingID: listing.ID,
		CropName:  listing.CropName,
		Unit:      listing.Unit,
		UnitPrice: listing.PricePerUnit,
		Quantity:  req.Quantity,
		LineTotal: total,
	}}

	err = inTx(ctx, s.orderRepo, s.logger, func(tx pgx.Tx) error {
		ok, err := s.listingRepo.DecrementQuantity(ctx, tx, listing.ID, req.Quantity)
		if err != nil {
			return fmt.Errorf("failed to reserve stock: %w", err)
		}
		if !ok {
			return model.ErrInsufficientStock
		}
		if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, order.Items); err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("listing_id", listing.ID.String()).
		Str("total_price", order.TotalPrice.String()).
		Msg("order placed")

	s.publish(ctx, events.NewOrderEvent(events.OrderPlaced, order, ""))
	return order, nil
}

// List retrieves the buyer's orders or the orders for the farmer's listings.
func (s *orderService) List(ctx context.Context, actor model.Actor) ([]model.Order, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var (
		orders []model.Order
		err    error
	)
	if actor.IsFarmer() {
		orders, err = s.orderRepo.ListByFarmer(ctx, actor.ID)
	} else {
		orders, err = s.orderRepo.ListByBuyer(ctx, actor.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Get retrieves an order visible to the actor.
func (s *orderService) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Order, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if order.BuyerID != actor.ID && order.FarmerID != actor.ID {
		return nil, model.ErrOrderAccessDenied
	}
	return order, nil
}

// UpdateStatus moves an order through its lifecycle. The farmer decides on
// pending orders and completes accepted ones; the buyer may only cancel.
// Rejected and cancelled orders return their stock in the same transaction.
func (s *orderService) UpdateStatus(ctx context.Context, actor model.Actor, id uuid.UUID, status string) (*model.Order, error) {
	next, ok := model.ParseOrderStatus(status)
	if !ok {
		return nil, model.ErrInvalidStatus
	}

	order, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if !allowedToSet(actor, order, next) {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("actor_id", actor.ID.String()).
			Str("status", string(next)).
			Msg("actor may not set order status")
		return nil, model.ErrOrderAccessDenied
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, model.ErrInvalidTransition
	}

	previous := order.Status
	err = inTx(ctx, s.orderRepo, s.logger, func(tx pgx.Tx) error {
		updated, err := s.orderRepo.UpdateStatus(ctx, tx, id, previous, next)
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		if !updated {
			return model.ErrInvalidTransition
		}
		if !next.ReleasesStock() {
			return nil
		}
		for _, item := range order.Items {
			if err := s.listingRepo.RestoreQuantity(ctx, tx, item.ListingID, item.Quantity); err != nil {
				return fmt.Errorf("failed to release stock: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = next
	order.UpdatedAt = time.Now().UTC()

	s.logger.Info().
		Str("order_id", id.String()).
		Str("from", string(previous)).
		Str("to", string(next)).
		Msg("order status updated")

	s.publish(ctx, events.NewOrderEvent(events.OrderStatusChanged, order, previous))
	return order, nil
}

func allowedToSet(actor model.Actor, order *model.Order, next model.OrderStatus) bool {
	switch {
	case actor.IsFarmer() && order.FarmerID == actor.ID:
		return next == model.OrderStatusAccepted ||
			next == model.OrderStatusRejected ||
			next == model.OrderStatusCompleted
	case actor.IsBuyer() && order.BuyerID == actor.ID:
		return next == model.OrderStatusCancelled
	}
	return false
}

// publish delivers an event. Failures are logged and never fail the caller.
func (s *orderService) publish(ctx context.Context, event events.OrderEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", event.OrderID.String()).
			Str("event_type", string(event.Type)).
			Msg("failed to publish order event")
	}
}
