package service

import (
	"context"
	"fmt"
	"time"

	"agrigenie/internal/cart"
	"agrigenie/internal/events"
	"agrigenie/internal/model"
	"agrigenie/internal/repository"
	"agrigenie/internal/validation"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const defaultPaymentMethod = "cash_on_delivery"

// cartService implements CartService.
type cartService struct {
	store       cart.Store
	listingRepo repository.ListingRepository
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentMethodRepository
	publisher   events.Publisher
	shippingFee decimal.Decimal
	logger      zerolog.Logger
}

// NewCartService creates a cart service. shippingFee is charged once per
// farmer in the cart. paymentRepo may be nil, disabling saved methods at
// checkout.
func NewCartService(
	store cart.Store,
	listingRepo repository.ListingRepository,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentMethodRepository,
	publisher events.Publisher,
	shippingFee decimal.Decimal,
	logger zerolog.Logger,
) CartService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &cartService{
		store:       store,
		listingRepo: listingRepo,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		publisher:   publisher,
		shippingFee: shippingFee,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

func requireBuyer(actor model.Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.IsBuyer() {
		return model.ErrBuyerOnly
	}
	return nil
}

func (s *cartService) load(ctx context.Context, actor model.Actor) (*cart.Cart, error) {
	if err := requireBuyer(actor); err != nil {
		return nil, err
	}
	c, err := s.store.LoadCart(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return c, nil
}

func (s *cartService) saveAndView(ctx context.Context, c *cart.Cart) (*model.CartView, error) {
	if err := s.store.SaveCart(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	view := c.View(s.shippingFee)
	return &view, nil
}

func (s *cartService) View(ctx context.Context, actor model.Actor) (*model.CartView, error) {
	c, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	view := c.View(s.shippingFee)
	return &view, nil
}

// AddItem snapshots the listing into the cart. The quantity is clamped to
// the listing's current stock.
func (s *cartService) AddItem(ctx context.Context, actor model.Actor, req model.AddCartItemRequest) (*model.CartView, error) {
	if err := requireBuyer(actor); err != nil {
		return nil, err
	}
	if !req.Quantity.IsPositive() {
		return nil, model.ErrInvalidQuantity
	}

	listing, err := s.listingRepo.GetByID(ctx, req.ListingID)
	if err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}
	if listing == nil {
		return nil, model.ErrListingNotFound
	}
	if !listing.Available || !listing.Quantity.IsPositive() {
		return nil, model.ErrListingUnavailable
	}

	c, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	item := model.CartItem{
		ListingID:   listing.ID,
		CropName:    listing.CropName,
		Price:       listing.PricePerUnit,
		Quantity:    req.Quantity,
		MaxQuantity: listing.Quantity,
		Unit:        listing.Unit,
		FarmerID:    listing.FarmerID,
		FarmerName:  listing.FarmerName,
	}
	if listing.ImageURL != nil {
		item.ImageURL = *listing.ImageURL
	}
	c.Add(item)

	s.logger.Debug().
		Str("buyer_id", actor.ID.String()).
		Str("listing_id", listing.ID.String()).
		Msg("cart item added")

	return s.saveAndView(ctx, c)
}

// UpdateItem sets a line's quantity; zero or less removes the line.
func (s *cartService) UpdateItem(ctx context.Context, actor model.Actor, listingID uuid.UUID, quantity decimal.Decimal) (*model.CartView, error) {
	c, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !c.SetQuantity(listingID, quantity) {
		return nil, model.ErrListingNotFound
	}
	return s.saveAndView(ctx, c)
}

func (s *cartService) RemoveItem(ctx context.Context, actor model.Actor, listingID uuid.UUID) (*model.CartView, error) {
	c, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !c.Remove(listingID) {
		return nil, model.ErrListingNotFound
	}
	return s.saveAndView(ctx, c)
}

func (s *cartService) Clear(ctx context.Context, actor model.Actor) error {
	if err := requireBuyer(actor); err != nil {
		return err
	}
	if err := s.store.DeleteCart(ctx, actor.ID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// Checkout places one order per farmer group in a single transaction. Each
// listing is locked and re-read so orders use live stock and prices; any
// failed check aborts the whole checkout.
func (s *cartService) Checkout(ctx context.Context, actor model.Actor, req model.CheckoutRequest) (*model.CheckoutResponse, error) {
	if err := validation.ValidateShippingAddress(req.ShippingAddress); err != nil {
		return nil, err
	}

	c, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, model.ErrEmptyCart
	}

	payment, err := s.paymentMethod(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	address := req.ShippingAddress

	groups := c.GroupByFarmer()
	orders := make([]model.Order, 0, len(groups))

	err = inTx(ctx, s.orderRepo, s.logger, func(tx pgx.Tx) error {
		now := time.Now().UTC()
		for _, group := range groups {
			order := model.Order{
				ID:              uuid.New(),
				BuyerID:         actor.ID,
				FarmerID:        group.FarmerID,
				Status:          model.OrderStatusPending,
				ShippingFee:     s.shippingFee,
				ShippingAddress: &address,
				PaymentMethod:   payment,
				CreatedAt:       now,
				UpdatedAt:       now,
			}

			subtotal := decimal.Zero
			for _, line := range group.Items {
				item, err := s.reserve(ctx, tx, order.ID, line)
				if err != nil {
					return err
				}
				subtotal = subtotal.Add(item.LineTotal)
				order.Items = append(order.Items, item)
			}
			order.Subtotal = subtotal
			order.TotalPrice = subtotal.Add(order.ShippingFee)

			if err := s.orderRepo.CreateOrder(ctx, tx, &order); err != nil {
				return fmt.Errorf("failed to create order: %w", err)
			}
			if err := s.orderRepo.CreateOrderItems(ctx, tx, order.Items); err != nil {
				return fmt.Errorf("failed to create order items: %w", err)
			}
			orders = append(orders, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteCart(ctx, actor.ID); err != nil {
		s.logger.Error().Err(err).Str("buyer_id", actor.ID.String()).Msg("failed to clear cart after checkout")
	}

	resp := &model.CheckoutResponse{
		Orders:      orders,
		Subtotal:    decimal.Zero,
		ShippingFee: decimal.Zero,
		Total:       decimal.Zero,
	}
	for i := range orders {
		resp.Subtotal = resp.Subtotal.Add(orders[i].Subtotal)
		resp.ShippingFee = resp.ShippingFee.Add(orders[i].ShippingFee)
		resp.Total = resp.Total.Add(orders[i].TotalPrice)
		if err := s.publisher.Publish(ctx, events.NewOrderEvent(events.OrderPlaced, &orders[i], "")); err != nil {
			s.logger.Error().Err(err).Str("order_id", orders[i].ID.String()).Msg("failed to publish order event")
		}
	}

	s.logger.Info().
		Str("buyer_id", actor.ID.String()).
		Int("orders", len(orders)).
		Str("total", resp.Total.String()).
		Msg("checkout completed")

	return resp, nil
}

// paymentMethod picks the order's payment method: the selected saved
// method, then the named method, then the buyer's default saved method,
// then cash on delivery.
func (s *cartService) paymentMethod(ctx context.Context, actor model.Actor, req model.CheckoutRequest) (string, error) {
	if req.PaymentMethodID != nil {
		if s.paymentRepo == nil {
			return "", model.ErrPaymentMethodNotFound
		}
		method, err := s.paymentRepo.GetByID(ctx, *req.PaymentMethodID)
		if err != nil {
			return "", fmt.Errorf("failed to load payment method: %w", err)
		}
		if method == nil {
			return "", model.ErrPaymentMethodNotFound
		}
		if method.UserID != actor.ID {
			return "", model.ErrPaymentMethodAccessDenied
		}
		return string(method.Type), nil
	}

	name, err := validation.ValidateCheckoutPaymentMethod(req.PaymentMethod)
	if err != nil {
		return "", err
	}
	if name != "" {
		return name, nil
	}

	if s.paymentRepo != nil {
		method, err := s.paymentRepo.GetDefault(ctx, actor.ID)
		if err != nil {
			return "", fmt.Errorf("failed to load default payment method: %w", err)
		}
		if method != nil {
			return string(method.Type), nil
		}
	}
	return defaultPaymentMethod, nil
}

// reserve locks the listing behind a cart line, checks it against live stock
// and decrements it.
func (s *cartService) reserve(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, line model.CartItem) (model.OrderItem, error) {
	listing, err := s.listingRepo.GetForUpdate(ctx, tx, line.ListingID)
	if err != nil {
		return model.OrderItem{}, fmt.Errorf("failed to read listing: %w", err)
	}
	if listing == nil {
		return model.OrderItem{}, model.ErrListingNotFound
	}
	if !listing.Available {
		return model.OrderItem{}, model.ErrListingUnavailable
	}
	if line.Quantity.GreaterThan(listing.Quantity) {
		return model.OrderItem{}, model.ErrInsufficientStock
	}

	ok, err := s.listingRepo.DecrementQuantity(ctx, tx, listing.ID, line.Quantity)
	if err != nil {
		return model.OrderItem{}, fmt.Errorf("failed to reserve stock: %w", err)
	}
	if !ok {
		return model.OrderItem{}, model.ErrInsufficientStock
	}

	return model.OrderItem{
		ID:        uuid.New(),
		OrderID:   orderID,
		ListingID: listing.ID,
		CropName:  listing.CropName,
		Unit:      listing.Unit,
		UnitPrice: listing.PricePerUnit,
		Quantity:  line.Quantity,
		LineTotal: ComputeTotal(line.Quantity, listing.PricePerUnit),
	}, nil
}

func (s *cartService) loadWishlist(ctx context.Context, actor model.Actor) (*cart.Wishlist, error) {
	if err := requireBuyer(actor); err != nil {
		return nil, err
	}
	w, err := s.store.LoadWishlist(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}
	return w, nil
}

func (s *cartService) Wishlist(ctx context.Context, actor model.Actor) ([]model.WishlistItem, error) {
	w, err := s.loadWishlist(ctx, actor)
	if err != nil {
		return nil, err
	}
	return w.Items, nil
}

// AddToWishlist saves a listing. Saving it again is a no-op.
func (s *cartService) AddToWishlist(ctx context.Context, actor model.Actor, listingID uuid.UUID) ([]model.WishlistItem, error) {
	w, err := s.loadWishlist(ctx, actor)
	if err != nil {
		return nil, err
	}
	if w.Contains(listingID) {
		return w.Items, nil
	}

	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to add wishlist item: %w", err)
	}
	if listing == nil {
		return nil, model.ErrListingNotFound
	}

	item := model.WishlistItem{
		ListingID:  listing.ID,
		CropName:   listing.CropName,
		Price:      listing.PricePerUnit,
		FarmerID:   listing.FarmerID,
		FarmerName: listing.FarmerName,
	}
	if listing.ImageURL != nil {
		item.ImageURL = *listing.ImageURL
	}
	w.Add(item)

	if err := s.store.SaveWishlist(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to save wishlist: %w", err)
	}
	return w.Items, nil
}

func (s *cartService) RemoveFromWishlist(ctx context.Context, actor model.Actor, listingID uuid.UUID) ([]model.WishlistItem, error) {
	w, err := s.loadWishlist(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !w.Remove(listingID) {
		return w.Items, nil
	}
	if err := s.store.SaveWishlist(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to save wishlist: %w", err)
	}
	return w.Items, nil
}
