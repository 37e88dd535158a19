package service

import (
	"context"
	"encoding/json"

	"agrigenie/internal/clientstate"
	"agrigenie/internal/model"
	"agrigenie/internal/pricetrend"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListingQuery holds the public listing filters.
type ListingQuery struct {
	FarmerOnly    bool
	AvailableOnly bool
	CropName      string
	Limit         int
}

// ListingService defines operations for marketplace listings.
type ListingService interface {
	// Create publishes a new listing owned by the acting farmer.
	Create(ctx context.Context, actor model.Actor, input model.ListingInput) (*model.Listing, error)

	// List retrieves listings matching the query, newest first.
	List(ctx context.Context, actor model.Actor, query ListingQuery) ([]model.Listing, error)

	// MyListings retrieves every listing owned by the acting farmer.
	MyListings(ctx context.Context, actor model.Actor) ([]model.Listing, error)

	// Get retrieves a single listing.
	Get(ctx context.Context, id uuid.UUID) (*model.Listing, error)

	// Update changes the fields present in input. Only the owner may update.
	Update(ctx context.Context, actor model.Actor, id uuid.UUID, input model.ListingInput) (*model.Listing, error)

	// ToggleAvailability flips the listing's availability. Only the owner may toggle.
	ToggleAvailability(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Listing, error)

	// Delete removes the listing, or closes it when orders reference it.
	Delete(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.DeleteListingResult, error)
}

// OrderService defines operations for marketplace orders.
type OrderService interface {
	// Place creates a pending order for a single listing and reserves its stock.
	Place(ctx context.Context, actor model.Actor, req model.PlaceOrderRequest) (*model.Order, error)

	// List retrieves the buyer's orders or the orders for the farmer's listings.
	List(ctx context.Context, actor model.Actor) ([]model.Order, error)

	// Get retrieves an order visible to the actor.
	Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Order, error)

	// UpdateStatus moves an order through its lifecycle.
	UpdateStatus(ctx context.Context, actor model.Actor, id uuid.UUID, status string) (*model.Order, error)
}

// CartService defines operations on a buyer's cart and wishlist.
type CartService interface {
	View(ctx context.Context, actor model.Actor) (*model.CartView, error)
	AddItem(ctx context.Context, actor model.Actor, req model.AddCartItemRequest) (*model.CartView, error)
	UpdateItem(ctx context.Context, actor model.Actor, listingID uuid.UUID, quantity decimal.Decimal) (*model.CartView, error)
	RemoveItem(ctx context.Context, actor model.Actor, listingID uuid.UUID) (*model.CartView, error)
	Clear(ctx context.Context, actor model.Actor) error

	// Checkout places one order per farmer in the cart and empties it.
	Checkout(ctx context.Context, actor model.Actor, req model.CheckoutRequest) (*model.CheckoutResponse, error)

	Wishlist(ctx context.Context, actor model.Actor) ([]model.WishlistItem, error)
	AddToWishlist(ctx context.Context, actor model.Actor, listingID uuid.UUID) ([]model.WishlistItem, error)
	RemoveFromWishlist(ctx context.Context, actor model.Actor, listingID uuid.UUID) ([]model.WishlistItem, error)
}

// CropData is the price history returned for a state and commodity.
type CropData struct {
	Data           []model.PriceObservation `json:"data"`
	PredictedPrice *float64                 `json:"predictedPrice"`
	Trend          pricetrend.Result        `json:"trend"`
	Message        string                   `json:"message,omitempty"`
}

// MarketService serves commodity price history.
type MarketService interface {
	// CropData returns observed prices, falling back to generated data when
	// the feed is unavailable, empty, or mock is set.
	CropData(ctx context.Context, state, commodity string, mock bool) (*CropData, error)

	// PriceComparison returns the average modal price of crop per market,
	// highest first.
	PriceComparison(ctx context.Context, crop string) ([]model.MarketPrice, error)

	// Trends summarises recent prices for crop. It returns nil when the
	// feed has no records.
	Trends(ctx context.Context, crop string) (*model.MarketTrend, error)

	// Lookup returns the sorted distinct values of one feed column.
	Lookup(ctx context.Context, kind Lookup) ([]string, error)
}

// Lookup names a feed column offered as a filter list.
type Lookup string

const (
	LookupStates  Lookup = "states"
	LookupMarkets Lookup = "markets"
	LookupCrops   Lookup = "crops"
)

// TreatmentService produces treatment plans for detected crop diseases.
type TreatmentService interface {
	// Generate never fails for upstream errors; it returns the fallback plan instead.
	Generate(ctx context.Context, req model.TreatmentRequest) (*model.TreatmentPlan, error)
}

// StatsService summarises marketplace activity for the actor.
type StatsService interface {
	Get(ctx context.Context, actor model.Actor) (*model.MarketplaceStats, error)
}

// ProfileService manages the actor's extended profile.
type ProfileService interface {
	Get(ctx context.Context, actor model.Actor) (*model.Profile, error)
	Update(ctx context.Context, actor model.Actor, update model.ProfileUpdate) (*model.Profile, error)
}

// PaymentMethodService manages the actor's saved payment methods.
type PaymentMethodService interface {
	List(ctx context.Context, actor model.Actor) ([]model.PaymentMethod, error)

	// Create saves a method. The first saved method becomes the default.
	Create(ctx context.Context, actor model.Actor, input model.PaymentMethodInput) (*model.PaymentMethod, error)

	Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error

	// SetDefault makes the method the actor's only default.
	SetDefault(ctx context.Context, actor model.Actor, id uuid.UUID) error
}

// StateService stores versioned client state documents per user.
type StateService interface {
	Get(ctx context.Context, actor model.Actor, key string) (clientstate.Envelope, error)
	Put(ctx context.Context, actor model.Actor, key string, body []byte) (clientstate.Envelope, error)

	// Prepend adds item as the newest entry, applying the key's cap.
	Prepend(ctx context.Context, actor model.Actor, key string, item json.RawMessage) (clientstate.Envelope, error)
}

// ComputeTotal returns quantity × pricePerUnit exactly.
func ComputeTotal(quantity, pricePerUnit decimal.Decimal) decimal.Decimal {
	return quantity.Mul(pricePerUnit)
}

func requireActor(actor model.Actor) error {
	if actor.ID == uuid.Nil || !actor.Role.Valid() {
		return model.ErrUnauthenticated
	}
	return nil
}
