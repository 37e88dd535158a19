package repository

import (
	"context"
	"errors"

	"agrigenie/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ErrListingReferenced is returned by ListingRepository.Delete when order
// items still reference the listing.
var ErrListingReferenced = errors.New("listing is referenced by orders")

// ListingRepository defines the interface for listing data access operations.
type ListingRepository interface {
	// Create inserts a new listing.
	Create(ctx context.Context, listing *model.Listing) error

	// GetByID retrieves a listing by its ID. Returns nil when it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Listing, error)

	// List retrieves listings matching the filter, newest first.
	List(ctx context.Context, filter model.ListingFilter) ([]model.Listing, error)

	// Update writes only the fields present in fields and returns the new
	// row. Returns nil when the listing does not exist.
	Update(ctx context.Context, id uuid.UUID, fields model.ListingFields) (*model.Listing, error)

	// ToggleAvailability flips the availability flag and returns the new row.
	ToggleAvailability(ctx context.Context, id uuid.UUID) (*model.Listing, error)

	// Delete removes a listing permanently. It returns ErrListingReferenced
	// when order items still reference it.
	Delete(ctx context.Context, id uuid.UUID) error

	// HasOrders reports whether any order item references the listing.
	HasOrders(ctx context.Context, id uuid.UUID) (bool, error)

	// GetForUpdate reads a listing and locks its row for the rest of tx.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Listing, error)

	// DecrementQuantity reserves quantity from an available listing within tx.
	// It returns false without changing anything when stock is insufficient
	// or the listing is unavailable. A listing drained to zero is closed.
	DecrementQuantity(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity decimal.Decimal) (bool, error)

	// RestoreQuantity returns quantity to a listing within tx.
	RestoreQuantity(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity decimal.Decimal) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order with its items. Returns nil when it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// ListByBuyer retrieves a buyer's orders, newest first.
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]model.Order, error)

	// ListByFarmer retrieves orders placed against a farmer's listings, newest first.
	ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]model.Order, error)

	// UpdateStatus moves an order from one status to another within tx.
	// It returns false when the order is no longer in the from status.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to model.OrderStatus) (bool, error)
}

// ProfileRepository defines the interface for profile data access operations.
type ProfileRepository interface {
	// GetByID retrieves a profile. Returns nil when it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)

	// Upsert creates the profile or updates its editable fields.
	Upsert(ctx context.Context, profile *model.Profile) error
}

// PaymentMethodRepository defines the interface for saved payment methods.
type PaymentMethodRepository interface {
	// ListByUser retrieves a user's payment methods, oldest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PaymentMethod, error)

	// GetByID retrieves a payment method. Returns nil when it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentMethod, error)

	// GetDefault retrieves the user's default method, or nil when none is set.
	GetDefault(ctx context.Context, userID uuid.UUID) (*model.PaymentMethod, error)

	// Create inserts a payment method. A default method replaces the user's
	// previous default.
	Create(ctx context.Context, method *model.PaymentMethod) error

	// Delete removes a payment method.
	Delete(ctx context.Context, id uuid.UUID) error

	// SetDefault makes id the user's only default method. It returns false
	// when the user owns no such method.
	SetDefault(ctx context.Context, userID, id uuid.UUID) (bool, error)
}

// StatsRepository aggregates marketplace activity.
type StatsRepository interface {
	FarmerStats(ctx context.Context, farmerID uuid.UUID) (*model.MarketplaceStats, error)
	BuyerStats(ctx context.Context, buyerID uuid.UUID) (*model.MarketplaceStats, error)
}

// StateRepository stores per-user client state documents.
type StateRepository interface {
	// Get returns the stored document, or nil when none exists.
	Get(ctx context.Context, userID uuid.UUID, key string) ([]byte, error)

	// Put replaces the stored document.
	Put(ctx context.Context, userID uuid.UUID, key string, data []byte) error

	// Modify replaces the stored document with fn's result. Concurrent
	// calls for the same user and key are serialised. current is nil when
	// no document exists. Nothing is written when fn fails.
	Modify(ctx context.Context, userID uuid.UUID, key string, fn func(current []byte) ([]byte, error)) error
}
