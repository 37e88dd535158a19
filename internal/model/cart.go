package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is a listing held in a buyer's cart.
type CartItem struct {
	ListingID   uuid.UUID       `json:"listing_id"`
	CropName    string          `json:"crop_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
	MaxQuantity decimal.Decimal `json:"max_quantity"`
	Unit        string          `json:"unit"`
	FarmerID    uuid.UUID       `json:"farmer_id"`
	FarmerName  string          `json:"farmer_name,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
}

// WishlistItem is a listing saved for later.
type WishlistItem struct {
	ListingID  uuid.UUID       `json:"listing_id"`
	CropName   string          `json:"crop_name"`
	Price      decimal.Decimal `json:"price"`
	FarmerID   uuid.UUID       `json:"farmer_id"`
	FarmerName string          `json:"farmer_name,omitempty"`
	ImageURL   string          `json:"image_url,omitempty"`
	AddedAt    time.Time       `json:"added_at"`
}

// CartView is the priced cart returned to clients.
type CartView struct {
	Items       []CartItem      `json:"items"`
	ItemCount   int             `json:"item_count"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Total       decimal.Decimal `json:"total"`
}

// AddCartItemRequest adds a listing to the cart.
type AddCartItemRequest struct {
	ListingID uuid.UUID       `json:"listing_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// UpdateCartItemRequest sets the quantity of a cart line.
type UpdateCartItemRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// AddWishlistItemRequest saves a listing to the wishlist.
type AddWishlistItemRequest struct {
	ListingID uuid.UUID `json:"listing_id"`
}

// CheckoutRequest converts the cart into orders.
// PaymentMethodID selects a saved method and takes precedence over
// PaymentMethod. With neither set the buyer's default saved method is used,
// then cash on delivery.
type CheckoutRequest struct {
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentMethodID *uuid.UUID      `json:"payment_method_id,omitempty"`
}

// CheckoutResponse lists the orders created from a cart, one per farmer.
type CheckoutResponse struct {
	Orders      []Order         `json:"orders"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Total       decimal.Decimal `json:"total"`
}
