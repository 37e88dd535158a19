package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusRejected  OrderStatus = "rejected"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:  {OrderStatusAccepted, OrderStatusRejected, OrderStatusCancelled},
	OrderStatusAccepted: {OrderStatusCompleted},
}

// ParseOrderStatus returns the status named by s.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusAccepted, OrderStatusRejected,
		OrderStatusCompleted, OrderStatusCancelled:
		return st, true
	}
	return "", false
}

// CanTransitionTo reports whether an order may move from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// ReleasesStock reports whether entering s returns the ordered quantity
// to the listings.
func (s OrderStatus) ReleasesStock() bool {
	return s == OrderStatusRejected || s == OrderStatusCancelled
}

// Order represents a buyer's purchase from a single farmer.
type Order struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	BuyerID         uuid.UUID        `json:"buyer_id" db:"buyer_id"`
	FarmerID        uuid.UUID        `json:"farmer_id" db:"farmer_id"`
	Status          OrderStatus      `json:"status" db:"status"`
	Items           []OrderItem      `json:"items"`
	Subtotal        decimal.Decimal  `json:"subtotal" db:"subtotal"`
	ShippingFee     decimal.Decimal  `json:"shipping_fee" db:"shipping_fee"`
	TotalPrice      decimal.Decimal  `json:"total_price" db:"total_price"`
	ShippingAddress *ShippingAddress `json:"shipping_address,omitempty" db:"shipping_address"`
	PaymentMethod   string           `json:"payment_method,omitempty" db:"payment_method"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}

// OrderItem represents a line item in an order. Prices are frozen at
// order time.
type OrderItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"-" db:"order_id"`
	ListingID uuid.UUID       `json:"listing_id" db:"listing_id"`
	CropName  string          `json:"crop_name" db:"crop_name"`
	Unit      string          `json:"unit" db:"unit"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	Quantity  decimal.Decimal `json:"quantity" db:"quantity"`
	LineTotal decimal.Decimal `json:"line_total" db:"line_total"`
}

// ShippingAddress is the delivery address captured at checkout.
type ShippingAddress struct {
	FullName     string `json:"full_name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	PhoneNumber  string `json:"phone_number"`
}

// PlaceOrderRequest is the request payload for ordering from one listing.
// Any client-computed total is ignored.
type PlaceOrderRequest struct {
	ListingID uuid.UUID       `json:"listing_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// UpdateOrderStatusRequest is the request payload for changing an order's status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}
