// Package events publishes order lifecycle events.
package events

import (
	"context"
	"time"

	"agrigenie/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type names an order event.
type Type string

const (
	OrderPlaced        Type = "order.placed"
	OrderStatusChanged Type = "order.status_changed"
)

// OrderEvent is the payload published for order changes.
type OrderEvent struct {
	ID             uuid.UUID         `json:"id"`
	Type           Type              `json:"type"`
	OrderID        uuid.UUID         `json:"order_id"`
	BuyerID        uuid.UUID         `json:"buyer_id"`
	FarmerID       uuid.UUID         `json:"farmer_id"`
	Status         model.OrderStatus `json:"status"`
	PreviousStatus model.OrderStatus `json:"previous_status,omitempty"`
	TotalPrice     decimal.Decimal   `json:"total_price"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

// NewOrderEvent builds an event describing order.
func NewOrderEvent(t Type, order *model.Order, previous model.OrderStatus) OrderEvent {
	return OrderEvent{
		ID:             uuid.New(),
		Type:           t,
		OrderID:        order.ID,
		BuyerID:        order.BuyerID,
		FarmerID:       order.FarmerID,
		Status:         order.Status,
		PreviousStatus: previous,
		TotalPrice:     order.TotalPrice,
		OccurredAt:     time.Now().UTC(),
	}
}

// Publisher delivers order events.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
