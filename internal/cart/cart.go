// Package cart holds the per-buyer cart and wishlist aggregates and their
// Redis-backed store.
package cart

import (
	"time"

	"agrigenie/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultShippingFee is charged once per farmer shipment.
var DefaultShippingFee = decimal.RequireFromString("5.99")

// Cart is a buyer's cart. Lines are unique per listing and keep insertion order.
type Cart struct {
	BuyerID   uuid.UUID        `json:"buyer_id"`
	Items     []model.CartItem `json:"items"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// FarmerGroup is the slice of a cart shipped by one farmer.
type FarmerGroup struct {
	FarmerID uuid.UUID
	Items    []model.CartItem
}

// Subtotal returns the sum of the group's lines.
func (g FarmerGroup) Subtotal() decimal.Decimal {
	return subtotal(g.Items)
}

// New returns an empty cart for buyerID.
func New(buyerID uuid.UUID) *Cart {
	return &Cart{BuyerID: buyerID, Items: []model.CartItem{}}
}

func (c *Cart) index(listingID uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].ListingID == listingID {
			return i
		}
	}
	return -1
}

// Get returns the line for listingID.
func (c *Cart) Get(listingID uuid.UUID) (model.CartItem, bool) {
	if i := c.index(listingID); i >= 0 {
		return c.Items[i], true
	}
	return model.CartItem{}, false
}

// Add puts item in the cart. Adding a listing that is already present
// increases its quantity and refreshes its price and stock snapshot.
// Quantities are clamped to MaxQuantity. It reports whether the cart changed.
func (c *Cart) Add(item model.CartItem) bool {
	if !item.Quantity.IsPositive() {
		return false
	}
	if i := c.index(item.ListingID); i >= 0 {
		item.Quantity = item.Quantity.Add(c.Items[i].Quantity)
		item.Quantity = clamp(item.Quantity, item.MaxQuantity)
		if !item.Quantity.IsPositive() {
			c.removeAt(i)
		} else {
			c.Items[i] = item
		}
		c.touch()
		return true
	}

	item.Quantity = clamp(item.Quantity, item.MaxQuantity)
	if !item.Quantity.IsPositive() {
		return false
	}
	c.Items = append(c.Items, item)
	c.touch()
	return true
}

// SetQuantity replaces a line's quantity. A quantity of zero or less removes
// the line. It reports whether the listing was in the cart.
func (c *Cart) SetQuantity(listingID uuid.UUID, quantity decimal.Decimal) bool {
	i := c.index(listingID)
	if i < 0 {
		return false
	}
	if !quantity.IsPositive() {
		c.removeAt(i)
	} else {
		c.Items[i].Quantity = clamp(quantity, c.Items[i].MaxQuantity)
	}
	c.touch()
	return true
}

// Remove drops the line for listingID.
func (c *Cart) Remove(listingID uuid.UUID) bool {
	i := c.index(listingID)
	if i < 0 {
		return false
	}
	c.removeAt(i)
	c.touch()
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = []model.CartItem{}
	c.touch()
}

func (c *Cart) Len() int { return len(c.Items) }

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

// Subtotal is the sum of price times quantity over every line.
func (c *Cart) Subtotal() decimal.Decimal {
	return subtotal(c.Items)
}

// ShippingFee charges fee once per farmer group. An empty cart ships free.
func (c *Cart) ShippingFee(fee decimal.Decimal) decimal.Decimal {
	return fee.Mul(decimal.NewFromInt(int64(len(c.GroupByFarmer()))))
}

// Total is the subtotal plus shipping.
func (c *Cart) Total(fee decimal.Decimal) decimal.Decimal {
	return c.Subtotal().Add(c.ShippingFee(fee))
}

// GroupByFarmer splits the cart by farmer, ordered by first appearance.
func (c *Cart) GroupByFarmer() []FarmerGroup {
	var groups []FarmerGroup
	pos := make(map[uuid.UUID]int)
	for _, item := range c.Items {
		i, ok := pos[item.FarmerID]
		if !ok {
			i = len(groups)
			pos[item.FarmerID] = i
			groups = append(groups, FarmerGroup{FarmerID: item.FarmerID})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// View prices the cart for display.
func (c *Cart) View(fee decimal.Decimal) model.CartView {
	items := c.Items
	if items == nil {
		items = []model.CartItem{}
	}
	shipping := c.ShippingFee(fee)
	sub := c.Subtotal()
	return model.CartView{
		Items:       items,
		ItemCount:   len(items),
		Subtotal:    sub,
		ShippingFee: shipping,
		Total:       sub.Add(shipping),
	}
}

func (c *Cart) removeAt(i int) {
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}

func clamp(q, max decimal.Decimal) decimal.Decimal {
	if q.GreaterThan(max) {
		return max
	}
	return q
}

func subtotal(items []model.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Price.Mul(item.Quantity))
	}
	return sum
}
