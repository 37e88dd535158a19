package model

import "github.com/shopspring/decimal"

// MarketplaceStats summarises marketplace activity for one user.
// Listing and earnings figures are only set for farmers; spend only for buyers.
type MarketplaceStats struct {
	Role           Role             `json:"role"`
	TotalListings  *int             `json:"total_listings,omitempty"`
	ActiveListings *int             `json:"active_listings,omitempty"`
	TotalOrders    int              `json:"total_orders"`
	PendingOrders  int              `json:"pending_orders"`
	TotalEarnings  *decimal.Decimal `json:"total_earnings,omitempty"`
	TotalSpent     *decimal.Decimal `json:"total_spent,omitempty"`
}
